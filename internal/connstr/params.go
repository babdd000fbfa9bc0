package connstr

import (
	"net/url"
	"strings"
)

type param struct {
	key   string
	value string
}

// params is an ordered query parameter list with URLSearchParams-style
// set/get. Keys are case-sensitive.
type params []param

// parseParams decodes a raw query, with or without the leading '?'.
// Undecodable pairs are kept as written.
func parseParams(raw string) params {
	raw = strings.TrimPrefix(raw, "?")
	if raw == "" {
		return nil
	}
	var ps params
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		ps = append(ps, param{key: unescapeForm(k), value: unescapeForm(v)})
	}
	return ps
}

func unescapeForm(s string) string {
	v, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return v
}

func (ps params) get(key string) (string, bool) {
	for _, p := range ps {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}

// set replaces the first occurrence of key and drops any later ones, or
// appends key when it is absent.
func (ps params) set(key, value string) params {
	var out params
	found := false
	for _, p := range ps {
		if p.key != key {
			out = append(out, p)
			continue
		}
		if !found {
			out = append(out, param{key: key, value: value})
			found = true
		}
	}
	if !found {
		out = append(out, param{key: key, value: value})
	}
	return out
}

// encode serializes the list as application/x-www-form-urlencoded.
func (ps params) encode() string {
	var b strings.Builder
	for i, p := range ps {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escapeForm(p.key))
		b.WriteByte('=')
		b.WriteString(escapeForm(p.value))
	}
	return b.String()
}

const upperhex = "0123456789ABCDEF"

// escapeForm keeps ASCII alphanumerics and *-._, turns spaces into '+' and
// percent-encodes every other byte.
func escapeForm(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9',
			c == '*', c == '-', c == '.', c == '_':
			b.WriteByte(c)
		case c == ' ':
			b.WriteByte('+')
		default:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
		}
	}
	return b.String()
}
