// Package connstr converts MongoDB connection strings to and from a
// structured Options record.
//
// Supported strings have the form
//
//	mongodb[+srv]://[user[:password]@]host1[,host2,...][/[database]][?options]
//
// Hosts are kept exactly as written, including percent-encoded socket paths
// such as %2Ftmp%2Fmongodb-27017.sock. Query strings are not validated.
package connstr

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	schemeStandard = "mongodb"
	schemeSRV      = "mongodb+srv"
)

var (
	// ErrNoHost is returned when a connection string names no host.
	ErrNoHost = errors.New("connection string has no host")
	// ErrInvalidScheme is returned for schemes other than mongodb and mongodb+srv.
	ErrInvalidScheme = errors.New("invalid connection string scheme")
	// ErrEmptyHost is returned when the host list has an empty entry, as in a,,b.
	ErrEmptyHost = errors.New("connection string has an empty host entry")
)

// Parse splits a connection string into Options. AuthenticationType is
// Integrated when no user is present and SqlLogin otherwise; Parse never
// produces AzureMFA.
func Parse(connectionString string) (Options, error) {
	scheme, rest, ok := strings.Cut(strings.TrimSpace(connectionString), "://")
	if !ok {
		return Options{}, fmt.Errorf("parsing %q: %w", connectionString, ErrInvalidScheme)
	}

	var opts Options
	switch scheme {
	case schemeStandard:
	case schemeSRV:
		opts.IsServer = true
	default:
		return Options{}, fmt.Errorf("parsing scheme %q: %w", scheme, ErrInvalidScheme)
	}

	// Fragments carry nothing for a driver.
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		rest = rest[:i]
	}

	authority, tail := rest, ""
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		authority, tail = rest[:i], rest[i:]
	}

	hostPart := authority
	if at := strings.LastIndexByte(authority, '@'); at >= 0 {
		userinfo := authority[:at]
		hostPart = authority[at+1:]

		rawUser, rawPass, _ := strings.Cut(userinfo, ":")
		opts.User = unescapeUserinfo(rawUser)
		opts.Password = unescapeUserinfo(rawPass)
	}

	hosts, err := splitHosts(hostPart)
	if err != nil {
		return Options{}, fmt.Errorf("parsing %q: %w", redactURL(connectionString), err)
	}
	if len(hosts) == 0 {
		return Options{}, fmt.Errorf("parsing %q: %w", redactURL(connectionString), ErrNoHost)
	}
	opts.Server = strings.Join(hosts, ",")

	if opts.User == "" {
		opts.AuthenticationType = Integrated
	} else {
		opts.AuthenticationType = SQLLogin
	}

	path, query, _ := strings.Cut(tail, "?")
	opts.Pathname = path
	if opts.Pathname == "" {
		opts.Pathname = "/"
	}
	if query != "" {
		opts.Search = "?" + query
	}

	return opts, nil
}

// splitHosts returns the comma separated entries of s, verbatim. A list made
// only of separators yields no hosts; an empty entry next to real hosts is
// ErrEmptyHost.
func splitHosts(s string) ([]string, error) {
	if strings.Trim(s, ",") == "" {
		return nil, nil
	}
	hosts := strings.Split(s, ",")
	for _, h := range hosts {
		if h == "" {
			return nil, ErrEmptyHost
		}
	}
	return hosts, nil
}

// unescapeUserinfo percent-decodes a user or password. Values with broken
// escapes are returned as written.
func unescapeUserinfo(s string) string {
	v, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return v
}

// redactURL hides the password of a connection string for error messages.
func redactURL(s string) string {
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok {
		return s
	}
	end := len(rest)
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		end = i
	}
	at := strings.LastIndexByte(rest[:end], '@')
	if at < 0 {
		return s
	}
	user, _, hasPass := strings.Cut(rest[:at], ":")
	if !hasPass {
		return s
	}
	return scheme + "://" + user + ":****" + rest[at:]
}
