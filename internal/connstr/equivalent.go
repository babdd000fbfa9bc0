package connstr

import (
	"fmt"
	"slices"
)

// Difference is one way two connection strings disagree.
type Difference struct {
	// Field is srv, hosts, user, password, path or param.
	Field string
	// Param is the query key when Field is param.
	Param string
	// MissingOn is "left" or "right" when Param is absent on that side, and
	// empty when both sides carry it with different values.
	MissingOn string

	text string
}

func (d Difference) String() string {
	return d.text
}

// managedParams are the query keys Build sets on Cosmos DB accounts.
var managedParams = []string{"ssl", "replicaSet", "retrywrites", "maxIdleTimeMS", "appName"}

// OnlyAugmented reports whether diffs, taken from Diff(original, rebuilt),
// are all Cosmos DB parameters that Build added to or overwrote in the
// rebuilt string. It is false for an empty list.
func OnlyAugmented(diffs []Difference) bool {
	if len(diffs) == 0 {
		return false
	}
	for _, d := range diffs {
		if d.Field != "param" || !slices.Contains(managedParams, d.Param) {
			return false
		}
		if d.MissingOn == "right" {
			return false
		}
	}
	return true
}

// Equivalent reports whether two connection strings address the same hosts
// with the same credentials, path and query parameters. Parameter order and
// encoding are ignored, as is the difference between an empty path and "/".
func Equivalent(a, b string) (bool, error) {
	diffs, err := Diff(a, b)
	if err != nil {
		return false, err
	}
	return len(diffs) == 0, nil
}

// Compare returns a human readable line for every difference between a and b.
// Passwords are never included in the output.
func Compare(a, b string) ([]string, error) {
	diffs, err := Diff(a, b)
	if err != nil {
		return nil, err
	}
	lines := make([]string, len(diffs))
	for i, d := range diffs {
		lines[i] = d.String()
	}
	return lines, nil
}

// Diff parses a and b and lists their differences.
func Diff(a, b string) ([]Difference, error) {
	oa, err := Parse(a)
	if err != nil {
		return nil, fmt.Errorf("left: %w", err)
	}
	ob, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("right: %w", err)
	}

	var diffs []Difference
	if oa.IsServer != ob.IsServer {
		diffs = append(diffs, Difference{Field: "srv", text: fmt.Sprintf("srv: %t != %t", oa.IsServer, ob.IsServer)})
	}
	if !slices.Equal(oa.Hosts(), ob.Hosts()) {
		diffs = append(diffs, Difference{Field: "hosts", text: fmt.Sprintf("hosts: %q != %q", oa.Server, ob.Server)})
	}
	if oa.User != ob.User {
		diffs = append(diffs, Difference{Field: "user", text: fmt.Sprintf("user: %q != %q", oa.User, ob.User)})
	}
	if oa.Password != ob.Password {
		diffs = append(diffs, Difference{Field: "password", text: "password differs"})
	}
	if oa.Pathname != ob.Pathname {
		diffs = append(diffs, Difference{Field: "path", text: fmt.Sprintf("path: %q != %q", oa.Pathname, ob.Pathname)})
	}

	pa, pb := parseParams(oa.Search), parseParams(ob.Search)
	diffs = append(diffs, missingParams(pa, pb, "right")...)
	diffs = append(diffs, missingParams(pb, pa, "left")...)

	return diffs, nil
}

// missingParams lists keys of from that are absent from, or have a different
// first value in, to.
func missingParams(from, to params, side string) []Difference {
	var diffs []Difference
	seen := make(map[string]bool, len(from))
	for _, p := range from {
		if seen[p.key] {
			continue
		}
		seen[p.key] = true
		want, _ := from.get(p.key)
		got, ok := to.get(p.key)
		switch {
		case !ok:
			diffs = append(diffs, Difference{
				Field:     "param",
				Param:     p.key,
				MissingOn: side,
				text:      fmt.Sprintf("param %s missing on %s", p.key, side),
			})
		case got != want && side == "right":
			diffs = append(diffs, Difference{
				Field: "param",
				Param: p.key,
				text:  fmt.Sprintf("param %s: %q != %q", p.key, want, got),
			})
		}
	}
	return diffs
}
