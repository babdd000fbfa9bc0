package throughput

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Lister enumerates the databases and collections of an account.
type Lister interface {
	ListDatabases(ctx context.Context) ([]string, error)
	ListCollections(ctx context.Context, database string) ([]string, error)
}

// Entry is the throughput of one database or collection. Dedicated is false
// when the target has no throughput of its own.
type Entry struct {
	Database   string  `json:"database" yaml:"database"`
	Collection string  `json:"collection,omitempty" yaml:"collection,omitempty"`
	Dedicated  bool    `json:"dedicated" yaml:"dedicated"`
	Setting    Setting `json:"setting" yaml:"setting"`
}

// Target returns the database or collection the entry describes.
func (e Entry) Target() Target {
	return Target{Database: e.Database, Collection: e.Collection}
}

// Report reads the throughput of every database, each followed by its
// collections. A non-empty database limits the report to that database.
func Report(ctx context.Context, c Client, l Lister, database string) ([]Entry, error) {
	databases := []string{database}
	if database == "" {
		var err error
		if databases, err = l.ListDatabases(ctx); err != nil {
			return nil, err
		}
		sort.Strings(databases)
	}

	var entries []Entry
	for _, db := range databases {
		e, err := entry(ctx, c, Target{Database: db})
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)

		colls, err := l.ListCollections(ctx, db)
		if err != nil {
			return nil, fmt.Errorf("listing collections of %s: %w", db, err)
		}
		sort.Strings(colls)
		for _, coll := range colls {
			e, err := entry(ctx, c, Target{Database: db, Collection: coll})
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func entry(ctx context.Context, c Client, t Target) (Entry, error) {
	e := Entry{Database: t.Database, Collection: t.Collection}
	setting, err := c.GetThroughput(ctx, t)
	switch {
	case errors.Is(err, ErrNotProvisioned):
		return e, nil
	case err != nil:
		return e, fmt.Errorf("reading throughput of %s: %w", t, err)
	}
	e.Dedicated = true
	e.Setting = setting
	return e, nil
}

// Provisioning is the throughput given to a new database or collection. The
// zero value provisions none, which leaves a collection on its database's
// shared throughput. For Autoscale, RU is the maximum.
type Provisioning struct {
	Mode Mode
	RU   int
}

// Validate checks that a provisioning mode comes with a positive RU.
func (p Provisioning) Validate() error {
	switch p.Mode {
	case 0:
		if p.RU != 0 {
			return fmt.Errorf("throughput of %d RU/s given without a mode", p.RU)
		}
		return nil
	case Autoscale, Manual:
		if p.RU <= 0 {
			return fmt.Errorf("%s throughput must be a positive number of RU/s, got %d", p.Mode, p.RU)
		}
		return nil
	}
	return fmt.Errorf("unsupported mode %v", p.Mode)
}

func (p Provisioning) String() string {
	switch p.Mode {
	case Autoscale:
		return fmt.Sprintf("autoscale (max %d RU/s)", p.RU)
	case Manual:
		return fmt.Sprintf("manual (%d RU/s)", p.RU)
	}
	return "no dedicated throughput"
}
