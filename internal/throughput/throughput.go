// Package throughput changes the provisioned request units of a database or
// collection, either to a fixed value (manual) or to autoscale.
package throughput

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/walkerscm/cosmosctl/internal/logger"
)

var (
	// ErrAlreadySet is returned when the requested change would be a no-op.
	ErrAlreadySet = errors.New("throughput already set")
	// ErrNotProvisioned is wrapped by clients when a target has no throughput
	// of its own, such as a collection on its database's shared throughput.
	ErrNotProvisioned = errors.New("no dedicated throughput")
)

// DefaultCollectionRU is the throughput given to new collections.
const DefaultCollectionRU = 400

// Mode is how throughput is provisioned.
type Mode int

const (
	// Autoscale scales between a tenth of the maximum RU/s and the maximum.
	Autoscale Mode = iota + 1
	// Manual provisions a fixed number of RU/s.
	Manual
)

func (m Mode) String() string {
	switch m {
	case Autoscale:
		return "autoscale"
	case Manual:
		return "manual"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "autoscale" or "manual" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "autoscale", "auto":
		return Autoscale, nil
	case "manual", "set", "fixed":
		return Manual, nil
	}
	return 0, fmt.Errorf("unknown throughput mode %q (want autoscale or manual)", s)
}

// Target names a database, or a collection when Collection is set.
type Target struct {
	Database   string
	Collection string
}

func (t Target) String() string {
	if t.Collection == "" {
		return t.Database
	}
	return t.Database + "." + t.Collection
}

// Setting is the current throughput of a target.
type Setting struct {
	Throughput             int `json:"throughput,omitempty" yaml:"throughput,omitempty"`
	AutoscaleMaxThroughput int `json:"autoscaleMaxThroughput,omitempty" yaml:"autoscaleMaxThroughput,omitempty"`
}

// IsAutoscale reports whether autoscale settings are present.
func (s Setting) IsAutoscale() bool {
	return s.AutoscaleMaxThroughput > 0
}

func (s Setting) String() string {
	if s.IsAutoscale() {
		return fmt.Sprintf("Autoscale (max %d RU/s)", s.AutoscaleMaxThroughput)
	}
	return fmt.Sprintf("Manual (%d RU/s)", s.Throughput)
}

// Client is the management API surface needed to change throughput.
type Client interface {
	GetThroughput(ctx context.Context, t Target) (Setting, error)
	UpdateThroughput(ctx context.Context, t Target, ru int) (Setting, error)
	MigrateToAutoscale(ctx context.Context, t Target) (Setting, error)
	MigrateToManual(ctx context.Context, t Target) (Setting, error)
}

// Action describes what Apply did or would do.
type Action int

const (
	ActionNone Action = iota
	ActionMigrateToAutoscale
	ActionUpdate
	ActionMigrateToManual
)

func (a Action) String() string {
	switch a {
	case ActionMigrateToAutoscale:
		return "migrate to autoscale"
	case ActionUpdate:
		return "update throughput"
	case ActionMigrateToManual:
		return "migrate to manual throughput"
	}
	return "none"
}

// Change is a requested throughput. RU is only used by Manual.
type Change struct {
	Mode Mode
	RU   int
}

// Plan decides the action that moves current to the requested change.
func Plan(current Setting, c Change) (Action, error) {
	switch c.Mode {
	case Autoscale:
		return planAutoscale(current)
	case Manual:
		return planManual(current, c.RU)
	}
	return ActionNone, fmt.Errorf("unsupported mode %v", c.Mode)
}

func planAutoscale(current Setting) (Action, error) {
	if current.IsAutoscale() {
		return ActionNone, fmt.Errorf("already set to autoscale: %w", ErrAlreadySet)
	}
	return ActionMigrateToAutoscale, nil
}

func planManual(current Setting, ru int) (Action, error) {
	if ru <= 0 {
		return ActionNone, fmt.Errorf("throughput must be a positive number of RU/s, got %d", ru)
	}
	if current.IsAutoscale() {
		return ActionMigrateToManual, nil
	}
	if current.Throughput == ru {
		return ActionNone, fmt.Errorf("throughput already set at %d RU/s: %w", ru, ErrAlreadySet)
	}
	return ActionUpdate, nil
}

// Apply reads the current setting of t and carries out the planned action.
// Migrating to manual is followed by an update to the requested RU.
func Apply(ctx context.Context, client Client, t Target, c Change) (Action, Setting, error) {
	current, err := client.GetThroughput(ctx, t)
	if err != nil {
		return ActionNone, Setting{}, fmt.Errorf("reading throughput of %s: %w", t, err)
	}

	action, err := Plan(current, c)
	if err != nil {
		return ActionNone, current, err
	}

	log := logger.With("target", t.String(), "action", action.String())
	log.Info("changing throughput", "current", current.String(), "ru", c.RU)

	var updated Setting
	switch action {
	case ActionMigrateToAutoscale:
		updated, err = client.MigrateToAutoscale(ctx, t)
	case ActionMigrateToManual:
		if _, err = client.MigrateToManual(ctx, t); err != nil {
			break
		}
		updated, err = client.UpdateThroughput(ctx, t, c.RU)
	case ActionUpdate:
		updated, err = client.UpdateThroughput(ctx, t, c.RU)
	}
	if err != nil {
		log.Error("throughput change failed", "error", err)
		return action, current, fmt.Errorf("%s on %s: %w", action, t, err)
	}

	return action, updated, nil
}
