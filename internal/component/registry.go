// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  cmd/web blank-imports the
// components it wants and calls Install, which registers every
// component's endpoint descriptors on the dispatcher and, when the
// component implements Initializer, invokes Init with the shared context.

package component

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/illBeRoy/andromeda/appctx"
	"github.com/illBeRoy/andromeda/dispatch"
	"github.com/illBeRoy/andromeda/endpoint"
)

// Component contract.  Endpoints returns the descriptors to register;
// each pattern must be unique across all installed components.
type Component interface {
	Name() string
	Endpoints() []endpoint.Descriptor
}

// Initializer is optional.  Install calls Init once, after the
// dispatcher's context has been populated and before Freeze.
type Initializer interface {
	Init(*appctx.Context) error
}

// Migrator is optional.  Migrate applies the statements in order; each
// one should be idempotent (CREATE TABLE IF NOT EXISTS ...).
type Migrator interface {
	Migrations() []string
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.  A second
// component with the same name replaces the first.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component sorted by name, so route
// identifiers are stable between runs.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Install initialises cs and registers their endpoints on d.
func Install(d *dispatch.Dispatcher, cs ...Component) error {
	for _, c := range cs {
		if in, ok := c.(Initializer); ok {
			if err := in.Init(d.Context()); err != nil {
				return fmt.Errorf("component %s: init: %w", c.Name(), err)
			}
		}
		if err := d.Register(c.Endpoints()...); err != nil {
			return fmt.Errorf("component %s: %w", c.Name(), err)
		}
	}
	return nil
}

// Migrate runs every Migrator's statements against db.
func Migrate(ctx context.Context, db *sqlx.DB, cs ...Component) error {
	for _, c := range cs {
		m, ok := c.(Migrator)
		if !ok {
			continue
		}
		for i, stmt := range m.Migrations() {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("component %s: migration %d: %w", c.Name(), i, err)
			}
		}
	}
	return nil
}
