// appctx/appctx.go
//
// Shared application context.
//
// Context
// -------
// One *Context is created per dispatcher and handed to every endpoint
// instance, so a value added at startup (a DB pool, a secrets client, a
// feature flag) is visible to all requests.  Handlers may also write to it
// while serving.
//
// Notes
// -----
//   - Names must look like identifiers: a letter or underscore, then
//     letters, digits, or underscores.
//   - Last write wins.  There is no atomicity across several names; callers
//     that need coordination should store their own synchronised values.
//   - The mutex only keeps the map itself sound under concurrent writes.
package appctx

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrUnset is returned by Get when no value was stored under the name.
	ErrUnset = errors.New("context attribute not set")

	// ErrWrongType is returned by Value when the stored value has another type.
	ErrWrongType = errors.New("context attribute has a different type")

	// ErrInvalidName rejects names that are not identifiers.
	ErrInvalidName = errors.New("context attribute name is not an identifier")
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	if err := val.RegisterValidation("identifier", isIdentifier); err != nil {
		panic("appctx: register identifier rule: " + err.Error())
	}
	return val
}

func isIdentifier(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	for i, r := range s {
		switch {
		case r == '_', unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return s != ""
}

// Context is a registry of named values shared by every request.  The zero
// value is not usable; construct with New.
type Context struct {
	mu   sync.RWMutex
	vals map[string]any
}

// New returns an empty Context.
func New() *Context {
	return &Context{vals: make(map[string]any)}
}

// Set stores value under name, replacing any previous value.
func (c *Context) Set(name string, value any) error {
	if err := v.Var(name, "required,identifier"); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	c.mu.Lock()
	c.vals[name] = value
	c.mu.Unlock()
	return nil
}

// Get returns the value stored under name or ErrUnset.
func (c *Context) Get(name string) (any, error) {
	c.mu.RLock()
	val, ok := c.vals[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnset, name)
	}
	return val, nil
}

// MustGet is Get for values the caller knows were added at startup.  It
// panics when name is unset.
func (c *Context) MustGet(name string) any {
	val, err := c.Get(name)
	if err != nil {
		panic(err)
	}
	return val
}

// Has reports whether name is set.
func (c *Context) Has(name string) bool {
	c.mu.RLock()
	_, ok := c.vals[name]
	c.mu.RUnlock()
	return ok
}

// Names lists every set name in sorted order.
func (c *Context) Names() []string {
	c.mu.RLock()
	out := make([]string, 0, len(c.vals))
	for k := range c.vals {
		out = append(out, k)
	}
	c.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Value is the typed form of Get.
//
//	db, err := appctx.Value[*sqlx.DB](ctx, "db")
func Value[T any](c *Context, name string) (T, error) {
	var zero T
	raw, err := c.Get(name)
	if err != nil {
		return zero, err
	}
	typed, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q is %T", ErrWrongType, name, raw)
	}
	return typed, nil
}
