// endpoint/endpoint.go
//
// Endpoint declaration.
//
// Context
// -------
// An endpoint is a URL pattern plus up to seven verb handlers.  Concrete
// types embed Base, override the verbs they serve, and are declared with a
// constructor so the dispatcher can build a fresh instance per request:
//
//	type UserEndpoint struct{ endpoint.Base }
//
//	func (e *UserEndpoint) Get(p endpoint.Params) (any, error) {
//		return map[string]string{"id": p.Get("id")}, nil
//	}
//
//	var Users = endpoint.Declare("/users/{id}", func() endpoint.Handler {
//		return &UserEndpoint{}
//	})
//
// Verbs left alone answer 405 through Base.
package endpoint

import (
	"net/http"

	"github.com/illBeRoy/andromeda/appctx"
	"github.com/illBeRoy/andromeda/httperr"
)

// Methods lists the seven verbs every endpoint is registered for, in
// registration order.
var Methods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
	http.MethodOptions,
	http.MethodHead,
	http.MethodPatch,
}

// Params holds named URL parameters, e.g. /users/{id} → {"id": "42"}.
type Params map[string]string

// Get returns the parameter or "".
func (p Params) Get(name string) string { return p[name] }

// Handler is the contract the dispatcher drives.  Embed Base to get Bind
// and the 405 defaults.
type Handler interface {
	Bind(r *http.Request, c *appctx.Context)

	Get(p Params) (any, error)
	Post(p Params) (any, error)
	Put(p Params) (any, error)
	Delete(p Params) (any, error)
	Options(p Params) (any, error)
	Head(p Params) (any, error)
	Patch(p Params) (any, error)
}

// Base carries the per-request inputs.  Request is owned by net/http and
// Context is the dispatcher's shared instance.
type Base struct {
	Request *http.Request
	Context *appctx.Context
}

// Bind is called by the dispatcher right after construction.
func (b *Base) Bind(r *http.Request, c *appctx.Context) {
	b.Request = r
	b.Context = c
}

func (b *Base) Get(Params) (any, error)     { return nil, httperr.MethodNotAllowed() }
func (b *Base) Post(Params) (any, error)    { return nil, httperr.MethodNotAllowed() }
func (b *Base) Put(Params) (any, error)     { return nil, httperr.MethodNotAllowed() }
func (b *Base) Delete(Params) (any, error)  { return nil, httperr.MethodNotAllowed() }
func (b *Base) Options(Params) (any, error) { return nil, httperr.MethodNotAllowed() }
func (b *Base) Head(Params) (any, error)    { return nil, httperr.MethodNotAllowed() }
func (b *Base) Patch(Params) (any, error)   { return nil, httperr.MethodNotAllowed() }

// Descriptor pairs a URL pattern with a constructor.  It is immutable once
// registered.
type Descriptor struct {
	Pattern string
	New     func() Handler
}

// Declare builds a Descriptor.
func Declare(pattern string, newFn func() Handler) Descriptor {
	return Descriptor{Pattern: pattern, New: newFn}
}

// Invoke calls the verb method of h matching method.  Unknown verbs get 405.
func Invoke(h Handler, method string, p Params) (any, error) {
	switch method {
	case http.MethodGet:
		return h.Get(p)
	case http.MethodPost:
		return h.Post(p)
	case http.MethodPut:
		return h.Put(p)
	case http.MethodDelete:
		return h.Delete(p)
	case http.MethodOptions:
		return h.Options(p)
	case http.MethodHead:
		return h.Head(p)
	case http.MethodPatch:
		return h.Patch(p)
	}
	return nil, httperr.MethodNotAllowed()
}
