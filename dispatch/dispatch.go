// dispatch/dispatch.go
//
// Endpoint dispatcher.
//
// Context
// -------
// A Dispatcher owns a chi router, the shared appctx.Context, and an ordered
// list of response middlewares.  Its life has two phases:
//
//  1. Build:  Register, AddContext, UseMiddleware, Wrap, and Mount.
//  2. Serve:  Freeze builds the router once; Run, Serve, and ServeHTTP all
//     freeze implicitly.  Build calls after that return ErrFrozen.
//
// Request life-cycle
// ------------------
//
//	chi match → fresh endpoint (Bind request + context) → verb method
//	  → value | Reply | *httperr.Error | other error | panic
//	  → Response → middlewares in order → written once
//
// Routing misses render 404 "not found", verbs chi does not know for a
// registered pattern render 405.  Nothing a handler does takes the
// process down.
package dispatch

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/illBeRoy/andromeda/appctx"
	"github.com/illBeRoy/andromeda/endpoint"
	"github.com/illBeRoy/andromeda/internal/metrics"
	"github.com/illBeRoy/andromeda/internal/server"
)

var (
	ErrFrozen            = errors.New("dispatcher is frozen; register before serving")
	ErrInvalidPattern    = errors.New("endpoint pattern must begin with '/'")
	ErrDuplicatePattern  = errors.New("endpoint pattern already registered")
	ErrInvalidDescriptor = errors.New("endpoint descriptor has no constructor")
	ErrNilMiddleware     = errors.New("middleware factory returned nil")
)

// Middleware observes and mutates an outgoing Response in place.
type Middleware func(*Response)

// MiddlewareFactory is invoked once, at registration, with the dispatcher.
type MiddlewareFactory func(app *Dispatcher) Middleware

// Route describes one registered verb.
type Route struct {
	ID      string // "endpoint.<n>"
	Method  string
	Pattern string
}

type mount struct {
	pattern string
	h       http.Handler
}

// Dispatcher routes requests to endpoints.  Construct with New.
type Dispatcher struct {
	name      string
	log       *zap.Logger
	ctx       *appctx.Context
	metrics   bool
	newServer func(addr string, h http.Handler) *http.Server

	mu          sync.Mutex
	frozen      bool
	descs       []endpoint.Descriptor
	patterns    map[string]struct{}
	routes      []Route
	middlewares []Middleware
	wrappers    []func(http.Handler) http.Handler
	mounts      []mount

	handler atomic.Pointer[chi.Mux]
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger replaces the global zap logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// WithMetrics toggles Prometheus instrumentation (on by default).
func WithMetrics(on bool) Option {
	return func(d *Dispatcher) { d.metrics = on }
}

// WithServerFactory replaces the *http.Server constructor used by Run.
func WithServerFactory(f func(addr string, h http.Handler) *http.Server) Option {
	return func(d *Dispatcher) { d.newServer = f }
}

// New returns a Dispatcher in its build phase.
func New(name string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		name:      name,
		log:       zap.L(),
		ctx:       appctx.New(),
		metrics:   true,
		newServer: server.New,
		patterns:  make(map[string]struct{}),
	}
	for _, o := range opts {
		o(d)
	}
	d.log = d.log.Named(name)
	return d
}

// Name returns the name given to New.
func (d *Dispatcher) Name() string { return d.name }

// Context returns the shared context handed to every endpoint.
func (d *Dispatcher) Context() *appctx.Context { return d.ctx }

// Logger returns the dispatcher's named logger.  Middleware factories use it.
func (d *Dispatcher) Logger() *zap.Logger { return d.log }

// Register adds every descriptor under all seven verbs.  Either all of
// them are registered or none is.
func (d *Dispatcher) Register(ds ...endpoint.Descriptor) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.frozen {
		return ErrFrozen
	}

	seen := make(map[string]struct{}, len(ds))
	for _, desc := range ds {
		if !strings.HasPrefix(desc.Pattern, "/") {
			return fmt.Errorf("%w: %q", ErrInvalidPattern, desc.Pattern)
		}
		if desc.New == nil {
			return fmt.Errorf("%w: %q", ErrInvalidDescriptor, desc.Pattern)
		}
		_, dupOld := d.patterns[desc.Pattern]
		_, dupNew := seen[desc.Pattern]
		if dupOld || dupNew {
			return fmt.Errorf("%w: %q", ErrDuplicatePattern, desc.Pattern)
		}
		seen[desc.Pattern] = struct{}{}
	}
	if err := d.checkRoutable(ds, nil); err != nil {
		return err
	}

	for _, desc := range ds {
		d.patterns[desc.Pattern] = struct{}{}
		d.descs = append(d.descs, desc)
		for _, m := range endpoint.Methods {
			d.routes = append(d.routes, Route{
				ID:      fmt.Sprintf("endpoint.%d", len(d.routes)),
				Method:  m,
				Pattern: desc.Pattern,
			})
		}
		if d.metrics {
			metrics.EndpointsRegistered.Inc()
		}
		d.log.Debug("endpoint registered", zap.String("pattern", desc.Pattern))
	}
	return nil
}

// AddContext sets an attribute on the shared context.  Last write wins.
func (d *Dispatcher) AddContext(name string, value any) error {
	d.mu.Lock()
	frozen := d.frozen
	d.mu.Unlock()
	if frozen {
		return ErrFrozen
	}
	return d.ctx.Set(name, value)
}

// UseMiddleware calls f once and appends the middleware it returns.
// Middlewares run on every response, success or error, in registration
// order.
func (d *Dispatcher) UseMiddleware(f MiddlewareFactory) error {
	d.mu.Lock()
	if d.frozen {
		d.mu.Unlock()
		return ErrFrozen
	}
	d.mu.Unlock()

	// f may call back into d (Logger, Context), so it runs unlocked.
	mw := f(d)
	if mw == nil {
		return ErrNilMiddleware
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.frozen {
		return ErrFrozen
	}
	d.middlewares = append(d.middlewares, mw)
	return nil
}

// Wrap installs a chi request-phase middleware, e.g. one that stores
// request metadata in r.Context().  Wrappers run before endpoint lookup.
func (d *Dispatcher) Wrap(mw func(http.Handler) http.Handler) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.frozen {
		return ErrFrozen
	}
	d.wrappers = append(d.wrappers, mw)
	return nil
}

// Mount attaches a plain http.Handler, bypassing the endpoint pipeline.
func (d *Dispatcher) Mount(pattern string, h http.Handler) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.frozen {
		return ErrFrozen
	}
	if !strings.HasPrefix(pattern, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}
	if _, dup := d.patterns[pattern]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicatePattern, pattern)
	}
	if err := d.checkRoutable(nil, &mount{pattern: pattern, h: h}); err != nil {
		return err
	}
	d.patterns[pattern] = struct{}{}
	d.mounts = append(d.mounts, mount{pattern: pattern, h: h})
	return nil
}

// Routes returns a copy of the route table.
func (d *Dispatcher) Routes() []Route {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Route, len(d.routes))
	copy(out, d.routes)
	return out
}

// Frozen reports whether the build phase is over.
func (d *Dispatcher) Frozen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frozen
}

// Freeze ends the build phase and returns the router.  It is idempotent.
func (d *Dispatcher) Freeze() http.Handler {
	if h := d.handler.Load(); h != nil {
		return h
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if h := d.handler.Load(); h != nil {
		return h
	}
	r := chi.NewRouter()
	for _, w := range d.wrappers {
		r.Use(w)
	}
	r.NotFound(d.notFound)
	r.MethodNotAllowed(d.methodNotAllowed)
	d.route(r, d.descs, d.mounts)

	d.frozen = true
	d.handler.Store(r)
	d.log.Info("dispatcher frozen",
		zap.Int("endpoints", len(d.descs)),
		zap.Int("middlewares", len(d.middlewares)),
	)
	return r
}

// ServeHTTP freezes on first use and serves the request.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.Freeze().ServeHTTP(w, r)
}

// route inserts mounts and every verb of each descriptor into r.
func (d *Dispatcher) route(r chi.Router, descs []endpoint.Descriptor, mounts []mount) {
	for _, m := range mounts {
		r.Mount(m.pattern, m.h)
	}
	for _, desc := range descs {
		for _, method := range endpoint.Methods {
			r.Method(method, desc.Pattern, d.endpointHandler(desc, method))
		}
	}
}

// checkRoutable replays the current table plus the candidates into a
// scratch router.  chi panics on malformed patterns ("/a/{id") and
// repeated parameter keys ("/a/{id}/{id}"); that panic is reported here
// as ErrInvalidPattern instead of surfacing in Freeze.  Caller holds d.mu.
func (d *Dispatcher) checkRoutable(descs []endpoint.Descriptor, m *mount) (err error) {
	mounts := d.mounts
	if m != nil {
		mounts = append(append([]mount(nil), d.mounts...), *m)
	}
	all := append(append([]endpoint.Descriptor(nil), d.descs...), descs...)

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidPattern, rec)
		}
	}()
	d.route(chi.NewRouter(), all, mounts)
	return nil
}
