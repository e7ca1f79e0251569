package dispatch

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/illBeRoy/andromeda/endpoint"
	"github.com/illBeRoy/andromeda/httperr"
	"github.com/illBeRoy/andromeda/internal/metrics"
)

const unmatchedRoute = "unmatched"

// endpointHandler is the chi handler for one (descriptor, verb) pair.
func (d *Dispatcher) endpointHandler(desc endpoint.Descriptor, method string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		out, err := d.call(desc, method, r, urlParams(r))

		var resp *Response
		if err != nil {
			resp = d.failure(r, desc.Pattern, err)
		} else {
			resp = d.success(r, desc.Pattern, out)
		}
		d.finish(w, resp, desc.Pattern, start)
	}
}

// call builds a fresh endpoint and invokes the verb.  Panics become errors.
func (d *Dispatcher) call(desc endpoint.Descriptor, method string, r *http.Request, p endpoint.Params) (out any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err = panicError(rec)
		}
	}()

	h := desc.New()
	h.Bind(r, d.ctx)
	return endpoint.Invoke(h, method, p)
}

// failure renders the structured or generic error path.
func (d *Dispatcher) failure(r *http.Request, route string, err error) *Response {
	if he, ok := httperr.As(err); ok {
		d.log.Debug("endpoint returned http error",
			zap.String("route", route),
			zap.String("method", r.Method),
			zap.Int("status", he.Status),
			zap.String("message", he.Message),
		)
		d.countError(metrics.KindStructured)
		return d.errorResponse(r, he.Status, he.Message, err)
	}

	d.log.Error("endpoint failed",
		zap.String("route", route),
		zap.String("method", r.Method),
		zap.Error(err),
	)
	d.countError(metrics.KindInternal)
	return d.errorResponse(r, http.StatusInternalServerError, err.Error(), err)
}

func (d *Dispatcher) success(r *http.Request, route string, out any) *Response {
	resp, err := renderValue(r, out)
	if err != nil {
		return d.failure(r, route, err)
	}
	return resp
}

func (d *Dispatcher) notFound(w http.ResponseWriter, r *http.Request) {
	d.countError(metrics.KindNotFound)
	he := httperr.NotFound()
	d.finish(w, d.errorResponse(r, he.Status, he.Message, he), unmatchedRoute, time.Now())
}

func (d *Dispatcher) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	d.countError(metrics.KindStructured)
	he := httperr.MethodNotAllowed()
	d.finish(w, d.errorResponse(r, he.Status, he.Message, he), routePattern(r), time.Now())
}

func (d *Dispatcher) errorResponse(r *http.Request, status int, message string, err error) *Response {
	resp := renderError(r, status, message)
	resp.Err = err
	return resp
}

// finish runs the middlewares, writes the response, and records metrics.
func (d *Dispatcher) finish(w http.ResponseWriter, resp *Response, route string, start time.Time) {
	resp = d.applyMiddlewares(resp, route)
	if err := resp.write(w); err != nil {
		d.log.Debug("response write failed", zap.String("route", route), zap.Error(err))
	}

	if d.metrics {
		metrics.RequestsTotal.WithLabelValues(resp.Request.Method, route, strconv.Itoa(resp.Status)).Inc()
		metrics.RequestDuration.WithLabelValues(resp.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// applyMiddlewares runs the chain in order.  A panicking middleware stops
// the chain; the client gets a 500 envelope that no later middleware sees.
func (d *Dispatcher) applyMiddlewares(resp *Response, route string) (out *Response) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err := panicError(rec)
			d.log.Error("response middleware failed",
				zap.String("route", route),
				zap.String("method", resp.Request.Method),
				zap.Error(err),
			)
			d.countError(metrics.KindInternal)
			out = d.errorResponse(resp.Request, http.StatusInternalServerError, err.Error(), err)
		}
	}()
	for _, mw := range d.middlewares {
		mw(resp)
	}
	return resp
}

func (d *Dispatcher) countError(kind string) {
	if d.metrics {
		metrics.RequestErrorsTotal.WithLabelValues(kind).Inc()
	}
}

// urlParams copies chi's matched parameters.
func urlParams(r *http.Request) endpoint.Params {
	rc := chi.RouteContext(r.Context())
	if rc == nil {
		return endpoint.Params{}
	}
	p := make(endpoint.Params, len(rc.URLParams.Keys))
	for i, k := range rc.URLParams.Keys {
		p[k] = rc.URLParams.Values[i]
	}
	return p
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRoute
}

func panicError(rec any) error {
	switch v := rec.(type) {
	case error:
		return v
	case string:
		return errors.New(v)
	default:
		return fmt.Errorf("%v", v)
	}
}
