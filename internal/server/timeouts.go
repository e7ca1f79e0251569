// internal/server/timeouts.go
//
// HTTP server helper with robust timeouts.
//
//   • ReadTimeout   – abort slow-loris headers
//   • WriteTimeout  – cap total response time
//   • IdleTimeout   – close keep-alives on idle clients
//
// The dispatcher uses New by default; cmd/web swaps in NewWithTimeouts fed
// from the http section of the config.

package server

import (
	"net/http"
	"time"
)

// Timeouts groups the three server deadlines.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

// DefaultTimeouts are used by New.
var DefaultTimeouts = Timeouts{
	Read:  10 * time.Second,
	Write: 15 * time.Second,
	Idle:  60 * time.Second,
}

// New constructs an *http.Server with DefaultTimeouts.
func New(addr string, handler http.Handler) *http.Server {
	return NewWithTimeouts(addr, handler, DefaultTimeouts)
}

// NewWithTimeouts constructs an *http.Server; zero fields fall back to the
// defaults.
func NewWithTimeouts(addr string, handler http.Handler, t Timeouts) *http.Server {
	if t.Read == 0 {
		t.Read = DefaultTimeouts.Read
	}
	if t.Write == 0 {
		t.Write = DefaultTimeouts.Write
	}
	if t.Idle == 0 {
		t.Idle = DefaultTimeouts.Idle
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       t.Read,
		ReadHeaderTimeout: t.Read,
		WriteTimeout:      t.Write,
		IdleTimeout:       t.Idle,
	}
}
