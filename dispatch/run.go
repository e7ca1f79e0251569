package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/illBeRoy/andromeda/internal/logger"
)

// ShutdownTimeout bounds graceful shutdown in Serve.
const ShutdownTimeout = 10 * time.Second

// Run freezes the dispatcher and serves on 0.0.0.0:port until the server
// fails or the process receives SIGINT/SIGTERM.  debug switches logging to
// debug level and logs the route table.
func (d *Dispatcher) Run(port int, debug bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return d.run(ctx, port, debug)
}

func (d *Dispatcher) run(ctx context.Context, port int, debug bool) error {
	if debug {
		logger.SetDebug(true)
		for _, rt := range d.Routes() {
			d.log.Debug("route", zap.String("id", rt.ID), zap.String("method", rt.Method), zap.String("pattern", rt.Pattern))
		}
	}
	return d.Serve(ctx, fmt.Sprintf("0.0.0.0:%d", port))
}

// Serve listens on addr and blocks until ctx is cancelled (graceful
// shutdown) or the server fails.
func (d *Dispatcher) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return d.ServeListener(ctx, ln)
}

// ServeListener is Serve over an existing listener.  The listener is
// closed on return.
func (d *Dispatcher) ServeListener(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	srv := d.newServer(ln.Addr().String(), d.Freeze())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.log.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		d.log.Info("shutting down")
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
