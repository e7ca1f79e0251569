// cmd/web/main.go
//
// andromeda – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load layered config (defaults → conf/.env → conf/global.yaml → env).
//
//  2. Start daily rotating logger (tees to console when configured or when
//     running in a TTY).
//
//  3. When a database DSN is configured, resolve its password (plain or
//     `vault:` reference), open the pool, run component migrations, and
//     store the pool in the dispatcher context under "db".
//
//  4. Open the optional GeoLite2 database for request enrichment.
//
//  5. Install response middlewares (request id, security headers, access
//     log) and the request-info wrapper.
//
//  6. Mount Prometheus on the configured path.
//
//  7. Install every registered component and Run.
package main

import (
	"context"
	"net/http"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/illBeRoy/andromeda/dispatch"
	"github.com/illBeRoy/andromeda/internal/component"
	"github.com/illBeRoy/andromeda/internal/config"
	"github.com/illBeRoy/andromeda/internal/database"
	"github.com/illBeRoy/andromeda/internal/logger"
	"github.com/illBeRoy/andromeda/internal/middleware"
	"github.com/illBeRoy/andromeda/internal/requestinfo"
	"github.com/illBeRoy/andromeda/internal/server"
	"github.com/illBeRoy/andromeda/internal/vault"

	"github.com/illBeRoy/andromeda/components/users"
	_ "github.com/illBeRoy/andromeda/components/whoami"
)

const appName = "andromeda"

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.S().Fatalw("load config", "err", err)
	}

	logOut, err := logger.New(cfg.Log.Dir, cfg.Log.Tee || runningInTTY())
	if err != nil {
		zap.S().Fatalw("start logger", "err", err)
	}
	defer func() { _ = logOut.Sync() }()
	log := logOut.Desugar()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := dispatch.New(appName,
		dispatch.WithLogger(log),
		dispatch.WithServerFactory(func(addr string, h http.Handler) *http.Server {
			return server.NewWithTimeouts(addr, h, server.Timeouts{
				Read:  cfg.HTTP.ReadTimeout,
				Write: cfg.HTTP.WriteTimeout,
				Idle:  cfg.HTTP.IdleTimeout,
			})
		}),
	)

	comps := component.All()

	if cfg.Database.DSN != "" {
		db, err := openDB(ctx, cfg.Database, log)
		if err != nil {
			logOut.Fatalw("open database", "err", err)
		}
		defer db.Close()

		if err := component.Migrate(ctx, db, comps...); err != nil {
			logOut.Fatalw("migrate", "err", err)
		}
		must(logOut, d.AddContext(users.ContextKey, db))
	} else {
		logOut.Warn("database.dsn not set; database-backed endpoints will answer 503")
	}

	if cfg.Geo.DBPath != "" {
		if err := requestinfo.InitGeo(cfg.Geo.DBPath); err != nil {
			logOut.Warnw("geo lookups disabled", "err", err)
		} else {
			defer func() { _ = requestinfo.CloseGeo() }()
		}
	}

	must(logOut, d.UseMiddleware(middleware.RequestID))
	if cfg.Security.Headers {
		must(logOut, d.UseMiddleware(middleware.Security))
	}
	must(logOut, d.UseMiddleware(middleware.Logging))
	must(logOut, d.Wrap(requestinfo.Enrich))

	if cfg.Metrics.Enabled {
		must(logOut, d.Mount(cfg.Metrics.Path, promhttp.Handler()))
	}

	must(logOut, component.Install(d, comps...))
	logOut.Infow("components installed", "count", len(comps), "routes", len(d.Routes()))

	if err := d.Run(cfg.HTTP.Port, cfg.HTTP.Debug); err != nil {
		logOut.Fatalw("server stopped", "err", err)
	}
}

// openDB resolves the configured password and opens the pool.  The
// Vault client is only created when the password is a vault: reference.
func openDB(ctx context.Context, c config.Database, log *zap.Logger) (*sqlx.DB, error) {
	pw := c.Password
	if vault.IsRef(pw) {
		vc, err := vault.New(ctx, log)
		if err != nil {
			return nil, err
		}
		if pw, err = vc.Resolve(ctx, pw); err != nil {
			return nil, err
		}
	}

	dsn, err := database.WithPassword(c.DSN, pw)
	if err != nil {
		return nil, err
	}
	return database.Open(ctx, dsn)
}

func must(log *zap.SugaredLogger, err error) {
	if err != nil {
		log.Fatalw("bootstrap", "err", err)
	}
}
