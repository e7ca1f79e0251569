// internal/config/model.go
//
// Typed configuration model for the andromeda web binary.
//
// Context
// -------
// These structs define the shape of the tree that loader.go builds from
// three overlay layers:
//
//   • optional `.env`                              – dotenv values,
//   • `conf/global.yaml`                           – primary static file,
//   • `ANDROMEDA_`-prefixed environment overrides – highest precedence.
//
// `Database.Password` may hold a `vault:<mount>/<path>#<key>` reference.
// cmd/web resolves it through internal/vault before opening the pool; the
// model itself only ever stores strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • `Paths` is filled at runtime; YAML must not try to set it.

package config

import "time"

// HTTP holds web-server tunables.
type HTTP struct {
	Port         int           `koanf:"port"          validate:"required,min=1,max=65535"`
	Debug        bool          `koanf:"debug"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

// Log controls the zap file sink.  A relative Dir is resolved against
// Paths.Root.
type Log struct {
	Dir string `koanf:"dir" validate:"required"`
	Tee bool   `koanf:"tee"`
}

// Metrics controls the Prometheus endpoint.
type Metrics struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path" validate:"omitempty,startswith=/"`
}

// Database holds the DSN template and its secret.  An empty DSN runs the
// binary without a database; endpoints needing one answer 503.
type Database struct {
	DSN      string `koanf:"dsn"`
	Password string `koanf:"password" validate:"required_with=DSN"`
}

// Geo points at an optional GeoLite2-City database for request enrichment.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

// Security toggles the response security headers.
type Security struct {
	Headers bool `koanf:"headers"`
}

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // ANDROMEDA_ROOT or discovered parent
}

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Log      Log      `koanf:"log"`
	Metrics  Metrics  `koanf:"metrics"`
	Database Database `koanf:"database"`
	Geo      Geo      `koanf:"geo"`
	Security Security `koanf:"security"`
	Paths    Paths    `koanf:"-"`
}

// defaults seed the koanf tree before any file is read.
var defaults = map[string]any{
	"http.port":          8080,
	"http.read_timeout":  "10s",
	"http.write_timeout": "15s",
	"http.idle_timeout":  "60s",
	"log.dir":            "logs",
	"metrics.enabled":    true,
	"metrics.path":       "/metrics",
	"security.headers":   true,
}
