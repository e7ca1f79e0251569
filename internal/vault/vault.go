// internal/vault/vault.go
//
// Vault client wrapper.
//
// Context
// -------
//   - Concurrency-safe wrapper around the HashiCorp Vault Go SDK.
//   - Background token renewal, KV-v2 reads, and a bounded TTL cache.
//   - Concurrent lookups of the same key share one Vault round-trip.
//   - Config values may reference a secret as `vault:<mount>/<path>#<key>`;
//     Resolve turns such a reference into the plain value and passes any
//     other string through unchanged.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(ctx, zap.L())
//  2. pw, err := cli.Resolve(ctx, cfg.Database.Password)
//  3. _ = d.AddContext("secrets", cli)   // endpoints may call GetKV
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/illBeRoy/andromeda/internal/cache"
)

const (
	// RefPrefix marks a config value that lives in Vault.
	RefPrefix = "vault:"

	// DefaultTTL is used by Resolve.
	DefaultTTL = 5 * time.Minute

	cacheEntries = 256
)

var (
	ErrBadRef      = errors.New("vault reference must look like vault:<mount>/<path>#<key>")
	ErrKeyMissing  = errors.New("key not found in secret")
	ErrNotString   = errors.New("secret value is not a string")
	ErrEmptyLookup = errors.New("secret path and key must be non-empty")
)

//
// SECTION 1.  Public façade
//

// kvReader is the slice of the SDK the client needs; tests replace it.
type kvReader interface {
	ReadKV(ctx context.Context, mount, path string) (map[string]any, error)
}

// Client is safe for concurrent use.  Create once at startup.  Zero value
// is invalid.
type Client struct {
	api *vault.Client
	kv  kvReader
	log *zap.Logger

	sfg   singleflight.Group
	cache *cache.LRU[string, cached]
}

type cached struct {
	val string
	exp time.Time
}

// sdkReader adapts *vault.Client to kvReader.
type sdkReader struct{ api *vault.Client }

func (s sdkReader) ReadKV(ctx context.Context, mount, path string) (map[string]any, error) {
	sec, err := s.api.KVv2(mount).Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return sec.Data, nil
}

// New constructs a Vault client and starts a background token-renewal loop
// bound to ctx.
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – initial token.
func New(ctx context.Context, log *zap.Logger) (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		apiCli.SetToken(tok)
	}

	c := newClient(sdkReader{api: apiCli}, log)
	c.api = apiCli
	go c.renewLoop(ctx)
	return c, nil
}

func newClient(kv kvReader, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		kv:    kv,
		log:   log.Named("vault"),
		cache: cache.New[string, cached](cacheEntries),
	}
}

// GetKV fetches a single key from a KV-v2 secret.  If ttl > 0 the result
// is cached for that duration.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", ErrEmptyLookup
	}

	canonical := secretPath + "#" + key
	if ttl > 0 {
		if cv, ok := c.cache.Get(canonical); ok && time.Now().Before(cv.exp) {
			return cv.val, nil
		}
	}

	v, err, _ := c.sfg.Do(canonical, func() (any, error) {
		mount, rel := splitMount(secretPath)
		data, err := c.kv.ReadKV(ctx, mount, rel)
		if err != nil {
			return nil, fmt.Errorf("vault get %s: %w", secretPath, err)
		}

		raw, ok := data[key]
		if !ok {
			return nil, fmt.Errorf("%w: %q in %q", ErrKeyMissing, key, secretPath)
		}
		sval, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s#%s", ErrNotString, secretPath, key)
		}

		if ttl > 0 {
			c.cache.Add(canonical, cached{val: sval, exp: time.Now().Add(ttl)})
		}
		return sval, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Resolve returns value unchanged unless it is a vault: reference.
func (c *Client) Resolve(ctx context.Context, value string) (string, error) {
	if !IsRef(value) {
		return value, nil
	}
	path, key, err := ParseRef(value)
	if err != nil {
		return "", err
	}
	return c.GetKV(ctx, path, key, DefaultTTL)
}

// IsRef reports whether value is a vault: reference.
func IsRef(value string) bool { return strings.HasPrefix(value, RefPrefix) }

// ParseRef splits "vault:secret/app#db" into ("secret/app", "db").
func ParseRef(ref string) (path, key string, err error) {
	body, ok := strings.CutPrefix(ref, RefPrefix)
	if !ok {
		return "", "", ErrBadRef
	}
	path, key, ok = strings.Cut(body, "#")
	if !ok || path == "" || key == "" || !strings.Contains(path, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrBadRef, ref)
	}
	return path, key, nil
}

//
// SECTION 2.  Background token renewal
//

func (c *Client) renewLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		sec, err := c.api.Auth().Token().RenewSelf(0)
		if err != nil {
			c.log.Warn("token renew self failed", zap.Error(err))
			backoff(ctx, 30*time.Second)
			continue
		}
		if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
			c.log.Info("token is not renewable, sleeping 1h")
			backoff(ctx, time.Hour)
			continue
		}

		w, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{Secret: sec})
		if err != nil {
			c.log.Warn("lifetime watcher init failed", zap.Error(err))
			backoff(ctx, 30*time.Second)
			continue
		}
		c.watch(ctx, w)
	}
}

// watch blocks until the watcher stops or ctx ends.
func (c *Client) watch(ctx context.Context, w *vault.LifetimeWatcher) {
	go w.Start()
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-w.DoneCh():
			if err != nil {
				c.log.Warn("token renewal stopped", zap.Error(err))
			}
			backoff(ctx, 15*time.Second)
			return
		case ev := <-w.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				c.log.Debug("token renewed", zap.Int("ttl_seconds", ev.Secret.Auth.LeaseDuration))
			}
		}
	}
}

//
// SECTION 3.  Helpers
//

func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(p, "/")
	return mount, rel
}

func backoff(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
