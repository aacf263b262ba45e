// internal/vault/vault.go
//
// HashiCorp Vault client for configuration secrets.
//
// Context
// -------
// Secrets (database password, PayPal client id, notification webhook URL,
// admin bootstrap password, session signing key) never live in YAML or the
// repository.  Any config value written as
//
//	vault:<mount>/<path>#<key>
//
// is resolved through this client by the config loader before the merged
// tree is unmarshalled.  The client is a concurrency-safe singleton: create
// it once during boot and hand it to config.Load.
//
// Environment expectations
// ------------------------
//   - VAULT_ADDR   – scheme and host of the Vault server.
//   - VAULT_TOKEN  – initial token (falls back to ~/.vault-token).
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
)

// Prefix marks a config value as a Vault indirection.
const Prefix = "vault:"

// Client wraps the Vault API with KV-v2 helpers and per-key caching.
// Zero value is invalid; use New.
type Client struct {
	api   *vault.Client
	logFn func(string, ...any)

	cacheMu sync.RWMutex
	cache   map[string]cached // "<path>#<key>" → value + expiry
}

type cached struct {
	val string
	exp time.Time
}

// New constructs a Client and starts a background token-renewal loop that
// runs until ctx is cancelled.
func New(ctx context.Context, logFn func(string, ...any)) (*Client, error) {
	if logFn == nil {
		logFn = func(string, ...any) {}
	}

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

	c := &Client{
		api:   apiCli,
		logFn: logFn,
		cache: make(map[string]cached),
	}

	go c.renewLoop(ctx)

	return c, nil
}

// Resolve maps "vault:<mount>/<path>#<key>" to the secret value.  Values
// without the prefix are returned untouched, which lets the config loader
// call Resolve on every string unconditionally.
func (c *Client) Resolve(ctx context.Context, v string) (string, error) {
	if !strings.HasPrefix(v, Prefix) {
		return v, nil
	}
	ref := strings.TrimPrefix(v, Prefix)
	path, key, ok := strings.Cut(ref, "#")
	if !ok {
		return "", fmt.Errorf("vault ref %q: want <mount>/<path>#<key>", v)
	}
	return c.GetKV(ctx, path, key, 5*time.Minute)
}

// GetKV fetches a single key from a KV-v2 secret.  If ttl > 0 the result is
// cached so repeated lookups within the TTL skip the network round-trip.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("secret path and key must be non-empty")
	}

	canonical := secretPath + "#" + key

	if ttl > 0 {
		c.cacheMu.RLock()
		if cv, ok := c.cache[canonical]; ok && time.Now().Before(cv.exp) {
			c.cacheMu.RUnlock()
			return cv.val, nil
		}
		c.cacheMu.RUnlock()
	}

	mount, rel := splitMount(secretPath)
	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}
	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s#%s is not a string", secretPath, key)
	}

	if ttl > 0 {
		c.cacheMu.Lock()
		c.cache[canonical] = cached{val: sval, exp: time.Now().Add(ttl)}
		c.cacheMu.Unlock()
	}

	return sval, nil
}

// renewLoop keeps the token alive.  Non-renewable tokens are probed hourly
// so a replaced token is picked up without a restart.
func (c *Client) renewLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		sec, err := c.api.Auth().Token().RenewSelf(0)
		if err != nil {
			c.logFn("vault: token renew self failed: %v", err)
			sleep(ctx, 30*time.Second)
			continue
		}
		if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
			c.logFn("vault: token is not renewable, sleeping 1h")
			sleep(ctx, time.Hour)
			continue
		}

		watcher, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{
			Secret: sec,
			Grace:  15 * time.Second,
		})
		if err != nil {
			c.logFn("vault: lifetime watcher init: %v", err)
			sleep(ctx, 30*time.Second)
			continue
		}

		go watcher.Start()

		watch := true
		for watch {
			select {
			case <-ctx.Done():
				watcher.Stop()
				return
			case err := <-watcher.DoneCh():
				watcher.Stop()
				if err != nil {
					c.logFn("vault: token renewal stopped: %v", err)
				}
				sleep(ctx, 15*time.Second)
				watch = false
			case ev := <-watcher.RenewCh():
				if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
					c.logFn("vault: token renewed, ttl=%ds", ev.Secret.Auth.LeaseDuration)
				}
			}
		}
	}
}

func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(p, "/")
	return
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
