// internal/config/loader.go
//
// Configuration loader.
//
// Context
// -------
// `Load()` builds one immutable `Config` struct from three layers (highest
// precedence last):
//
//  1. Optional `conf/.env` dotenv file.
//  2. `conf/global.yaml`.
//  3. Environment variables prefixed `HOSTADMIN_`, where `__` maps to "."
//     (e.g., `HOSTADMIN_HTTP__LISTEN_ADDR → http.listen_addr`).
//
// After merging, every leaf string carrying the `vault:` prefix is resolved
// through the Vault client, the tree is unmarshalled into strongly-typed
// structs, defaulted, validated, enriched with the runtime root path, and
// cached in an `atomic.Pointer` for lock-free reads.
//
// Logs use the global sugared logger (`zap.S()`) so boot issues surface
// before the file logger is installed.
package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/salminhosting/hostadmin/internal/vault"
)

var current atomic.Pointer[Config]

// rootDir resolves HOSTADMIN_ROOT or climbs directories until
// conf/global.yaml is found, so `go run ./cmd/web` works from any
// sub-directory.  Falls back to the bin/ executable heuristic.
func rootDir() string {
	if r := os.Getenv("HOSTADMIN_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

// Load reads .env, YAML, env overrides, resolves Vault refs, validates, and
// caches the Config.  vc may be nil when no value uses the vault: prefix
// (local development).
func Load(ctx context.Context, vc *vault.Client) (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}

	// Env overrides: HOSTADMIN_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider("HOSTADMIN_", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	if err := resolveSecrets(ctx, k, vc); err != nil {
		zap.S().Errorw("config vault resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	applyDefaults(&cfg)
	cfg.Paths.Root = root

	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"grace_days", cfg.Billing.GraceDays,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

// resolveSecrets replaces every vault:-prefixed leaf in place.  A vault:
// value with a nil client is a hard error; better to refuse to boot than to
// pass a raw Vault URI to a DSN parser.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, vc *vault.Client) error {
	for key, raw := range k.All() {
		s, ok := raw.(string)
		if !ok || !strings.HasPrefix(s, vault.Prefix) {
			continue
		}
		if vc == nil {
			return &MissingVaultError{Key: key}
		}
		val, err := vc.Resolve(ctx, s)
		if err != nil {
			return err
		}
		if err := k.Set(key, val); err != nil {
			return err
		}
	}
	return nil
}

// applyDefaults fills tunables the operator rarely overrides.
func applyDefaults(cfg *Config) {
	if cfg.Billing.GraceDays == 0 {
		cfg.Billing.GraceDays = 30
	}
	if cfg.StatusCache.TTLSeconds == 0 {
		cfg.StatusCache.TTLSeconds = 300 // 5 minutes
	}
	if cfg.StatusCache.MaxEntries == 0 {
		cfg.StatusCache.MaxEntries = 1024
	}
}

// MissingVaultError reports a vault: value seen while no client was wired.
type MissingVaultError struct{ Key string }

func (e *MissingVaultError) Error() string {
	return "config key " + e.Key + " uses vault: but no Vault client is configured"
}

// Get returns the last successfully loaded Config.
func Get() *Config { return current.Load() }
