// internal/config/model.go
//
// Typed configuration model for the hosting-admin service.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   - optional `conf/.env`                        – dotenv values,
//   - `conf/global.yaml`                          – primary static file,
//   - `HOSTADMIN_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.  Validation happens immediately
// after unmarshal; the service fails fast if required fields are missing.
//
// Notes
// -----
//   - Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   - The `Paths` block is filled at runtime; YAML must not try to set it.
package config

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

// Database holds the control-plane DSN.  The DSN is usually a Vault
// indirection so the password never touches flat files.
type Database struct {
	DSN string `koanf:"dsn" validate:"required"`
}

// Billing tunes the expiry sweep.  GraceDays is the number of days a
// confirmed payment keeps a site active; a payment older than the grace
// window suspends the site on the next sweep.
type Billing struct {
	GraceDays int `koanf:"grace_days" validate:"gte=1"`
}

// PayPal carries the checkout client id surfaced to renewal pages.
type PayPal struct {
	ClientID string `koanf:"client_id" validate:"required"`
}

// Notify points at the automation webhook (n8n) that sends client email.
// Empty disables outbound notifications; state changes still land.
type Notify struct {
	WebhookURL string `koanf:"webhook_url" validate:"omitempty,url"`
}

// StatusCache tunes the per-domain activation-status cache consumed by the
// public renewal endpoints.
type StatusCache struct {
	TTLSeconds int `koanf:"ttl_seconds" validate:"gte=1"`
	MaxEntries int `koanf:"max_entries" validate:"gte=1"`
}

// Admin configures the bootstrap operator account and session signing.
// Email + Password are consumed once at boot to ensure the account exists;
// SessionKey signs portal JWTs and is always a secret.
type Admin struct {
	Email      string `koanf:"email" validate:"omitempty,email"`
	Password   string `koanf:"password"`
	SessionKey string `koanf:"session_key" validate:"required,min=16"`
}

// Geo optionally points at a MaxMind GeoLite2-City database used to enrich
// access logs.  Empty disables geo lookups.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

// Log toggles debug-level output.
type Log struct {
	Debug bool `koanf:"debug"`
}

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // HOSTADMIN_ROOT or discovered parent
}

// Config is the root of the tree.
type Config struct {
	HTTP        HTTP        `koanf:"http"`
	Database    Database    `koanf:"database"`
	Billing     Billing     `koanf:"billing"`
	PayPal      PayPal      `koanf:"paypal"`
	Notify      Notify      `koanf:"notify"`
	StatusCache StatusCache `koanf:"status_cache"`
	Admin       Admin       `koanf:"admin"`
	Geo         Geo         `koanf:"geo"`
	Log         Log         `koanf:"log"`
	Paths       Paths       `koanf:"-"`
}
