// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() from an init() function; cmd/web imports the
// component packages for side effect, injects shared dependencies via
// Init(Deps), applies each component's Migrations(), and mounts Routes()
// at the component's BasePath.
package component

import (
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/salminhosting/hostadmin/internal/activation"
	"github.com/salminhosting/hostadmin/internal/admin"
	"github.com/salminhosting/hostadmin/internal/client"
	"github.com/salminhosting/hostadmin/internal/config"
	"github.com/salminhosting/hostadmin/internal/notify"
	"github.com/salminhosting/hostadmin/internal/statuscache"
)

// Deps is the shared wiring handed to every component at boot.  Notifier
// is nil when outbound notifications are disabled.
type Deps struct {
	Cfg        *config.Config
	Log        *zap.SugaredLogger
	Repo       *client.Repository
	Activation *activation.Service
	Status     *statuscache.Cache
	Notifier   *notify.Webhook
	Admins     *admin.Store
	Sessions   *admin.Sessions
	DBPing     func() error
}

// Component contract.
//
// Routes() mounts every endpoint relative to BasePath(), e.g.:
//
//	r := chi.NewRouter()
//	r.Post("/sweep", c.handleSweep)
//	return r
//
// Migrations() may return nil when the component owns no schema.
type Component interface {
	Name() string
	BasePath() string
	Init(Deps) error
	Routes() chi.Router
	Migrations() []string
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component sorted by name, so migration and
// mount order are deterministic.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
