// components/diag/diag.go
//
// Diagnostics component.  /debug echoes what the server sees for the
// current request (handy when a client site's status check misbehaves
// behind a proxy) and /debug/health pings the store for uptime checks.
package diag

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/salminhosting/hostadmin/internal/component"
	"github.com/salminhosting/hostadmin/internal/httpx"
	"github.com/salminhosting/hostadmin/internal/requestinfo"
)

var _ component.Component = (*Component)(nil)

// Component holds the diagnostics wiring.
type Component struct {
	deps component.Deps
}

func init() { component.Register(&Component{}) }

func (c *Component) Name() string     { return "diag" }
func (c *Component) BasePath() string { return "/debug" }

func (c *Component) Init(deps component.Deps) error {
	c.deps = deps
	return nil
}

func (c *Component) Migrations() []string { return nil }

// Routes builds the router mounted at /debug.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", c.handleEcho)
	r.Get("/health", c.handleHealth)
	return r
}

// handleEcho writes a JSON blob with selected request fields.
func (c *Component) handleEcho(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"host":   r.Host,
		"path":   r.URL.Path,
		"query":  r.URL.RawQuery,
		"remote": r.RemoteAddr,
		"ua":     r.UserAgent(),
	}
	if info := requestinfo.FromContext(r.Context()); info != nil {
		out["ua_parsed"] = info.UA
		out["geo"] = info.Geo
	}
	httpx.JSON(w, http.StatusOK, out)
}

// handleHealth reports liveness plus store reachability.
func (c *Component) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.deps.DBPing(); err != nil {
		httpx.Error(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
