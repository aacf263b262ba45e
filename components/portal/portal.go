// components/portal/portal.go
//
// Portal component: the operator-facing JSON API.
//
//   - POST /portal/login                  – password login, returns a JWT.
//   - GET  /portal/clients                – full client table.
//   - POST /portal/clients                – intake a new hosted site.
//   - POST /portal/clients/{id}/activate  – operator reactivate.
//   - POST /portal/clients/{id}/suspend   – operator suspend.
//   - GET  /portal/stats                  – dashboard aggregates.
//   - GET  /portal/events                 – SSE stream of row changes.
//
// Everything except /login sits behind the session middleware.  Toggle
// failures surface in the response body so the frontend can tell the
// operator instead of assuming success.
package portal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"

	"github.com/salminhosting/hostadmin/internal/admin"
	"github.com/salminhosting/hostadmin/internal/client"
	"github.com/salminhosting/hostadmin/internal/component"
	"github.com/salminhosting/hostadmin/internal/httpx"
)

var _ component.Component = (*Component)(nil)

var validate = validator.New()

const sseKeepalive = 25 * time.Second

// Component holds the portal wiring.
type Component struct {
	deps component.Deps
}

func init() { component.Register(&Component{}) }

func (c *Component) Name() string     { return "portal" }
func (c *Component) BasePath() string { return "/portal" }

// Init stores the shared wiring.
func (c *Component) Init(deps component.Deps) error {
	c.deps = deps
	return nil
}

// Migrations: the portal owns intake, so it owns the client schema, plus
// the operator accounts it authenticates against.
func (c *Component) Migrations() []string {
	return append(append([]string{}, client.Schema...), admin.Schema...)
}

// Routes builds the router mounted at /portal.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", c.handleLogin)

	r.Group(func(pr chi.Router) {
		pr.Use(admin.RequireAuth(c.deps.Sessions))
		pr.Get("/clients", c.handleListClients)
		pr.Post("/clients", c.handleCreateClient)
		pr.Post("/clients/{id}/activate", c.handleToggle(true))
		pr.Post("/clients/{id}/suspend", c.handleToggle(false))
		pr.Get("/stats", c.handleStats)
		pr.Get("/events", c.handleEvents)
	})
	return r
}

/*──────────────────────────── login ───────────────────────────────────────*/

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"` // seconds
}

func (c *Component) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	err := c.deps.Admins.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, admin.ErrBadCredentials) {
		httpx.Error(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		c.deps.Log.Errorw("login failed", "err", err)
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := c.deps.Sessions.Issue(req.Email)
	if err != nil {
		c.deps.Log.Errorw("token issue failed", "err", err)
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	c.deps.Log.Infow("operator login", "email", req.Email)
	httpx.JSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresIn: int64(admin.SessionTTL.Seconds()),
	})
}

/*──────────────────────────── clients ─────────────────────────────────────*/

func (c *Component) handleListClients(w http.ResponseWriter, r *http.Request) {
	list, err := c.deps.Repo.List(r.Context())
	if err != nil {
		c.deps.Log.Errorw("list clients failed", "err", err)
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

type createClientRequest struct {
	SiteName     string  `json:"site_name" validate:"required"`
	DomainName   string  `json:"domain_name" validate:"required,fqdn"`
	ContactEmail string  `json:"contact_email" validate:"omitempty,email"`
	MonthlyFee   float64 `json:"monthly_fee" validate:"gte=0"`
	PaymentDate  *string `json:"payment_date"`
}

func (c *Component) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	// Intake lifecycle: new sites start active without override; payment
	// status follows whether a payment is on record yet.
	rec := &client.Client{
		SiteName:       req.SiteName,
		DomainName:     req.DomainName,
		ContactEmail:   req.ContactEmail,
		MonthlyFee:     req.MonthlyFee,
		PaymentStatus:  client.PaymentUnpaid,
		SiteActive:     true,
		ManualOverride: false,
	}
	if req.PaymentDate != nil {
		d, err := client.ParseDate(*req.PaymentDate)
		if err != nil {
			httpx.Error(w, http.StatusBadRequest, "payment_date must be a date")
			return
		}
		rec.PaymentDate = &d
		rec.PaymentStatus = client.PaymentPaid
	}

	if err := c.deps.Repo.Insert(r.Context(), rec); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			httpx.Error(w, http.StatusConflict, "Domain already exists")
			return
		}
		c.deps.Log.Errorw("client intake failed", "domain", req.DomainName, "err", err)
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	c.deps.Log.Infow("client intake", "domain", rec.DomainName,
		"by", admin.OperatorFromContext(r.Context()))
	httpx.JSON(w, http.StatusCreated, rec)
}

/*──────────────────────────── toggle ──────────────────────────────────────*/

type toggleResponse struct {
	Success bool           `json:"success"`
	Client  *client.Client `json:"client"`
}

func (c *Component) handleToggle(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpx.Error(w, http.StatusBadRequest, "Invalid client id")
			return
		}

		updated, err := c.deps.Activation.Toggle(r.Context(), id, active)
		if errors.Is(err, client.ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "Client not found")
			return
		}
		if err != nil {
			c.deps.Log.Errorw("toggle failed", "id", id, "active", active, "err", err)
			httpx.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		httpx.JSON(w, http.StatusOK, toggleResponse{Success: true, Client: updated})
	}
}

/*──────────────────────────── stats ───────────────────────────────────────*/

func (c *Component) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.deps.Repo.Stats(r.Context())
	if err != nil {
		c.deps.Log.Errorw("stats failed", "err", err)
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

/*──────────────────────────── events (SSE) ────────────────────────────────*/

// handleEvents streams client row changes so the frontend re-renders its
// table without polling.  Events ride the repository feed; a dropped or
// reconnecting consumer re-lists for a consistent snapshot.
func (c *Component) handleEvents(w http.ResponseWriter, r *http.Request) {
	fl, ok := w.(http.Flusher)
	if !ok {
		httpx.Error(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fl.Flush()

	events := make(chan client.Event, 16)
	cancel := c.deps.Repo.Feed().Subscribe(client.Filter{}, func(ev client.Event) {
		select {
		case events <- ev:
		default:
		}
	})
	defer cancel()

	rc := http.NewResponseController(w)
	keepalive := time.NewTicker(sseKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			_ = rc.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			fl.Flush()
		case ev := <-events:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			_ = rc.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Op, data); err != nil {
				return
			}
			fl.Flush()
		}
	}
}
