// components/billing/billing.go
//
// Billing component: the externally-triggered endpoints.
//
//   - POST /billing/sweep    – expiry sweep, invoked by the scheduler.
//   - POST /billing/webhook  – inbound payment report from the payment
//     automation (n8n), keyed by domain.
//
// Both endpoints answer cross-origin callers; response shapes are part of
// the automation contract and must not drift.
package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/salminhosting/hostadmin/internal/activation"
	"github.com/salminhosting/hostadmin/internal/client"
	"github.com/salminhosting/hostadmin/internal/component"
	"github.com/salminhosting/hostadmin/internal/httpx"
	"github.com/salminhosting/hostadmin/internal/metrics"
	"github.com/salminhosting/hostadmin/internal/middleware"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component holds the billing wiring.
type Component struct {
	deps component.Deps
}

func init() { component.Register(&Component{}) }

// Name returns the canonical component key.
func (c *Component) Name() string { return "billing" }

// BasePath is the mount point.
func (c *Component) BasePath() string { return "/billing" }

// Init stores the shared wiring.
func (c *Component) Init(deps component.Deps) error {
	c.deps = deps
	return nil
}

// Migrations returns nil; the client schema is owned by the portal
// component.
func (c *Component) Migrations() []string { return nil }

// Routes builds the router mounted at /billing.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.PermissiveCORS)
	r.Post("/sweep", c.handleSweep)
	r.Post("/webhook", c.handleWebhook)
	return r
}

/*──────────────────────────── sweep ───────────────────────────────────────*/

type sweepResponse struct {
	Success     bool                   `json:"success"`
	Message     string                 `json:"message"`
	Checked     time.Time              `json:"checked"`
	Deactivated int                    `json:"deactivated"`
	Clients     []activation.Suspended `json:"clients,omitempty"`
}

func (c *Component) handleSweep(w http.ResponseWriter, r *http.Request) {
	report, err := c.deps.Activation.Sweep(r.Context())
	if err != nil {
		c.deps.Log.Errorw("sweep failed", "err", err)
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	msg := "No expired clients found"
	if report.Deactivated > 0 {
		msg = fmt.Sprintf("Deactivated %d expired client(s)", report.Deactivated)
	}
	httpx.JSON(w, http.StatusOK, sweepResponse{
		Success:     true,
		Message:     msg,
		Checked:     report.Checked,
		Deactivated: report.Deactivated,
		Clients:     report.Clients,
	})
}

/*──────────────────────────── webhook ─────────────────────────────────────*/

type webhookRequest struct {
	Domain        string  `json:"domain"`
	PaymentStatus *string `json:"payment_status"`
	PaymentDate   *string `json:"payment_date"`
}

type webhookResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Client  *client.Client `json:"client"`
}

func (c *Component) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.WebhookRequestsTotal.WithLabelValues("invalid").Inc()
		httpx.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if req.Domain == "" {
		metrics.WebhookRequestsTotal.WithLabelValues("invalid").Inc()
		httpx.Error(w, http.StatusBadRequest, "Domain is required")
		return
	}
	if req.PaymentStatus != nil &&
		*req.PaymentStatus != client.PaymentPaid && *req.PaymentStatus != client.PaymentUnpaid {
		metrics.WebhookRequestsTotal.WithLabelValues("invalid").Inc()
		httpx.Error(w, http.StatusBadRequest, "payment_status must be \"paid\" or \"unpaid\"")
		return
	}

	var date *client.Date
	if req.PaymentDate != nil {
		d, err := parseWireDate(*req.PaymentDate)
		if err != nil {
			metrics.WebhookRequestsTotal.WithLabelValues("invalid").Inc()
			httpx.Error(w, http.StatusBadRequest, "payment_date must be a date")
			return
		}
		date = &d
	}

	updated, err := c.deps.Activation.RecordPayment(r.Context(), req.Domain, req.PaymentStatus, date)
	if errors.Is(err, client.ErrNotFound) {
		metrics.WebhookRequestsTotal.WithLabelValues("not_found").Inc()
		httpx.Error(w, http.StatusNotFound, "Client not found")
		return
	}
	if err != nil {
		metrics.WebhookRequestsTotal.WithLabelValues("error").Inc()
		c.deps.Log.Errorw("webhook update failed", "domain", req.Domain, "err", err)
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	metrics.WebhookRequestsTotal.WithLabelValues("updated").Inc()
	httpx.JSON(w, http.StatusOK, webhookResponse{
		Success: true,
		Message: "Client updated successfully",
		Client:  updated,
	})
}

// parseWireDate accepts both the bare date form and a full RFC 3339
// timestamp; the automation has sent both over time.
func parseWireDate(s string) (client.Date, error) {
	if d, err := client.ParseDate(s); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return client.Date{}, err
	}
	return client.DateOf(t), nil
}
