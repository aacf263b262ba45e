// components/renewal/renewal.go
//
// Renewal component: the public endpoints consumed by hosted client sites.
//
//   - GET  /renewal/{domain}         – renewal quote for the notice page
//     (site name, amount due, PayPal client id).
//   - GET  /renewal/{domain}/status  – cached activation check; a client
//     site polls this on page load and redirects to its renewal notice
//     when suspended.
//   - POST /renewal/confirm          – PayPal capture details relayed to
//     the automation webhook after checkout.
//
// These are fetched cross-origin from every hosted domain, hence the
// permissive CORS policy.  The status check runs through the status cache
// and never fails closed: a store outage must not blank paying clients'
// sites.
package renewal

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/salminhosting/hostadmin/internal/client"
	"github.com/salminhosting/hostadmin/internal/component"
	"github.com/salminhosting/hostadmin/internal/httpx"
	"github.com/salminhosting/hostadmin/internal/metrics"
	"github.com/salminhosting/hostadmin/internal/middleware"
	"github.com/salminhosting/hostadmin/internal/notify"
)

var _ component.Component = (*Component)(nil)

var validate = validator.New()

// Component holds the renewal wiring.
type Component struct {
	deps component.Deps
}

func init() { component.Register(&Component{}) }

func (c *Component) Name() string     { return "renewal" }
func (c *Component) BasePath() string { return "/renewal" }

// Init stores the shared wiring.
func (c *Component) Init(deps component.Deps) error {
	c.deps = deps
	return nil
}

func (c *Component) Migrations() []string { return nil }

// Routes builds the router mounted at /renewal.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.PermissiveCORS)
	r.Get("/{domain}", c.handleQuote)
	r.Get("/{domain}/status", c.handleStatus)
	r.Post("/confirm", c.handleConfirm)
	return r
}

/*──────────────────────────── quote ───────────────────────────────────────*/

type quoteResponse struct {
	SiteName       string  `json:"site_name"`
	DomainName     string  `json:"domain_name"`
	MonthlyFee     float64 `json:"monthly_fee"`
	PayPalClientID string  `json:"paypal_client_id"`
}

func (c *Component) handleQuote(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")

	rec, err := c.deps.Repo.ByDomain(r.Context(), domain)
	if errors.Is(err, client.ErrNotFound) {
		httpx.Error(w, http.StatusNotFound, "Client not found")
		return
	}
	if err != nil {
		c.deps.Log.Errorw("renewal quote failed", "domain", domain, "err", err)
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	httpx.JSON(w, http.StatusOK, quoteResponse{
		SiteName:       rec.SiteName,
		DomainName:     rec.DomainName,
		MonthlyFee:     rec.MonthlyFee,
		PayPalClientID: c.deps.Cfg.PayPal.ClientID,
	})
}

/*──────────────────────────── status ──────────────────────────────────────*/

type statusResponse struct {
	Domain string `json:"domain"`
	Active bool   `json:"active"`
}

func (c *Component) handleStatus(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	httpx.JSON(w, http.StatusOK, statusResponse{
		Domain: domain,
		Active: c.deps.Status.Active(r.Context(), domain),
	})
}

/*──────────────────────────── confirm ─────────────────────────────────────*/

type confirmResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (c *Component) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var capture notify.Capture
	if err := json.NewDecoder(r.Body).Decode(&capture); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := validate.Struct(&capture); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if c.deps.Notifier == nil {
		// Notifications disabled; the capture still reached PayPal, so
		// acknowledge rather than scare the paying customer.
		c.deps.Log.Warnw("payment capture received with notifications disabled",
			"domain", capture.Domain)
		httpx.JSON(w, http.StatusOK, confirmResponse{Success: true, Message: "Payment received"})
		return
	}

	if err := c.deps.Notifier.PaymentCaptured(r.Context(), capture); err != nil {
		metrics.NotifyFailuresTotal.Inc()
		c.deps.Log.Errorw("payment capture relay failed", "domain", capture.Domain, "err", err)
		httpx.Error(w, http.StatusBadGateway, "Failed to forward payment confirmation")
		return
	}

	httpx.JSON(w, http.StatusOK, confirmResponse{Success: true, Message: "Payment received"})
}
