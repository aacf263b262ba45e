// internal/notify/notify.go
//
// Outbound notifications via the automation webhook.
//
// Context
// -------
// Client email is not sent by this service.  An n8n workflow owns the
// mail templates and delivery; this package just POSTs it JSON events:
//
//   - site_reactivated   – operator flipped a suspended site back on;
//     the workflow mails the payment-received confirmation.
//   - payment_captured   – a renewal page completed a PayPal capture;
//     the workflow reconciles it and calls our payment webhook back.
//
// Deliveries are best-effort.  Callers log and count failures; a state
// change never rolls back because the notification did not land.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/salminhosting/hostadmin/internal/client"
)

// Capture carries the PayPal capture details relayed from a renewal page.
// Field names match what the n8n workflow already consumes.
type Capture struct {
	PaymentStatus string `json:"paymentStatus" validate:"required"`
	Amount        string `json:"amount" validate:"required"`
	PayerEmail    string `json:"payerEmail" validate:"required,email"`
	Domain        string `json:"domain" validate:"required"`
}

// Webhook posts notification events to one URL.
type Webhook struct {
	url string
	hc  *http.Client
}

// NewWebhook builds a Webhook sender.  Returns nil when url is empty, so
// callers can wire the nil Notifier straight through.
func NewWebhook(url string) *Webhook {
	if url == "" {
		return nil
	}
	return &Webhook{
		url: url,
		hc:  &http.Client{Timeout: 10 * time.Second},
	}
}

// SiteReactivated notifies the workflow that a suspended site is back.
func (w *Webhook) SiteReactivated(ctx context.Context, c client.Client) error {
	return w.post(ctx, map[string]any{
		"event":         "site_reactivated",
		"site_name":     c.SiteName,
		"domain_name":   c.DomainName,
		"contact_email": c.ContactEmail,
		"payment_date":  c.PaymentDate,
	})
}

// PaymentCaptured relays capture details from a renewal checkout.
func (w *Webhook) PaymentCaptured(ctx context.Context, cap Capture) error {
	return w.post(ctx, map[string]any{
		"event":         "payment_captured",
		"paymentStatus": cap.PaymentStatus,
		"amount":        cap.Amount,
		"payerEmail":    cap.PayerEmail,
		"domain":        cap.Domain,
	})
}

func (w *Webhook) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notify webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}
