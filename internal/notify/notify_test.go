// internal/notify/notify_test.go
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/salminhosting/hostadmin/internal/client"
)

func TestNewWebhookEmptyURL(t *testing.T) {
	if NewWebhook("") != nil {
		t.Fatal("empty url must disable the sender")
	}
}

func TestSiteReactivatedPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	d := client.NewDate(2026, time.March, 31)
	c := client.Client{
		SiteName:     "Acme Web",
		DomainName:   "acme.example",
		ContactEmail: "owner@acme.example",
		PaymentDate:  &d,
	}
	if err := NewWebhook(srv.URL).SiteReactivated(context.Background(), c); err != nil {
		t.Fatalf("send: %v", err)
	}

	if got["event"] != "site_reactivated" || got["domain_name"] != "acme.example" {
		t.Fatalf("payload = %v", got)
	}
	if got["payment_date"] != "2026-03-31" {
		t.Fatalf("payment_date = %v", got["payment_date"])
	}
}

func TestPostRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL).PaymentCaptured(context.Background(), Capture{
		PaymentStatus: "COMPLETED", Amount: "24.99",
		PayerEmail: "payer@example.com", Domain: "acme.example",
	})
	if err == nil {
		t.Fatal("non-2xx upstream must error")
	}
}
