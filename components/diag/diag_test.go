// components/diag/diag_test.go
package diag

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/salminhosting/hostadmin/internal/component"
)

func newHandler(t *testing.T, ping func() error) http.Handler {
	t.Helper()
	comp := &Component{}
	if err := comp.Init(component.Deps{Log: zap.NewNop().Sugar(), DBPing: ping}); err != nil {
		t.Fatalf("init: %v", err)
	}
	return comp.Routes()
}

func TestEcho(t *testing.T) {
	h := newHandler(t, func() error { return nil })

	req := httptest.NewRequest(http.MethodGet, "/?probe=1", nil)
	req.Header.Set("User-Agent", "curl/8.0")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["ua"] != "curl/8.0" || out["query"] != "probe=1" {
		t.Fatalf("echo = %v", out)
	}
}

func TestHealth(t *testing.T) {
	h := newHandler(t, func() error { return nil })
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestHealthStoreDown(t *testing.T) {
	h := newHandler(t, func() error { return errors.New("dial tcp: refused") })
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
