// internal/requestinfo/requestinfo_test.go
package requestinfo

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

const chromeDesktop = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const iphoneSafari = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) " +
	"AppleWebKit/605.1.15 Version/17.0 Mobile/15E148 Safari/604.1"

func TestParseUA(t *testing.T) {
	ua := parseUA(chromeDesktop)
	if ua.Browser != "Chrome" || ua.OS != "Windows" || ua.Device != "Desktop" {
		t.Fatalf("chrome desktop = %+v", ua)
	}
	if ua.IsBot {
		t.Fatal("chrome desktop is not a bot")
	}

	if got := parseUA(iphoneSafari).Device; got != "Mobile" {
		t.Fatalf("iphone device = %q, want Mobile", got)
	}

	if !parseUA("Googlebot/2.1 (+http://www.google.com/bot.html)").IsBot {
		t.Fatal("googlebot must classify as bot")
	}
}

func TestEnrichAttachesInfo(t *testing.T) {
	rv, err := NewResolver("") // geolocation disabled
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	defer rv.Close()

	var got *Info
	inner := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", chromeDesktop)
	req.RemoteAddr = "203.0.113.9:54321"
	rv.Enrich(inner).ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("Info missing from context")
	}
	if got.UA.Browser != "Chrome" {
		t.Fatalf("browser = %q", got.UA.Browser)
	}
	if got.Geo.IP != "203.0.113.9" {
		t.Fatalf("ip = %q", got.Geo.IP)
	}
	if got.Geo.CountryISO != "" {
		t.Fatalf("country must stay empty without a database, got %q", got.Geo.CountryISO)
	}
}

func TestFromContextMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if FromContext(req.Context()) != nil {
		t.Fatal("unenriched context must yield nil")
	}
}
