// internal/middleware/https.go
//
// HTTPS enforcement.  Production runs behind TLS; the wrapper 308-redirects
// any plain-HTTP request except on localhost, so `go run ./cmd/web` keeps
// working without certificates.
package middleware

import (
	"net/http"
	"strings"
)

// ForceHTTPS wraps h with the redirect described above.
func ForceHTTPS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS != nil || stripPort(r.Host) == "localhost" {
			h.ServeHTTP(w, r)
			return
		}
		target := "https://" + r.Host + r.URL.RequestURI()
		http.Redirect(w, r, target, http.StatusPermanentRedirect)
	})
}

// stripPort removes the :port suffix from Host when present.
func stripPort(h string) string {
	if i := strings.IndexByte(h, ':'); i != -1 {
		return h[:i]
	}
	return h
}
