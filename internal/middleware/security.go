// Package middleware holds small, composable HTTP wrappers.
//
// security.go injects standard hardening headers on every response:
//
//   - Strict-Transport-Security  – forces HTTPS (2 years + preload)
//   - X-Frame-Options            – click-jacking defence
//   - X-Content-Type-Options     – MIME-sniffing defence
//   - Referrer-Policy            – drops path/query from Referer
//   - Permissions-Policy         – disables powerful features
//
// Headers are set before next.ServeHTTP runs (they must precede the
// handler's WriteHeader call); handlers may still override any of them.
// No Content-Security-Policy: the service emits JSON, and the renewal
// pages it feeds are rendered by client sites with their own policies.
package middleware

import "net/http"

// Security sets hardening headers for every response.
func Security(next http.Handler) http.Handler {
	const (
		hsts  = "max-age=63072000; includeSubDomains; preload"
		xfo   = "DENY"
		nosn  = "nosniff"
		refer = "strict-origin-when-cross-origin"
		perm  = "geolocation=(), microphone=(), camera=()"
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		if h.Get("Strict-Transport-Security") == "" {
			h.Add("Strict-Transport-Security", hsts)
		}
		if h.Get("X-Frame-Options") == "" {
			h.Add("X-Frame-Options", xfo)
		}
		if h.Get("X-Content-Type-Options") == "" {
			h.Add("X-Content-Type-Options", nosn)
		}
		if h.Get("Referrer-Policy") == "" {
			h.Add("Referrer-Policy", refer)
		}
		if h.Get("Permissions-Policy") == "" {
			h.Add("Permissions-Policy", perm)
		}

		next.ServeHTTP(w, r)
	})
}
