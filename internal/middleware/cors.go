// internal/middleware/cors.go
//
// CORS policy for the externally-invoked routes.  The billing endpoints
// are called by the scheduler and the payment automation, and the renewal
// endpoints are fetched cross-origin by every hosted client site, so the
// policy is deliberately permissive: any origin, the common methods, and a
// 200 preflight with an empty body (some embedded fetch wrappers treat
// 204 preflights as failures).
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// PermissiveCORS wraps h with the any-origin policy.
func PermissiveCORS(h http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:       []string{"Content-Type", "Authorization", "X-Client-Info", "Apikey"},
		OptionsSuccessStatus: http.StatusOK,
	})
	return c.Handler(h)
}
