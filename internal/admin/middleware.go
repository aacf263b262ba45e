// internal/admin/middleware.go
//
// chi middleware guarding portal routes.  Expects "Authorization: Bearer
// <token>"; the verified operator email is stored on the request context
// for handlers that want to log who acted.
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type ctxKey struct{}

// OperatorFromContext returns the email set by RequireAuth, or "".
func OperatorFromContext(ctx context.Context) string {
	email, _ := ctx.Value(ctxKey{}).(string)
	return email
}

// RequireAuth rejects requests without a valid session token.
func RequireAuth(sessions *Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if raw == "" || raw == r.Header.Get("Authorization") {
				unauthorized(w)
				return
			}

			email, err := sessions.Verify(raw)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}
