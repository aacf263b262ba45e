// internal/middleware/accesslog.go
//
// Structured access log.  One Info line per request with method, path,
// status, duration, and the UA/geo summary attached by requestinfo.Enrich
// (fields stay empty when that middleware is not mounted upstream).
package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/salminhosting/hostadmin/internal/requestinfo"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the wrapper.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.NewResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// AccessLog logs every request through log.
func AccessLog(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			fields := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if info := requestinfo.FromContext(r.Context()); info != nil {
				fields = append(fields,
					"ip", info.Geo.IP,
					"country", info.Geo.CountryISO,
					"browser", info.UA.Browser,
					"device", info.UA.Device,
					"bot", info.UA.IsBot,
				)
			}
			log.Infow("request", fields...)
		})
	}
}
