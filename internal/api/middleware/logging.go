package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ruralhealth/pharmacy-discovery/internal/infrastructure/observability"
)

// LoggingMiddleware writes one access line per request. Discovery answers also carry the source
// that served them; degraded answers and 4xx log at warn, 5xx at error.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		began := time.Now()
		rec := recordResponse(w)

		next.ServeHTTP(rec, r)

		status := rec.Status()
		source, degraded := rec.pharmacyOutcome()

		logger := observability.LoggerFromContext(r.Context())
		var evt *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			evt = logger.Error()
		case status >= http.StatusBadRequest || degraded:
			evt = logger.Warn()
		default:
			evt = logger.Info()
		}
		if source != "" {
			evt = evt.Str("pharmacy_source", source).Bool("degraded", degraded)
		}
		evt.Str("method", r.Method).
			Str("route", routeLabel(r)).
			Int("status", status).
			Int("bytes", rec.bytes).
			Dur("latency", time.Since(began)).
			Str("client", r.RemoteAddr).
			Msg("request served")
	})
}
