package middleware

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"

	"github.com/ruralhealth/pharmacy-discovery/internal/infrastructure/observability"
)

// ObservabilityMiddleware joins the caller's W3C trace when one is present, wraps the request in
// a server span named after its route and counts it in the request metrics.
func ObservabilityMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := routeLabel(r)
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := observability.StartSpan(ctx, r.Method+" "+route)
			defer span.End()

			rec := recordResponse(w)
			began := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))
			status := rec.Status()

			observability.RecordRequestMetric(ctx, metrics, r.Method, route, status, time.Since(began))

			attrs := []attribute.KeyValue{
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.Int("http.status_code", status),
				attribute.Int("http.response_size", rec.bytes),
			}
			if source, degraded := rec.pharmacyOutcome(); source != "" {
				attrs = append(attrs,
					attribute.String("pharmacy.source", source),
					attribute.Bool("pharmacy.degraded", degraded),
				)
			}
			observability.SetSpanAttributes(span, attrs...)
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
		})
	}
}
