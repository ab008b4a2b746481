package middleware

import (
	"net/http"
	"strings"
)

// statusRecorder remembers what a handler sent so the outer middleware can log and measure it.
// Logging and observability share one recorder per request.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func recordResponse(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w}
}

func (rec *statusRecorder) WriteHeader(status int) {
	if rec.status == 0 {
		rec.status = status
	}
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

// Status is 200 when the handler wrote nothing explicit.
func (rec *statusRecorder) Status() int {
	if rec.status == 0 {
		return http.StatusOK
	}
	return rec.status
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

func (rec *statusRecorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// pharmacyOutcome reads the discovery headers the nearby handler sets.
func (rec *statusRecorder) pharmacyOutcome() (source string, degraded bool) {
	h := rec.Header()
	return h.Get("X-Pharmacy-Source"), h.Get("X-Pharmacy-Degraded") == "true"
}

// routeLabel collapses order and consultation ids so metric and span names stay low-cardinality.
// The mux pattern is not visible here because these middlewares wrap the mux.
func routeLabel(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) > 3 && parts[1] == "api" && (parts[2] == "orders" || parts[2] == "consultations") && parts[3] != "" {
		parts[3] = "{id}"
	}
	return strings.Join(parts, "/")
}
