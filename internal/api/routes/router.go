package routes

import (
	"net/http"

	"github.com/ruralhealth/pharmacy-discovery/internal/api/handlers"
	"github.com/ruralhealth/pharmacy-discovery/internal/api/middleware"
	"github.com/ruralhealth/pharmacy-discovery/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	pharmacyHandler     *handlers.PharmacyHandler
	orderHandler        *handlers.OrderHandler
	notificationHandler *handlers.NotificationHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router. orderHandler may be nil when no database is configured.
func NewRouter(
	pharmacyHandler *handlers.PharmacyHandler,
	orderHandler *handlers.OrderHandler,
	notificationHandler *handlers.NotificationHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                 http.NewServeMux(),
		pharmacyHandler:     pharmacyHandler,
		orderHandler:        orderHandler,
		notificationHandler: notificationHandler,
		metrics:             metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Pharmacy discovery
	r.mux.HandleFunc("GET /api/pharmacies/nearby", r.pharmacyHandler.GetNearbyPharmacies)

	// Checkout
	if r.orderHandler != nil {
		r.mux.HandleFunc("POST /api/orders", r.orderHandler.PlaceOrder)
		r.mux.HandleFunc("GET /api/orders/{id}", r.orderHandler.GetOrder)
	}

	// Consultation notifications
	if r.notificationHandler != nil {
		r.mux.HandleFunc("POST /api/consultations/{id}/completion-notice", r.notificationHandler.SendCompletionNotice)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.NoStore(handler)
	handler = middleware.Compression(handler)

	// CORS wraps everything so preflight never reaches the handlers
	handler = middleware.CORSMiddleware(handler)

	return handler
}
