package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ruralhealth/pharmacy-discovery/internal/application/services"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
)

const maxOrderBodyBytes = 1 << 20

// OrderService places and reads orders
type OrderService interface {
	PlaceOrder(ctx context.Context, req *services.PlaceOrderRequest) (*entities.Order, error)
	GetOrder(ctx context.Context, id string) (*entities.Order, error)
}

// OrderHandler handles checkout endpoints
type OrderHandler struct {
	service OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(service OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// PlaceOrder handles POST /api/orders
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req services.PlaceOrderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxOrderBodyBytes)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.PlaceOrder(r.Context(), &req)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, order)
}

// GetOrder handles GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, order)
}
