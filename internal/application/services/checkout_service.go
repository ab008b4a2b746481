package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/repositories"
	"github.com/ruralhealth/pharmacy-discovery/internal/infrastructure/observability"
	apperrors "github.com/ruralhealth/pharmacy-discovery/pkg/errors"
)

const (
	freeDeliveryThreshold = 500.0
	flatDeliveryFee       = 50.0
	taxRate               = 0.05
)

// PlaceOrderRequest is a cart from a single pharmacy ready for checkout
type PlaceOrderRequest struct {
	PharmacyID     string                   `json:"pharmacy_id"`
	PharmacyName   string                   `json:"pharmacy_name"`
	Lines          []entities.CartLine      `json:"lines"`
	Delivery       entities.DeliveryDetails `json:"delivery"`
	PaymentMethod  entities.PaymentMethod   `json:"payment_method"`
	PrescriptionID string                   `json:"prescription_id,omitempty"`
}

// CheckoutService validates carts and persists orders
type CheckoutService struct {
	orders repositories.OrderRepository
	now    func() time.Time
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(orders repositories.OrderRepository) *CheckoutService {
	return &CheckoutService{
		orders: orders,
		now:    time.Now,
	}
}

// PlaceOrder validates the request, prices it and stores it.
func (s *CheckoutService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*entities.Order, error) {
	if req == nil {
		return nil, apperrors.NewValidationError("order request is required")
	}
	if err := validateOrder(req); err != nil {
		return nil, err
	}

	lines := make([]entities.CartLine, len(req.Lines))
	for i, l := range req.Lines {
		l.Medicine.PrescriptionRequired = requiresPrescription(l.Medicine)
		lines[i] = l
	}

	order := &entities.Order{
		ID:             uuid.NewString(),
		PharmacyID:     req.PharmacyID,
		PharmacyName:   req.PharmacyName,
		Lines:          lines,
		Delivery:       req.Delivery,
		PaymentMethod:  req.PaymentMethod,
		PrescriptionID: strings.TrimSpace(req.PrescriptionID),
		Totals:         CalculateTotals(lines),
		Status:         entities.OrderStatusPlaced,
		CreatedAt:      s.now().UTC(),
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperrors.NewInternalError("failed to place order", err)
	}

	observability.LoggerFromContext(ctx).Info().
		Str("order_id", order.ID).
		Str("pharmacy_id", order.PharmacyID).
		Int("lines", len(order.Lines)).
		Float64("total", order.Totals.Total).
		Msg("order placed")
	return order, nil
}

// GetOrder retrieves a placed order
func (s *CheckoutService) GetOrder(ctx context.Context, id string) (*entities.Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("order id is required")
	}
	return s.orders.GetByID(ctx, id)
}

// CalculateTotals prices a cart: free delivery above the threshold, tax rounded to whole units.
func CalculateTotals(lines []entities.CartLine) entities.OrderTotals {
	var subtotal float64
	for _, l := range lines {
		subtotal += l.LineTotal()
	}
	subtotal = math.Round(subtotal*100) / 100

	fee := flatDeliveryFee
	if subtotal > freeDeliveryThreshold {
		fee = 0
	}
	tax := math.Round(subtotal * taxRate)

	return entities.OrderTotals{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Tax:         tax,
		Total:       math.Round((subtotal+fee+tax)*100) / 100,
	}
}

func validateOrder(req *PlaceOrderRequest) error {
	if strings.TrimSpace(req.PharmacyID) == "" {
		return apperrors.NewValidationError("pharmacy_id is required")
	}
	if len(req.Lines) == 0 {
		return apperrors.NewValidationError("cart is empty")
	}
	if !req.PaymentMethod.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("unsupported payment method %q", req.PaymentMethod))
	}

	d := req.Delivery
	for _, f := range []struct{ name, value string }{
		{"full_name", d.FullName},
		{"phone", d.Phone},
		{"address", d.Address},
		{"city", d.City},
		{"pincode", d.Pincode},
	} {
		if strings.TrimSpace(f.value) == "" {
			return apperrors.NewValidationError(fmt.Sprintf("delivery %s is required", f.name))
		}
	}

	var needsRx []string
	for _, l := range req.Lines {
		m := l.Medicine
		if m.Price < 0 || m.Stock < 0 {
			return apperrors.NewValidationError(fmt.Sprintf("invalid price or stock for %s", m.Name))
		}
		if l.Quantity < 1 || l.Quantity > m.Stock {
			return apperrors.NewValidationError(fmt.Sprintf("quantity for %s must be between 1 and %d", m.Name, m.Stock))
		}
		if requiresPrescription(m) {
			needsRx = append(needsRx, m.Name)
		}
	}
	if len(needsRx) > 0 && strings.TrimSpace(req.PrescriptionID) == "" {
		return apperrors.NewValidationError("prescription required for: " + strings.Join(needsRx, ", "))
	}
	return nil
}

// requiresPrescription applies the category policy on top of the flag the client sent,
// so a regulated medicine cannot be checked out by clearing its flag.
func requiresPrescription(m entities.Medicine) bool {
	return m.PrescriptionRequired || entities.IsRegulatedCategory(m.Category)
}
