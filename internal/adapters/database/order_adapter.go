package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/repositories"
	"github.com/ruralhealth/pharmacy-discovery/internal/infrastructure/clients/postgres"
	"github.com/ruralhealth/pharmacy-discovery/internal/infrastructure/observability"
	apperrors "github.com/ruralhealth/pharmacy-discovery/pkg/errors"
)

const (
	ordersTable     = "orders"
	orderLinesTable = "order_lines"
)

// OrderAdapter implements OrderRepository
type OrderAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewOrderAdapter creates a new order adapter
func NewOrderAdapter(client *postgres.Client) *OrderAdapter {
	return &OrderAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var _ repositories.OrderRepository = (*OrderAdapter)(nil)

// Create inserts the order header and its lines in one transaction
func (a *OrderAdapter) Create(ctx context.Context, order *entities.Order) error {
	start := time.Now()
	defer func() { observability.RecordDBMetric(ctx, "orders.create", time.Since(start)) }()

	header := goqu.Record{
		"id":              order.ID,
		"pharmacy_id":     order.PharmacyID,
		"pharmacy_name":   order.PharmacyName,
		"payment_method":  string(order.PaymentMethod),
		"prescription_id": sql.NullString{String: order.PrescriptionID, Valid: order.PrescriptionID != ""},
		"status":          string(order.Status),
		"full_name":       order.Delivery.FullName,
		"phone":           order.Delivery.Phone,
		"address":         order.Delivery.Address,
		"city":            order.Delivery.City,
		"pincode":         order.Delivery.Pincode,
		"subtotal":        order.Totals.Subtotal,
		"delivery_fee":    order.Totals.DeliveryFee,
		"tax":             order.Totals.Tax,
		"total":           order.Totals.Total,
		"created_at":      order.CreatedAt,
	}
	headerSQL, headerArgs, err := a.db.Insert(ordersTable).Rows(header).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	lines := make([]interface{}, 0, len(order.Lines))
	for i, line := range order.Lines {
		lines = append(lines, goqu.Record{
			"order_id":              order.ID,
			"line_no":               i + 1,
			"medicine_id":           line.Medicine.ID,
			"medicine_name":         line.Medicine.Name,
			"unit_price":            line.Medicine.Price,
			"quantity":              line.Quantity,
			"prescription_required": line.Medicine.PrescriptionRequired,
		})
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, headerSQL, headerArgs...); err != nil {
		return apperrors.NewInternalError("failed to create order", err)
	}

	if len(lines) > 0 {
		linesSQL, linesArgs, err := a.db.Insert(orderLinesTable).Rows(lines...).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build insert query", err)
		}
		if _, err := tx.ExecContext(ctx, linesSQL, linesArgs...); err != nil {
			return apperrors.NewInternalError("failed to create order lines", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit order", err)
	}
	return nil
}

// GetByID retrieves an order with its lines
func (a *OrderAdapter) GetByID(ctx context.Context, id string) (*entities.Order, error) {
	query, args, err := a.db.Select(
		"id", "pharmacy_id", "pharmacy_name", "payment_method", "prescription_id", "status",
		"full_name", "phone", "address", "city", "pincode",
		"subtotal", "delivery_fee", "tax", "total", "created_at",
	).From(ordersTable).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	order := &entities.Order{}
	var payment, status string
	var prescription sql.NullString
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&order.ID,
		&order.PharmacyID,
		&order.PharmacyName,
		&payment,
		&prescription,
		&status,
		&order.Delivery.FullName,
		&order.Delivery.Phone,
		&order.Delivery.Address,
		&order.Delivery.City,
		&order.Delivery.Pincode,
		&order.Totals.Subtotal,
		&order.Totals.DeliveryFee,
		&order.Totals.Tax,
		&order.Totals.Total,
		&order.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get order", err)
	}
	order.PaymentMethod = entities.PaymentMethod(payment)
	order.Status = entities.OrderStatus(status)
	order.PrescriptionID = prescription.String

	linesSQL, linesArgs, err := a.db.Select(
		"medicine_id", "medicine_name", "unit_price", "quantity", "prescription_required",
	).From(orderLinesTable).
		Where(goqu.Ex{"order_id": id}).
		Order(goqu.I("line_no").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, linesSQL, linesArgs...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get order lines", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line entities.CartLine
		if err := rows.Scan(
			&line.Medicine.ID,
			&line.Medicine.Name,
			&line.Medicine.Price,
			&line.Quantity,
			&line.Medicine.PrescriptionRequired,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan order line", err)
		}
		order.Lines = append(order.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate order lines", err)
	}

	return order, nil
}
