package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
	apperrors "github.com/ruralhealth/pharmacy-discovery/pkg/errors"
)

func sampleOrder() *entities.Order {
	return &entities.Order{
		ID:           "5d0e7a8e-0000-4000-8000-000000000001",
		PharmacyID:   "ChIJ123",
		PharmacyName: "Apollo Pharmacy",
		Lines: []entities.CartLine{
			{Medicine: entities.Medicine{ID: "m1", Name: "Ibuprofen", Price: 12.5}, Quantity: 2},
			{Medicine: entities.Medicine{ID: "m2", Name: "Amoxicillin", Price: 25, PrescriptionRequired: true}, Quantity: 1},
		},
		Delivery:       entities.DeliveryDetails{FullName: "Asha", Phone: "9876543210", Address: "1 MG Road", City: "Bengaluru", Pincode: "560001"},
		PaymentMethod:  entities.PaymentCashOnDelivery,
		PrescriptionID: "rx-42",
		Totals:         entities.OrderTotals{Subtotal: 50, DeliveryFee: 50, Tax: 3, Total: 103},
		Status:         entities.OrderStatusPlaced,
		CreatedAt:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestOrderAdapter_Create(t *testing.T) {
	client, sqlMock := setupMockClient(t)
	adapter := NewOrderAdapter(client)

	sqlMock.ExpectBegin()
	sqlMock.ExpectExec(`INSERT INTO "orders"`).WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectExec(`INSERT INTO "order_lines" .* VALUES \(.*\), \(.*\)`).WillReturnResult(sqlmock.NewResult(0, 2))
	sqlMock.ExpectCommit()

	err := adapter.Create(context.Background(), sampleOrder())

	require.NoError(t, err)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestOrderAdapter_CreateRollsBackOnLineFailure(t *testing.T) {
	client, sqlMock := setupMockClient(t)
	adapter := NewOrderAdapter(client)

	sqlMock.ExpectBegin()
	sqlMock.ExpectExec(`INSERT INTO "orders"`).WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectExec(`INSERT INTO "order_lines"`).WillReturnError(errors.New("fk violation"))
	sqlMock.ExpectRollback()

	err := adapter.Create(context.Background(), sampleOrder())

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestOrderAdapter_GetByID(t *testing.T) {
	client, sqlMock := setupMockClient(t)
	adapter := NewOrderAdapter(client)
	want := sampleOrder()

	sqlMock.ExpectQuery(`SELECT .* FROM "orders" WHERE \("id" = '5d0e7a8e-0000-4000-8000-000000000001'\)`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "pharmacy_id", "pharmacy_name", "payment_method", "prescription_id", "status",
			"full_name", "phone", "address", "city", "pincode",
			"subtotal", "delivery_fee", "tax", "total", "created_at",
		}).AddRow(want.ID, want.PharmacyID, want.PharmacyName, "cod", "rx-42", "placed",
			"Asha", "9876543210", "1 MG Road", "Bengaluru", "560001",
			50.0, 50.0, 3.0, 103.0, want.CreatedAt))
	sqlMock.ExpectQuery(`SELECT .* FROM "order_lines" .* ORDER BY "line_no" ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"medicine_id", "medicine_name", "unit_price", "quantity", "prescription_required"}).
			AddRow("m1", "Ibuprofen", 12.5, 2, false).
			AddRow("m2", "Amoxicillin", 25.0, 1, true))

	got, err := adapter.GetByID(context.Background(), want.ID)

	require.NoError(t, err)
	assert.Equal(t, want.Delivery, got.Delivery)
	assert.Equal(t, want.Totals, got.Totals)
	assert.Equal(t, entities.PaymentCashOnDelivery, got.PaymentMethod)
	assert.Equal(t, "rx-42", got.PrescriptionID)
	require.Len(t, got.Lines, 2)
	assert.True(t, got.Lines[1].Medicine.PrescriptionRequired)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestOrderAdapter_GetByIDNotFound(t *testing.T) {
	client, sqlMock := setupMockClient(t)
	adapter := NewOrderAdapter(client)

	sqlMock.ExpectQuery(`SELECT .* FROM "orders"`).WillReturnError(sql.ErrNoRows)

	_, err := adapter.GetByID(context.Background(), "missing")

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}
