package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/repositories"
	"github.com/ruralhealth/pharmacy-discovery/internal/infrastructure/clients/postgres"
	"github.com/ruralhealth/pharmacy-discovery/internal/infrastructure/observability"
	apperrors "github.com/ruralhealth/pharmacy-discovery/pkg/errors"
)

const medicinesTable = "medicines"

// MedicineCatalogAdapter implements MedicineCatalogRepository over the medicines table
type MedicineCatalogAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewMedicineCatalogAdapter creates a new medicine catalog adapter
func NewMedicineCatalogAdapter(client *postgres.Client) *MedicineCatalogAdapter {
	return &MedicineCatalogAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var _ repositories.MedicineCatalogRepository = (*MedicineCatalogAdapter)(nil)

// ListAll returns every catalog row ordered by name. Nullable columns come back as nil pointers.
func (a *MedicineCatalogAdapter) ListAll(ctx context.Context) ([]*entities.CatalogMedicine, error) {
	start := time.Now()
	defer func() { observability.RecordDBMetric(ctx, "medicines.list", time.Since(start)) }()

	query, args, err := a.db.Select(
		"id", "name", "generic_name", "dosage", "price", "stock",
		"category", "prescription", "description", "usage", "updated_at",
	).From(medicinesTable).
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list medicines", err)
	}
	defer rows.Close()

	var medicines []*entities.CatalogMedicine
	for rows.Next() {
		var (
			id, name, generic, dosage, category, description, usage sql.NullString
			price                                                   sql.NullFloat64
			stock                                                   sql.NullInt64
			prescription                                            sql.NullBool
			updatedAt                                               sql.NullTime
		)
		if err := rows.Scan(&id, &name, &generic, &dosage, &price, &stock,
			&category, &prescription, &description, &usage, &updatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan medicine", err)
		}

		m := &entities.CatalogMedicine{
			ID:          nullString(id),
			Name:        nullString(name),
			GenericName: nullString(generic),
			Dosage:      nullString(dosage),
			Category:    nullString(category),
			Description: nullString(description),
			Usage:       nullString(usage),
			UpdatedAt:   updatedAt.Time,
		}
		if price.Valid {
			m.Price = &price.Float64
		}
		if stock.Valid {
			s := int(stock.Int64)
			m.Stock = &s
		}
		if prescription.Valid {
			m.Prescription = &prescription.Bool
		}
		medicines = append(medicines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate medicines", err)
	}

	return medicines, nil
}

// Upsert inserts or replaces a catalog row keyed by id
func (a *MedicineCatalogAdapter) Upsert(ctx context.Context, medicine *entities.CatalogMedicine) error {
	if medicine.ID == nil || *medicine.ID == "" {
		return apperrors.NewValidationError("medicine id is required")
	}
	if medicine.UpdatedAt.IsZero() {
		medicine.UpdatedAt = time.Now()
	}

	record := goqu.Record{
		"id":           *medicine.ID,
		"name":         toNullString(medicine.Name),
		"generic_name": toNullString(medicine.GenericName),
		"dosage":       toNullString(medicine.Dosage),
		"price":        toNullFloat(medicine.Price),
		"stock":        toNullInt(medicine.Stock),
		"category":     toNullString(medicine.Category),
		"prescription": toNullBool(medicine.Prescription),
		"description":  toNullString(medicine.Description),
		"usage":        toNullString(medicine.Usage),
		"updated_at":   medicine.UpdatedAt,
	}

	query, args, err := a.db.Insert(medicinesTable).
		Rows(record).
		OnConflict(goqu.DoUpdate("id", goqu.Record{
			"name":         goqu.I("excluded.name"),
			"generic_name": goqu.I("excluded.generic_name"),
			"dosage":       goqu.I("excluded.dosage"),
			"price":        goqu.I("excluded.price"),
			"stock":        goqu.I("excluded.stock"),
			"category":     goqu.I("excluded.category"),
			"prescription": goqu.I("excluded.prescription"),
			"description":  goqu.I("excluded.description"),
			"usage":        goqu.I("excluded.usage"),
			"updated_at":   goqu.I("excluded.updated_at"),
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert medicine", err)
	}
	return nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func toNullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func toNullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func toNullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
