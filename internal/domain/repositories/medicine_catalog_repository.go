package repositories

import (
	"context"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
)

// MedicineCatalogRepository reads the backend medicine collection
type MedicineCatalogRepository interface {
	// ListAll returns every catalog row, unfiltered
	ListAll(ctx context.Context) ([]*entities.CatalogMedicine, error)

	// Upsert inserts or replaces a catalog row keyed by id
	Upsert(ctx context.Context, medicine *entities.CatalogMedicine) error
}
