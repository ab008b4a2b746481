package database

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/providers"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/repositories"
	"github.com/ruralhealth/pharmacy-discovery/internal/infrastructure/observability"
)

const catalogCacheKey = "catalog:medicines:all"

// CachedMedicineCatalogAdapter keeps a short-lived snapshot of the whole catalog in the
// cache so that every aggregation does not hit Postgres.
type CachedMedicineCatalogAdapter struct {
	repo  repositories.MedicineCatalogRepository
	cache providers.CacheProvider
	ttl   int
}

// NewCachedMedicineCatalogAdapter wraps repo. ttlSeconds <= 0 disables caching.
func NewCachedMedicineCatalogAdapter(repo repositories.MedicineCatalogRepository, cache providers.CacheProvider, ttlSeconds int) *CachedMedicineCatalogAdapter {
	return &CachedMedicineCatalogAdapter{
		repo:  repo,
		cache: cache,
		ttl:   ttlSeconds,
	}
}

var _ repositories.MedicineCatalogRepository = (*CachedMedicineCatalogAdapter)(nil)

// ListAll serves the snapshot from cache when present, otherwise reads through and
// repopulates in the background.
func (a *CachedMedicineCatalogAdapter) ListAll(ctx context.Context) ([]*entities.CatalogMedicine, error) {
	if a.ttl <= 0 || a.cache == nil {
		return a.repo.ListAll(ctx)
	}

	cached, err := a.cache.Get(ctx, catalogCacheKey)
	if err == nil {
		var medicines []*entities.CatalogMedicine
		if err := json.Unmarshal(cached, &medicines); err == nil {
			return medicines, nil
		}
	} else if !errors.Is(err, providers.ErrCacheMiss) {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("catalog cache read failed")
	}

	medicines, err := a.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(medicines); err == nil {
		go func() {
			// detached from the request so a cancelled caller does not skip the refill
			if err := a.cache.Set(context.WithoutCancel(ctx), catalogCacheKey, data, a.ttl); err != nil {
				observability.LoggerFromContext(ctx).Warn().Err(err).Msg("catalog cache write failed")
			}
		}()
	}
	return medicines, nil
}

// Upsert writes through and drops the snapshot
func (a *CachedMedicineCatalogAdapter) Upsert(ctx context.Context, medicine *entities.CatalogMedicine) error {
	if err := a.repo.Upsert(ctx, medicine); err != nil {
		return err
	}
	if a.cache != nil {
		if err := a.cache.Delete(ctx, catalogCacheKey); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("catalog cache invalidation failed")
		}
	}
	return nil
}
