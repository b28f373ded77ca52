package repository

import (
	"context"

	"github.com/eaglebank/ledger/shared/models"
)

// BalanceCache is the read-model cache for balance views. shared/redis.ViewCache
// satisfies it.
type BalanceCache interface {
	Get(ctx context.Context, key string) (*models.BalanceView, bool)
	Set(ctx context.Context, key string, value *models.BalanceView)
	Delete(ctx context.Context, key string)
}

// BalanceReadRepository serves balance views, trying the cache first and
// falling back to the store. A nil cache disables caching.
type BalanceReadRepository struct {
	store UserStore
	cache BalanceCache
}

func NewBalanceReadRepository(store UserStore, cache BalanceCache) *BalanceReadRepository {
	return &BalanceReadRepository{store: store, cache: cache}
}

func (r *BalanceReadRepository) GetByUsername(ctx context.Context, username string) (*models.BalanceView, error) {
	if r.cache != nil {
		if view, ok := r.cache.Get(ctx, username); ok {
			return view, nil
		}
	}

	user, err := r.store.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	view := models.NewBalanceView(user)

	// Warm the cache
	r.CacheBalanceView(ctx, view)
	return view, nil
}

// CacheBalanceView stores view. Writers never call it; after a balance change
// they use InvalidateBalanceView and let the next read refill the cache.
func (r *BalanceReadRepository) CacheBalanceView(ctx context.Context, view *models.BalanceView) {
	if r.cache == nil {
		return
	}
	r.cache.Set(ctx, view.Username, view)
}

// InvalidateBalanceView drops the cached view so the next read goes to the store.
func (r *BalanceReadRepository) InvalidateBalanceView(ctx context.Context, username string) {
	if r.cache == nil {
		return
	}
	r.cache.Delete(ctx, username)
}
