package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/eaglebank/ledger/shared/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBalanceCache struct {
	mu      sync.Mutex
	entries map[string]models.BalanceView
	gets    int
}

func newFakeBalanceCache() *fakeBalanceCache {
	return &fakeBalanceCache{entries: make(map[string]models.BalanceView)}
}

func (c *fakeBalanceCache) Get(_ context.Context, key string) (*models.BalanceView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return &v, true
}

func (c *fakeBalanceCache) Set(_ context.Context, key string, value *models.BalanceView) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = *value
}

func (c *fakeBalanceCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func TestBalanceReadRepositoryWarmsCache(t *testing.T) {
	store := seedMemoryStore(t, map[string]int64{"alice": 42})
	cache := newFakeBalanceCache()
	repo := NewBalanceReadRepository(store, cache)
	ctx := context.Background()

	view, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, view.Balance.Equal(decimal.NewFromInt(42)))
	assert.Contains(t, cache.entries, "alice")

	cache.entries["alice"] = models.BalanceView{Username: "alice", Balance: decimal.NewFromInt(7)}
	view, err = repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, view.Balance.Equal(decimal.NewFromInt(7)), "cached view should be served")
}

func TestBalanceReadRepositoryWithoutCache(t *testing.T) {
	store := seedMemoryStore(t, map[string]int64{"alice": 1})
	repo := NewBalanceReadRepository(store, nil)

	view, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", view.Username)

	_, err = repo.GetByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	repo.CacheBalanceView(context.Background(), view)
}

func TestBalanceReadRepositoryInvalidate(t *testing.T) {
	store := seedMemoryStore(t, map[string]int64{"alice": 42})
	cache := newFakeBalanceCache()
	repo := NewBalanceReadRepository(store, cache)
	ctx := context.Background()

	repo.CacheBalanceView(ctx, &models.BalanceView{Username: "alice", Balance: decimal.NewFromInt(7)})
	repo.InvalidateBalanceView(ctx, "alice")
	assert.NotContains(t, cache.entries, "alice")

	view, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, view.Balance.Equal(decimal.NewFromInt(42)))

	NewBalanceReadRepository(store, nil).InvalidateBalanceView(ctx, "alice")
}
