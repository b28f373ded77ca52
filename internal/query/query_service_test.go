package query

import (
	"context"
	"testing"
	"time"

	"github.com/eaglebank/ledger/internal/repository"
	"github.com/eaglebank/ledger/internal/token"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/metrics"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/shared/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreWithUser(t *testing.T, username, password string, balance int64) *repository.MemoryUserStore {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	store := repository.NewMemoryUserStore()
	require.NoError(t, store.Create(context.Background(), &models.User{
		Username: username, PasswordHash: hash, Balance: decimal.NewFromInt(balance),
	}))
	return store
}

func newTokens() *token.Service {
	return token.NewService("query-test-secret", time.Minute, time.Hour)
}

func TestLogin(t *testing.T) {
	store := newStoreWithUser(t, "alice", "correct horse", 0)
	tokens := newTokens()
	svc := NewAuthQueryService(store, tokens, metrics.New())
	ctx := context.Background()

	pair, err := svc.Login(ctx, cqrs.LoginCommand{Username: "alice", Password: "correct horse"})
	require.NoError(t, err)
	sub, err := tokens.Validate(pair.AccessToken, token.Access)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)
	_, err = tokens.Validate(pair.RefreshToken, token.Refresh)
	assert.NoError(t, err)

	pair, err = svc.Login(ctx, cqrs.LoginCommand{Username: "alice", Password: "battery staple"})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	assert.Nil(t, pair)

	pair, err = svc.Login(ctx, cqrs.LoginCommand{Username: "bob", Password: "correct horse"})
	assert.ErrorIs(t, err, models.ErrUserNotFound)
	assert.Nil(t, pair)
}

func TestRefreshToken(t *testing.T) {
	store := newStoreWithUser(t, "alice", "pw", 0)
	tokens := newTokens()
	svc := NewAuthQueryService(store, tokens, metrics.New())
	ctx := context.Background()

	pair, err := tokens.IssuePair("alice")
	require.NoError(t, err)

	access, err := svc.RefreshToken(ctx, cqrs.RefreshTokenCommand{Token: pair.RefreshToken})
	require.NoError(t, err)
	sub, err := tokens.Validate(access, token.Access)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)

	_, err = svc.RefreshToken(ctx, cqrs.RefreshTokenCommand{Token: pair.AccessToken})
	assert.ErrorIs(t, err, token.ErrWrongTokenType)

	_, err = svc.RefreshToken(ctx, cqrs.RefreshTokenCommand{Token: "garbage"})
	assert.ErrorIs(t, err, token.ErrInvalidToken)

	orphan, err := tokens.IssuePair("ghost")
	require.NoError(t, err)
	_, err = svc.RefreshToken(ctx, cqrs.RefreshTokenCommand{Token: orphan.RefreshToken})
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestGetBalance(t *testing.T) {
	store := newStoreWithUser(t, "alice", "pw", 25)
	svc := NewAccountQueryService(repository.NewBalanceReadRepository(store, nil))

	view, err := svc.GetBalance(context.Background(), cqrs.GetBalanceQuery{Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice", view.Username)
	assert.True(t, view.Balance.Equal(decimal.NewFromInt(25)))

	_, err = svc.GetBalance(context.Background(), cqrs.GetBalanceQuery{Username: "ghost"})
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}
