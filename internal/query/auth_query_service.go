package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/eaglebank/ledger/internal/repository"
	"github.com/eaglebank/ledger/internal/token"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/metrics"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/shared/utils"
)

// Tokens issues and validates bearer tokens. *token.Service satisfies it.
type Tokens interface {
	IssuePair(username string) (*models.TokenPair, error)
	IssueAccess(username string) (string, error)
	Validate(tokenString string, want token.Type) (string, error)
}

// AuthQueryService handles login and token refresh. Neither mutates state,
// so there is no command-side counterpart.
type AuthQueryService struct {
	store   repository.UserStore
	tokens  Tokens
	metrics *metrics.Metrics
}

func NewAuthQueryService(store repository.UserStore, tokens Tokens, m *metrics.Metrics) *AuthQueryService {
	return &AuthQueryService{store: store, tokens: tokens, metrics: m}
}

func (s *AuthQueryService) Login(ctx context.Context, cmd cqrs.LoginCommand) (*models.TokenPair, error) {
	user, err := s.store.FindByUsername(ctx, cmd.Username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.metrics.ObserveLogin(metrics.OutcomeRejected)
			return nil, err
		}
		s.metrics.ObserveLogin(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !utils.CheckPassword(cmd.Password, user.PasswordHash) {
		s.metrics.ObserveLogin(metrics.OutcomeRejected)
		return nil, models.ErrInvalidCredentials
	}
	pair, err := s.tokens.IssuePair(user.Username)
	if err != nil {
		s.metrics.ObserveLogin(metrics.OutcomeError)
		return nil, err
	}
	s.metrics.ObserveLogin(metrics.OutcomeSuccess)
	return pair, nil
}

// RefreshToken mints a new access token from a refresh token. The subject
// must still resolve to a stored user.
func (s *AuthQueryService) RefreshToken(ctx context.Context, cmd cqrs.RefreshTokenCommand) (string, error) {
	username, err := s.tokens.Validate(cmd.Token, token.Refresh)
	if err != nil {
		return "", err
	}
	if _, err := s.store.FindByUsername(ctx, username); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return "", token.ErrInvalidToken
		}
		return "", fmt.Errorf("failed to look up token subject: %w", err)
	}
	return s.tokens.IssueAccess(username)
}
