package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eaglebank/ledger/internal/repository"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/events"
	"github.com/eaglebank/ledger/shared/metrics"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/shared/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// TokenIssuer mints the token pair handed out on registration.
type TokenIssuer interface {
	IssuePair(username string) (*models.TokenPair, error)
}

// EventPublisher is satisfied by events.Publisher and events.NopPublisher.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// AccountCommandService owns every write: registration and transfers.
// Balance checks always read the store, never the cached view.
type AccountCommandService struct {
	store     repository.UserStore
	readRepo  *repository.BalanceReadRepository
	tokens    TokenIssuer
	publisher EventPublisher
	metrics   *metrics.Metrics
	log       *logrus.Entry
	now       func() time.Time
}

func NewAccountCommandService(
	store repository.UserStore,
	readRepo *repository.BalanceReadRepository,
	tokens TokenIssuer,
	publisher EventPublisher,
	m *metrics.Metrics,
	log *logrus.Entry,
) *AccountCommandService {
	return &AccountCommandService{
		store:     store,
		readRepo:  readRepo,
		tokens:    tokens,
		publisher: publisher,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

func (s *AccountCommandService) Register(ctx context.Context, cmd cqrs.RegisterCommand) (*cqrs.RegisterResult, error) {
	_, err := s.store.FindByUsername(ctx, cmd.Username)
	if err == nil {
		s.metrics.ObserveRegistration(metrics.OutcomeRejected)
		return nil, models.ErrUserExists
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		s.metrics.ObserveRegistration(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	if len(cmd.Password) > utils.MaxPasswordLength {
		s.metrics.ObserveRegistration(metrics.OutcomeRejected)
		return nil, models.ErrPasswordTooLong
	}

	passwordHash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		s.metrics.ObserveRegistration(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := s.now().UTC()
	user := &models.User{
		Username:     cmd.Username,
		PasswordHash: passwordHash,
		Balance:      decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrUserExists) {
			s.metrics.ObserveRegistration(metrics.OutcomeRejected)
			return nil, err
		}
		s.metrics.ObserveRegistration(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	tokens, err := s.tokens.IssuePair(user.Username)
	if err != nil {
		s.metrics.ObserveRegistration(metrics.OutcomeError)
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.UserEventsStream, events.UserRegistered, events.UserRegisteredEvent{
		Username: user.Username,
	}); err != nil {
		s.log.WithError(err).Warn("failed to publish user.registered event")
	}
	s.metrics.ObserveRegistration(metrics.OutcomeSuccess)
	s.log.WithField("username", user.Username).Info("user registered")
	return &cqrs.RegisterResult{User: user, Tokens: tokens}, nil
}

// Transfer moves credit from cmd.Source to cmd.Target. The checks run in a
// fixed order and the first failure wins: target exists, amount is positive,
// not a self-transfer, source exists, source has the funds. The store then
// applies both sides atomically and re-checks funds under lock.
func (s *AccountCommandService) Transfer(ctx context.Context, cmd cqrs.TransferCommand) (*models.Transfer, error) {
	transfer, err := s.transfer(ctx, cmd)
	switch {
	case err == nil:
		s.metrics.ObserveTransfer(metrics.OutcomeSuccess)
	case isBusinessError(err):
		s.metrics.ObserveTransfer(metrics.OutcomeRejected)
	default:
		s.metrics.ObserveTransfer(metrics.OutcomeError)
		s.log.WithError(err).WithFields(logrus.Fields{
			"source": cmd.Source,
			"target": cmd.Target,
		}).Error("transfer failed")
	}
	return transfer, err
}

func (s *AccountCommandService) transfer(ctx context.Context, cmd cqrs.TransferCommand) (*models.Transfer, error) {
	if _, err := s.store.FindByUsername(ctx, cmd.Target); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrTargetNotFound
		}
		return nil, fmt.Errorf("failed to look up target: %w", err)
	}

	amount, err := decimal.NewFromString(cmd.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}
	if cmd.Source == cmd.Target {
		return nil, models.ErrSelfTransfer
	}

	source, err := s.store.FindByUsername(ctx, cmd.Source)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to look up source: %w", err)
	}
	if source.Balance.LessThan(amount) {
		return nil, models.ErrInsufficientFunds
	}

	transfer := &models.Transfer{Source: cmd.Source, Target: cmd.Target, Amount: amount}
	if err := s.store.UpdateBalances(ctx, transfer); err != nil {
		if isBusinessError(err) {
			return nil, err
		}
		// The commit outcome is unknown.
		s.invalidateViews(ctx, cmd.Source, cmd.Target)
		return nil, fmt.Errorf("failed to apply transfer: %w", err)
	}

	// Committed views are dropped, never written: concurrent transfers can
	// finish their cache writes in a different order than they committed.
	s.invalidateViews(ctx, transfer.Source, transfer.Target)
	s.publishBalanceUpdated(ctx, transfer.Source, transfer.SourceBalance, amount.Neg())
	s.publishBalanceUpdated(ctx, transfer.Target, transfer.TargetBalance, amount)

	s.log.WithFields(logrus.Fields{
		"source": transfer.Source,
		"target": transfer.Target,
		"amount": amount.String(),
	}).Info("transfer committed")
	return transfer, nil
}

func (s *AccountCommandService) publishBalanceUpdated(ctx context.Context, username string, balance, change decimal.Decimal) {
	if err := s.publisher.Publish(ctx, events.BalanceEventsStream, events.BalanceUpdated, events.BalanceUpdatedEvent{
		Username:   username,
		NewBalance: balance,
		Change:     change,
	}); err != nil {
		s.log.WithError(err).WithField("username", username).Warn("failed to publish balance.updated event")
	}
}

func (s *AccountCommandService) invalidateViews(ctx context.Context, usernames ...string) {
	for _, username := range usernames {
		s.readRepo.InvalidateBalanceView(ctx, username)
	}
}

func isBusinessError(err error) bool {
	return errors.Is(err, models.ErrTargetNotFound) ||
		errors.Is(err, models.ErrUserNotFound) ||
		errors.Is(err, models.ErrInvalidAmount) ||
		errors.Is(err, models.ErrSelfTransfer) ||
		errors.Is(err, models.ErrInsufficientFunds)
}
