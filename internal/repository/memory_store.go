package repository

import (
	"context"
	"sync"
	"time"

	"github.com/eaglebank/ledger/shared/models"
)

// MemoryUserStore keeps users in process memory. All mutations happen under
// one mutex, so a transfer's check and apply are a single critical section.
// Selected with DATABASE_URL=memory:// and used by service tests.
type MemoryUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
	now   func() time.Time
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]*models.User), now: time.Now}
}

// FindByUsername returns a copy; callers cannot mutate stored state.
func (s *MemoryUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Username]; ok {
		return models.ErrUserExists
	}
	cp := *user
	s.users[user.Username] = &cp
	return nil
}

func (s *MemoryUserStore) UpdateBalances(_ context.Context, t *models.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	source, ok := s.users[t.Source]
	if !ok {
		return models.ErrUserNotFound
	}
	target, ok := s.users[t.Target]
	if !ok {
		return models.ErrTargetNotFound
	}
	if source.Balance.LessThan(t.Amount) {
		return models.ErrInsufficientFunds
	}

	now := s.now().UTC()
	source.Balance = source.Balance.Sub(t.Amount)
	source.UpdatedAt = now
	target.Balance = target.Balance.Add(t.Amount)
	target.UpdatedAt = now

	t.SourceBalance = source.Balance
	t.TargetBalance = target.Balance
	return nil
}
