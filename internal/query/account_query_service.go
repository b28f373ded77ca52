package query

import (
	"context"

	"github.com/eaglebank/ledger/internal/repository"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/models"
)

// AccountQueryService serves balance reads from the read repository.
type AccountQueryService struct {
	readRepo *repository.BalanceReadRepository
}

func NewAccountQueryService(readRepo *repository.BalanceReadRepository) *AccountQueryService {
	return &AccountQueryService{readRepo: readRepo}
}

func (s *AccountQueryService) GetBalance(ctx context.Context, q cqrs.GetBalanceQuery) (*models.BalanceView, error) {
	return s.readRepo.GetByUsername(ctx, q.Username)
}
