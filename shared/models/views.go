package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceView is the read-optimised projection of a user's balance.
// It never exposes PasswordHash.
type BalanceView struct {
	Username  string          `json:"username"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updatedTimestamp"`
}

func NewBalanceView(u *User) *BalanceView {
	return &BalanceView{
		Username:  u.Username,
		Balance:   u.Balance,
		UpdatedAt: u.UpdatedAt,
	}
}
