package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is the write model persisted by the credential store.
type User struct {
	Username     string          `json:"username"`
	PasswordHash string          `json:"-"`
	Balance      decimal.Decimal `json:"balance"`
	CreatedAt    time.Time       `json:"createdTimestamp"`
	UpdatedAt    time.Time       `json:"updatedTimestamp"`
}

// Transfer describes a single balance movement between two users.
// SourceBalance and TargetBalance are filled in by the store after commit.
type Transfer struct {
	Source        string
	Target        string
	Amount        decimal.Decimal
	SourceBalance decimal.Decimal
	TargetBalance decimal.Decimal
}

// TokenPair is handed out on registration and login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
