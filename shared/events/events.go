package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	UserRegistered = "user.registered"
	BalanceUpdated = "balance.updated"
)

// Stream names
const (
	UserEventsStream    = "user.events"
	BalanceEventsStream = "balance.events"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type UserRegisteredEvent struct {
	Username string `json:"username"`
}

// BalanceUpdatedEvent is emitted once per affected user after a transfer
// commits. Change is negative for the paying side.
type BalanceUpdatedEvent struct {
	Username   string          `json:"username"`
	NewBalance decimal.Decimal `json:"newBalance"`
	Change     decimal.Decimal `json:"change"`
}
