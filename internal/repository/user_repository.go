package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eaglebank/ledger/shared/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// UserStore is the credential store consumed by the command and query services.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateBalances(ctx context.Context, transfer *models.Transfer) error
}

// PostgresUserStore is the PostgreSQL implementation of UserStore.
// Every call runs under its own timeout so a stuck database surfaces as an
// error instead of a hung request.
type PostgresUserStore struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresUserStore(db *sql.DB, timeout time.Duration) *PostgresUserStore {
	return &PostgresUserStore{db: db, timeout: timeout}
}

func (r *PostgresUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT username, password_hash, balance, created_at, updated_at
		FROM users
		WHERE username = $1
	`
	var user models.User
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.Username, &user.PasswordHash, &user.Balance, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *PostgresUserStore) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO users (username, password_hash, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.Username, user.PasswordHash, user.Balance, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdateBalances moves t.Amount from t.Source to t.Target in one transaction.
// Both rows are locked in username order, so concurrent transfers over the
// same pair cannot deadlock, and the source balance is re-checked under the
// lock.
func (r *PostgresUserStore) UpdateBalances(ctx context.Context, t *models.Transfer) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transfer: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT username, balance
		FROM users
		WHERE username = ANY($1)
		ORDER BY username
		FOR UPDATE
	`, pq.Array([]string{t.Source, t.Target}))
	if err != nil {
		return fmt.Errorf("failed to lock balances: %w", err)
	}
	balances := make(map[string]decimal.Decimal, 2)
	for rows.Next() {
		var username string
		var balance decimal.Decimal
		if err := rows.Scan(&username, &balance); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan balance: %w", err)
		}
		balances[username] = balance
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to read balances: %w", err)
	}
	rows.Close()

	source, ok := balances[t.Source]
	if !ok {
		return models.ErrUserNotFound
	}
	if _, ok := balances[t.Target]; !ok {
		return models.ErrTargetNotFound
	}
	if source.LessThan(t.Amount) {
		return models.ErrInsufficientFunds
	}

	debit := `UPDATE users SET balance = balance - $2, updated_at = NOW() WHERE username = $1 RETURNING balance`
	if err := tx.QueryRowContext(ctx, debit, t.Source, t.Amount).Scan(&t.SourceBalance); err != nil {
		return fmt.Errorf("failed to debit source: %w", err)
	}
	credit := `UPDATE users SET balance = balance + $2, updated_at = NOW() WHERE username = $1 RETURNING balance`
	if err := tx.QueryRowContext(ctx, credit, t.Target, t.Amount).Scan(&t.TargetBalance); err != nil {
		return fmt.Errorf("failed to credit target: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transfer: %w", err)
	}
	return nil
}

func (r *PostgresUserStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}
