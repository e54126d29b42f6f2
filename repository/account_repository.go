package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"luckybit/database"
	"luckybit/domain/entities"
)

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q Queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository bound to a transaction
func newAccountRepositoryWithTx(tx Queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

// GetByID retrieves an account by id, nil if it does not exist
func (r *AccountRepository) GetByID(ctx context.Context, accountID int64) (*entities.Account, error) {
	query := `
		SELECT id, balance, currency, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	var account entities.Account
	err := r.q.QueryRow(ctx, query, accountID).Scan(
		&account.ID,
		&account.Balance,
		&account.Currency,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", accountID, err)
	}

	return &account, nil
}

// Create creates a new account with an initial balance
func (r *AccountRepository) Create(ctx context.Context, currency entities.Currency, initialBalance decimal.Decimal) (*entities.Account, error) {
	query := `
		INSERT INTO accounts (balance, currency)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`

	account := &entities.Account{
		Balance:  initialBalance,
		Currency: currency,
	}
	err := r.q.QueryRow(ctx, query, initialBalance, currency).Scan(
		&account.ID,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

// UpdateBalance sets the cached balance for an account
func (r *AccountRepository) UpdateBalance(ctx context.Context, accountID int64, newBalance decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = $1, updated_at = NOW()
		WHERE id = $2
	`
	result, err := r.q.Exec(ctx, query, newBalance, accountID)
	if err != nil {
		return fmt.Errorf("failed to update balance for account %d: %w", accountID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %d not found", accountID)
	}

	return nil
}

// UpdateCurrency sets both the currency and the converted balance in one statement
func (r *AccountRepository) UpdateCurrency(ctx context.Context, accountID int64, currency entities.Currency, newBalance decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET currency = $1, balance = $2, updated_at = NOW()
		WHERE id = $3
	`
	result, err := r.q.Exec(ctx, query, currency, newBalance, accountID)
	if err != nil {
		return fmt.Errorf("failed to update currency for account %d: %w", accountID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %d not found", accountID)
	}

	return nil
}
