package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"luckybit/domain/entities"
)

// AccountRepository manages player account records
type AccountRepository interface {
	// GetByID retrieves an account by id, nil if it does not exist
	GetByID(ctx context.Context, accountID int64) (*entities.Account, error)

	// Create creates a new account with an initial balance
	Create(ctx context.Context, currency entities.Currency, initialBalance decimal.Decimal) (*entities.Account, error)

	// UpdateBalance sets the cached balance for an account
	UpdateBalance(ctx context.Context, accountID int64, newBalance decimal.Decimal) error

	// UpdateCurrency sets both the currency and the converted balance in one statement
	UpdateCurrency(ctx context.Context, accountID int64, currency entities.Currency, newBalance decimal.Decimal) error
}

// LedgerRepository persists the append-only entry stream
type LedgerRepository interface {
	// Record appends a ledger entry and sets its generated ID
	Record(ctx context.Context, entry *entities.LedgerEntry) error

	// GetByAccount returns the most recent entries for an account
	GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.LedgerEntry, error)
}

// GameHistoryRepository persists settled rounds for statistics and feeds
type GameHistoryRepository interface {
	// Record appends a settled round and sets its generated ID
	Record(ctx context.Context, round *entities.GameRound) error

	// GetByAccount returns the most recent rounds for an account
	GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.GameRound, error)

	// RecentWinners returns the most recent winning rounds across all accounts
	RecentWinners(ctx context.Context, limit int) ([]*entities.GameRound, error)
}
