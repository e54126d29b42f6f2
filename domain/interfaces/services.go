package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"luckybit/domain/entities"
	"luckybit/domain/events"
)

// EventPublisher publishes domain events to the message bus
type EventPublisher interface {
	Publish(event events.Event) error
}

// Notifier pushes events to an account's live client connections. Delivery is
// best effort: zero connected clients is not an error and failures must never
// surface to the mutation path.
type Notifier interface {
	// NotifyBalance pushes the new balance to every live connection of the account
	NotifyBalance(accountID int64, balance decimal.Decimal, currency entities.Currency, previous decimal.Decimal, entryType entities.EntryType)

	// NotifyRoundResult fans a settled round out to all live connections
	NotifyRoundResult(accountID int64, round *entities.GameRound)
}

// RateConverter converts amounts between currencies using the cached rate table
type RateConverter interface {
	// Convert converts an amount between two currency codes, rounded to the
	// target currency's precision
	Convert(ctx context.Context, amount decimal.Decimal, from, to entities.Currency) (decimal.Decimal, error)

	// ExchangeRate returns rate[to]/rate[from]
	ExchangeRate(ctx context.Context, from, to entities.Currency) (decimal.Decimal, error)

	// Snapshot returns the current rate table, refreshing it if stale
	Snapshot(ctx context.Context) (*entities.RateSnapshot, error)
}

// UnitOfWork bundles repository access into a single database transaction
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	AccountRepository() AccountRepository
	LedgerRepository() LedgerRepository
	GameHistoryRepository() GameHistoryRepository
}

// UnitOfWorkFactory creates units of work bound to the shared pool
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
