package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType represents the kind of balance change a ledger entry records
type EntryType string

// All entry types supported by the ledger
const (
	EntryTypeBet             EntryType = "bet"
	EntryTypeWin             EntryType = "win"
	EntryTypeDeposit         EntryType = "deposit"
	EntryTypeWithdrawal      EntryType = "withdrawal"
	EntryTypeAdminAdjustment EntryType = "admin_adjustment"
	EntryTypeCurrencyChange  EntryType = "currency_change"
)

// EntryStatus is the settlement status of a ledger entry
type EntryStatus string

const (
	EntryStatusCompleted EntryStatus = "completed"
	EntryStatusPending   EntryStatus = "pending"
)

// LedgerEntry is an immutable record of a single balance-affecting event.
// Amount is signed: positive for credits, negative for debits. The account
// balance is a cached value derived from the entry stream; BalanceBefore and
// BalanceAfter pin each entry to the snapshot it was applied against.
type LedgerEntry struct {
	ID            int64           `db:"id"`
	AccountID     int64           `db:"account_id"`
	Amount        decimal.Decimal `db:"amount"`
	Currency      Currency        `db:"currency"`
	EntryType     EntryType       `db:"entry_type"`
	Status        EntryStatus     `db:"status"`
	SessionID     *uuid.UUID      `db:"session_id"`
	Metadata      map[string]any  `db:"metadata"`
	BalanceBefore decimal.Decimal `db:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`
	CreatedAt     time.Time       `db:"created_at"`
}

// IsCredit returns true if the entry increased the balance
func (e *LedgerEntry) IsCredit() bool {
	return e.Amount.IsPositive()
}

// IsDebit returns true if the entry decreased the balance
func (e *LedgerEntry) IsDebit() bool {
	return e.Amount.IsNegative()
}

// IsGameplay returns true for entries produced by game rounds
func (e *LedgerEntry) IsGameplay() bool {
	return e.EntryType == EntryTypeBet || e.EntryType == EntryTypeWin
}

// Validate performs basic consistency checks before the entry is persisted.
// Currency-change entries are exempt from the arithmetic check: their before
// and after balances are denominated in different currencies.
func (e *LedgerEntry) Validate() error {
	if !e.Currency.IsValid() {
		return errors.New("entry currency is not supported")
	}
	if e.EntryType == EntryTypeCurrencyChange {
		return nil
	}
	if e.Amount.IsZero() {
		return errors.New("entry amount cannot be zero")
	}
	if !e.BalanceAfter.Equal(e.BalanceBefore.Add(e.Amount)) {
		return errors.New("balance calculation is inconsistent")
	}
	return nil
}
