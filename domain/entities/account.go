package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a player account with its stored balance.
// The balance is always expressed in the account's currency; changing
// currency converts the stored value, it never just relabels it.
type Account struct {
	ID        int64           `db:"id"`
	Balance   decimal.Decimal `db:"balance"`
	Currency  Currency        `db:"currency"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// CanAfford checks if the account has sufficient balance for an amount
// already expressed in the account's currency
func (a *Account) CanAfford(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// HasPositiveBalance checks if the account holds any funds
func (a *Account) HasPositiveBalance() bool {
	return a.Balance.IsPositive()
}

// CalculateNewBalance returns the balance after applying a signed change,
// rounded to the account currency's precision
func (a *Account) CalculateNewBalance(change decimal.Decimal) decimal.Decimal {
	return a.Currency.Round(a.Balance.Add(change))
}
