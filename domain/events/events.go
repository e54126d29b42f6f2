package events

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"luckybit/domain/entities"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange EventType = "balance_change"
	EventTypeRoundSettled  EventType = "round_settled"
	EventTypeRatesUpdated  EventType = "rates_updated"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	AccountID     int64              `json:"account_id"`
	BalanceBefore decimal.Decimal    `json:"balance_before"`
	BalanceAfter  decimal.Decimal    `json:"balance_after"`
	Currency      entities.Currency  `json:"currency"`
	EntryType     entities.EntryType `json:"entry_type"`
	ChangeAmount  decimal.Decimal    `json:"change_amount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// RoundSettledEvent represents a game round that was settled, win or lose.
// It feeds the cross-client recent-winners stream.
type RoundSettledEvent struct {
	AccountID  int64             `json:"account_id"`
	SessionID  uuid.UUID         `json:"session_id"`
	GameType   entities.GameType `json:"game_type"`
	BetAmount  decimal.Decimal   `json:"bet_amount"`
	WinAmount  decimal.Decimal   `json:"win_amount"`
	Currency   entities.Currency `json:"currency"`
	IsWin      bool              `json:"is_win"`
	Multiplier float64           `json:"multiplier"`
}

func (e RoundSettledEvent) Type() EventType {
	return EventTypeRoundSettled
}

// RatesUpdatedEvent is emitted after a successful exchange-rate refresh
type RatesUpdatedEvent struct {
	Base       entities.Currency `json:"base"`
	Currencies int               `json:"currencies"`
}

func (e RatesUpdatedEvent) Type() EventType {
	return EventTypeRatesUpdated
}
