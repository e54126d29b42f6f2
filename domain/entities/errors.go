package entities

import "errors"

// Domain error taxonomy. Services wrap these with context via %w so callers
// can classify failures with errors.Is.
var (
	ErrAccountNotFound       = errors.New("account not found")
	ErrInvalidAmount         = errors.New("amount must be a positive number")
	ErrInvalidBet            = errors.New("invalid bet amount")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInvalidCurrency       = errors.New("unsupported currency code")
	ErrConversionUnavailable = errors.New("exchange rates unavailable")
	ErrUnsupportedGame       = errors.New("unsupported game type")
)
