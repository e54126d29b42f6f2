package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateSnapshot is an immutable view of the exchange-rate table. Rates map a
// currency code to the number of units per one unit of the base currency.
// A refresh either replaces the whole table or leaves the previous snapshot
// in place; partial tables are never exposed.
type RateSnapshot struct {
	Base        Currency                     `json:"base"`
	Rates       map[Currency]decimal.Decimal `json:"rates"`
	LastUpdated time.Time                    `json:"last_updated"`
}

// Rate returns the rate for a currency and whether it is present
func (s *RateSnapshot) Rate(c Currency) (decimal.Decimal, bool) {
	r, ok := s.Rates[c]
	return r, ok
}

// Age returns how old the snapshot is relative to now
func (s *RateSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.LastUpdated)
}

// Clone returns a deep copy so callers can never mutate the cached table
func (s *RateSnapshot) Clone() *RateSnapshot {
	rates := make(map[Currency]decimal.Decimal, len(s.Rates))
	for c, r := range s.Rates {
		rates[c] = r
	}
	return &RateSnapshot{Base: s.Base, Rates: rates, LastUpdated: s.LastUpdated}
}
