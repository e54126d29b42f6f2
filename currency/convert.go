package currency

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"luckybit/domain/entities"
)

// Convert converts an amount between two currency codes via the base unit,
// rounding the result to the target currency's precision. Same-currency
// conversion is an identity, unknown codes fail with ErrInvalidCurrency.
func (s *RateService) Convert(ctx context.Context, amount decimal.Decimal, from, to entities.Currency) (decimal.Decimal, error) {
	if !from.IsValid() {
		return decimal.Zero, fmt.Errorf("%w: %s", entities.ErrInvalidCurrency, from)
	}
	if !to.IsValid() {
		return decimal.Zero, fmt.Errorf("%w: %s", entities.ErrInvalidCurrency, to)
	}
	if from == to {
		return amount, nil
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return ConvertWithSnapshot(snap, amount, from, to)
}

// ConvertWithSnapshot performs the conversion against a fixed snapshot. The
// game round settlement path uses this so the debit, the credit and the
// response all see the same rate.
func ConvertWithSnapshot(snap *entities.RateSnapshot, amount decimal.Decimal, from, to entities.Currency) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	fromRate, ok := snap.Rate(from)
	if !ok || !fromRate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: no rate for %s", entities.ErrConversionUnavailable, from)
	}
	toRate, ok := snap.Rate(to)
	if !ok || !toRate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: no rate for %s", entities.ErrConversionUnavailable, to)
	}

	converted := amount.Div(fromRate).Mul(toRate)
	return to.Round(converted), nil
}

// ExchangeRate returns the multiplier applied when converting one unit of
// from into to, i.e. rate[to] / rate[from].
func (s *RateService) ExchangeRate(ctx context.Context, from, to entities.Currency) (decimal.Decimal, error) {
	if !from.IsValid() {
		return decimal.Zero, fmt.Errorf("%w: %s", entities.ErrInvalidCurrency, from)
	}
	if !to.IsValid() {
		return decimal.Zero, fmt.Errorf("%w: %s", entities.ErrInvalidCurrency, to)
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	fromRate, ok := snap.Rate(from)
	if !ok || !fromRate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: no rate for %s", entities.ErrConversionUnavailable, from)
	}
	toRate, ok := snap.Rate(to)
	if !ok || !toRate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: no rate for %s", entities.ErrConversionUnavailable, to)
	}
	return toRate.Div(fromRate), nil
}
