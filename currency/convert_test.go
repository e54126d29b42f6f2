package currency

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luckybit/domain/entities"
)

func testSnapshot() *entities.RateSnapshot {
	return &entities.RateSnapshot{
		Base: entities.CurrencyUSD,
		Rates: map[entities.Currency]decimal.Decimal{
			entities.CurrencyUSD: decimal.NewFromInt(1),
			entities.CurrencyBDT: decimal.NewFromInt(110),
			entities.CurrencyTON: decimal.RequireFromString("0.18"),
		},
		LastUpdated: time.Now(),
	}
}

func TestConvertWithSnapshot(t *testing.T) {
	snap := testSnapshot()

	t.Run("same currency is identity", func(t *testing.T) {
		amount := decimal.RequireFromString("123.456")
		got, err := ConvertWithSnapshot(snap, amount, entities.CurrencyUSD, entities.CurrencyUSD)
		require.NoError(t, err)
		assert.True(t, got.Equal(amount))
	})

	t.Run("usd to bdt", func(t *testing.T) {
		got, err := ConvertWithSnapshot(snap, decimal.NewFromInt(50), entities.CurrencyUSD, entities.CurrencyBDT)
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.NewFromInt(5500)), "got %s", got)
	})

	t.Run("bdt to usd", func(t *testing.T) {
		got, err := ConvertWithSnapshot(snap, decimal.NewFromInt(5500), entities.CurrencyBDT, entities.CurrencyUSD)
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.NewFromInt(50)), "got %s", got)
	})

	t.Run("cross rate goes through the base", func(t *testing.T) {
		// 110 BDT = 1 USD = 0.18 TON
		got, err := ConvertWithSnapshot(snap, decimal.NewFromInt(110), entities.CurrencyBDT, entities.CurrencyTON)
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.RequireFromString("0.18")), "got %s", got)
	})

	t.Run("rounds to target precision", func(t *testing.T) {
		// Fiat gets two decimals, crypto eight
		fiat, err := ConvertWithSnapshot(snap, decimal.RequireFromString("0.123456"), entities.CurrencyTON, entities.CurrencyUSD)
		require.NoError(t, err)
		assert.True(t, fiat.Exponent() >= -2, "fiat result %s has too many decimals", fiat)

		crypto, err := ConvertWithSnapshot(snap, decimal.RequireFromString("1.23"), entities.CurrencyUSD, entities.CurrencyTON)
		require.NoError(t, err)
		assert.True(t, crypto.Exponent() >= -8, "crypto result %s has too many decimals", crypto)
	})

	t.Run("missing rate fails", func(t *testing.T) {
		_, err := ConvertWithSnapshot(snap, decimal.NewFromInt(1), entities.Currency("EUR"), entities.CurrencyUSD)
		assert.ErrorIs(t, err, entities.ErrConversionUnavailable)

		_, err = ConvertWithSnapshot(snap, decimal.NewFromInt(1), entities.CurrencyUSD, entities.Currency("EUR"))
		assert.ErrorIs(t, err, entities.ErrConversionUnavailable)
	})

	t.Run("round trip stays within one rounding step", func(t *testing.T) {
		quantum := decimal.RequireFromString("0.02")
		for _, raw := range []string{"1", "50", "99.99", "1234.56", "0.01"} {
			amount := decimal.RequireFromString(raw)

			there, err := ConvertWithSnapshot(snap, amount, entities.CurrencyUSD, entities.CurrencyBDT)
			require.NoError(t, err)
			back, err := ConvertWithSnapshot(snap, there, entities.CurrencyBDT, entities.CurrencyUSD)
			require.NoError(t, err)

			diff := back.Sub(amount).Abs()
			assert.True(t, diff.LessThanOrEqual(quantum), "%s round-tripped to %s", amount, back)
		}
	})
}

// serviceWithSnapshot pins a rate table directly so the service-level
// conversion paths can be exercised without any sources
func serviceWithSnapshot(snap *entities.RateSnapshot) *RateService {
	s := NewRateService(WithSources(nil, nil))
	s.snapshot = snap
	s.loaded = true
	return s
}

func TestRateService_Convert(t *testing.T) {
	ctx := context.Background()
	s := serviceWithSnapshot(testSnapshot())

	t.Run("converts through the cached table", func(t *testing.T) {
		got, err := s.Convert(ctx, decimal.NewFromInt(50), entities.CurrencyUSD, entities.CurrencyBDT)
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.NewFromInt(5500)), "got %s", got)
	})

	t.Run("unknown code fails before the table is consulted", func(t *testing.T) {
		_, err := s.Convert(ctx, decimal.NewFromInt(1), entities.Currency("EUR"), entities.CurrencyUSD)
		assert.ErrorIs(t, err, entities.ErrInvalidCurrency)

		_, err = s.Convert(ctx, decimal.NewFromInt(1), entities.CurrencyUSD, entities.Currency("EUR"))
		assert.ErrorIs(t, err, entities.ErrInvalidCurrency)
	})

	t.Run("same currency is an identity even without rates", func(t *testing.T) {
		empty := serviceWithSnapshot(&entities.RateSnapshot{
			Base:        entities.ReferenceCurrency,
			Rates:       map[entities.Currency]decimal.Decimal{},
			LastUpdated: time.Now(),
		})
		amount := decimal.RequireFromString("12.34")
		got, err := empty.Convert(ctx, amount, entities.CurrencyTON, entities.CurrencyTON)
		require.NoError(t, err)
		assert.True(t, got.Equal(amount))
	})

	t.Run("supported code missing from the table", func(t *testing.T) {
		partial := serviceWithSnapshot(&entities.RateSnapshot{
			Base: entities.ReferenceCurrency,
			Rates: map[entities.Currency]decimal.Decimal{
				entities.CurrencyUSD: decimal.NewFromInt(1),
				entities.CurrencyBDT: decimal.NewFromInt(110),
			},
			LastUpdated: time.Now(),
		})
		_, err := partial.Convert(ctx, decimal.NewFromInt(1), entities.CurrencyUSD, entities.CurrencyTON)
		assert.ErrorIs(t, err, entities.ErrConversionUnavailable)
	})
}

func TestRateService_ExchangeRate(t *testing.T) {
	ctx := context.Background()
	s := serviceWithSnapshot(testSnapshot())

	t.Run("usd to bdt", func(t *testing.T) {
		rate, err := s.ExchangeRate(ctx, entities.CurrencyUSD, entities.CurrencyBDT)
		require.NoError(t, err)
		assert.True(t, rate.Equal(decimal.NewFromInt(110)), "got %s", rate)
	})

	t.Run("bdt to usd is the inverse", func(t *testing.T) {
		rate, err := s.ExchangeRate(ctx, entities.CurrencyBDT, entities.CurrencyUSD)
		require.NoError(t, err)

		expected := decimal.NewFromInt(1).Div(decimal.NewFromInt(110))
		assert.True(t, rate.Equal(expected), "got %s", rate)
	})

	t.Run("same currency is one", func(t *testing.T) {
		rate, err := s.ExchangeRate(ctx, entities.CurrencyTON, entities.CurrencyTON)
		require.NoError(t, err)
		assert.True(t, rate.Equal(decimal.NewFromInt(1)))
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := s.ExchangeRate(ctx, entities.Currency("EUR"), entities.CurrencyUSD)
		assert.ErrorIs(t, err, entities.ErrInvalidCurrency)

		_, err = s.ExchangeRate(ctx, entities.CurrencyUSD, entities.Currency("EUR"))
		assert.ErrorIs(t, err, entities.ErrInvalidCurrency)
	})

	t.Run("supported code missing from the table", func(t *testing.T) {
		partial := serviceWithSnapshot(&entities.RateSnapshot{
			Base: entities.ReferenceCurrency,
			Rates: map[entities.Currency]decimal.Decimal{
				entities.CurrencyUSD: decimal.NewFromInt(1),
				entities.CurrencyBDT: decimal.NewFromInt(110),
			},
			LastUpdated: time.Now(),
		})
		_, err := partial.ExchangeRate(ctx, entities.CurrencyTON, entities.CurrencyUSD)
		assert.ErrorIs(t, err, entities.ErrConversionUnavailable)

		_, err = partial.ExchangeRate(ctx, entities.CurrencyUSD, entities.CurrencyTON)
		assert.ErrorIs(t, err, entities.ErrConversionUnavailable)
	})
}
