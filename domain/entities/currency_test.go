package entities

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCurrency_IsValid(t *testing.T) {
	for _, c := range SupportedCurrencies {
		assert.True(t, c.IsValid(), "%s should be valid", c)
	}

	for _, c := range []Currency{"EUR", "usd", "", "BTC"} {
		assert.False(t, c.IsValid(), "%s should be invalid", c)
	}
}

func TestCurrency_Precision(t *testing.T) {
	assert.Equal(t, int32(2), CurrencyUSD.Precision())
	assert.Equal(t, int32(2), CurrencyBDT.Precision())
	assert.Equal(t, int32(8), CurrencyTON.Precision())
}

func TestCurrency_Round(t *testing.T) {
	t.Run("fiat rounds to cents", func(t *testing.T) {
		got := CurrencyUSD.Round(decimal.RequireFromString("10.005"))
		assert.True(t, got.Equal(decimal.RequireFromString("10.01")), "got %s", got)

		got = CurrencyUSD.Round(decimal.RequireFromString("10.004"))
		assert.True(t, got.Equal(decimal.RequireFromString("10.00")), "got %s", got)
	})

	t.Run("crypto keeps eight decimals", func(t *testing.T) {
		got := CurrencyTON.Round(decimal.RequireFromString("0.123456789"))
		assert.True(t, got.Equal(decimal.RequireFromString("0.12345679")), "got %s", got)
	})
}

func TestCurrency_IsCrypto(t *testing.T) {
	assert.True(t, CurrencyTON.IsCrypto())
	assert.False(t, CurrencyUSD.IsCrypto())
	assert.False(t, CurrencyBDT.IsCrypto())
}
