package entities

import "github.com/shopspring/decimal"

// Currency is an ISO-style currency code supported by the platform
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyBDT Currency = "BDT"
	CurrencyTON Currency = "TON"
)

// ReferenceCurrency is the currency balances are normalized into when
// evaluating the win-lock ceiling.
const ReferenceCurrency = CurrencyUSD

// SupportedCurrencies lists every currency accounts may hold
var SupportedCurrencies = []Currency{CurrencyUSD, CurrencyBDT, CurrencyTON}

// IsValid reports whether the code is one the platform supports
func (c Currency) IsValid() bool {
	switch c {
	case CurrencyUSD, CurrencyBDT, CurrencyTON:
		return true
	}
	return false
}

// IsCrypto reports whether the currency is cryptocurrency-denominated
func (c Currency) IsCrypto() bool {
	return c == CurrencyTON
}

// Precision returns the number of decimal places amounts in this currency
// are rounded to: 8 for crypto, 2 for fiat.
func (c Currency) Precision() int32 {
	if c.IsCrypto() {
		return 8
	}
	return 2
}

// Round rounds an amount to the currency's precision
func (c Currency) Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(c.Precision())
}

// String returns the string representation of the currency code
func (c Currency) String() string {
	return string(c)
}
