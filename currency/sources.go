package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"luckybit/domain/entities"
)

// FiatSource fetches fiat exchange rates relative to the base currency. A
// source only wins if it returns a rate for every required fiat currency.
type FiatSource interface {
	Name() string
	Fetch(ctx context.Context, client *http.Client, base entities.Currency) (map[entities.Currency]decimal.Decimal, error)
}

// CryptoSource fetches the USD price of a cryptocurrency
type CryptoSource interface {
	Name() string
	PriceUSD(ctx context.Context, client *http.Client, coin entities.Currency) (decimal.Decimal, error)
}

// openERAPISource queries open.er-api.com
type openERAPISource struct{}

func (openERAPISource) Name() string { return "open.er-api.com" }

func (s openERAPISource) Fetch(ctx context.Context, client *http.Client, base entities.Currency) (map[entities.Currency]decimal.Decimal, error) {
	return s.fetchFrom(ctx, client, fmt.Sprintf("https://open.er-api.com/v6/latest/%s", base))
}

func (openERAPISource) fetchFrom(ctx context.Context, client *http.Client, url string) (map[entities.Currency]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Result string             `json:"result"`
		Rates  map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if body.Result != "success" {
		return nil, fmt.Errorf("source reported result %q", body.Result)
	}

	rates := make(map[entities.Currency]decimal.Decimal, len(body.Rates))
	for code, rate := range body.Rates {
		rates[entities.Currency(code)] = decimal.NewFromFloat(rate)
	}
	return rates, nil
}

// frankfurterSource queries api.frankfurter.app as the second-priority source
type frankfurterSource struct{}

func (frankfurterSource) Name() string { return "frankfurter.app" }

func (frankfurterSource) Fetch(ctx context.Context, client *http.Client, base entities.Currency) (map[entities.Currency]decimal.Decimal, error) {
	url := fmt.Sprintf("https://api.frankfurter.app/latest?from=%s", base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	rates := make(map[entities.Currency]decimal.Decimal, len(body.Rates)+1)
	rates[base] = decimal.NewFromInt(1)
	for code, rate := range body.Rates {
		rates[entities.Currency(code)] = decimal.NewFromFloat(rate)
	}
	return rates, nil
}

// coinGeckoSource queries the CoinGecko simple-price endpoint
type coinGeckoSource struct{}

func (coinGeckoSource) Name() string { return "coingecko" }

var coinGeckoIDs = map[entities.Currency]string{
	entities.CurrencyTON: "the-open-network",
}

func (coinGeckoSource) PriceUSD(ctx context.Context, client *http.Client, coin entities.Currency) (decimal.Decimal, error) {
	id, ok := coinGeckoIDs[coin]
	if !ok {
		return decimal.Zero, fmt.Errorf("no coingecko id for %s", coin)
	}
	url := fmt.Sprintf("https://api.coingecko.com/api/v3/simple/price?ids=%s&vs_currencies=usd", id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode response: %w", err)
	}
	price, ok := body[id]["usd"]
	if !ok || price <= 0 {
		return decimal.Zero, fmt.Errorf("no usd price for %s in response", coin)
	}
	return decimal.NewFromFloat(price), nil
}

// binanceSource queries the Binance spot ticker as the fallback price source
type binanceSource struct{}

func (binanceSource) Name() string { return "binance" }

var binanceSymbols = map[entities.Currency]string{
	entities.CurrencyTON: "TONUSDT",
}

func (s binanceSource) PriceUSD(ctx context.Context, client *http.Client, coin entities.Currency) (decimal.Decimal, error) {
	symbol, ok := binanceSymbols[coin]
	if !ok {
		return decimal.Zero, fmt.Errorf("no binance symbol for %s", coin)
	}
	return s.priceFrom(ctx, client, fmt.Sprintf("https://api.binance.com/api/v3/ticker/price?symbol=%s", symbol))
}

func (binanceSource) priceFrom(ctx context.Context, client *http.Client, url string) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Price string `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode response: %w", err)
	}
	price, err := decimal.NewFromString(body.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse price %q: %w", body.Price, err)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive price %s", body.Price)
	}
	return price, nil
}

// DefaultFiatSources returns the production fiat source priority list
func DefaultFiatSources() []FiatSource {
	return []FiatSource{openERAPISource{}, frankfurterSource{}}
}

// DefaultCryptoSources returns the production crypto price priority list
func DefaultCryptoSources() []CryptoSource {
	return []CryptoSource{coinGeckoSource{}, binanceSource{}}
}
