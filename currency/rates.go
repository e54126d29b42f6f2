package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"luckybit/domain/entities"
	"luckybit/domain/events"
	"luckybit/domain/interfaces"
)

const (
	// cacheDuration is how long a snapshot is served before a lazy refresh
	cacheDuration = 5 * time.Minute

	// sourceTimeout bounds each external source call
	sourceTimeout = 3 * time.Second

	// redisLastGoodKey stores the last successfully fetched snapshot so a
	// restart does not fall straight back to the static table
	redisLastGoodKey = "rates:last_good"
)

// staticRates is the hardcoded fallback, used only when no source has ever
// succeeded and no last-good snapshot exists. Values are units per 1 USD.
var staticRates = map[entities.Currency]decimal.Decimal{
	entities.CurrencyUSD: decimal.NewFromInt(1),
	entities.CurrencyBDT: decimal.NewFromInt(110),
	entities.CurrencyTON: decimal.RequireFromString("0.18"),
}

// RateService maintains the cached exchange-rate table. It refreshes from a
// prioritized list of fiat sources plus separate crypto price sources, on a
// background timer and lazily whenever the cache is stale. A failed refresh
// never zeroes out the table: the previous snapshot stays in place.
type RateService struct {
	fiatSources   []FiatSource
	cryptoSources []CryptoSource
	client        *http.Client
	redis         *redis.Client
	publisher     interfaces.EventPublisher
	now           func() time.Time

	mu       sync.RWMutex
	snapshot *entities.RateSnapshot
	loaded   bool

	refreshMu sync.Mutex

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Option configures a RateService
type Option func(*RateService)

// WithHTTPClient injects the HTTP client used for source calls
func WithHTTPClient(client *http.Client) Option {
	return func(s *RateService) { s.client = client }
}

// WithRedis injects an optional last-good snapshot cache; nil is tolerated
func WithRedis(client *redis.Client) Option {
	return func(s *RateService) { s.redis = client }
}

// WithClock injects the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(s *RateService) { s.now = now }
}

// WithSources overrides the source priority lists
func WithSources(fiat []FiatSource, crypto []CryptoSource) Option {
	return func(s *RateService) {
		s.fiatSources = fiat
		s.cryptoSources = crypto
	}
}

// WithPublisher emits a rates_updated event after each successful refresh
func WithPublisher(publisher interfaces.EventPublisher) Option {
	return func(s *RateService) { s.publisher = publisher }
}

// NewRateService creates a rate service with the default production sources
func NewRateService(opts ...Option) *RateService {
	s := &RateService{
		fiatSources:   DefaultFiatSources(),
		cryptoSources: DefaultCryptoSources(),
		client:        &http.Client{Timeout: sourceTimeout},
		now:           time.Now,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start performs an initial refresh and launches the background refresh loop
func (s *RateService) Start(ctx context.Context, interval time.Duration) {
	if err := s.Refresh(ctx); err != nil {
		log.WithError(err).Warn("Initial rate refresh failed, serving fallback rates")
	}

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.Refresh(context.Background()); err != nil {
					log.WithError(err).Warn("Scheduled rate refresh failed, keeping previous table")
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop terminates the background refresh loop
func (s *RateService) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// Refresh queries the source lists and atomically replaces the cached table.
// The first fiat source that returns every required fiat currency wins;
// crypto rates are merged in from the first price source that answers. If
// everything fails the existing table is left untouched.
func (s *RateService) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.refresh(ctx)
}

// refreshIfStale rechecks freshness once the refresh lock is held, so readers
// queued behind an in-flight refresh reuse the table it just installed
// instead of fetching again
func (s *RateService) refreshIfStale(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	if s.fresh() {
		return nil
	}
	return s.refresh(ctx)
}

func (s *RateService) fresh() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded && s.snapshot.Age(s.now()) <= cacheDuration
}

func (s *RateService) refresh(ctx context.Context) error {
	fiat, err := s.fetchFiat(ctx)
	if err != nil {
		return fmt.Errorf("all fiat rate sources failed: %w", err)
	}

	rates := make(map[entities.Currency]decimal.Decimal)
	for _, c := range entities.SupportedCurrencies {
		if c.IsCrypto() {
			continue
		}
		rates[c] = fiat[c]
	}

	for _, c := range entities.SupportedCurrencies {
		if !c.IsCrypto() {
			continue
		}
		price, err := s.fetchCryptoPrice(ctx, c)
		if err != nil {
			return fmt.Errorf("all price sources failed for %s: %w", c, err)
		}
		// price is USD per coin; the table stores coins per USD
		rates[c] = decimal.NewFromInt(1).Div(price)
	}

	snapshot := &entities.RateSnapshot{
		Base:        entities.ReferenceCurrency,
		Rates:       rates,
		LastUpdated: s.now(),
	}

	s.mu.Lock()
	s.snapshot = snapshot
	s.loaded = true
	s.mu.Unlock()

	s.storeLastGood(ctx, snapshot)

	if s.publisher != nil {
		if err := s.publisher.Publish(events.RatesUpdatedEvent{
			Base:       snapshot.Base,
			Currencies: len(snapshot.Rates),
		}); err != nil {
			log.WithError(err).Warn("Failed to publish rates update event")
		}
	}

	log.WithFields(log.Fields{
		"base":       snapshot.Base,
		"currencies": len(snapshot.Rates),
	}).Debug("Exchange rates refreshed")
	return nil
}

func (s *RateService) fetchFiat(ctx context.Context) (map[entities.Currency]decimal.Decimal, error) {
	var lastErr error
	for _, src := range s.fiatSources {
		callCtx, cancel := context.WithTimeout(ctx, sourceTimeout)
		rates, err := src.Fetch(callCtx, s.client, entities.ReferenceCurrency)
		cancel()
		if err != nil {
			log.WithError(err).WithField("source", src.Name()).Warn("Fiat rate source failed")
			lastErr = err
			continue
		}
		if missing := missingFiat(rates); missing != "" {
			err = fmt.Errorf("source %s missing rate for %s", src.Name(), missing)
			log.WithError(err).Warn("Fiat rate source incomplete")
			lastErr = err
			continue
		}
		return rates, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no fiat sources configured")
	}
	return nil, lastErr
}

func (s *RateService) fetchCryptoPrice(ctx context.Context, coin entities.Currency) (decimal.Decimal, error) {
	var lastErr error
	for _, src := range s.cryptoSources {
		callCtx, cancel := context.WithTimeout(ctx, sourceTimeout)
		price, err := src.PriceUSD(callCtx, s.client, coin)
		cancel()
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"source": src.Name(),
				"coin":   coin,
			}).Warn("Crypto price source failed")
			lastErr = err
			continue
		}
		return price, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no crypto sources configured")
	}
	return decimal.Zero, lastErr
}

func missingFiat(rates map[entities.Currency]decimal.Decimal) string {
	for _, c := range entities.SupportedCurrencies {
		if c.IsCrypto() {
			continue
		}
		if r, ok := rates[c]; !ok || !r.IsPositive() {
			return c.String()
		}
	}
	return ""
}

// Snapshot returns the cached table, refreshing first if it is stale. When a
// refresh fails the previous table is served; before any load has succeeded
// the last-good redis snapshot and then the static table are used.
func (s *RateService) Snapshot(ctx context.Context) (*entities.RateSnapshot, error) {
	s.mu.RLock()
	snap := s.snapshot
	loaded := s.loaded
	s.mu.RUnlock()

	if loaded && snap.Age(s.now()) <= cacheDuration {
		return snap.Clone(), nil
	}

	if err := s.refreshIfStale(ctx); err != nil {
		if loaded {
			log.WithError(err).Warn("Rate refresh failed, serving stale table")
			return snap.Clone(), nil
		}
		return s.fallbackSnapshot(ctx), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone(), nil
}

// fallbackSnapshot is used when nothing has ever been fetched successfully
func (s *RateService) fallbackSnapshot(ctx context.Context) *entities.RateSnapshot {
	if snap := s.loadLastGood(ctx); snap != nil {
		log.Info("Serving last-good exchange rates from redis")
		return snap
	}

	log.Warn("Serving static fallback exchange rates")
	rates := make(map[entities.Currency]decimal.Decimal, len(staticRates))
	for c, r := range staticRates {
		rates[c] = r
	}
	return &entities.RateSnapshot{
		Base:        entities.ReferenceCurrency,
		Rates:       rates,
		LastUpdated: s.now(),
	}
}

func (s *RateService) storeLastGood(ctx context.Context, snap *entities.RateSnapshot) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		log.WithError(err).Warn("Failed to marshal rate snapshot for cache")
		return
	}
	if err := s.redis.Set(ctx, redisLastGoodKey, data, 0).Err(); err != nil {
		log.WithError(err).Warn("Failed to cache rate snapshot in redis")
	}
}

func (s *RateService) loadLastGood(ctx context.Context) *entities.RateSnapshot {
	if s.redis == nil {
		return nil
	}
	data, err := s.redis.Get(ctx, redisLastGoodKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.WithError(err).Warn("Failed to read cached rate snapshot from redis")
		}
		return nil
	}
	var snap entities.RateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.WithError(err).Warn("Failed to decode cached rate snapshot")
		return nil
	}
	return &snap
}
