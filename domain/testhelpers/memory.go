package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"luckybit/domain/entities"
	"luckybit/domain/events"
	"luckybit/domain/interfaces"
)

// MemoryStore is an in-memory backing store for service tests. Units of work
// created from it behave transactionally: writes are visible immediately
// inside the transaction and discarded on rollback. The store mutex is held
// for the duration of each transaction, mirroring the serialization the real
// database provides per account.
type MemoryStore struct {
	mu          sync.Mutex
	accounts    map[int64]*entities.Account
	entries     []*entities.LedgerEntry
	rounds      []*entities.GameRound
	nextAccount int64
	nextEntry   int64
	nextRound   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:    make(map[int64]*entities.Account),
		nextAccount: 1,
		nextEntry:   1,
		nextRound:   1,
	}
}

// Seed inserts an account directly, bypassing transactions
func (s *MemoryStore) Seed(account *entities.Account) *entities.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account.ID == 0 {
		account.ID = s.nextAccount
	}
	if account.ID >= s.nextAccount {
		s.nextAccount = account.ID + 1
	}
	cp := *account
	s.accounts[account.ID] = &cp
	return account
}

// Account returns a copy of the stored account, nil if absent
func (s *MemoryStore) Account(id int64) *entities.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

// Entries returns a copy of all recorded ledger entries in insertion order
func (s *MemoryStore) Entries() []*entities.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entities.LedgerEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Rounds returns a copy of all recorded game rounds in insertion order
func (s *MemoryStore) Rounds() []*entities.GameRound {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entities.GameRound, len(s.rounds))
	copy(out, s.rounds)
	return out
}

// Factory returns a UnitOfWorkFactory backed by this store
func (s *MemoryStore) Factory() interfaces.UnitOfWorkFactory {
	return &memoryUowFactory{store: s}
}

type memoryUowFactory struct {
	store *MemoryStore
}

func (f *memoryUowFactory) Create() interfaces.UnitOfWork {
	return &memoryUow{store: f.store}
}

// memoryUow holds the store lock from Begin to Commit or Rollback and keeps
// an undo snapshot for rollback
type memoryUow struct {
	store   *MemoryStore
	started bool
	done    bool

	prevAccounts map[int64]*entities.Account
	prevEntries  int
	prevRounds   int
	prevIDs      [3]int64
}

func (u *memoryUow) Begin(ctx context.Context) error {
	if u.started {
		return fmt.Errorf("transaction already started")
	}
	u.store.mu.Lock()
	u.started = true

	u.prevAccounts = make(map[int64]*entities.Account, len(u.store.accounts))
	for id, a := range u.store.accounts {
		cp := *a
		u.prevAccounts[id] = &cp
	}
	u.prevEntries = len(u.store.entries)
	u.prevRounds = len(u.store.rounds)
	u.prevIDs = [3]int64{u.store.nextAccount, u.store.nextEntry, u.store.nextRound}
	return nil
}

func (u *memoryUow) Commit() error {
	if !u.started || u.done {
		return fmt.Errorf("no transaction to commit")
	}
	u.done = true
	u.store.mu.Unlock()
	return nil
}

func (u *memoryUow) Rollback() error {
	if !u.started || u.done {
		return nil
	}
	u.done = true
	u.store.accounts = u.prevAccounts
	u.store.entries = u.store.entries[:u.prevEntries]
	u.store.rounds = u.store.rounds[:u.prevRounds]
	u.store.nextAccount = u.prevIDs[0]
	u.store.nextEntry = u.prevIDs[1]
	u.store.nextRound = u.prevIDs[2]
	u.store.mu.Unlock()
	return nil
}

func (u *memoryUow) check() {
	if !u.started || u.done {
		panic("unit of work not started - call Begin() first")
	}
}

func (u *memoryUow) AccountRepository() interfaces.AccountRepository {
	u.check()
	return &memoryAccountRepo{store: u.store}
}

func (u *memoryUow) LedgerRepository() interfaces.LedgerRepository {
	u.check()
	return &memoryLedgerRepo{store: u.store}
}

func (u *memoryUow) GameHistoryRepository() interfaces.GameHistoryRepository {
	u.check()
	return &memoryHistoryRepo{store: u.store}
}

// The repos below run inside an open transaction, so the store lock is
// already held and they touch the maps directly.

type memoryAccountRepo struct {
	store *MemoryStore
}

func (r *memoryAccountRepo) GetByID(ctx context.Context, accountID int64) (*entities.Account, error) {
	a, ok := r.store.accounts[accountID]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *memoryAccountRepo) Create(ctx context.Context, currency entities.Currency, initialBalance decimal.Decimal) (*entities.Account, error) {
	now := time.Now().UTC()
	a := &entities.Account{
		ID:        r.store.nextAccount,
		Balance:   initialBalance,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.store.nextAccount++
	r.store.accounts[a.ID] = a
	cp := *a
	return &cp, nil
}

func (r *memoryAccountRepo) UpdateBalance(ctx context.Context, accountID int64, newBalance decimal.Decimal) error {
	a, ok := r.store.accounts[accountID]
	if !ok {
		return fmt.Errorf("account %d not found", accountID)
	}
	a.Balance = newBalance
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memoryAccountRepo) UpdateCurrency(ctx context.Context, accountID int64, currency entities.Currency, newBalance decimal.Decimal) error {
	a, ok := r.store.accounts[accountID]
	if !ok {
		return fmt.Errorf("account %d not found", accountID)
	}
	a.Currency = currency
	a.Balance = newBalance
	a.UpdatedAt = time.Now().UTC()
	return nil
}

type memoryLedgerRepo struct {
	store *MemoryStore
}

func (r *memoryLedgerRepo) Record(ctx context.Context, entry *entities.LedgerEntry) error {
	entry.ID = r.store.nextEntry
	r.store.nextEntry++
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	cp := *entry
	r.store.entries = append(r.store.entries, &cp)
	return nil
}

func (r *memoryLedgerRepo) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.LedgerEntry, error) {
	var out []*entities.LedgerEntry
	for i := len(r.store.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.store.entries[i].AccountID == accountID {
			cp := *r.store.entries[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memoryHistoryRepo struct {
	store *MemoryStore
}

func (r *memoryHistoryRepo) Record(ctx context.Context, round *entities.GameRound) error {
	round.ID = r.store.nextRound
	r.store.nextRound++
	if round.CreatedAt.IsZero() {
		round.CreatedAt = time.Now().UTC()
	}
	cp := *round
	r.store.rounds = append(r.store.rounds, &cp)
	return nil
}

func (r *memoryHistoryRepo) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.GameRound, error) {
	var out []*entities.GameRound
	for i := len(r.store.rounds) - 1; i >= 0 && len(out) < limit; i-- {
		if r.store.rounds[i].AccountID == accountID {
			cp := *r.store.rounds[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memoryHistoryRepo) RecentWinners(ctx context.Context, limit int) ([]*entities.GameRound, error) {
	var out []*entities.GameRound
	for i := len(r.store.rounds) - 1; i >= 0 && len(out) < limit; i-- {
		if r.store.rounds[i].IsWin {
			cp := *r.store.rounds[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

// StaticRates is a RateConverter over a fixed rate table
type StaticRates struct {
	Snap *entities.RateSnapshot
}

// NewStaticRates builds a converter with the bundled fallback table:
// 1 USD = 110 BDT, 1 USD = 0.18 TON
func NewStaticRates() *StaticRates {
	return &StaticRates{Snap: &entities.RateSnapshot{
		Base: entities.ReferenceCurrency,
		Rates: map[entities.Currency]decimal.Decimal{
			entities.CurrencyUSD: decimal.NewFromInt(1),
			entities.CurrencyBDT: decimal.NewFromInt(110),
			entities.CurrencyTON: decimal.NewFromFloat(0.18),
		},
		LastUpdated: time.Now().UTC(),
	}}
}

func (s *StaticRates) Convert(ctx context.Context, amount decimal.Decimal, from, to entities.Currency) (decimal.Decimal, error) {
	fromRate, ok := s.Snap.Rate(from)
	if !ok {
		return decimal.Zero, entities.ErrInvalidCurrency
	}
	toRate, ok := s.Snap.Rate(to)
	if !ok {
		return decimal.Zero, entities.ErrInvalidCurrency
	}
	return to.Round(amount.Div(fromRate).Mul(toRate)), nil
}

func (s *StaticRates) ExchangeRate(ctx context.Context, from, to entities.Currency) (decimal.Decimal, error) {
	fromRate, ok := s.Snap.Rate(from)
	if !ok {
		return decimal.Zero, entities.ErrInvalidCurrency
	}
	toRate, ok := s.Snap.Rate(to)
	if !ok {
		return decimal.Zero, entities.ErrInvalidCurrency
	}
	return toRate.Div(fromRate), nil
}

func (s *StaticRates) Snapshot(ctx context.Context) (*entities.RateSnapshot, error) {
	return s.Snap.Clone(), nil
}

// RecordingNotifier captures notifications in delivery order
type RecordingNotifier struct {
	mu       sync.Mutex
	Balances []BalanceNotification
	Results  []*entities.GameRound
}

type BalanceNotification struct {
	AccountID int64
	Balance   decimal.Decimal
	Currency  entities.Currency
	Previous  decimal.Decimal
	EntryType entities.EntryType
}

func (n *RecordingNotifier) NotifyBalance(accountID int64, balance decimal.Decimal, currency entities.Currency, previous decimal.Decimal, entryType entities.EntryType) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Balances = append(n.Balances, BalanceNotification{
		AccountID: accountID,
		Balance:   balance,
		Currency:  currency,
		Previous:  previous,
		EntryType: entryType,
	})
}

func (n *RecordingNotifier) NotifyRoundResult(accountID int64, round *entities.GameRound) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Results = append(n.Results, round)
}

// RecordingPublisher captures published events in order
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []events.Event
	Err    error
}

func (p *RecordingPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Events = append(p.Events, event)
	return nil
}

// Published returns a copy of the captured events
func (p *RecordingPublisher) Published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Event, len(p.Events))
	copy(out, p.Events)
	return out
}

// The locked views below take the store mutex per call, for code paths that
// read outside a unit of work (HTTP handlers in tests).

// Accounts returns a standalone account repository over the store
func (s *MemoryStore) Accounts() interfaces.AccountRepository {
	return &lockedAccountRepo{store: s}
}

// LedgerEntries returns a standalone ledger repository over the store
func (s *MemoryStore) LedgerEntries() interfaces.LedgerRepository {
	return &lockedLedgerRepo{store: s}
}

// GameRounds returns a standalone game history repository over the store
func (s *MemoryStore) GameRounds() interfaces.GameHistoryRepository {
	return &lockedHistoryRepo{store: s}
}

type lockedAccountRepo struct {
	store *MemoryStore
}

func (r *lockedAccountRepo) GetByID(ctx context.Context, accountID int64) (*entities.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return (&memoryAccountRepo{store: r.store}).GetByID(ctx, accountID)
}

func (r *lockedAccountRepo) Create(ctx context.Context, currency entities.Currency, initialBalance decimal.Decimal) (*entities.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return (&memoryAccountRepo{store: r.store}).Create(ctx, currency, initialBalance)
}

func (r *lockedAccountRepo) UpdateBalance(ctx context.Context, accountID int64, newBalance decimal.Decimal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return (&memoryAccountRepo{store: r.store}).UpdateBalance(ctx, accountID, newBalance)
}

func (r *lockedAccountRepo) UpdateCurrency(ctx context.Context, accountID int64, currency entities.Currency, newBalance decimal.Decimal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return (&memoryAccountRepo{store: r.store}).UpdateCurrency(ctx, accountID, currency, newBalance)
}

type lockedLedgerRepo struct {
	store *MemoryStore
}

func (r *lockedLedgerRepo) Record(ctx context.Context, entry *entities.LedgerEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return (&memoryLedgerRepo{store: r.store}).Record(ctx, entry)
}

func (r *lockedLedgerRepo) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.LedgerEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return (&memoryLedgerRepo{store: r.store}).GetByAccount(ctx, accountID, limit)
}

type lockedHistoryRepo struct {
	store *MemoryStore
}

func (r *lockedHistoryRepo) Record(ctx context.Context, round *entities.GameRound) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return (&memoryHistoryRepo{store: r.store}).Record(ctx, round)
}

func (r *lockedHistoryRepo) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.GameRound, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return (&memoryHistoryRepo{store: r.store}).GetByAccount(ctx, accountID, limit)
}

func (r *lockedHistoryRepo) RecentWinners(ctx context.Context, limit int) ([]*entities.GameRound, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return (&memoryHistoryRepo{store: r.store}).RecentWinners(ctx, limit)
}
