package testhelpers

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"luckybit/domain/entities"
	"luckybit/domain/events"
	"luckybit/domain/interfaces"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, accountID int64) (*entities.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, currency entities.Currency, initialBalance decimal.Decimal) (*entities.Account, error) {
	args := m.Called(ctx, currency, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, accountID int64, newBalance decimal.Decimal) error {
	args := m.Called(ctx, accountID, newBalance)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateCurrency(ctx context.Context, accountID int64, currency entities.Currency, newBalance decimal.Decimal) error {
	args := m.Called(ctx, accountID, currency, newBalance)
	return args.Error(0)
}

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Record(ctx context.Context, entry *entities.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.LedgerEntry, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LedgerEntry), args.Error(1)
}

// MockGameHistoryRepository is a mock implementation of GameHistoryRepository
type MockGameHistoryRepository struct {
	mock.Mock
}

func (m *MockGameHistoryRepository) Record(ctx context.Context, round *entities.GameRound) error {
	args := m.Called(ctx, round)
	return args.Error(0)
}

func (m *MockGameHistoryRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.GameRound, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.GameRound), args.Error(1)
}

func (m *MockGameHistoryRepository) RecentWinners(ctx context.Context, limit int) ([]*entities.GameRound, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.GameRound), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyBalance(accountID int64, balance decimal.Decimal, currency entities.Currency, previous decimal.Decimal, entryType entities.EntryType) {
	m.Called(accountID, balance, currency, previous, entryType)
}

func (m *MockNotifier) NotifyRoundResult(accountID int64, round *entities.GameRound) {
	m.Called(accountID, round)
}

// MockRateConverter is a mock implementation of RateConverter
type MockRateConverter struct {
	mock.Mock
}

func (m *MockRateConverter) Convert(ctx context.Context, amount decimal.Decimal, from, to entities.Currency) (decimal.Decimal, error) {
	args := m.Called(ctx, amount, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockRateConverter) ExchangeRate(ctx context.Context, from, to entities.Currency) (decimal.Decimal, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockRateConverter) Snapshot(ctx context.Context) (*entities.RateSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RateSnapshot), args.Error(1)
}

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() interfaces.AccountRepository {
	args := m.Called()
	return args.Get(0).(interfaces.AccountRepository)
}

func (m *MockUnitOfWork) LedgerRepository() interfaces.LedgerRepository {
	args := m.Called()
	return args.Get(0).(interfaces.LedgerRepository)
}

func (m *MockUnitOfWork) GameHistoryRepository() interfaces.GameHistoryRepository {
	args := m.Called()
	return args.Get(0).(interfaces.GameHistoryRepository)
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() interfaces.UnitOfWork {
	args := m.Called()
	return args.Get(0).(interfaces.UnitOfWork)
}
