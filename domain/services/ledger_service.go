package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"luckybit/currency"
	"luckybit/domain/entities"
	"luckybit/domain/events"
	"luckybit/domain/interfaces"
)

// LedgerService owns all account balance mutations. Every mutation is a
// funds-check-then-apply unit: the balance read, the entry append and the
// balance update share one per-account lock and one database transaction.
// Conversion rates are snapshotted before the lock is taken so no external
// I/O ever happens while an account is locked.
type LedgerService struct {
	uowFactory interfaces.UnitOfWorkFactory
	rates      interfaces.RateConverter
	notifier   interfaces.Notifier
	publisher  interfaces.EventPublisher
	locks      *AccountLocks
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	uowFactory interfaces.UnitOfWorkFactory,
	rates interfaces.RateConverter,
	notifier interfaces.Notifier,
	publisher interfaces.EventPublisher,
	locks *AccountLocks,
) *LedgerService {
	return &LedgerService{
		uowFactory: uowFactory,
		rates:      rates,
		notifier:   notifier,
		publisher:  publisher,
		locks:      locks,
	}
}

// Debit removes funds from an account. The amount may be denominated in any
// supported currency; it is converted into the account's currency before the
// sufficiency check. Fails with ErrInsufficientFunds when the converted
// amount exceeds the current balance.
func (s *LedgerService) Debit(ctx context.Context, accountID int64, amount decimal.Decimal, cur entities.Currency, entryType entities.EntryType, metadata map[string]any) (*entities.Account, *entities.LedgerEntry, error) {
	if err := validateMutation(amount, cur); err != nil {
		return nil, nil, err
	}

	snap, err := s.rates.Snapshot(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load exchange rates: %w", err)
	}

	unlock := s.locks.Lock(accountID)
	defer unlock()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := getAccount(ctx, uow, accountID)
	if err != nil {
		return nil, nil, err
	}

	converted, err := currency.ConvertWithSnapshot(snap, amount, cur, account.Currency)
	if err != nil {
		return nil, nil, err
	}
	if !account.CanAfford(converted) {
		return nil, nil, fmt.Errorf("%w: balance %s %s, debit %s %s",
			entities.ErrInsufficientFunds, account.Balance, account.Currency, converted, account.Currency)
	}

	entry, err := applyEntry(ctx, uow, account, converted.Neg(), entryType, nil, metadata)
	if err != nil {
		return nil, nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit debit: %w", err)
	}

	s.afterMutation(account, entry)
	return account, entry, nil
}

// Credit adds funds to an account, converting the amount into the account's
// currency first. Same validation as Debit minus the sufficiency check.
func (s *LedgerService) Credit(ctx context.Context, accountID int64, amount decimal.Decimal, cur entities.Currency, entryType entities.EntryType, metadata map[string]any) (*entities.Account, *entities.LedgerEntry, error) {
	if err := validateMutation(amount, cur); err != nil {
		return nil, nil, err
	}

	snap, err := s.rates.Snapshot(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load exchange rates: %w", err)
	}

	unlock := s.locks.Lock(accountID)
	defer unlock()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := getAccount(ctx, uow, accountID)
	if err != nil {
		return nil, nil, err
	}

	converted, err := currency.ConvertWithSnapshot(snap, amount, cur, account.Currency)
	if err != nil {
		return nil, nil, err
	}

	entry, err := applyEntry(ctx, uow, account, converted, entryType, nil, metadata)
	if err != nil {
		return nil, nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit credit: %w", err)
	}

	s.afterMutation(account, entry)
	return account, entry, nil
}

// ChangeCurrency converts the stored balance into a new currency and persists
// both the currency and the converted balance, with a currency_change entry
// recording the old and new values. Changing to the current currency is a
// no-op that writes nothing.
func (s *LedgerService) ChangeCurrency(ctx context.Context, accountID int64, newCurrency entities.Currency) (*entities.Account, error) {
	if !newCurrency.IsValid() {
		return nil, fmt.Errorf("%w: %s", entities.ErrInvalidCurrency, newCurrency)
	}

	snap, err := s.rates.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load exchange rates: %w", err)
	}

	unlock := s.locks.Lock(accountID)
	defer unlock()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := getAccount(ctx, uow, accountID)
	if err != nil {
		return nil, err
	}
	if account.Currency == newCurrency {
		return account, nil
	}

	oldCurrency := account.Currency
	oldBalance := account.Balance
	newBalance, err := currency.ConvertWithSnapshot(snap, oldBalance, oldCurrency, newCurrency)
	if err != nil {
		return nil, err
	}

	if err := uow.AccountRepository().UpdateCurrency(ctx, accountID, newCurrency, newBalance); err != nil {
		return nil, fmt.Errorf("failed to update account currency: %w", err)
	}

	entry := &entities.LedgerEntry{
		AccountID:     accountID,
		Amount:        decimal.Zero,
		Currency:      newCurrency,
		EntryType:     entities.EntryTypeCurrencyChange,
		Status:        entities.EntryStatusCompleted,
		BalanceBefore: oldBalance,
		BalanceAfter:  newBalance,
		Metadata: map[string]any{
			"old_currency": oldCurrency.String(),
			"new_currency": newCurrency.String(),
			"old_balance":  oldBalance.String(),
			"new_balance":  newBalance.String(),
		},
	}
	if err := uow.LedgerRepository().Record(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record currency change entry: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit currency change: %w", err)
	}

	account.Currency = newCurrency
	account.Balance = newBalance

	s.notifier.NotifyBalance(accountID, newBalance, newCurrency, oldBalance, entities.EntryTypeCurrencyChange)
	if err := s.publisher.Publish(events.BalanceChangeEvent{
		AccountID:     accountID,
		BalanceBefore: oldBalance,
		BalanceAfter:  newBalance,
		Currency:      newCurrency,
		EntryType:     entities.EntryTypeCurrencyChange,
		ChangeAmount:  decimal.Zero,
	}); err != nil {
		log.WithError(err).Error("Failed to publish currency change event")
	}

	return account, nil
}

// afterMutation delivers the post-commit notifications for a single entry.
// Delivery is best effort and never fails the mutation.
func (s *LedgerService) afterMutation(account *entities.Account, entry *entities.LedgerEntry) {
	s.notifier.NotifyBalance(account.ID, entry.BalanceAfter, account.Currency, entry.BalanceBefore, entry.EntryType)

	event := events.BalanceChangeEvent{
		AccountID:     account.ID,
		BalanceBefore: entry.BalanceBefore,
		BalanceAfter:  entry.BalanceAfter,
		Currency:      account.Currency,
		EntryType:     entry.EntryType,
		ChangeAmount:  entry.Amount,
	}
	if err := s.publisher.Publish(event); err != nil {
		log.WithFields(log.Fields{
			"accountID": account.ID,
			"entryType": entry.EntryType,
		}).WithError(err).Error("Failed to publish balance change event")
	}
}

// validateMutation checks the shared preconditions of Debit and Credit
func validateMutation(amount decimal.Decimal, cur entities.Currency) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s", entities.ErrInvalidAmount, amount)
	}
	if !cur.IsValid() {
		return fmt.Errorf("%w: %s", entities.ErrInvalidCurrency, cur)
	}
	return nil
}

// getAccount loads an account inside the unit of work
func getAccount(ctx context.Context, uow interfaces.UnitOfWork, accountID int64) (*entities.Account, error) {
	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", accountID, err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrAccountNotFound, accountID)
	}
	return account, nil
}

// applyEntry applies a signed amount (already in the account's currency) to
// the loaded account: it updates the cached balance and appends the ledger
// entry, both inside the caller's transaction. The account struct is mutated
// to reflect the new balance.
func applyEntry(ctx context.Context, uow interfaces.UnitOfWork, account *entities.Account, signedAmount decimal.Decimal, entryType entities.EntryType, sessionID *uuid.UUID, metadata map[string]any) (*entities.LedgerEntry, error) {
	balanceBefore := account.Balance
	balanceAfter := account.CalculateNewBalance(signedAmount)

	entry := &entities.LedgerEntry{
		AccountID:     account.ID,
		Amount:        balanceAfter.Sub(balanceBefore),
		Currency:      account.Currency,
		EntryType:     entryType,
		Status:        entities.EntryStatusCompleted,
		SessionID:     sessionID,
		Metadata:      metadata,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
	}
	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ledger entry: %w", err)
	}

	if err := uow.AccountRepository().UpdateBalance(ctx, account.ID, balanceAfter); err != nil {
		return nil, fmt.Errorf("failed to update balance for account %d: %w", account.ID, err)
	}
	if err := uow.LedgerRepository().Record(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record ledger entry: %w", err)
	}

	account.Balance = balanceAfter
	return entry, nil
}
