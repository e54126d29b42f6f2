package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"luckybit/currency"
	"luckybit/domain/entities"
	"luckybit/domain/events"
	"luckybit/domain/interfaces"
)

// GameService resolves game rounds: it validates the bet, decides the
// outcome, renders the game payload and settles bet plus payout as one
// atomic unit. The bet debit and the win credit share the account lock, the
// database transaction and the rate snapshot, so a round can never leave the
// bet debited without a resolution.
type GameService struct {
	uowFactory interfaces.UnitOfWorkFactory
	rates      interfaces.RateConverter
	notifier   interfaces.Notifier
	publisher  interfaces.EventPublisher
	locks      *AccountLocks

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewGameService creates a new game service
func NewGameService(
	uowFactory interfaces.UnitOfWorkFactory,
	rates interfaces.RateConverter,
	notifier interfaces.Notifier,
	publisher interfaces.EventPublisher,
	locks *AccountLocks,
) *GameService {
	return &GameService{
		uowFactory: uowFactory,
		rates:      rates,
		notifier:   notifier,
		publisher:  publisher,
		locks:      locks,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRandSource replaces the random source, used by tests for determinism
func (s *GameService) SetRandSource(src rand.Source) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	s.rng = rand.New(src)
}

// PlaceBet runs a full round: BET_VALIDATED -> OUTCOME_DECIDED ->
// PAYLOAD_GENERATED -> SETTLED. Validation failures happen before any ledger
// state is touched; insufficient balance aborts before payload generation.
func (s *GameService) PlaceBet(ctx context.Context, accountID int64, req *entities.RoundRequest) (*entities.RoundOutcome, error) {
	if !req.GameType.IsValid() {
		return nil, fmt.Errorf("%w: %s", entities.ErrUnsupportedGame, req.GameType)
	}
	if !req.BetAmount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", entities.ErrInvalidBet, req.BetAmount)
	}
	if !req.Currency.IsValid() {
		return nil, fmt.Errorf("%w: %s", entities.ErrInvalidCurrency, req.Currency)
	}

	// Snapshot the rate table before the lock; settlement reuses it for the
	// debit, the credit and the response so all three see the same rate.
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

	betInAccount, err := currency.ConvertWithSnapshot(snap, req.BetAmount, req.Currency, account.Currency)
	if err != nil {
		return nil, err
	}
	if !account.CanAfford(betInAccount) {
		return nil, fmt.Errorf("%w: balance %s %s, bet %s %s",
			entities.ErrInsufficientFunds, account.Balance, account.Currency, betInAccount, account.Currency)
	}

	balanceInReference, err := currency.ConvertWithSnapshot(snap, account.Balance, account.Currency, entities.ReferenceCurrency)
	if err != nil {
		return nil, err
	}

	s.rngMu.Lock()
	decision := decideOutcome(balanceInReference, s.rng)
	result, err := renderOutcome(req.GameType, decision, req.BetAmount, req.Currency, req.Dice, s.rng)
	s.rngMu.Unlock()
	if err != nil {
		return nil, err
	}

	sessionID := uuid.New()

	betEntry, err := applyEntry(ctx, uow, account, betInAccount.Neg(), entities.EntryTypeBet, &sessionID, map[string]any{
		"game_type":  req.GameType.String(),
		"bet_amount": req.BetAmount.String(),
		"currency":   req.Currency.String(),
	})
	if err != nil {
		return nil, err
	}

	var winEntry *entities.LedgerEntry
	if result.WinAmount.IsPositive() {
		payoutInAccount, err := currency.ConvertWithSnapshot(snap, result.WinAmount, req.Currency, account.Currency)
		if err != nil {
			// Rolling back here means the bet debit never commits either;
			// the round fails whole instead of settling as a silent loss.
			return nil, fmt.Errorf("payout conversion failed: %w", err)
		}
		winEntry, err = applyEntry(ctx, uow, account, payoutInAccount, entities.EntryTypeWin, &sessionID, map[string]any{
			"game_type":  req.GameType.String(),
			"multiplier": result.Multiplier,
		})
		if err != nil {
			return nil, err
		}
	}

	round := &entities.GameRound{
		AccountID:  accountID,
		GameType:   req.GameType,
		BetAmount:  req.BetAmount,
		Currency:   req.Currency,
		IsWin:      result.IsWin,
		WinAmount:  result.WinAmount,
		Multiplier: result.Multiplier,
		GameData:   result.GameData,
		SessionID:  sessionID,
	}
	if err := uow.GameHistoryRepository().Record(ctx, round); err != nil {
		return nil, fmt.Errorf("failed to record game round: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit round: %w", err)
	}

	s.afterRound(account, round, betEntry, winEntry)

	return &entities.RoundOutcome{
		SessionID:  sessionID,
		IsWin:      result.IsWin,
		WinAmount:  result.WinAmount,
		Multiplier: result.Multiplier,
		Balance:    account.Balance,
		Currency:   account.Currency,
		GameData:   result.GameData,
	}, nil
}

// afterRound delivers post-commit notifications in mutation order: the bet
// balance update, then the win balance update, then the round result. All
// deliveries are best effort.
func (s *GameService) afterRound(account *entities.Account, round *entities.GameRound, betEntry, winEntry *entities.LedgerEntry) {
	s.notifier.NotifyBalance(account.ID, betEntry.BalanceAfter, account.Currency, betEntry.BalanceBefore, entities.EntryTypeBet)
	if winEntry != nil {
		s.notifier.NotifyBalance(account.ID, winEntry.BalanceAfter, account.Currency, winEntry.BalanceBefore, entities.EntryTypeWin)
	}
	s.notifier.NotifyRoundResult(account.ID, round)

	event := events.RoundSettledEvent{
		AccountID:  account.ID,
		SessionID:  round.SessionID,
		GameType:   round.GameType,
		BetAmount:  round.BetAmount,
		WinAmount:  round.WinAmount,
		Currency:   round.Currency,
		IsWin:      round.IsWin,
		Multiplier: round.Multiplier,
	}
	if err := s.publisher.Publish(event); err != nil {
		log.WithFields(log.Fields{
			"accountID": account.ID,
			"gameType":  round.GameType,
			"sessionID": round.SessionID,
		}).WithError(err).Error("Failed to publish round settled event")
	}
}
