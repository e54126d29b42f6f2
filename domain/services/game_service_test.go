package services

import (
	"context"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luckybit/domain/entities"
	"luckybit/domain/events"
	"luckybit/domain/testhelpers"
)

// zeroSource makes every draw its smallest value: Float64 returns 0, so a
// round below the win lock always wins
type zeroSource struct{}

func (zeroSource) Int63() int64 { return 0 }
func (zeroSource) Seed(int64)   {}

type gameFixture struct {
	store     *testhelpers.MemoryStore
	notifier  *testhelpers.RecordingNotifier
	publisher *testhelpers.RecordingPublisher
	service   *GameService
}

func newGameFixture() *gameFixture {
	store := testhelpers.NewMemoryStore()
	notifier := &testhelpers.RecordingNotifier{}
	publisher := &testhelpers.RecordingPublisher{}
	service := NewGameService(store.Factory(), testhelpers.NewStaticRates(), notifier, publisher, NewAccountLocks())
	return &gameFixture{store: store, notifier: notifier, publisher: publisher, service: service}
}

func (f *gameFixture) seed(balance int64, cur entities.Currency) *entities.Account {
	return f.store.Seed(&entities.Account{
		Balance:  decimal.NewFromInt(balance),
		Currency: cur,
	})
}

func slotsBet(amount int64) *entities.RoundRequest {
	return &entities.RoundRequest{
		GameType:  entities.GameTypeSlots,
		BetAmount: decimal.NewFromInt(amount),
		Currency:  entities.CurrencyUSD,
	}
}

func TestGameService_PlaceBet_Win(t *testing.T) {
	ctx := context.Background()
	f := newGameFixture()
	f.service.SetRandSource(zeroSource{})
	account := f.seed(100, entities.CurrencyUSD)

	outcome, err := f.service.PlaceBet(ctx, account.ID, slotsBet(10))
	require.NoError(t, err)

	// 100 - 10 bet + 11 payout at the 1.1 slots multiplier
	assert.True(t, outcome.IsWin)
	assert.Equal(t, 1.1, outcome.Multiplier)
	assert.True(t, outcome.WinAmount.Equal(decimal.NewFromInt(11)), "got %s", outcome.WinAmount)
	assert.True(t, outcome.Balance.Equal(decimal.NewFromInt(101)), "got %s", outcome.Balance)
	assert.NotEqual(t, outcome.SessionID.String(), "00000000-0000-0000-0000-000000000000")

	entries := f.store.Entries()
	require.Len(t, entries, 2)
	bet, win := entries[0], entries[1]

	assert.Equal(t, entities.EntryTypeBet, bet.EntryType)
	assert.True(t, bet.Amount.Equal(decimal.NewFromInt(-10)))
	assert.Equal(t, entities.EntryTypeWin, win.EntryType)
	assert.True(t, win.Amount.Equal(decimal.NewFromInt(11)))

	// Both entries share the round's session id
	require.NotNil(t, bet.SessionID)
	require.NotNil(t, win.SessionID)
	assert.Equal(t, outcome.SessionID, *bet.SessionID)
	assert.Equal(t, outcome.SessionID, *win.SessionID)

	rounds := f.store.Rounds()
	require.Len(t, rounds, 1)
	assert.True(t, rounds[0].IsWin)
	assert.Equal(t, outcome.SessionID, rounds[0].SessionID)
}

func TestGameService_PlaceBet_WinLock(t *testing.T) {
	ctx := context.Background()
	f := newGameFixture()
	// The rng would always win; the balance lock must override it
	f.service.SetRandSource(zeroSource{})
	account := f.seed(150, entities.CurrencyUSD)

	outcome, err := f.service.PlaceBet(ctx, account.ID, &entities.RoundRequest{
		GameType:  entities.GameTypeDice,
		BetAmount: decimal.NewFromInt(10),
		Currency:  entities.CurrencyUSD,
		Dice:      &entities.DiceParams{Prediction: 50, RollOver: true},
	})
	require.NoError(t, err)

	assert.False(t, outcome.IsWin)
	assert.True(t, outcome.WinAmount.IsZero())
	assert.True(t, outcome.Balance.Equal(decimal.NewFromInt(140)))

	entries := f.store.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, entities.EntryTypeBet, entries[0].EntryType)
}

func TestGameService_PlaceBet_Loss(t *testing.T) {
	ctx := context.Background()
	f := newGameFixture()
	f.service.SetRandSource(rand.NewSource(42))
	account := f.seed(1000, entities.CurrencyUSD)

	outcome, err := f.service.PlaceBet(ctx, account.ID, slotsBet(10))
	require.NoError(t, err)

	// Balance at or above the lock can never win
	assert.False(t, outcome.IsWin)
	assert.True(t, outcome.WinAmount.IsZero())
	assert.True(t, outcome.Balance.Equal(decimal.NewFromInt(990)))

	rounds := f.store.Rounds()
	require.Len(t, rounds, 1)
	assert.False(t, rounds[0].IsWin)
}

func TestGameService_PlaceBet_PlinkoLossStillPays(t *testing.T) {
	ctx := context.Background()
	f := newGameFixture()
	f.service.SetRandSource(rand.NewSource(7))
	account := f.seed(1000, entities.CurrencyUSD)

	outcome, err := f.service.PlaceBet(ctx, account.ID, &entities.RoundRequest{
		GameType:  entities.GameTypePlinko,
		BetAmount: decimal.NewFromInt(100),
		Currency:  entities.CurrencyUSD,
	})
	require.NoError(t, err)

	// A losing plinko drop still returns part of the bet
	assert.False(t, outcome.IsWin)
	assert.True(t, outcome.WinAmount.IsPositive())
	assert.True(t, outcome.WinAmount.LessThan(decimal.NewFromInt(100)))

	expected := decimal.NewFromInt(900).Add(outcome.WinAmount)
	assert.True(t, outcome.Balance.Equal(expected), "got %s want %s", outcome.Balance, expected)

	// The partial payout is a win entry even on a losing round
	entries := f.store.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, entities.EntryTypeWin, entries[1].EntryType)
}

func TestGameService_PlaceBet_CrossCurrency(t *testing.T) {
	ctx := context.Background()
	f := newGameFixture()
	f.service.SetRandSource(zeroSource{})
	account := f.seed(11000, entities.CurrencyBDT)

	// Bet 10 USD from a BDT account: 1100 BDT debit, 1210 BDT payout
	outcome, err := f.service.PlaceBet(ctx, account.ID, slotsBet(10))
	require.NoError(t, err)

	assert.True(t, outcome.IsWin)
	assert.Equal(t, entities.CurrencyBDT, outcome.Currency)
	assert.True(t, outcome.WinAmount.Equal(decimal.NewFromInt(11)), "payout stays in the bet currency, got %s", outcome.WinAmount)
	assert.True(t, outcome.Balance.Equal(decimal.NewFromInt(11110)), "got %s", outcome.Balance)
}

func TestGameService_PlaceBet_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("unsupported game", func(t *testing.T) {
		f := newGameFixture()
		account := f.seed(100, entities.CurrencyUSD)

		_, err := f.service.PlaceBet(ctx, account.ID, &entities.RoundRequest{
			GameType:  entities.GameType("roulette"),
			BetAmount: decimal.NewFromInt(10),
			Currency:  entities.CurrencyUSD,
		})
		assert.ErrorIs(t, err, entities.ErrUnsupportedGame)
	})

	t.Run("non-positive bet", func(t *testing.T) {
		f := newGameFixture()
		account := f.seed(100, entities.CurrencyUSD)

		_, err := f.service.PlaceBet(ctx, account.ID, slotsBet(0))
		assert.ErrorIs(t, err, entities.ErrInvalidBet)
	})

	t.Run("invalid currency", func(t *testing.T) {
		f := newGameFixture()
		account := f.seed(100, entities.CurrencyUSD)

		_, err := f.service.PlaceBet(ctx, account.ID, &entities.RoundRequest{
			GameType:  entities.GameTypeSlots,
			BetAmount: decimal.NewFromInt(10),
			Currency:  entities.Currency("EUR"),
		})
		assert.ErrorIs(t, err, entities.ErrInvalidCurrency)
	})

	t.Run("insufficient funds aborts before any write", func(t *testing.T) {
		f := newGameFixture()
		account := f.seed(5, entities.CurrencyUSD)

		_, err := f.service.PlaceBet(ctx, account.ID, slotsBet(10))
		assert.ErrorIs(t, err, entities.ErrInsufficientFunds)

		assert.Empty(t, f.store.Entries())
		assert.Empty(t, f.store.Rounds())
		assert.True(t, f.store.Account(account.ID).Balance.Equal(decimal.NewFromInt(5)))
	})

	t.Run("bad dice prediction rolls the round back", func(t *testing.T) {
		f := newGameFixture()
		account := f.seed(100, entities.CurrencyUSD)

		_, err := f.service.PlaceBet(ctx, account.ID, &entities.RoundRequest{
			GameType:  entities.GameTypeDice,
			BetAmount: decimal.NewFromInt(10),
			Currency:  entities.CurrencyUSD,
			Dice:      &entities.DiceParams{Prediction: 150},
		})
		assert.ErrorIs(t, err, entities.ErrInvalidBet)

		assert.Empty(t, f.store.Entries())
		assert.True(t, f.store.Account(account.ID).Balance.Equal(decimal.NewFromInt(100)))
	})

	t.Run("missing account", func(t *testing.T) {
		f := newGameFixture()

		_, err := f.service.PlaceBet(ctx, 42, slotsBet(10))
		assert.ErrorIs(t, err, entities.ErrAccountNotFound)
	})
}

func TestGameService_PlaceBet_Notifications(t *testing.T) {
	ctx := context.Background()
	f := newGameFixture()
	f.service.SetRandSource(zeroSource{})
	account := f.seed(100, entities.CurrencyUSD)

	outcome, err := f.service.PlaceBet(ctx, account.ID, slotsBet(10))
	require.NoError(t, err)

	// Bet update first, then win update, in mutation order
	require.Len(t, f.notifier.Balances, 2)
	assert.Equal(t, entities.EntryTypeBet, f.notifier.Balances[0].EntryType)
	assert.True(t, f.notifier.Balances[0].Balance.Equal(decimal.NewFromInt(90)))
	assert.Equal(t, entities.EntryTypeWin, f.notifier.Balances[1].EntryType)
	assert.True(t, f.notifier.Balances[1].Balance.Equal(decimal.NewFromInt(101)))

	require.Len(t, f.notifier.Results, 1)
	assert.Equal(t, outcome.SessionID, f.notifier.Results[0].SessionID)

	published := f.publisher.Published()
	require.Len(t, published, 1)
	ev, ok := published[0].(events.RoundSettledEvent)
	require.True(t, ok)
	assert.Equal(t, account.ID, ev.AccountID)
	assert.True(t, ev.IsWin)
	assert.Equal(t, outcome.SessionID, ev.SessionID)
}
