package testutil

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"luckybit/domain/entities"
)

// CreateTestEntry creates a ledger entry with default values
func CreateTestEntry(accountID int64, entryType entities.EntryType) *entities.LedgerEntry {
	return &entities.LedgerEntry{
		AccountID:     accountID,
		Amount:        decimal.NewFromInt(-10),
		Currency:      entities.CurrencyUSD,
		EntryType:     entryType,
		Status:        entities.EntryStatusCompleted,
		BalanceBefore: decimal.NewFromInt(100),
		BalanceAfter:  decimal.NewFromInt(90),
		Metadata: map[string]any{
			"test": true,
		},
	}
}

// CreateTestEntryWithAmounts creates a ledger entry with specific amounts
func CreateTestEntryWithAmounts(accountID int64, before, after decimal.Decimal, entryType entities.EntryType) *entities.LedgerEntry {
	entry := CreateTestEntry(accountID, entryType)
	entry.BalanceBefore = before
	entry.BalanceAfter = after
	entry.Amount = after.Sub(before)
	return entry
}

// CreateTestRound creates a settled game round with default values
func CreateTestRound(accountID int64, gameType entities.GameType, isWin bool) *entities.GameRound {
	round := &entities.GameRound{
		AccountID:  accountID,
		GameType:   gameType,
		BetAmount:  decimal.NewFromInt(10),
		Currency:   entities.CurrencyUSD,
		IsWin:      isWin,
		WinAmount:  decimal.Zero,
		Multiplier: 0,
		SessionID:  uuid.New(),
		GameData: map[string]any{
			"test": true,
		},
	}
	if isWin {
		round.WinAmount = decimal.NewFromInt(11)
		round.Multiplier = 1.1
	}
	return round
}
