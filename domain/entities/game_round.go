package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GameType identifies one of the supported games
type GameType string

const (
	GameTypeSlots        GameType = "slots"
	GameTypeDice         GameType = "dice"
	GameTypePlinko       GameType = "plinko"
	GameTypePlinkoMaster GameType = "plinko_master"
)

// IsValid reports whether the game type is one the engine supports
func (g GameType) IsValid() bool {
	switch g {
	case GameTypeSlots, GameTypeDice, GameTypePlinko, GameTypePlinkoMaster:
		return true
	}
	return false
}

// String returns the string representation of the game type
func (g GameType) String() string {
	return string(g)
}

// DiceParams carries the player-chosen inputs for a dice round
type DiceParams struct {
	Prediction int  `json:"prediction"`
	RollOver   bool `json:"roll_over"`
}

// RoundRequest is the per-round input to the outcome engine. It is never
// persisted as its own entity; the round is recorded through ledger entries
// and a game history row.
type RoundRequest struct {
	GameType  GameType
	BetAmount decimal.Decimal
	Currency  Currency
	Dice      *DiceParams
}

// GameResult is the settled outcome of a single round
type GameResult struct {
	IsWin      bool            `json:"is_win"`
	WinAmount  decimal.Decimal `json:"win_amount"`
	Multiplier float64         `json:"multiplier"`
	GameData   map[string]any  `json:"game_data"`
}

// RoundOutcome is what placeBet returns to the caller: the game result plus
// the account state after settlement.
type RoundOutcome struct {
	SessionID  uuid.UUID       `json:"session_id"`
	IsWin      bool            `json:"is_win"`
	WinAmount  decimal.Decimal `json:"win_amount"`
	Multiplier float64         `json:"multiplier"`
	Balance    decimal.Decimal `json:"balance"`
	Currency   Currency        `json:"currency"`
	GameData   map[string]any  `json:"game_data"`
}

// GameRound is the append-only history record of a settled round, kept for
// statistics and the recent-winners feed.
type GameRound struct {
	ID         int64           `db:"id"`
	AccountID  int64           `db:"account_id"`
	GameType   GameType        `db:"game_type"`
	BetAmount  decimal.Decimal `db:"bet_amount"`
	Currency   Currency        `db:"currency"`
	IsWin      bool            `db:"is_win"`
	WinAmount  decimal.Decimal `db:"win_amount"`
	Multiplier float64         `db:"multiplier"`
	GameData   map[string]any  `db:"game_data"`
	SessionID  uuid.UUID       `db:"session_id"`
	CreatedAt  time.Time       `db:"created_at"`
}

// NetProfit returns the round's net effect on the account
func (r *GameRound) NetProfit() decimal.Decimal {
	return r.WinAmount.Sub(r.BetAmount)
}
