package ws

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"luckybit/domain/entities"
)

// NotifyBalance pushes the new balance to every live connection of the
// account. Delivery is best effort; failures are logged and swallowed.
func (h *Hub) NotifyBalance(accountID int64, balance decimal.Decimal, currency entities.Currency, previous decimal.Decimal, entryType entities.EntryType) {
	msg, err := json.Marshal(balanceMessage{
		Event:     "balance_update",
		AccountID: accountID,
		Balance:   balance,
		Currency:  currency,
		Previous:  previous,
		EntryType: string(entryType),
	})
	if err != nil {
		log.WithError(err).Error("Failed to marshal balance message")
		return
	}
	h.sendToAccount(accountID, msg)
}

// NotifyRoundResult fans a settled round out to all live connections; wins
// feed the cross-client recent-winners stream, so delivery is not limited to
// the account's own sessions.
func (h *Hub) NotifyRoundResult(accountID int64, round *entities.GameRound) {
	msg, err := json.Marshal(roundMessage{
		Event:      "round_result",
		AccountID:  accountID,
		GameType:   round.GameType,
		BetAmount:  round.BetAmount,
		WinAmount:  round.WinAmount,
		Currency:   round.Currency,
		IsWin:      round.IsWin,
		Multiplier: round.Multiplier,
		GameData:   round.GameData,
	})
	if err != nil {
		log.WithError(err).Error("Failed to marshal round message")
		return
	}
	h.sendToAll(msg)
}
