package server

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"luckybit/config"
	"luckybit/domain/entities"
	"luckybit/domain/interfaces"
	"luckybit/domain/services"
	"luckybit/infrastructure/ws"
)

// Handler exposes the wallet and game API over HTTP
type Handler struct {
	ledger   *services.LedgerService
	games    *services.GameService
	rates    interfaces.RateConverter
	accounts interfaces.AccountRepository
	history  interfaces.GameHistoryRepository
	entries  interfaces.LedgerRepository
	hub      *ws.Hub
	validate *validator.Validate
}

func NewHandler(
	ledger *services.LedgerService,
	games *services.GameService,
	rates interfaces.RateConverter,
	accounts interfaces.AccountRepository,
	entries interfaces.LedgerRepository,
	history interfaces.GameHistoryRepository,
	hub *ws.Hub,
) *Handler {
	return &Handler{
		ledger:   ledger,
		games:    games,
		rates:    rates,
		accounts: accounts,
		entries:  entries,
		history:  history,
		hub:      hub,
		validate: validator.New(),
	}
}

type accountResponse struct {
	ID        int64           `json:"id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toAccountResponse(a *entities.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Balance:   a.Balance,
		Currency:  a.Currency.String(),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := config.Get()
	cur := cfg.DefaultCurrency
	if req.Currency != "" {
		cur = entities.Currency(req.Currency)
	}

	account, err := h.accounts.Create(r.Context(), cur, decimal.NewFromInt(cfg.StartingBalance))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.WithFields(log.Fields{
		"accountId": account.ID,
		"currency":  account.Currency,
	}).Info("Created account")
	respondJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.accounts.GetByID(r.Context(), accountID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if account == nil {
		respondError(w, http.StatusNotFound, "account not found")
		return
	}
	respondJSON(w, http.StatusOK, toAccountResponse(account))
}

type mutationResponse struct {
	Account accountResponse `json:"account"`
	EntryID int64           `json:"entry_id"`
}

func (h *Handler) deposit(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, entities.EntryTypeDeposit)
}

func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, entities.EntryTypeWithdrawal)
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, entryType entities.EntryType) {
	accountID, err := accountIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req mutationRequest
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var account *entities.Account
	var entry *entities.LedgerEntry
	if entryType == entities.EntryTypeWithdrawal {
		account, entry, err = h.ledger.Debit(r.Context(), accountID, req.Amount, entities.Currency(req.Currency), entryType, nil)
	} else {
		account, entry, err = h.ledger.Credit(r.Context(), accountID, req.Amount, entities.Currency(req.Currency), entryType, nil)
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, mutationResponse{
		Account: toAccountResponse(account),
		EntryID: entry.ID,
	})
}

func (h *Handler) changeCurrency(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req changeCurrencyRequest
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.ledger.ChangeCurrency(r.Context(), accountID, entities.Currency(req.Currency))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toAccountResponse(account))
}

type ledgerEntryResponse struct {
	ID            int64           `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	EntryType     string          `json:"entry_type"`
	Status        string          `json:"status"`
	SessionID     *uuid.UUID      `json:"session_id,omitempty"`
	Metadata      map[string]any  `json:"metadata,omitempty"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit := limitParam(r, 50, 200)

	entries, err := h.entries.GetByAccount(r.Context(), accountID, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := make([]ledgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, ledgerEntryResponse{
			ID:            e.ID,
			Amount:        e.Amount,
			Currency:      e.Currency.String(),
			EntryType:     string(e.EntryType),
			Status:        string(e.Status),
			SessionID:     e.SessionID,
			Metadata:      e.Metadata,
			BalanceBefore: e.BalanceBefore,
			BalanceAfter:  e.BalanceAfter,
			CreatedAt:     e.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) placeBet(w http.ResponseWriter, r *http.Request) {
	var req placeBetRequest
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.games.PlaceBet(r.Context(), req.AccountID, req.toRoundRequest())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, outcome)
}

type winnerResponse struct {
	AccountID  int64           `json:"account_id"`
	GameType   string          `json:"game_type"`
	BetAmount  decimal.Decimal `json:"bet_amount"`
	WinAmount  decimal.Decimal `json:"win_amount"`
	Currency   string          `json:"currency"`
	Multiplier float64         `json:"multiplier"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (h *Handler) recentWinners(w http.ResponseWriter, r *http.Request) {
	limit := limitParam(r, 20, 100)

	rounds, err := h.history.RecentWinners(r.Context(), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := make([]winnerResponse, 0, len(rounds))
	for _, round := range rounds {
		resp = append(resp, winnerResponse{
			AccountID:  round.AccountID,
			GameType:   round.GameType.String(),
			BetAmount:  round.BetAmount,
			WinAmount:  round.WinAmount,
			Currency:   round.Currency.String(),
			Multiplier: round.Multiplier,
			CreatedAt:  round.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

type ratesResponse struct {
	Base         string                     `json:"base"`
	Rates        map[string]decimal.Decimal `json:"rates"`
	LastUpdated  time.Time                  `json:"last_updated"`
	AgeInMinutes float64                    `json:"ageInMinutes"`
}

func (h *Handler) getRates(w http.ResponseWriter, r *http.Request) {
	snap, err := h.rates.Snapshot(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	rates := make(map[string]decimal.Decimal, len(snap.Rates))
	for cur, rate := range snap.Rates {
		rates[cur.String()] = rate
	}
	respondJSON(w, http.StatusOK, ratesResponse{
		Base:         snap.Base.String(),
		Rates:        rates,
		LastUpdated:  snap.LastUpdated,
		AgeInMinutes: snap.Age(time.Now()).Minutes(),
	})
}
