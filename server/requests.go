package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"luckybit/domain/entities"
)

const maxBodyBytes = 1 << 20

type createAccountRequest struct {
	Currency string `json:"currency" validate:"omitempty,oneof=USD BDT TON"`
}

type mutationRequest struct {
	Amount   decimal.Decimal `json:"amount" validate:"required"`
	Currency string          `json:"currency" validate:"required,oneof=USD BDT TON"`
}

type changeCurrencyRequest struct {
	Currency string `json:"currency" validate:"required,oneof=USD BDT TON"`
}

type diceRequest struct {
	Prediction int  `json:"prediction" validate:"min=2,max=98"`
	RollOver   bool `json:"roll_over"`
}

type placeBetRequest struct {
	AccountID int64           `json:"account_id" validate:"required,gt=0"`
	GameType  string          `json:"game_type" validate:"required,oneof=slots dice plinko plinko_master"`
	BetAmount decimal.Decimal `json:"bet_amount" validate:"required"`
	Currency  string          `json:"currency" validate:"required,oneof=USD BDT TON"`
	Dice      *diceRequest    `json:"dice" validate:"omitempty"`
}

func (r *placeBetRequest) toRoundRequest() *entities.RoundRequest {
	req := &entities.RoundRequest{
		GameType:  entities.GameType(r.GameType),
		BetAmount: r.BetAmount,
		Currency:  entities.Currency(r.Currency),
	}
	if r.Dice != nil {
		req.Dice = &entities.DiceParams{
			Prediction: r.Dice.Prediction,
			RollOver:   r.Dice.RollOver,
		}
	}
	return req
}

// decodeAndValidate parses the JSON body into dst and runs struct validation
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// accountIDParam parses the {id} route parameter
func accountIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid account id %q", raw)
	}
	return id, nil
}

// limitParam parses an optional ?limit= query parameter with bounds
func limitParam(r *http.Request, def, max int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
