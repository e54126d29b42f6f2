package server

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"luckybit/domain/entities"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondServiceError maps domain errors onto HTTP statuses
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entities.ErrAccountNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, entities.ErrInsufficientFunds):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, entities.ErrInvalidAmount),
		errors.Is(err, entities.ErrInvalidBet),
		errors.Is(err, entities.ErrInvalidCurrency),
		errors.Is(err, entities.ErrUnsupportedGame):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, entities.ErrConversionUnavailable):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		log.WithError(err).Error("Unhandled service error")
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
