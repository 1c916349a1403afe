package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"loanledger/src/ledger"
	"loanledger/src/payments"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses. All of
// these are recoverable-by-caller conditions; anything unrecognized is a 500.
func writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, ledger.ErrPositionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, ledger.ErrInvalidAmount):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrAssetNotSupported),
		errors.Is(err, ledger.ErrAssetUnpriced),
		errors.Is(err, ledger.ErrInsufficientCollateral),
		errors.Is(err, ledger.ErrRatioBreach),
		errors.Is(err, ledger.ErrPositionHealthy),
		errors.Is(err, ledger.ErrPositionInactive),
		errors.Is(err, ledger.ErrConcurrentUpdate),
		errors.Is(err, payments.ErrNoUnpaidObligation),
		errors.Is(err, payments.ErrAmountMismatch):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		logger.WithError(err).Error("request failed")
		writeJSON(w, status, errorResponse{Error: "Internal Server Error"})
		return
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}
