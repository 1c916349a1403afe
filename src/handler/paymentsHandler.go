package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"loanledger/src/model"
	"loanledger/src/policy"
)

type paymentRecorder interface {
	RecordPayment(ctx context.Context, owner string, positionID uint, suppliedAmount *decimal.Decimal) (*model.PaymentObligation, error)
	GetNextUnpaid(ctx context.Context, owner string, positionID uint) (*model.PaymentObligation, error)
	History(ctx context.Context, owner string, limit int) ([]model.PaymentObligation, error)
}

type unlockChecker interface {
	CanUnlock(ctx context.Context, owner string, positionID uint, unlockPercentage int) (*policy.Decision, error)
}

type recordPaymentPayload struct {
	Owner      string           `json:"owner"`
	PositionID uint             `json:"position_id"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
}

// RecordPaymentHandler settles the earliest unpaid obligation of a position.
func RecordPaymentHandler(ledger paymentRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload recordPaymentPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid payment payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		owner := strings.ToLower(strings.TrimSpace(payload.Owner))
		if owner == "" || payload.PositionID == 0 {
			http.Error(w, "owner and position_id are required", http.StatusBadRequest)
			return
		}

		obligation, err := ledger.RecordPayment(r.Context(), owner, payload.PositionID, payload.Amount)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Payment recorded successfully",
			"payment": obligation,
		})
	}
}

// NextUnpaidHandler returns the earliest unpaid obligation, read-only.
func NextUnpaidHandler(ledger paymentRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := strings.ToLower(r.URL.Query().Get("owner"))
		positionParam := r.URL.Query().Get("positionId")
		id, err := strconv.ParseUint(positionParam, 10, 64)
		if owner == "" || err != nil || id == 0 {
			http.Error(w, "owner and positionId are required", http.StatusBadRequest)
			return
		}

		obligation, err := ledger.GetNextUnpaid(r.Context(), owner, uint(id))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"payment": obligation})
	}
}

// PaymentHistoryHandler returns the owner's latest obligations across all
// positions, newest due date first.
func PaymentHistoryHandler(ledger paymentRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := strings.ToLower(chi.URLParam(r, "owner"))
		if owner == "" {
			http.Error(w, "owner is required", http.StatusBadRequest)
			return
		}

		limit := 50
		if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
			parsed, err := strconv.Atoi(limitParam)
			if err != nil || parsed <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		history, err := ledger.History(r.Context(), owner, limit)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"payments": history})
	}
}

// CheckUnlockHandler runs the eligibility policy without touching state.
func CheckUnlockHandler(checker unlockChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := strings.ToLower(r.URL.Query().Get("owner"))
		positionParam := r.URL.Query().Get("positionId")
		percentageParam := r.URL.Query().Get("unlockPercentage")

		id, idErr := strconv.ParseUint(positionParam, 10, 64)
		percentage, pctErr := strconv.Atoi(percentageParam)
		if owner == "" || idErr != nil || id == 0 || pctErr != nil || percentage < 0 {
			http.Error(w, "owner, positionId and unlockPercentage are required", http.StatusBadRequest)
			return
		}

		decision, err := checker.CanUnlock(r.Context(), owner, uint(id), percentage)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, decision)
	}
}
