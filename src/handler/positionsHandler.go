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

	"loanledger/src/ledger"
	"loanledger/src/model"
	"loanledger/src/repository"
)

type collateralLedger interface {
	Lock(ctx context.Context, owner, assetSymbol string, amount, loanAmountUSD decimal.Decimal, minRatioBps int64) (*model.Position, error)
	Unlock(ctx context.Context, positionID uint, caller string, unlockAmount decimal.Decimal) (decimal.Decimal, error)
	Liquidate(ctx context.Context, positionID uint) error
}

type positionReader interface {
	FindByID(ctx context.Context, id uint) (*model.Position, error)
	FindByOwner(ctx context.Context, owner string) ([]model.Position, error)
}

type obligationReader interface {
	FindByPosition(ctx context.Context, positionID uint) ([]model.PaymentObligation, error)
	Stats(ctx context.Context, positionID uint) (*repository.PaymentStats, error)
}

type lockPayload struct {
	Owner         string          `json:"owner"`
	AssetSymbol   string          `json:"asset_symbol"`
	Amount        decimal.Decimal `json:"amount"`
	LoanAmountUSD decimal.Decimal `json:"loan_amount_usd"`
	MinRatioBps   int64           `json:"min_ratio_bps"`
}

type unlockPayload struct {
	Owner  string          `json:"owner"`
	Amount decimal.Decimal `json:"amount"`
}

func parsePositionID(r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "positionID")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// LockPositionHandler creates a new collateral position backing a fiat loan.
func LockPositionHandler(lgr collateralLedger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload lockPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid lock payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		owner := strings.ToLower(strings.TrimSpace(payload.Owner))
		if owner == "" || payload.AssetSymbol == "" || payload.MinRatioBps <= 0 {
			http.Error(w, "owner, asset_symbol and min_ratio_bps are required", http.StatusBadRequest)
			return
		}

		position, err := lgr.Lock(r.Context(), owner, payload.AssetSymbol,
			payload.Amount, payload.LoanAmountUSD, payload.MinRatioBps)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, position)
	}
}

// UnlockPositionHandler releases part of the collateral after the ratio
// re-check. Callers are expected to consult the eligibility check first.
func UnlockPositionHandler(lgr collateralLedger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parsePositionID(r)
		if !ok {
			http.Error(w, "invalid positionID", http.StatusBadRequest)
			return
		}

		var payload unlockPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid unlock payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		owner := strings.ToLower(strings.TrimSpace(payload.Owner))

		remaining, err := lgr.Unlock(r.Context(), id, owner, payload.Amount)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"position_id":          id,
			"collateral_remaining": remaining,
		})
	}
}

// LiquidatePositionHandler force-closes an under-collateralized position.
// Anyone may call it; the ledger re-validates the ratio itself.
func LiquidatePositionHandler(lgr collateralLedger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parsePositionID(r)
		if !ok {
			http.Error(w, "invalid positionID", http.StatusBadRequest)
			return
		}

		if err := lgr.Liquidate(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"position_id": id,
			"liquidated":  true,
		})
	}
}

// GetPositionHandler returns a position together with its full schedule.
func GetPositionHandler(positions positionReader, obligations obligationReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parsePositionID(r)
		if !ok {
			http.Error(w, "invalid positionID", http.StatusBadRequest)
			return
		}

		position, err := positions.FindByID(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if position == nil {
			writeDomainError(w, ledger.ErrPositionNotFound)
			return
		}

		schedule, err := obligations.FindByPosition(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"position": position,
			"payments": schedule,
		})
	}
}

// ListUserPositionsHandler returns all positions of an owner with aggregated
// payment stats per position.
func ListUserPositionsHandler(positions positionReader, obligations obligationReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := strings.ToLower(chi.URLParam(r, "owner"))
		if owner == "" {
			http.Error(w, "owner is required", http.StatusBadRequest)
			return
		}

		list, err := positions.FindByOwner(r.Context(), owner)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		type positionWithStats struct {
			model.Position
			PaymentStats *repository.PaymentStats `json:"payment_stats"`
		}

		out := make([]positionWithStats, 0, len(list))
		for _, position := range list {
			stats, err := obligations.Stats(r.Context(), position.ID)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			out = append(out, positionWithStats{Position: position, PaymentStats: stats})
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"positions": out})
	}
}

// Default wiring to the production ledger and repositories.

func DefaultGetPositionHandler() http.HandlerFunc {
	return GetPositionHandler(repository.NewPositionRepository(), repository.NewObligationRepository())
}

func DefaultListUserPositionsHandler() http.HandlerFunc {
	return ListUserPositionsHandler(repository.NewPositionRepository(), repository.NewObligationRepository())
}
