package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type priceTable interface {
	SetPrice(ctx context.Context, symbol string, price decimal.Decimal) error
	SetSupported(ctx context.Context, symbol string, supported bool) error
}

type setPricePayload struct {
	Symbol   string          `json:"symbol"`
	PriceUSD decimal.Decimal `json:"price_usd"`
}

type setSupportedPayload struct {
	Symbol    string `json:"symbol"`
	Supported bool   `json:"supported"`
}

// SetAssetPriceHandler updates the admin price table. The new price affects
// all subsequent ratio computations immediately.
func SetAssetPriceHandler(table priceTable) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload setPricePayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid price payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		if payload.Symbol == "" || payload.PriceUSD.LessThanOrEqual(decimal.Zero) {
			http.Error(w, "symbol and a positive price_usd are required", http.StatusBadRequest)
			return
		}

		if err := table.SetPrice(r.Context(), payload.Symbol, payload.PriceUSD); err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"symbol":    payload.Symbol,
			"price_usd": payload.PriceUSD,
		})
	}
}

// SetAssetSupportedHandler flips whether an asset may back new locks.
func SetAssetSupportedHandler(table priceTable) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload setSupportedPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid supported payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		if payload.Symbol == "" {
			http.Error(w, "symbol is required", http.StatusBadRequest)
			return
		}

		err := table.SetSupported(r.Context(), payload.Symbol, payload.Supported)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "asset not found, set a price first", http.StatusNotFound)
			return
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"symbol":    payload.Symbol,
			"supported": payload.Supported,
		})
	}
}
