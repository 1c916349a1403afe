package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"loanledger/src/database"
	"loanledger/src/model"
)

// AssetRepository handles the admin-maintained price table.
type AssetRepository struct {
	db *gorm.DB
}

// NewAssetRepository creates a new repository instance using the main read/write database.
func NewAssetRepository() *AssetRepository {
	logger.WithField("component", "AssetRepository").
		Info("Creating new AssetRepository with MainDB")

	return &AssetRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *AssetRepository) WithDB(db *gorm.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// FindBySymbol fetches a single asset row.
// Returns (nil, nil) if the asset is not configured.
func (r *AssetRepository) FindBySymbol(
	ctx context.Context,
	symbol string,
) (*model.Asset, error) {

	var asset model.Asset

	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		First(&asset).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":   "AssetRepository",
			"op":     "FindBySymbol",
			"symbol": symbol,
		}).WithError(err).Error("Failed to fetch asset")

		return nil, err
	}

	return &asset, nil
}

// SetPrice creates or updates the unit price for an asset.
func (r *AssetRepository) SetPrice(
	ctx context.Context,
	symbol string,
	price decimal.Decimal,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":   "AssetRepository",
		"op":     "SetPrice",
		"symbol": symbol,
		"price":  price.String(),
	}).Info("Setting asset price")

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var asset model.Asset
		err := tx.Where("symbol = ?", symbol).First(&asset).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&model.Asset{Symbol: symbol, PriceUSD: price}).Error
		}
		if err != nil {
			return err
		}

		return tx.Model(&model.Asset{}).
			Where("symbol = ?", symbol).
			Update("price_usd", price).Error
	})
}

// SetSupported flips the supported flag for an asset. The asset row must exist.
func (r *AssetRepository) SetSupported(
	ctx context.Context,
	symbol string,
	supported bool,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":      "AssetRepository",
		"op":        "SetSupported",
		"symbol":    symbol,
		"supported": supported,
	}).Info("Setting asset supported flag")

	result := r.db.WithContext(ctx).
		Model(&model.Asset{}).
		Where("symbol = ?", symbol).
		Update("supported", supported)

	if result.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "AssetRepository",
			"op":     "SetSupported",
			"symbol": symbol,
		}).WithError(result.Error).Error("Failed to update supported flag")

		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
