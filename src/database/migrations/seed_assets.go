package migrations

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"loanledger/src/model"
)

// seedDefaultAssets inserts the initial set of collateral assets so a fresh
// deployment can accept locks before an admin touches the price table.
// Prices are placeholders and are expected to be overwritten via the admin API.
func seedDefaultAssets(db *gorm.DB) error {
	assets := []model.Asset{
		{Symbol: "WETH", PriceUSD: decimal.NewFromInt(2000), Supported: true},
		{Symbol: "WBTC", PriceUSD: decimal.NewFromInt(60000), Supported: true},
	}

	for _, asset := range assets {
		var count int64
		if err := db.Model(&model.Asset{}).
			Where("symbol = ?", asset.Symbol).
			Count(&count).Error; err != nil {
			return fmt.Errorf("check asset %s: %w", asset.Symbol, err)
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&asset).Error; err != nil {
			return fmt.Errorf("seed asset %s: %w", asset.Symbol, err)
		}
	}

	return nil
}
