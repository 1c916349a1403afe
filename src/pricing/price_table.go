package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"loanledger/src/model"
)

// Quote is a consistent snapshot of one asset's configuration, taken once per
// ledger operation so a mid-operation admin price change cannot produce
// inconsistent ratio math.
type Quote struct {
	Symbol    string
	PriceUSD  decimal.Decimal
	Supported bool
}

type assetStore interface {
	FindBySymbol(ctx context.Context, symbol string) (*model.Asset, error)
	SetPrice(ctx context.Context, symbol string, price decimal.Decimal) error
	SetSupported(ctx context.Context, symbol string, supported bool) error
}

// Table is the admin-maintained asset price table backing all ratio math.
type Table struct {
	assets assetStore
}

func NewTable(assets assetStore) *Table {
	return &Table{assets: assets}
}

// Snapshot reads the current quote for an asset in a single lookup.
// Returns (nil, nil) when the asset is not configured at all.
func (t *Table) Snapshot(ctx context.Context, symbol string) (*Quote, error) {
	asset, err := t.assets.FindBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, nil
	}

	return &Quote{
		Symbol:    asset.Symbol,
		PriceUSD:  asset.PriceUSD,
		Supported: asset.Supported,
	}, nil
}

// SetPrice updates the unit price for an asset. Admin only; takes effect on
// all subsequent ratio computations immediately.
func (t *Table) SetPrice(ctx context.Context, symbol string, price decimal.Decimal) error {
	return t.assets.SetPrice(ctx, symbol, price)
}

// SetSupported flips whether an asset may back new locks.
func (t *Table) SetSupported(ctx context.Context, symbol string, supported bool) error {
	return t.assets.SetSupported(ctx, symbol, supported)
}
