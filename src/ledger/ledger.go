package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"loanledger/src/loanrules"
	"loanledger/src/model"
	"loanledger/src/pricing"
	"loanledger/src/repository"
	"loanledger/src/schedule"
)

// CustodyGateway moves the actual collateral. A failure from this collaborator
// aborts the whole ledger operation; the surrounding transaction is rolled
// back so no partial state commit is observable.
type CustodyGateway interface {
	TransferIn(ctx context.Context, owner, asset string, amount decimal.Decimal) error
	TransferOut(ctx context.Context, owner, asset string, amount decimal.Decimal) error
	LiquidationPayout(ctx context.Context, positionID uint, asset string, amount decimal.Decimal) error
}

// Ledger is the authoritative record of collateral positions. It enforces the
// collateral-ratio invariant on lock and unlock and performs liquidation.
type Ledger struct {
	db          *gorm.DB
	prices      *pricing.Table
	custody     CustodyGateway
	locks       *positionLocks
	positions   *repository.PositionRepository
	credentials *repository.CredentialRepository
	obligations *repository.ObligationRepository

	// Now is the clock used for lock timestamps; overridable in tests.
	Now func() time.Time
}

func NewLedger(db *gorm.DB, prices *pricing.Table, custody CustodyGateway) *Ledger {
	return &Ledger{
		db:          db,
		prices:      prices,
		custody:     custody,
		locks:       newPositionLocks(),
		positions:   repository.NewPositionRepository().WithDB(db),
		credentials: repository.NewCredentialRepository().WithDB(db),
		obligations: repository.NewObligationRepository().WithDB(db),
		Now:         time.Now,
	}
}

// snapshotQuote resolves the single consistent price snapshot used for one
// ratio computation. Supported and priced are checked together so the caller
// sees AssetNotSupported before AssetUnpriced.
func (l *Ledger) snapshotQuote(ctx context.Context, symbol string) (*pricing.Quote, error) {
	quote, err := l.prices.Snapshot(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if quote == nil || !quote.Supported {
		return nil, ErrAssetNotSupported
	}
	if quote.PriceUSD.LessThanOrEqual(decimal.Zero) {
		return nil, ErrAssetUnpriced
	}
	return quote, nil
}

// Lock validates the ratio invariant, debits the caller's external custody,
// creates the position, mints its credential and persists the full interest
// schedule, all in one transaction.
func (l *Ledger) Lock(
	ctx context.Context,
	owner string,
	assetSymbol string,
	amount decimal.Decimal,
	loanAmountUSD decimal.Decimal,
	minRatioBps int64,
) (*model.Position, error) {

	if amount.LessThanOrEqual(decimal.Zero) || loanAmountUSD.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	quote, err := l.snapshotQuote(ctx, assetSymbol)
	if err != nil {
		return nil, err
	}

	ratio := RatioBps(amount, quote.PriceUSD, loanAmountUSD)
	if !meetsRatio(ratio, minRatioBps) {
		logger.WithFields(map[string]interface{}{
			"owner":         owner,
			"asset":         assetSymbol,
			"ratio_bps":     ratio.String(),
			"min_ratio_bps": minRatioBps,
		}).Warn("lock rejected, insufficient collateral")

		return nil, ErrInsufficientCollateral
	}

	position := &model.Position{
		Owner:            owner,
		AssetSymbol:      assetSymbol,
		CollateralAmount: amount,
		LoanAmountUSD:    loanAmountUSD,
		MinRatioBps:      minRatioBps,
		Active:           true,
		LockedAt:         l.Now(),
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := l.custody.TransferIn(ctx, owner, assetSymbol, amount); err != nil {
			return err
		}

		if err := l.positions.WithDB(tx).Create(ctx, position); err != nil {
			return err
		}

		credential := &model.Credential{
			PositionID:  position.ID,
			Owner:       owner,
			CreditScore: loanrules.BaseCreditScore,
		}
		if err := l.credentials.WithDB(tx).Create(ctx, credential); err != nil {
			return err
		}
		position.Credential = credential

		obligations, err := schedule.Generate(position.ID, owner, loanAmountUSD, position.LockedAt)
		if err != nil {
			return err
		}
		return l.obligations.WithDB(tx).CreateBatch(ctx, obligations)
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"position_id": position.ID,
		"owner":       owner,
		"asset":       assetSymbol,
		"ratio_bps":   ratio.String(),
	}).Info("collateral locked")

	return position, nil
}

// Unlock releases part of the collateral back to the owner after re-checking
// the ratio invariant against the current price. Returns the new collateral
// amount.
func (l *Ledger) Unlock(
	ctx context.Context,
	positionID uint,
	caller string,
	unlockAmount decimal.Decimal,
) (decimal.Decimal, error) {

	if unlockAmount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidAmount
	}

	mu := l.locks.get(positionID)
	mu.Lock()
	defer mu.Unlock()

	position, err := l.positions.FindByID(ctx, positionID)
	if err != nil {
		return decimal.Zero, err
	}
	if position == nil {
		return decimal.Zero, ErrPositionNotFound
	}
	if position.Owner != caller {
		return decimal.Zero, ErrNotOwner
	}
	if !position.Active {
		return decimal.Zero, ErrPositionInactive
	}

	quote, err := l.snapshotQuote(ctx, position.AssetSymbol)
	if err != nil {
		return decimal.Zero, err
	}

	remaining := position.CollateralAmount.Sub(unlockAmount)
	if remaining.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}

	ratio := RatioBps(remaining, quote.PriceUSD, position.LoanAmountUSD)
	if !meetsRatio(ratio, position.MinRatioBps) {
		logger.WithFields(map[string]interface{}{
			"position_id":   positionID,
			"ratio_bps":     ratio.String(),
			"min_ratio_bps": position.MinRatioBps,
		}).Warn("unlock rejected, ratio breach")

		return decimal.Zero, ErrRatioBreach
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updated, err := l.positions.WithDB(tx).
			UpdateCollateral(ctx, positionID, position.CollateralAmount, remaining)
		if err != nil {
			return err
		}
		if !updated {
			return ErrConcurrentUpdate
		}

		return l.custody.TransferOut(ctx, caller, position.AssetSymbol, unlockAmount)
	})
	if err != nil {
		return decimal.Zero, err
	}

	logger.WithFields(map[string]interface{}{
		"position_id": positionID,
		"unlocked":    unlockAmount.String(),
		"remaining":   remaining.String(),
	}).Info("collateral unlocked")

	return remaining, nil
}

// Liquidate force-closes an under-collateralized position. Callable by any
// party; it re-validates the invariant against the current price table state
// and fails PositionHealthy when the ratio still holds.
func (l *Ledger) Liquidate(ctx context.Context, positionID uint) error {
	mu := l.locks.get(positionID)
	mu.Lock()
	defer mu.Unlock()

	position, err := l.positions.FindByID(ctx, positionID)
	if err != nil {
		return err
	}
	if position == nil {
		return ErrPositionNotFound
	}
	if !position.Active {
		return ErrPositionInactive
	}

	quote, err := l.snapshotQuote(ctx, position.AssetSymbol)
	if err != nil {
		return err
	}

	ratio := RatioBps(position.CollateralAmount, quote.PriceUSD, position.LoanAmountUSD)
	if meetsRatio(ratio, position.MinRatioBps) {
		return ErrPositionHealthy
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deactivated, err := l.positions.WithDB(tx).
			Deactivate(ctx, positionID, l.Now())
		if err != nil {
			return err
		}
		if !deactivated {
			return ErrPositionInactive
		}

		return l.custody.LiquidationPayout(ctx, positionID, position.AssetSymbol, position.CollateralAmount)
	})
	if err != nil {
		return err
	}

	logger.WithFields(map[string]interface{}{
		"position_id": positionID,
		"ratio_bps":   ratio.String(),
		"collateral":  position.CollateralAmount.String(),
	}).Warn("position liquidated")

	return nil
}
