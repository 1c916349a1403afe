package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"loanledger/src/database"
	"loanledger/src/model"
)

// PositionRepository handles read/write operations for collateral positions.
type PositionRepository struct {
	db *gorm.DB
}

// NewPositionRepository creates a new repository instance using the main read/write database.
func NewPositionRepository() *PositionRepository {
	logger.WithField("component", "PositionRepository").
		Info("Creating new PositionRepository with MainDB")

	return &PositionRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *PositionRepository) WithDB(db *gorm.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// Create inserts a new position.
// The given position will be updated with the generated ID and timestamps.
func (r *PositionRepository) Create(
	ctx context.Context,
	position *model.Position,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":  "PositionRepository",
		"op":    "Create",
		"owner": position.Owner,
		"asset": position.AssetSymbol,
	}).Debug("Creating new position")

	err := r.db.WithContext(ctx).Create(position).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "PositionRepository",
			"op":   "Create",
		}).WithError(err).Error("Failed to create position")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "PositionRepository",
		"op":          "Create",
		"position_id": position.ID,
	}).Info("Position created successfully")

	return nil
}

// FindByID fetches a single position by its primary ID.
// Returns (nil, nil) if the position is not found.
func (r *PositionRepository) FindByID(
	ctx context.Context,
	id uint,
) (*model.Position, error) {

	var position model.Position

	err := r.db.WithContext(ctx).
		Preload("Credential").
		First(&position, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(map[string]interface{}{
				"repo":        "PositionRepository",
				"op":          "FindByID",
				"position_id": id,
			}).Info("Position not found")

			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":        "PositionRepository",
			"op":          "FindByID",
			"position_id": id,
		}).WithError(err).Error("Failed to fetch position by ID")

		return nil, err
	}

	return &position, nil
}

// FindByOwner returns all positions for an owner, newest first.
func (r *PositionRepository) FindByOwner(
	ctx context.Context,
	owner string,
) ([]model.Position, error) {

	var positions []model.Position

	err := r.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("created_at DESC").
		Find(&positions).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "PositionRepository",
			"op":    "FindByOwner",
			"owner": owner,
		}).WithError(err).Error("Failed to fetch positions by owner")

		return nil, err
	}

	return positions, nil
}

// UpdateCollateral sets the collateral amount for an active position, guarded
// by the previously observed amount so that racing writers cannot both apply.
// Returns false without error when the guard did not match any row.
func (r *PositionRepository) UpdateCollateral(
	ctx context.Context,
	id uint,
	observedAmount decimal.Decimal,
	newAmount decimal.Decimal,
) (bool, error) {

	logger.WithFields(map[string]interface{}{
		"repo":        "PositionRepository",
		"op":          "UpdateCollateral",
		"position_id": id,
		"new_amount":  newAmount.String(),
	}).Debug("Updating position collateral")

	result := r.db.WithContext(ctx).
		Model(&model.Position{}).
		Where("id = ? AND active = ? AND collateral_amount = ?", id, true, observedAmount).
		Update("collateral_amount", newAmount)

	if result.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo":        "PositionRepository",
			"op":          "UpdateCollateral",
			"position_id": id,
		}).WithError(result.Error).Error("Failed to update position collateral")

		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// Deactivate marks a position inactive. Guarded on active so a position is
// liquidated at most once.
// Returns false without error when the position was already inactive.
func (r *PositionRepository) Deactivate(
	ctx context.Context,
	id uint,
	at time.Time,
) (bool, error) {

	logger.WithFields(map[string]interface{}{
		"repo":        "PositionRepository",
		"op":          "Deactivate",
		"position_id": id,
	}).Info("Deactivating position")

	result := r.db.WithContext(ctx).
		Model(&model.Position{}).
		Where("id = ? AND active = ?", id, true).
		Updates(map[string]interface{}{
			"active":        false,
			"liquidated_at": at,
		})

	if result.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo":        "PositionRepository",
			"op":          "Deactivate",
			"position_id": id,
		}).WithError(result.Error).Error("Failed to deactivate position")

		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}
