package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"loanledger/src/database"
	"loanledger/src/model"
)

// CredentialRepository handles the credit credential minted for each position.
type CredentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository creates a new repository instance using the main read/write database.
func NewCredentialRepository() *CredentialRepository {
	logger.WithField("component", "CredentialRepository").
		Info("Creating new CredentialRepository with MainDB")

	return &CredentialRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *CredentialRepository) WithDB(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Create mints a new credential. Called exactly once per position, on lock.
func (r *CredentialRepository) Create(
	ctx context.Context,
	credential *model.Credential,
) error {

	err := r.db.WithContext(ctx).Create(credential).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":        "CredentialRepository",
			"op":          "Create",
			"position_id": credential.PositionID,
		}).WithError(err).Error("Failed to create credential")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "CredentialRepository",
		"op":          "Create",
		"token_id":    credential.ID,
		"position_id": credential.PositionID,
	}).Info("Credential minted")

	return nil
}

// FindByPositionID fetches the credential for a position.
// Returns (nil, nil) if not found.
func (r *CredentialRepository) FindByPositionID(
	ctx context.Context,
	positionID uint,
) (*model.Credential, error) {

	var credential model.Credential

	err := r.db.WithContext(ctx).
		Where("position_id = ?", positionID).
		First(&credential).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":        "CredentialRepository",
			"op":          "FindByPositionID",
			"position_id": positionID,
		}).WithError(err).Error("Failed to fetch credential")

		return nil, err
	}

	return &credential, nil
}

// UpdateScore persists a freshly recomputed score triple on the credential.
func (r *CredentialRepository) UpdateScore(
	ctx context.Context,
	positionID uint,
	score int,
	onTimeCount int,
	lateCount int,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":          "CredentialRepository",
		"op":            "UpdateScore",
		"position_id":   positionID,
		"credit_score":  score,
		"on_time_count": onTimeCount,
		"late_count":    lateCount,
	}).Debug("Updating credential score")

	result := r.db.WithContext(ctx).
		Model(&model.Credential{}).
		Where("position_id = ?", positionID).
		Updates(map[string]interface{}{
			"credit_score":  score,
			"on_time_count": onTimeCount,
			"late_count":    lateCount,
		})

	if result.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo":        "CredentialRepository",
			"op":          "UpdateScore",
			"position_id": positionID,
		}).WithError(result.Error).Error("Failed to update credential score")

		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
