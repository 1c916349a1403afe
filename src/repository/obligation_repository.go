package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"loanledger/src/database"
	"loanledger/src/model"
)

// PaymentStats aggregates the obligation history of a single position.
type PaymentStats struct {
	Total  int64 `json:"total"`
	Paid   int64 `json:"paid"`
	Unpaid int64 `json:"unpaid"`
	Late   int64 `json:"late"`
}

// ObligationRepository handles read/write operations for payment obligations.
type ObligationRepository struct {
	db *gorm.DB
}

// NewObligationRepository creates a new repository instance using the main read/write database.
func NewObligationRepository() *ObligationRepository {
	logger.WithField("component", "ObligationRepository").
		Info("Creating new ObligationRepository with MainDB")

	return &ObligationRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *ObligationRepository) WithDB(db *gorm.DB) *ObligationRepository {
	return &ObligationRepository{db: db}
}

// CreateBatch inserts a full obligation schedule in one go.
func (r *ObligationRepository) CreateBatch(
	ctx context.Context,
	obligations []model.PaymentObligation,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":  "ObligationRepository",
		"op":    "CreateBatch",
		"count": len(obligations),
	}).Debug("Creating obligation schedule")

	err := r.db.WithContext(ctx).Create(&obligations).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "ObligationRepository",
			"op":   "CreateBatch",
		}).WithError(err).Error("Failed to create obligation schedule")

		return err
	}

	return nil
}

// FindNextUnpaid fetches the unpaid obligation with the earliest due date for
// an (owner, position) pair. Due dates are strictly increasing per position so
// the sequence tie-break never fires in practice; it is kept for determinism.
// Returns (nil, nil) if everything is paid.
func (r *ObligationRepository) FindNextUnpaid(
	ctx context.Context,
	owner string,
	positionID uint,
) (*model.PaymentObligation, error) {

	var obligation model.PaymentObligation

	err := r.db.WithContext(ctx).
		Where("owner = ? AND position_id = ? AND paid = ?", owner, positionID, false).
		Order("due_date ASC, sequence ASC").
		First(&obligation).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":        "ObligationRepository",
			"op":          "FindNextUnpaid",
			"owner":       owner,
			"position_id": positionID,
		}).WithError(err).Error("Failed to fetch next unpaid obligation")

		return nil, err
	}

	return &obligation, nil
}

// MarkPaid flips an obligation to paid. The update is guarded on paid = false
// so concurrent payments can never both settle the same obligation; the caller
// must treat a false return as "somebody else got there first".
func (r *ObligationRepository) MarkPaid(
	ctx context.Context,
	id uint,
	paidDate time.Time,
	late bool,
	daysLate int,
) (bool, error) {

	logger.WithFields(map[string]interface{}{
		"repo":      "ObligationRepository",
		"op":        "MarkPaid",
		"id":        id,
		"late":      late,
		"days_late": daysLate,
	}).Debug("Marking obligation paid")

	result := r.db.WithContext(ctx).
		Model(&model.PaymentObligation{}).
		Where("id = ? AND paid = ?", id, false).
		Updates(map[string]interface{}{
			"paid":      true,
			"paid_date": paidDate,
			"late":      late,
			"days_late": daysLate,
		})

	if result.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "ObligationRepository",
			"op":   "MarkPaid",
			"id":   id,
		}).WithError(result.Error).Error("Failed to mark obligation paid")

		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// FindUnpaidDueBefore returns all unpaid obligations past the given cutoff,
// for the lateness sweep. Uses the (due_date, paid) index.
func (r *ObligationRepository) FindUnpaidDueBefore(
	ctx context.Context,
	cutoff time.Time,
) ([]model.PaymentObligation, error) {

	var obligations []model.PaymentObligation

	err := r.db.WithContext(ctx).
		Where("paid = ? AND due_date < ?", false, cutoff).
		Order("due_date ASC").
		Find(&obligations).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "ObligationRepository",
			"op":   "FindUnpaidDueBefore",
		}).WithError(err).Error("Failed to fetch overdue obligations")

		return nil, err
	}

	return obligations, nil
}

// UpdateLateness rewrites the lateness fields of a still-unpaid obligation.
// The paid = false guard means a racing payment always wins: a sweep that
// loses the race simply updates zero rows and must not resurrect late flags.
func (r *ObligationRepository) UpdateLateness(
	ctx context.Context,
	id uint,
	late bool,
	daysLate int,
) (bool, error) {

	result := r.db.WithContext(ctx).
		Model(&model.PaymentObligation{}).
		Where("id = ? AND paid = ?", id, false).
		Updates(map[string]interface{}{
			"late":      late,
			"days_late": daysLate,
		})

	if result.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "ObligationRepository",
			"op":   "UpdateLateness",
			"id":   id,
		}).WithError(result.Error).Error("Failed to update obligation lateness")

		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// CountPaid counts settled obligations for an (owner, position) pair.
func (r *ObligationRepository) CountPaid(
	ctx context.Context,
	owner string,
	positionID uint,
) (int64, error) {

	var count int64

	err := r.db.WithContext(ctx).
		Model(&model.PaymentObligation{}).
		Where("owner = ? AND position_id = ? AND paid = ?", owner, positionID, true).
		Count(&count).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":        "ObligationRepository",
			"op":          "CountPaid",
			"owner":       owner,
			"position_id": positionID,
		}).WithError(err).Error("Failed to count paid obligations")

		return 0, err
	}

	return count, nil
}

// CountPaidByLateness counts settled obligations split by the late flag.
// The credit score is recomputed from these two counts on every update.
func (r *ObligationRepository) CountPaidByLateness(
	ctx context.Context,
	owner string,
	positionID uint,
	late bool,
) (int64, error) {

	var count int64

	err := r.db.WithContext(ctx).
		Model(&model.PaymentObligation{}).
		Where("owner = ? AND position_id = ? AND paid = ? AND late = ?", owner, positionID, true, late).
		Count(&count).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":        "ObligationRepository",
			"op":          "CountPaidByLateness",
			"owner":       owner,
			"position_id": positionID,
		}).WithError(err).Error("Failed to count obligations by lateness")

		return 0, err
	}

	return count, nil
}

// FindByPosition returns the full schedule of a position ordered by due date.
func (r *ObligationRepository) FindByPosition(
	ctx context.Context,
	positionID uint,
) ([]model.PaymentObligation, error) {

	var obligations []model.PaymentObligation

	err := r.db.WithContext(ctx).
		Where("position_id = ?", positionID).
		Order("due_date ASC").
		Find(&obligations).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":        "ObligationRepository",
			"op":          "FindByPosition",
			"position_id": positionID,
		}).WithError(err).Error("Failed to fetch obligations for position")

		return nil, err
	}

	return obligations, nil
}

// FindHistoryByOwner returns the most recent obligations across all of an
// owner's positions, newest due date first.
func (r *ObligationRepository) FindHistoryByOwner(
	ctx context.Context,
	owner string,
	limit int,
) ([]model.PaymentObligation, error) {

	if limit <= 0 {
		limit = 50
	}

	var obligations []model.PaymentObligation

	err := r.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("due_date DESC").
		Limit(limit).
		Find(&obligations).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "ObligationRepository",
			"op":    "FindHistoryByOwner",
			"owner": owner,
		}).WithError(err).Error("Failed to fetch payment history")

		return nil, err
	}

	return obligations, nil
}

// Stats aggregates paid/unpaid/late counts for a position.
func (r *ObligationRepository) Stats(
	ctx context.Context,
	positionID uint,
) (*PaymentStats, error) {

	var stats PaymentStats

	base := r.db.WithContext(ctx).
		Model(&model.PaymentObligation{}).
		Where("position_id = ?", positionID)

	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("paid = ?", true).Count(&stats.Paid).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("late = ?", true).Count(&stats.Late).Error; err != nil {
		return nil, err
	}
	stats.Unpaid = stats.Total - stats.Paid

	return &stats, nil
}
