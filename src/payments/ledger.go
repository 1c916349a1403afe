package payments

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"loanledger/src/model"
	"loanledger/src/repository"
	"loanledger/src/scoring"
	"loanledger/src/utils"
)

// Ledger stores obligations, records payments and computes lateness on the
// payment path. Lateness recomputation across the whole book is the sweeper's
// job; this ledger only evaluates the obligation actually being paid.
type Ledger struct {
	obligations *repository.ObligationRepository
	scorer      *scoring.Scorer

	// Now is the payment clock; overridable in tests.
	Now func() time.Time
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{
		obligations: repository.NewObligationRepository().WithDB(db),
		scorer:      scoring.NewScorer(db),
		Now:         time.Now,
	}
}

// DaysLate is floor((now - dueDate) / 24h), clamped to zero for early or
// on-time payments.
func DaysLate(now, dueDate time.Time) int {
	days := utils.DaysBetween(dueDate, now)
	if days < 0 {
		return 0
	}
	return days
}

// RecordPayment settles the earliest unpaid obligation for an
// (owner, position) pair. If suppliedAmount is non-nil it must equal the
// obligation amount exactly, fixed-point equality with no tolerance.
//
// At most one obligation transitions to paid per call: the mark is a guarded
// update on paid = false, and a caller that loses the race re-selects the new
// earliest unpaid obligation instead of double-settling. The credit scorer
// runs synchronously before returning.
func (l *Ledger) RecordPayment(
	ctx context.Context,
	owner string,
	positionID uint,
	suppliedAmount *decimal.Decimal,
) (*model.PaymentObligation, error) {

	for {
		obligation, err := l.obligations.FindNextUnpaid(ctx, owner, positionID)
		if err != nil {
			return nil, err
		}
		if obligation == nil {
			return nil, ErrNoUnpaidObligation
		}

		if suppliedAmount != nil && !suppliedAmount.Equal(obligation.AmountUSD) {
			logger.WithFields(map[string]interface{}{
				"position_id": positionID,
				"supplied":    suppliedAmount.String(),
				"due":         obligation.AmountUSD.String(),
			}).Warn("payment rejected, amount mismatch")

			return nil, ErrAmountMismatch
		}

		now := l.Now()
		daysLate := DaysLate(now, obligation.DueDate)
		late := daysLate > 0

		settled, err := l.obligations.MarkPaid(ctx, obligation.ID, now, late, daysLate)
		if err != nil {
			return nil, err
		}
		if !settled {
			// A concurrent payment won this obligation; try the next one.
			continue
		}

		obligation.Paid = true
		obligation.PaidDate = &now
		obligation.Late = late
		obligation.DaysLate = daysLate

		if _, err := l.scorer.Update(ctx, owner, positionID); err != nil {
			return nil, err
		}

		logger.WithFields(map[string]interface{}{
			"position_id": positionID,
			"sequence":    obligation.Sequence,
			"late":        late,
			"days_late":   daysLate,
		}).Info("interest payment recorded")

		return obligation, nil
	}
}

// GetNextUnpaid returns the earliest unpaid obligation without mutating it.
// Returns (nil, nil) when everything is settled.
func (l *Ledger) GetNextUnpaid(
	ctx context.Context,
	owner string,
	positionID uint,
) (*model.PaymentObligation, error) {
	return l.obligations.FindNextUnpaid(ctx, owner, positionID)
}

// ListObligations returns the full schedule of a position ordered by due date.
func (l *Ledger) ListObligations(
	ctx context.Context,
	positionID uint,
) ([]model.PaymentObligation, error) {
	return l.obligations.FindByPosition(ctx, positionID)
}

// History returns the owner's most recent obligations across positions.
func (l *Ledger) History(
	ctx context.Context,
	owner string,
	limit int,
) ([]model.PaymentObligation, error) {
	return l.obligations.FindHistoryByOwner(ctx, owner, limit)
}
