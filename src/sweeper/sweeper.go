package sweeper

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"loanledger/src/loanrules"
	"loanledger/src/repository"
	"loanledger/src/utils"
)

// Sweeper periodically recomputes lateness over all outstanding obligations.
// The sweep is idempotent: the result depends only on due dates and the clock,
// so repeated or concurrent sweeps converge to the same state. Paid rows are
// never touched; the repository guard on paid = false means a payment that
// races a sweep always wins.
type Sweeper struct {
	obligations *repository.ObligationRepository
	log         *logrus.Entry

	// Now is the sweep clock; overridable in tests.
	Now func() time.Time
}

func New(db *gorm.DB, log *logrus.Entry) *Sweeper {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Sweeper{
		obligations: repository.NewObligationRepository().WithDB(db),
		log:         log,
		Now:         time.Now,
	}
}

// Sweep recomputes daysLate for every unpaid obligation past due and flags it
// late once the threshold is crossed. A failure on one obligation is logged
// and the batch continues; the next scheduled run naturally supersedes
// whatever this one missed. Returns the number of rows updated.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := s.Now()

	overdue, err := s.obligations.FindUnpaidDueBefore(ctx, now)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, obligation := range overdue {
		daysLate := utils.DaysBetween(obligation.DueDate, now)
		late := daysLate >= loanrules.LateThresholdDays

		if obligation.DaysLate == daysLate && obligation.Late == late {
			continue
		}

		ok, err := s.obligations.UpdateLateness(ctx, obligation.ID, late, daysLate)
		if err != nil {
			s.log.WithError(err).
				WithField("obligation_id", obligation.ID).
				Error("lateness update failed, continuing sweep")
			continue
		}
		if ok {
			updated++
		}
	}

	s.log.WithFields(map[string]interface{}{
		"overdue": len(overdue),
		"updated": updated,
	}).Info("lateness sweep completed")

	return updated, nil
}

// StartLoop runs the sweep on a fixed cadence until the context is cancelled.
// A failed iteration is logged and the next scheduled run proceeds
// independently; there is no retry-with-backoff.
func (s *Sweeper) StartLoop(ctx context.Context) error {
	config := GetConfig()

	ticker := time.NewTicker(config.SweepPeriod)
	defer ticker.Stop()

	s.log.WithField("period", config.SweepPeriod.String()).Info("lateness sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.log.Info("lateness sweeper stopped")
			return nil

		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.log.WithError(err).Error("lateness sweep failed, will retry next tick")
			}
		}
	}
}
