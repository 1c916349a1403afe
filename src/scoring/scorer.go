package scoring

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"loanledger/src/loanrules"
	"loanledger/src/repository"
)

// Scorer derives a 0-100 credit score from aggregate payment history and
// writes it back to the position's credential. Every update is a full
// recomputation over the obligation history, never an incremental adjustment,
// so replays and retries cannot double-count.
type Scorer struct {
	obligations *repository.ObligationRepository
	credentials *repository.CredentialRepository
}

func NewScorer(db *gorm.DB) *Scorer {
	return &Scorer{
		obligations: repository.NewObligationRepository().WithDB(db),
		credentials: repository.NewCredentialRepository().WithDB(db),
	}
}

// Score maps on-time/late counts to a credit score. The clamp to [0,100] is
// the business rule itself, not error masking: long histories legitimately
// saturate at the bounds.
func Score(onTimeCount, lateCount int64) int {
	score := loanrules.BaseCreditScore +
		int(onTimeCount)*loanrules.OnTimeScoreDelta -
		int(lateCount)*loanrules.LateScorePenalty

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Band maps a score to its reporting band.
func Band(score int) string {
	switch {
	case score >= loanrules.ScoreExcellent:
		return "excellent"
	case score >= loanrules.ScoreGood:
		return "good"
	case score >= loanrules.ScoreFair:
		return "fair"
	default:
		return "poor"
	}
}

// Update recomputes the score triple for an (owner, position) pair and
// persists it on the credential.
func (s *Scorer) Update(ctx context.Context, owner string, positionID uint) (int, error) {
	onTime, err := s.obligations.CountPaidByLateness(ctx, owner, positionID, false)
	if err != nil {
		return 0, err
	}
	late, err := s.obligations.CountPaidByLateness(ctx, owner, positionID, true)
	if err != nil {
		return 0, err
	}

	score := Score(onTime, late)

	if err := s.credentials.UpdateScore(ctx, positionID, score, int(onTime), int(late)); err != nil {
		return 0, err
	}

	logger.WithFields(map[string]interface{}{
		"position_id":   positionID,
		"owner":         owner,
		"credit_score":  score,
		"on_time_count": onTime,
		"late_count":    late,
	}).Debug("credit score updated")

	return score, nil
}
