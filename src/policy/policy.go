package policy

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"loanledger/src/loanrules"
	"loanledger/src/repository"
)

// Decision is the outcome of an unlock-eligibility check. The policy never
// mutates state; a positive decision still has to pass the ratio re-check in
// the collateral ledger, the two checks are complementary (percentage cap
// here, ratio floor there).
type Decision struct {
	Allowed bool   `json:"can_unlock"`
	Reason  string `json:"reason,omitempty"`
}

// Policy combines ledger state and payment history into the unlock decision.
type Policy struct {
	positions   *repository.PositionRepository
	obligations *repository.ObligationRepository
}

func New(db *gorm.DB) *Policy {
	return &Policy{
		positions:   repository.NewPositionRepository().WithDB(db),
		obligations: repository.NewObligationRepository().WithDB(db),
	}
}

func deny(reason string) *Decision {
	return &Decision{Allowed: false, Reason: reason}
}

// CanUnlock checks whether an owner may withdraw unlockPercentage percent of
// a position's collateral.
func (p *Policy) CanUnlock(
	ctx context.Context,
	owner string,
	positionID uint,
	unlockPercentage int,
) (*Decision, error) {

	position, err := p.positions.FindByID(ctx, positionID)
	if err != nil {
		return nil, err
	}
	if position == nil || position.Owner != owner {
		return deny("Position not found"), nil
	}

	if !position.Active {
		return deny("Position is not active"), nil
	}

	paidCount, err := p.obligations.CountPaid(ctx, owner, positionID)
	if err != nil {
		return nil, err
	}
	if paidCount < loanrules.MinPaymentsForUnlock {
		return deny(fmt.Sprintf("Minimum %d payments required", loanrules.MinPaymentsForUnlock)), nil
	}

	if unlockPercentage > loanrules.MaxUnlockPercentage {
		return deny(fmt.Sprintf("Maximum unlock percentage is %d%%", loanrules.MaxUnlockPercentage)), nil
	}

	return &Decision{Allowed: true}, nil
}
