package schedule

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"loanledger/src/loanrules"
	"loanledger/src/model"
)

// MonthlyInterest computes the flat monthly interest amount for a loan.
// Integer fixed-point division, truncated toward zero; there is no
// amortization, all twelve entries carry the same amount.
func MonthlyInterest(loanAmountUSD decimal.Decimal) decimal.Decimal {
	rate := decimal.NewFromInt(loanrules.AnnualInterestRateBps)
	months := decimal.NewFromInt(12)
	bps := decimal.NewFromInt(loanrules.BpsDenominator)

	perYear, _ := loanAmountUSD.Mul(rate).QuoRem(months, 0)
	monthly, _ := perYear.QuoRem(bps, 0)
	return monthly
}

// Generate derives the fixed interest-obligation schedule for a freshly
// locked position. Pure function: it only returns the set, persistence is the
// payment ledger's job. Due dates are start + (i+1) * 30 days, strictly
// increasing by construction.
func Generate(
	positionID uint,
	owner string,
	loanAmountUSD decimal.Decimal,
	startDate time.Time,
) ([]model.PaymentObligation, error) {

	monthly := MonthlyInterest(loanAmountUSD)

	obligations := make([]model.PaymentObligation, 0, loanrules.ScheduledPayments)
	for i := 0; i < loanrules.ScheduledPayments; i++ {
		obligations = append(obligations, model.PaymentObligation{
			PositionID: positionID,
			Sequence:   i,
			Owner:      owner,
			AmountUSD:  monthly,
			DueDate:    startDate.AddDate(0, 0, (i+1)*loanrules.PaymentFrequencyDays),
		})
	}

	// A schedule with anything other than twelve entries is a programming
	// error, not a recoverable condition.
	if len(obligations) != loanrules.ScheduledPayments {
		return nil, fmt.Errorf("schedule generation produced %d entries, want %d",
			len(obligations), loanrules.ScheduledPayments)
	}

	return obligations, nil
}
