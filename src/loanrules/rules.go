package loanrules

// Loan rules are hardcoded in the backend and cannot change without a code update.

const (
	// Interest, annual percentage expressed in basis points.
	AnnualInterestRateBps int64 = 1200 // 12% APR

	// Payment schedule.
	PaymentFrequencyDays = 30
	ScheduledPayments    = 12

	// Basis point denominator used everywhere ratio math happens.
	BpsDenominator int64 = 10000

	// Credit score adjustments. The score is recomputed from scratch on every
	// payment, these are the per-obligation deltas applied to the base.
	BaseCreditScore   = 50
	OnTimeScoreDelta  = 5
	LateScorePenalty  = 10
	LateThresholdDays = 7

	// Unlock rules based on payment history.
	MinPaymentsForUnlock = 1
	MaxUnlockPercentage  = 25
)

// Credit score band lower bounds. Anything under ScoreFair is "poor".
const (
	ScoreExcellent = 80 // 80-100
	ScoreGood      = 60 // 60-79
	ScoreFair      = 40 // 40-59
)
