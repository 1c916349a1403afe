package ledger

import (
	"github.com/shopspring/decimal"

	"loanledger/src/loanrules"
)

// RatioBps computes collateral * price * 10000 / loanAmountUSD with truncating
// integer division. Truncation biases toward rejecting borderline locks and
// unlocks; the comparison rejects on <, not <=, so exact-boundary ratios pass.
func RatioBps(collateralAmount, priceUSD, loanAmountUSD decimal.Decimal) decimal.Decimal {
	if loanAmountUSD.IsZero() {
		return decimal.Zero
	}

	numerator := collateralAmount.Mul(priceUSD).Mul(decimal.NewFromInt(loanrules.BpsDenominator))
	ratio, _ := numerator.QuoRem(loanAmountUSD, 0)
	return ratio
}

// meetsRatio reports whether a ratio satisfies the position's minimum.
func meetsRatio(ratio decimal.Decimal, minRatioBps int64) bool {
	return ratio.Cmp(decimal.NewFromInt(minRatioBps)) >= 0
}
