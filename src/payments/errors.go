package payments

import "errors"

var (
	ErrNoUnpaidObligation = errors.New("no unpaid obligation found")
	ErrAmountMismatch     = errors.New("supplied amount does not match obligation amount")
)
