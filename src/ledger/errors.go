package ledger

import "errors"

// All of these are recoverable-by-caller conditions surfaced synchronously to
// the request boundary; none are fatal to the process.
var (
	ErrAssetNotSupported      = errors.New("asset not supported")
	ErrAssetUnpriced          = errors.New("asset has no price configured")
	ErrInsufficientCollateral = errors.New("collateral ratio below minimum")
	ErrRatioBreach            = errors.New("unlock would drop ratio below minimum")
	ErrPositionHealthy        = errors.New("position is still sufficiently collateralized")
	ErrPositionInactive       = errors.New("position is not active")
	ErrPositionNotFound       = errors.New("position not found")
	ErrNotOwner               = errors.New("caller does not own this position")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrConcurrentUpdate       = errors.New("position was modified concurrently")
)
