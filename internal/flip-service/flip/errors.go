package flip

import "errors"

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidCurrency   = errors.New("invalid currency")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrLimitExceeded     = errors.New("max open flips reached")
	ErrSelfJoin          = errors.New("cannot join own flip")
	ErrCreatorBusy       = errors.New("creator has a result in progress")
	ErrNotFound          = errors.New("flip not found or already taken")
	ErrNoCancellableFlip = errors.New("no unjoined flip to cancel")
	ErrLedgerUnavailable = errors.New("funds ledger unavailable")
)
