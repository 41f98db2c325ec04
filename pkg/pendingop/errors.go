package pendingop

import "errors"

var (
	ErrNoPendingOperation = errors.New("no pending operation found")
	ErrOperationInFlight  = errors.New("another operation is already in flight")
	ErrStoreUnavailable   = errors.New("pending operation store unavailable")
)
