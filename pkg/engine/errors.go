package engine

import "errors"

var (
	// ErrOperationInProgress rejects a new flow while one is running.
	ErrOperationInProgress = errors.New("another operation is already in progress")

	// ErrNothingToResume means neither a transaction id nor a persisted
	// pending operation is available to pick up.
	ErrNothingToResume = errors.New("no pending operation to resume")

	// ErrInvalidFlowTransition indicates a programming error in the flow
	// sequencing, not a recoverable runtime condition.
	ErrInvalidFlowTransition = errors.New("invalid flow state transition")

	ErrFailedToParseConfig = errors.New("failed to parse engine configuration")
)
