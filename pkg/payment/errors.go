package payment

import (
	"errors"
	"fmt"
)

var (
	// ErrInitiationFailed wraps a backend rejection of the subscribe
	// request. No pending operation exists when this is returned.
	ErrInitiationFailed = errors.New("payment initiation rejected by backend")

	// ErrPaymentFailed means the gateway declined the payment. The
	// transaction reached a terminal state and retrying the same
	// transaction is pointless; a fresh purchase is safe.
	ErrPaymentFailed = errors.New("payment failed")

	// ErrPaymentTimedOut means the attempt budget ran out while the
	// transaction was still pending. The true outcome is unknown: the
	// payment may yet complete, so callers must not assume it did not
	// happen and must not start an automatic retry.
	ErrPaymentTimedOut = errors.New("payment status polling timed out with unknown outcome")

	// ErrGatewayUnavailable means transport-level failures exhausted the
	// attempt budget before a single status answer arrived.
	ErrGatewayUnavailable = errors.New("payment gateway unreachable")
)

// FailedError carries the gateway's decline reason for user display.
type FailedError struct {
	TransactionID string
	Reason        string
}

func (e *FailedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("payment %s failed", e.TransactionID)
	}
	return fmt.Sprintf("payment %s failed: %s", e.TransactionID, e.Reason)
}

func (e *FailedError) Unwrap() error {
	return ErrPaymentFailed
}
