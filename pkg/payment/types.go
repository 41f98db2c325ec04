package payment

import "context"

// TransactionStatus is the payment backend's view of a transaction.
// Statuses are monotonic per transaction: a terminal status never reverts.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// IsTerminal reports whether no further status transition can occur.
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// SubscribeRequest is the payload for starting a purchase. Only the coupon
// code crosses the wire, never a client-computed discount amount; the
// backend recomputes the final price itself.
type SubscribeRequest struct {
	PlanID     string
	CouponCode string
	PayerPhone string
}

// SubscribeResponse is the backend's answer to a subscribe request. An
// empty RedirectURL means the purchase completed synchronously (e.g. a
// zero-cost trial) and no polling is required.
type SubscribeResponse struct {
	TransactionID string
	RedirectURL   string
	AmountCharged int64
	PlanName      string
	Status        TransactionStatus
}

// StatusResponse is one answer from the transaction status endpoint.
type StatusResponse struct {
	Status        TransactionStatus
	Amount        int64
	FailureReason string
}

// Gateway is the payment backend consumed by the initiator and poller.
// Querying the status of the same transaction any number of times must be
// safe and must never trigger a new purchase.
type Gateway interface {
	// Subscribe starts a purchase for the given plan.
	Subscribe(ctx context.Context, req SubscribeRequest) (*SubscribeResponse, error)

	// TransactionStatus returns the current status of a transaction.
	TransactionStatus(ctx context.Context, transactionID string) (*StatusResponse, error)
}
