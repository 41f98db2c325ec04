package pendingop

import (
	"context"
	"time"
)

// PendingOperation is the durable record of one in-flight purchase. It is
// written once before any redirect to the payment page and read back after
// the browser returns, so a full navigation away from the process never
// loses the transaction id.
type PendingOperation struct {
	TransactionID string
	PlanID        string
	PlanName      string
	Amount        int64
	CreatedAt     time.Time
}

// Age returns how long the operation has been pending.
func (op *PendingOperation) Age(now time.Time) time.Duration {
	return now.Sub(op.CreatedAt)
}

// Store persists at most one pending operation per purchasing identity.
// All implementations must write synchronously: a successful Put means the
// record survives a process boundary.
type Store interface {
	// Get returns the pending operation for the given identity.
	// Returns ErrNoPendingOperation when the slot is empty.
	Get(ctx context.Context, ownerID string) (*PendingOperation, error)

	// Put writes the pending operation for the given identity. A slot
	// already holding a different transaction id is rejected with
	// ErrOperationInFlight; re-putting the same transaction id is a no-op
	// overwrite so resumption after a reload stays safe.
	Put(ctx context.Context, ownerID string, op *PendingOperation) error

	// Clear removes the pending operation. Clearing an empty slot is not
	// an error.
	Clear(ctx context.Context, ownerID string) error
}

// record is the serialized wire shape shared by the file and Redis stores.
type record struct {
	TransactionID       string `json:"transactionId"`
	PlanID              string `json:"planId"`
	PlanName            string `json:"planName"`
	Amount              int64  `json:"amount"`
	CreatedAtEpochMilli int64  `json:"createdAtEpochMillis"`
}

func toRecord(op *PendingOperation) record {
	return record{
		TransactionID:       op.TransactionID,
		PlanID:              op.PlanID,
		PlanName:            op.PlanName,
		Amount:              op.Amount,
		CreatedAtEpochMilli: op.CreatedAt.UnixMilli(),
	}
}

func (r record) toOperation() *PendingOperation {
	return &PendingOperation{
		TransactionID: r.TransactionID,
		PlanID:        r.PlanID,
		PlanName:      r.PlanName,
		Amount:        r.Amount,
		CreatedAt:     time.UnixMilli(r.CreatedAtEpochMilli).UTC(),
	}
}
