// Package payment starts purchases against the payment backend and awaits
// their terminal status.
//
// The Initiator writes the durable pending operation record before exposing
// any redirect URL, so a full-page navigation to the hosted payment page and
// back can always resume reconciliation. The Poller then queries the
// transaction status with a fixed cadence while the backend answers and
// exponential backoff while the transport fails, bounded by an attempt
// budget.
//
// Three terminal outcomes are kept strictly apart:
//
//   - StatusCompleted: the payment went through
//   - ErrPaymentFailed: the gateway declined; a fresh purchase is safe
//   - ErrPaymentTimedOut: the outcome is unknown; the pending record must
//     be kept and no automatic retry started
//
// Polling a transaction id is idempotent at the backend, so re-running
// Await after a page reload (with the id read back from the pending
// operation store) is always safe.
package payment
