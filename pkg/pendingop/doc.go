// Package pendingop provides the durable single-slot record of an
// in-flight purchase.
//
// A purchase that redirects the user to a hosted payment page survives only
// if the transaction id was persisted before the redirect. This package owns
// that record: exactly one pending operation may exist per purchasing
// identity, written synchronously on initiation, read on every resumption,
// and deleted only when the purchase reaches a terminal outcome. A timed-out
// payment keeps its record so reconciliation can resume later.
//
// Four implementations cover the deployment spectrum:
//
//   - MemoryStore for tests and hosts managing durability themselves
//   - FileStore for single-node clients (atomic rename, synced writes)
//   - RedisStore for hosted engines behind multiple replicas
//   - PostgresStore when the record should live next to other billing data
//
// All implementations reject a Put for a slot already occupied by a
// different transaction id with ErrOperationInFlight.
package pendingop
