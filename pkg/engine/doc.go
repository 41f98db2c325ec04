// Package engine wires the purchase lifecycle stages into one facade per
// purchasing identity.
//
// A purchase runs quote, initiation, payment status polling, and
// reconciliation in sequence. A plan switch wraps the same chain in a
// cancel-then-resubscribe saga. The engine serializes flows per identity
// through an explicit state machine and records the terminal outcome of
// the most recent flow, so a caller can always answer "what is happening
// right now" and "how did the last attempt end".
//
// Interrupted purchases survive process boundaries through the pending
// operation store: Resume picks them up from a redirect return or a
// reload, and only reconciliation, definitive payment failure, or an
// explicit Abandon ever clears the record.
package engine
