// Package subscription reconciles the subscription resource with completed
// payments and orchestrates plan switches.
//
// The subscription backend is eventually consistent with the payment
// backend: a transaction can reach its completed state before the
// subscription resource reflects it. The Reconciler bridges that gap with a
// short fixed-delay polling loop, clears the durable pending operation on
// success, and publishes the authoritative state as an Update message that
// consumers subscribe to instead of reading shared session state.
//
// The Switcher implements the cancel-then-resubscribe saga. There is no
// atomic plan change on the backend, so the two halves can fail
// independently: a failed cancellation keeps the original plan intact,
// while a failed purchase after cancellation is surfaced loudly as
// ErrSwitchIncomplete because no automatic compensation exists.
package subscription
