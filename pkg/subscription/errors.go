package subscription

import "errors"

var (
	ErrNoSubscription = errors.New("no subscription found")

	// ErrReconciliationTimeout means the payment completed but the
	// subscription resource never reported a live status within the
	// attempt budget. The pending operation record is retained so
	// reconciliation can be retried later.
	ErrReconciliationTimeout = errors.New("subscription not visible after completed payment")

	// ErrCancelFailed means the plan switch aborted before anything was
	// torn down: the original subscription is untouched.
	ErrCancelFailed = errors.New("subscription cancellation failed, original plan retained")

	// ErrSwitchIncomplete is the high-severity saga outcome: the old
	// subscription was cancelled but the new plan never activated. There
	// is no automatic compensation; the caller must surface this
	// explicitly and route the user to support.
	ErrSwitchIncomplete = errors.New("plan switch incomplete: previous subscription cancelled but new plan not active")

	// ErrSwitchInProgress rejects a second switch while one is running.
	// Queuing would risk double-cancellation.
	ErrSwitchInProgress = errors.New("a plan switch is already in progress")
)
