package subscription

import (
	"context"
	"time"
)

// Status represents the current state of a subscription as reported by the
// subscription backend.
type Status string

const (
	StatusActive    Status = "active"
	StatusTrialing  Status = "trialing"
	StatusNone      Status = "none"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// IsLive reports whether the subscription currently grants access.
func (s Status) IsLive() bool {
	return s == StatusActive || s == StatusTrialing
}

// Subscription is the authoritative subscription resource. It is updated
// independently of the payment transaction and may lag behind a completed
// payment, which is why reconciliation polls it separately.
type Subscription struct {
	ID          string
	Status      Status
	PlanID      string
	PlanName    string
	RenewalDate *time.Time // next charge for live subscriptions
	EndDate     *time.Time // access cutoff for cancelled/expired ones
}

// IsLive reports whether the subscription grants access right now.
func (s *Subscription) IsLive() bool {
	return s.Status.IsLive()
}

// Update is the session update message published after a successful
// reconciliation. Consumers subscribe to these instead of reading shared
// mutable session state.
type Update struct {
	Subscription Subscription
	At           time.Time
}

// API is the subscription backend consumed by the reconciler and the plan
// switch saga.
type API interface {
	// Current returns the identity's subscription resource.
	// Returns ErrNoSubscription when none exists.
	Current(ctx context.Context) (*Subscription, error)

	// Cancel cancels a subscription with an audit reason.
	Cancel(ctx context.Context, subscriptionID, reason string) error
}

// ProfileSource optionally exposes the subscription hint embedded in the
// user's profile. Used as a best-effort fallback when the subscription
// resource has not caught up with a completed payment.
type ProfileSource interface {
	SubscriptionHint(ctx context.Context) (*Subscription, error)
}
