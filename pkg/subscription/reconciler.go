package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/payflow/pkg/broadcast"
	"github.com/dmitrymomot/payflow/pkg/pendingop"
)

// ReconcilerConfig holds the reconciliation loop constants. Activation is
// usually fast once payment is confirmed, so the ceiling is much shorter
// than the payment poller's.
type ReconcilerConfig struct {
	Interval    time.Duration `env:"PAYFLOW_RECONCILE_INTERVAL" envDefault:"1s"`
	MaxAttempts int           `env:"PAYFLOW_RECONCILE_MAX_ATTEMPTS" envDefault:"10"`
}

// DefaultReconcilerConfig returns the constants used when no configuration
// is supplied.
func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		Interval:    time.Second,
		MaxAttempts: 10,
	}
}

// Reconciler polls the subscription resource until it reflects a completed
// payment, then clears the pending operation and publishes a session update.
type Reconciler struct {
	api     API
	store   pendingop.Store
	hub     *broadcast.Hub[Update]
	profile ProfileSource
	cfg     ReconcilerConfig
	log     *slog.Logger
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

// ReconcilerOption configures optional reconciler settings.
type ReconcilerOption func(*Reconciler)

// WithProfileFallback enables the best-effort profile hint fallback used
// when the subscription resource lags past the attempt budget.
func WithProfileFallback(profile ProfileSource) ReconcilerOption {
	return func(r *Reconciler) { r.profile = profile }
}

// WithReconcilerLogger sets the structured logger.
func WithReconcilerLogger(log *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if log != nil {
			r.log = log
		}
	}
}

// WithReconcilerClock overrides the time source, mainly for tests.
func WithReconcilerClock(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// WithReconcilerSleep overrides the delay function, mainly for tests.
func WithReconcilerSleep(sleep func(ctx context.Context, d time.Duration) error) ReconcilerOption {
	return func(r *Reconciler) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

// NewReconciler creates a reconciler publishing updates to hub. Panics if
// api, store, or hub is nil to fail fast during initialization.
func NewReconciler(api API, store pendingop.Store, hub *broadcast.Hub[Update], cfg ReconcilerConfig, opts ...ReconcilerOption) *Reconciler {
	if api == nil {
		panic("subscription: API is required")
	}
	if store == nil {
		panic("subscription: pending operation store is required")
	}
	if hub == nil {
		panic("subscription: update hub is required")
	}

	defaults := DefaultReconcilerConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}

	r := &Reconciler{
		api:   api,
		store: store,
		hub:   hub,
		cfg:   cfg,
		log:   slog.Default(),
		now:   time.Now,
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile polls the subscription resource after a completed payment until
// it reports a live status for the expected plan. On success it clears the
// pending operation and publishes an Update. On exhaustion it falls back to
// the profile hint if one is available and consistent; otherwise it returns
// ErrReconciliationTimeout and deliberately leaves the pending operation in
// place so a later retry can pick the purchase up.
func (r *Reconciler) Reconcile(ctx context.Context, ownerID, expectedPlanID string) (*Subscription, error) {
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		sub, err := r.api.Current(ctx)
		if err != nil && !errors.Is(err, ErrNoSubscription) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.log.WarnContext(ctx, "subscription fetch failed",
				slog.Int("attempt", attempt),
				slog.Any("error", err))
		} else if sub != nil && sub.IsLive() && (expectedPlanID == "" || sub.PlanID == expectedPlanID) {
			return r.settle(ctx, ownerID, sub), nil
		}

		if attempt == r.cfg.MaxAttempts {
			break
		}
		if err := r.sleep(ctx, r.cfg.Interval); err != nil {
			return nil, err
		}
	}

	if r.profile != nil {
		if hint, err := r.profile.SubscriptionHint(ctx); err == nil &&
			hint != nil && hint.IsLive() && hint.PlanID == expectedPlanID {
			r.log.InfoContext(ctx, "reconciled from profile hint",
				slog.String("plan_id", hint.PlanID))
			return r.settle(ctx, ownerID, hint), nil
		}
	}

	r.log.WarnContext(ctx, "reconciliation exhausted attempt budget",
		slog.String("expected_plan_id", expectedPlanID),
		slog.Int("max_attempts", r.cfg.MaxAttempts))
	return nil, ErrReconciliationTimeout
}

// Refresh fetches the subscription once, outside a just-completed purchase.
// No pending operation is touched and no retry loop runs.
func (r *Reconciler) Refresh(ctx context.Context) (*Subscription, error) {
	sub, err := r.api.Current(ctx)
	if err != nil {
		return nil, err
	}
	r.hub.Publish(Update{Subscription: *sub, At: r.now().UTC()})
	return sub, nil
}

// settle clears the pending record and announces the authoritative state.
func (r *Reconciler) settle(ctx context.Context, ownerID string, sub *Subscription) *Subscription {
	if err := r.store.Clear(ctx, ownerID); err != nil {
		// The purchase itself succeeded; a stale record is recoverable
		// and must not fail the flow.
		r.log.WarnContext(ctx, "failed to clear pending operation",
			slog.String("owner_id", ownerID),
			slog.Any("error", err))
	}

	r.hub.Publish(Update{Subscription: *sub, At: r.now().UTC()})

	r.log.InfoContext(ctx, "subscription reconciled",
		slog.String("plan_id", sub.PlanID),
		slog.String("status", string(sub.Status)))
	return sub
}

// sleepContext waits for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
