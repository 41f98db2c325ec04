package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/payflow/pkg/coupon"
	"github.com/dmitrymomot/payflow/pkg/plans"
)

// PlanPurchaser runs a complete fresh purchase: initiation, payment status
// polling, and reconciliation. The saga delegates step 3 to it.
type PlanPurchaser interface {
	Purchase(ctx context.Context, quote coupon.PriceQuote, payerPhone string) (*Subscription, error)
}

// SwitchContext tracks one in-flight plan switch. It exists only for the
// saga's duration and is discarded on any terminal outcome.
type SwitchContext struct {
	FromSubscriptionID string
	FromPlanID         string
	ToPlan             plans.Plan
	Quote              coupon.PriceQuote
	StartedAt          time.Time
}

// Switcher orchestrates the cancel-then-resubscribe saga. The backend
// offers no atomic plan change, so the switch is a compensating sequence
// with a known, surfaced risk between the two halves.
type Switcher struct {
	api         API
	purchaser   PlanPurchaser
	settleDelay time.Duration
	processing  atomic.Bool
	log         *slog.Logger
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

// SwitcherOption configures optional switcher settings.
type SwitcherOption func(*Switcher)

// WithSwitcherLogger sets the structured logger.
func WithSwitcherLogger(log *slog.Logger) SwitcherOption {
	return func(s *Switcher) {
		if log != nil {
			s.log = log
		}
	}
}

// WithSwitcherClock overrides the time source, mainly for tests.
func WithSwitcherClock(now func() time.Time) SwitcherOption {
	return func(s *Switcher) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSwitcherSleep overrides the settle delay function, mainly for tests.
func WithSwitcherSleep(sleep func(ctx context.Context, d time.Duration) error) SwitcherOption {
	return func(s *Switcher) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// NewSwitcher creates a switcher. Panics if api or purchaser is nil to fail
// fast during initialization. A non-positive settleDelay falls back to 2s.
func NewSwitcher(api API, purchaser PlanPurchaser, settleDelay time.Duration, opts ...SwitcherOption) *Switcher {
	if api == nil {
		panic("subscription: API is required")
	}
	if purchaser == nil {
		panic("subscription: PlanPurchaser is required")
	}
	if settleDelay <= 0 {
		settleDelay = 2 * time.Second
	}

	s := &Switcher{
		api:         api,
		purchaser:   purchaser,
		settleDelay: settleDelay,
		log:         slog.Default(),
		now:         time.Now,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Switch cancels the current subscription, waits for the cancellation to
// settle, then runs a fresh purchase of the target plan.
//
// Failure semantics are asymmetric by design. A cancellation failure aborts
// the saga with ErrCancelFailed and the user keeps the original plan. A
// purchase failure after cancellation leaves the user without an active
// subscription: the backend offers no re-activation, so the outcome is
// surfaced as ErrSwitchIncomplete rather than masked as a generic failure.
//
// Only one switch may run at a time; concurrent invocations are rejected
// with ErrSwitchInProgress instead of queued.
func (s *Switcher) Switch(ctx context.Context, fromSubscriptionID string, quote coupon.PriceQuote, payerPhone string) (*Subscription, error) {
	if !s.processing.CompareAndSwap(false, true) {
		return nil, ErrSwitchInProgress
	}
	defer s.processing.Store(false)

	switchCtx := SwitchContext{
		FromSubscriptionID: fromSubscriptionID,
		ToPlan:             quote.Plan,
		Quote:              quote,
		StartedAt:          s.now().UTC(),
	}

	// The reason string embeds the target plan name for audit trails.
	reason := fmt.Sprintf("switching to plan %s", quote.Plan.Name)
	if err := s.api.Cancel(ctx, fromSubscriptionID, reason); err != nil {
		s.log.WarnContext(ctx, "plan switch aborted: cancellation failed",
			slog.String("from_subscription_id", fromSubscriptionID),
			slog.String("to_plan_id", quote.Plan.ID),
			slog.Any("error", err))
		return nil, errors.Join(ErrCancelFailed, err)
	}

	// The backend has no cancellation-confirmed signal; a fixed settle
	// delay lets the cancellation propagate before the new subscribe.
	if err := s.sleep(ctx, s.settleDelay); err != nil {
		return nil, errors.Join(ErrSwitchIncomplete, err)
	}

	sub, err := s.purchaser.Purchase(ctx, quote, payerPhone)
	if err != nil {
		s.log.ErrorContext(ctx, "plan switch incomplete: purchase failed after cancellation",
			slog.String("from_subscription_id", switchCtx.FromSubscriptionID),
			slog.String("to_plan_id", quote.Plan.ID),
			slog.Any("error", err))
		return nil, errors.Join(ErrSwitchIncomplete, err)
	}

	s.log.InfoContext(ctx, "plan switch completed",
		slog.String("from_subscription_id", fromSubscriptionID),
		slog.String("to_plan_id", quote.Plan.ID),
		slog.Duration("took", s.now().UTC().Sub(switchCtx.StartedAt)))
	return sub, nil
}

// InProgress reports whether a switch is currently running.
func (s *Switcher) InProgress() bool {
	return s.processing.Load()
}
