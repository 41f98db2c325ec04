package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/payflow/pkg/broadcast"
	"github.com/dmitrymomot/payflow/pkg/coupon"
	"github.com/dmitrymomot/payflow/pkg/logger"
	"github.com/dmitrymomot/payflow/pkg/payment"
	"github.com/dmitrymomot/payflow/pkg/pendingop"
	"github.com/dmitrymomot/payflow/pkg/plans"
	"github.com/dmitrymomot/payflow/pkg/subscription"
)

// Dependencies are the external collaborators the engine drives. One
// backend.Client satisfies Gateway, API, and Validator at once, but the
// interfaces stay separate so each stage can be tested in isolation.
type Dependencies struct {
	Gateway   payment.Gateway
	API       subscription.API
	Validator coupon.Validator
	Store     pendingop.Store
	Catalog   *plans.Catalog

	// Profile is the optional best-effort fallback consulted when the
	// subscription resource lags past the reconciliation budget.
	Profile subscription.ProfileSource
}

// Engine orchestrates the full purchase lifecycle for one purchasing
// identity: pricing, initiation, payment status polling, reconciliation,
// and plan switching. It runs one flow of control at a time and reports
// progress through an explicit state machine.
type Engine struct {
	ownerID    string
	catalog    *plans.Catalog
	store      pendingop.Store
	hub        *broadcast.Hub[subscription.Update]
	pricer     *coupon.Pricer
	initiator  *payment.Initiator
	poller     *payment.Poller
	reconciler *subscription.Reconciler
	switcher   *subscription.Switcher
	flow       *flow
	onRedirect func(ctx context.Context, url string)
	log        *slog.Logger
}

type options struct {
	log            *slog.Logger
	onRedirect     func(ctx context.Context, url string)
	pollerOpts     []payment.PollerOption
	reconcilerOpts []subscription.ReconcilerOption
	switcherOpts   []subscription.SwitcherOption
}

// Option configures optional engine settings.
type Option func(*options)

// WithLogger sets the structured logger shared by every stage.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithRedirectHandler registers the callback invoked with the hosted
// payment page URL when a purchase needs user interaction. The handler
// must not block: polling starts as soon as it returns.
func WithRedirectHandler(fn func(ctx context.Context, url string)) Option {
	return func(o *options) { o.onRedirect = fn }
}

// WithPollerOptions forwards options to the payment status poller.
func WithPollerOptions(opts ...payment.PollerOption) Option {
	return func(o *options) { o.pollerOpts = append(o.pollerOpts, opts...) }
}

// WithReconcilerOptions forwards options to the subscription reconciler.
func WithReconcilerOptions(opts ...subscription.ReconcilerOption) Option {
	return func(o *options) { o.reconcilerOpts = append(o.reconcilerOpts, opts...) }
}

// WithSwitcherOptions forwards options to the plan switcher.
func WithSwitcherOptions(opts ...subscription.SwitcherOption) Option {
	return func(o *options) { o.switcherOpts = append(o.switcherOpts, opts...) }
}

// New creates an engine for the given purchasing identity. Panics if a
// required dependency is nil to fail fast during initialization. Zero
// config fields fall back to the defaults.
func New(ownerID string, deps Dependencies, cfg Config, opts ...Option) *Engine {
	if ownerID == "" {
		panic("engine: owner id is required")
	}
	if deps.Gateway == nil {
		panic("engine: payment gateway is required")
	}
	if deps.API == nil {
		panic("engine: subscription API is required")
	}
	if deps.Validator == nil {
		panic("engine: coupon validator is required")
	}
	if deps.Store == nil {
		panic("engine: pending operation store is required")
	}
	if deps.Catalog == nil {
		panic("engine: plan catalog is required")
	}

	o := &options{log: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	e := &Engine{
		ownerID:    ownerID,
		catalog:    deps.Catalog,
		store:      deps.Store,
		hub:        broadcast.NewHub[subscription.Update](cfg.UpdateBufferSize),
		pricer:     coupon.NewPricer(deps.Validator),
		flow:       newFlow(),
		onRedirect: o.onRedirect,
		log:        o.log.With(logger.Component("engine"), logger.OwnerID(ownerID)),
	}

	e.initiator = payment.NewInitiator(deps.Gateway, deps.Store,
		payment.WithInitiatorLogger(o.log))

	pollerOpts := append([]payment.PollerOption{payment.WithPollerLogger(o.log)}, o.pollerOpts...)
	e.poller = payment.NewPoller(deps.Gateway, cfg.Poller, pollerOpts...)

	recOpts := []subscription.ReconcilerOption{subscription.WithReconcilerLogger(o.log)}
	if deps.Profile != nil {
		recOpts = append(recOpts, subscription.WithProfileFallback(deps.Profile))
	}
	recOpts = append(recOpts, o.reconcilerOpts...)
	e.reconciler = subscription.NewReconciler(deps.API, deps.Store, e.hub, cfg.Reconciler, recOpts...)

	if cfg.SwitchSettleDelay <= 0 {
		cfg.SwitchSettleDelay = DefaultConfig().SwitchSettleDelay
	}
	switcherOpts := append([]subscription.SwitcherOption{subscription.WithSwitcherLogger(o.log)}, o.switcherOpts...)
	e.switcher = subscription.NewSwitcher(deps.API, &chainPurchaser{engine: e}, cfg.SwitchSettleDelay, switcherOpts...)

	return e
}

// Quote prices a plan with an optional coupon code without starting a
// flow. The catalog price is always used as the amount sent to the coupon
// authority.
func (e *Engine) Quote(ctx context.Context, planID, couponCode string) (coupon.PriceQuote, error) {
	plan, err := e.catalog.Get(planID)
	if err != nil {
		return coupon.PriceQuote{}, err
	}
	return e.pricer.Quote(ctx, plan, plan.Price.Amount, couponCode)
}

// Purchase runs a complete fresh purchase: quote, initiation, payment
// status polling, and reconciliation. When the backend settles the
// purchase synchronously the polling stage is skipped entirely.
//
// A second operation started while one is running is rejected with
// ErrOperationInProgress. The terminal outcome is recorded and readable
// through State after the call returns.
func (e *Engine) Purchase(ctx context.Context, planID, couponCode, payerPhone string) (sub *subscription.Subscription, err error) {
	if err = e.flow.begin(FlowInitiating); err != nil {
		return nil, err
	}
	defer func() { e.flow.finish(outcomeFor(err)) }()

	var quote coupon.PriceQuote
	quote, err = e.Quote(ctx, planID, couponCode)
	if err != nil {
		return nil, err
	}

	sub, err = e.runChain(ctx, quote, payerPhone, true)
	return sub, err
}

// Resume picks up a purchase after the browser returned from the hosted
// payment page or after a reload. The transaction id from the return URL
// takes precedence; when absent, the persisted pending operation is used.
// With neither available, ErrNothingToResume is returned.
func (e *Engine) Resume(ctx context.Context, transactionID string) (sub *subscription.Subscription, err error) {
	op, opErr := e.store.Get(ctx, e.ownerID)
	if opErr != nil && !errors.Is(opErr, pendingop.ErrNoPendingOperation) {
		return nil, opErr
	}

	expectedPlanID := ""
	if op != nil {
		expectedPlanID = op.PlanID
		if transactionID == "" {
			transactionID = op.TransactionID
		}
	}
	if transactionID == "" {
		return nil, ErrNothingToResume
	}

	if err = e.flow.begin(FlowPolling); err != nil {
		return nil, err
	}
	defer func() { e.flow.finish(outcomeFor(err)) }()

	if _, err = e.poller.Await(ctx, transactionID); err != nil {
		if errors.Is(err, payment.ErrPaymentFailed) {
			e.clearPending(ctx)
		}
		return nil, err
	}

	if err = e.flow.advance(FlowReconciling); err != nil {
		return nil, err
	}
	sub, err = e.reconciler.Reconcile(ctx, e.ownerID, expectedPlanID)
	return sub, err
}

// Switch moves the identity from its current subscription to the target
// plan via the cancel-then-resubscribe saga. The saga's asymmetric failure
// semantics are surfaced unchanged: ErrCancelFailed means the original
// plan is intact, ErrSwitchIncomplete means it is gone and the new
// purchase did not complete.
func (e *Engine) Switch(ctx context.Context, fromSubscriptionID, toPlanID, couponCode, payerPhone string) (sub *subscription.Subscription, err error) {
	if err = e.flow.begin(FlowSwitching); err != nil {
		return nil, err
	}
	defer func() { e.flow.finish(outcomeFor(err)) }()

	var quote coupon.PriceQuote
	quote, err = e.Quote(ctx, toPlanID, couponCode)
	if err != nil {
		return nil, err
	}

	sub, err = e.switcher.Switch(ctx, fromSubscriptionID, quote, payerPhone)
	return sub, err
}

// Abandon discards the pending operation on explicit user request. It is
// the only path besides reconciliation and payment failure that clears the
// record; timeouts never do.
func (e *Engine) Abandon(ctx context.Context) error {
	if state, _ := e.flow.snapshot(); state != FlowIdle {
		return ErrOperationInProgress
	}

	if err := e.store.Clear(ctx, e.ownerID); err != nil {
		return err
	}
	e.log.InfoContext(ctx, "pending operation abandoned")
	return nil
}

// Pending returns the persisted in-flight operation, if any.
func (e *Engine) Pending(ctx context.Context) (*pendingop.PendingOperation, error) {
	return e.store.Get(ctx, e.ownerID)
}

// Refresh fetches the current subscription once and publishes it to
// update subscribers. No flow is started and no pending state is touched.
func (e *Engine) Refresh(ctx context.Context) (*subscription.Subscription, error) {
	return e.reconciler.Refresh(ctx)
}

// Updates subscribes to subscription state changes settled by this engine.
// The returned cancel function releases the subscription; it is also
// released when ctx is cancelled.
func (e *Engine) Updates(ctx context.Context) (<-chan subscription.Update, func()) {
	return e.hub.Subscribe(ctx)
}

// State returns the current flow state and the last terminal outcome.
func (e *Engine) State() (FlowState, Outcome) {
	return e.flow.snapshot()
}

// Close shuts down the update hub. In-flight operations are not
// interrupted; cancel their contexts for that.
func (e *Engine) Close() {
	e.hub.Close()
}

// runChain drives initiation, polling, and reconciliation for an already
// priced quote. With track set, flow state transitions are published;
// the switch saga runs the same chain under its own FlowSwitching state.
func (e *Engine) runChain(ctx context.Context, quote coupon.PriceQuote, payerPhone string, track bool) (*subscription.Subscription, error) {
	init, err := e.initiator.Initiate(ctx, e.ownerID, quote, payerPhone)
	if err != nil {
		return nil, err
	}

	if !init.Completed {
		if e.onRedirect != nil {
			e.onRedirect(ctx, init.RedirectURL)
		}
		if err := e.step(track, FlowPolling); err != nil {
			return nil, err
		}

		if _, err := e.poller.Await(ctx, init.TransactionID); err != nil {
			if errors.Is(err, payment.ErrPaymentFailed) {
				// A definitive failure has nothing left to resume.
				e.clearPending(ctx)
			}
			return nil, err
		}
	}

	if err := e.step(track, FlowReconciling); err != nil {
		return nil, err
	}
	return e.reconciler.Reconcile(ctx, e.ownerID, quote.Plan.ID)
}

func (e *Engine) step(track bool, next FlowState) error {
	if !track {
		return nil
	}
	return e.flow.advance(next)
}

func (e *Engine) clearPending(ctx context.Context) {
	if err := e.store.Clear(ctx, e.ownerID); err != nil {
		e.log.WarnContext(ctx, "failed to clear pending operation", logger.Error(err))
	}
}

// outcomeFor maps a flow's terminal error to the recorded outcome.
func outcomeFor(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeCompleted
	case errors.Is(err, payment.ErrPaymentTimedOut),
		errors.Is(err, payment.ErrGatewayUnavailable):
		return OutcomeTimedOut
	case errors.Is(err, subscription.ErrReconciliationTimeout):
		return OutcomeReconcileTimeout
	case errors.Is(err, subscription.ErrSwitchIncomplete):
		return OutcomeSwitchIncomplete
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return OutcomeAborted
	default:
		return OutcomeFailed
	}
}

// chainPurchaser adapts the engine's purchase chain to the switcher's
// PlanPurchaser. Flow tracking stays off: the saga owns the FlowSwitching
// state for its whole duration.
type chainPurchaser struct {
	engine *Engine
}

func (p *chainPurchaser) Purchase(ctx context.Context, quote coupon.PriceQuote, payerPhone string) (*subscription.Subscription, error) {
	return p.engine.runChain(ctx, quote, payerPhone, false)
}
