package payment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/payflow/pkg/coupon"
	"github.com/dmitrymomot/payflow/pkg/pendingop"
)

// Initiation is the outcome of starting a purchase. When Completed is true
// the backend settled the purchase synchronously: there is no redirect, no
// pending operation, and no polling to do.
type Initiation struct {
	TransactionID string
	RedirectURL   string
	Completed     bool
	PlanName      string
	AmountCharged int64
}

// Initiator starts purchases against the payment backend and persists the
// pending operation record before any redirect is exposed to the caller.
type Initiator struct {
	gateway Gateway
	store   pendingop.Store
	log     *slog.Logger
	now     func() time.Time
}

// InitiatorOption configures optional initiator settings.
type InitiatorOption func(*Initiator)

// WithInitiatorLogger sets the structured logger.
func WithInitiatorLogger(log *slog.Logger) InitiatorOption {
	return func(i *Initiator) {
		if log != nil {
			i.log = log
		}
	}
}

// WithInitiatorClock overrides the time source, mainly for tests.
func WithInitiatorClock(now func() time.Time) InitiatorOption {
	return func(i *Initiator) {
		if now != nil {
			i.now = now
		}
	}
}

// NewInitiator creates an initiator. Panics if gateway or store is nil to
// fail fast during initialization.
func NewInitiator(gateway Gateway, store pendingop.Store, opts ...InitiatorOption) *Initiator {
	if gateway == nil {
		panic("payment: Gateway is required")
	}
	if store == nil {
		panic("payment: pending operation store is required")
	}

	i := &Initiator{
		gateway: gateway,
		store:   store,
		log:     slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Initiate starts a purchase for the quoted plan. A purchasing identity may
// have only one unresolved operation: initiating while one exists is
// rejected with pendingop.ErrOperationInFlight.
//
// The pending record is written synchronously before the redirect URL is
// returned, so a full navigation away from the process cannot lose the
// transaction id. A backend rejection is surfaced with its original message
// and leaves no record behind.
func (i *Initiator) Initiate(ctx context.Context, ownerID string, quote coupon.PriceQuote, payerPhone string) (*Initiation, error) {
	if _, err := i.store.Get(ctx, ownerID); err == nil {
		return nil, pendingop.ErrOperationInFlight
	} else if !errors.Is(err, pendingop.ErrNoPendingOperation) {
		return nil, err
	}

	resp, err := i.gateway.Subscribe(ctx, SubscribeRequest{
		PlanID:     quote.Plan.ID,
		CouponCode: quote.CouponCode,
		PayerPhone: payerPhone,
	})
	if err != nil {
		return nil, errors.Join(ErrInitiationFailed, err)
	}

	initiation := &Initiation{
		TransactionID: resp.TransactionID,
		RedirectURL:   resp.RedirectURL,
		PlanName:      resp.PlanName,
		AmountCharged: resp.AmountCharged,
	}

	if resp.RedirectURL == "" {
		// Synchronous completion: nothing to resume, nothing to persist.
		initiation.Completed = true
		i.log.InfoContext(ctx, "purchase completed synchronously",
			slog.String("plan_id", quote.Plan.ID),
			slog.String("transaction_id", resp.TransactionID))
		return initiation, nil
	}

	op := &pendingop.PendingOperation{
		TransactionID: resp.TransactionID,
		PlanID:        quote.Plan.ID,
		PlanName:      resp.PlanName,
		Amount:        resp.AmountCharged,
		CreatedAt:     i.now().UTC(),
	}
	if err := i.store.Put(ctx, ownerID, op); err != nil {
		// Without a durable record the redirect must not be followed;
		// the transaction would be unrecoverable after navigation.
		return nil, err
	}

	i.log.InfoContext(ctx, "purchase initiated",
		slog.String("plan_id", quote.Plan.ID),
		slog.String("transaction_id", resp.TransactionID),
		slog.Int64("amount", resp.AmountCharged))

	return initiation, nil
}
