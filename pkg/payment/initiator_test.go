package payment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/payflow/pkg/coupon"
	"github.com/dmitrymomot/payflow/pkg/payment"
	"github.com/dmitrymomot/payflow/pkg/pendingop"
	"github.com/dmitrymomot/payflow/pkg/plans"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Subscribe(ctx context.Context, req payment.SubscribeRequest) (*payment.SubscribeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.SubscribeResponse), args.Error(1)
}

func (m *mockGateway) TransactionStatus(ctx context.Context, transactionID string) (*payment.StatusResponse, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.StatusResponse), args.Error(1)
}

func quoteWithCoupon() coupon.PriceQuote {
	return coupon.PriceQuote{
		Plan: plans.Plan{
			ID:    "plan_basic_monthly",
			Name:  "Basic",
			Price: plans.Money{Amount: 999, Currency: "USD"},
		},
		CouponCode:     "SAVE200",
		OriginalAmount: 999,
		DiscountAmount: 200,
		FinalAmount:    799,
	}
}

func TestInitiator_Initiate_PersistsBeforeRedirect(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gateway := new(mockGateway)
	store := pendingop.NewMemoryStore()

	gateway.On("Subscribe", mock.Anything, payment.SubscribeRequest{
		PlanID:     "plan_basic_monthly",
		CouponCode: "SAVE200",
	}).Return(&payment.SubscribeResponse{
		TransactionID: "tx_100",
		RedirectURL:   "https://pay.example.com/tx_100",
		AmountCharged: 799,
		PlanName:      "Basic",
		Status:        payment.StatusPending,
	}, nil)

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	initiator := payment.NewInitiator(gateway, store,
		payment.WithInitiatorClock(func() time.Time { return now }))

	initiation, err := initiator.Initiate(ctx, "user_1", quoteWithCoupon(), "")
	require.NoError(t, err)

	assert.Equal(t, "tx_100", initiation.TransactionID)
	assert.Equal(t, "https://pay.example.com/tx_100", initiation.RedirectURL)
	assert.False(t, initiation.Completed)

	// The record must already be durable when the redirect URL is handed out.
	op, err := store.Get(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "tx_100", op.TransactionID)
	assert.Equal(t, "plan_basic_monthly", op.PlanID)
	assert.Equal(t, "Basic", op.PlanName)
	assert.Equal(t, int64(799), op.Amount)
	assert.Equal(t, now, op.CreatedAt)
}

func TestInitiator_Initiate_SendsCouponCodeNotDiscount(t *testing.T) {
	t.Parallel()

	gateway := new(mockGateway)
	gateway.On("Subscribe", mock.Anything, mock.MatchedBy(func(req payment.SubscribeRequest) bool {
		// The wire request carries the code only; the backend recomputes
		// the final price itself.
		return req.CouponCode == "SAVE200" && req.PlanID == "plan_basic_monthly"
	})).Return(&payment.SubscribeResponse{
		TransactionID: "tx_101",
		RedirectURL:   "https://pay.example.com/tx_101",
		AmountCharged: 799,
		PlanName:      "Basic",
	}, nil)

	initiator := payment.NewInitiator(gateway, pendingop.NewMemoryStore())

	_, err := initiator.Initiate(context.Background(), "user_1", quoteWithCoupon(), "")
	require.NoError(t, err)
	gateway.AssertExpectations(t)
}

func TestInitiator_Initiate_SynchronousCompletion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gateway := new(mockGateway)
	store := pendingop.NewMemoryStore()

	// Free trial: the backend settles without a hosted payment page.
	gateway.On("Subscribe", mock.Anything, mock.Anything).Return(&payment.SubscribeResponse{
		TransactionID: "tx_trial",
		AmountCharged: 0,
		PlanName:      "Trial",
		Status:        payment.StatusCompleted,
	}, nil)

	initiator := payment.NewInitiator(gateway, store)

	initiation, err := initiator.Initiate(ctx, "user_1", coupon.PriceQuote{
		Plan: plans.Plan{ID: "plan_free_trial", Name: "Trial"},
	}, "")
	require.NoError(t, err)

	assert.True(t, initiation.Completed)
	assert.Empty(t, initiation.RedirectURL)

	// No redirect means no pending operation is ever created.
	_, err = store.Get(ctx, "user_1")
	assert.ErrorIs(t, err, pendingop.ErrNoPendingOperation)
}

func TestInitiator_Initiate_RejectsWhileOperationInFlight(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gateway := new(mockGateway)
	store := pendingop.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "user_1", &pendingop.PendingOperation{
		TransactionID: "tx_old",
		PlanID:        "plan_basic_monthly",
		CreatedAt:     time.Now().UTC(),
	}))

	initiator := payment.NewInitiator(gateway, store)

	_, err := initiator.Initiate(ctx, "user_1", quoteWithCoupon(), "")
	assert.ErrorIs(t, err, pendingop.ErrOperationInFlight)
	gateway.AssertNotCalled(t, "Subscribe")
}

func TestInitiator_Initiate_BackendRejection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gateway := new(mockGateway)
	store := pendingop.NewMemoryStore()

	gateway.On("Subscribe", mock.Anything, mock.Anything).
		Return(nil, errors.New("plan already active"))

	initiator := payment.NewInitiator(gateway, store)

	_, err := initiator.Initiate(ctx, "user_1", quoteWithCoupon(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, payment.ErrInitiationFailed)
	// Original backend message stays visible.
	assert.Contains(t, err.Error(), "plan already active")

	// A rejected request leaves no record behind.
	_, err = store.Get(ctx, "user_1")
	assert.ErrorIs(t, err, pendingop.ErrNoPendingOperation)
}
