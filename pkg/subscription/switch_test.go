package subscription_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/payflow/pkg/coupon"
	"github.com/dmitrymomot/payflow/pkg/plans"
	"github.com/dmitrymomot/payflow/pkg/subscription"
)

type mockPurchaser struct {
	mock.Mock
}

func (m *mockPurchaser) Purchase(ctx context.Context, quote coupon.PriceQuote, payerPhone string) (*subscription.Subscription, error) {
	args := m.Called(ctx, quote, payerPhone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func proQuote() coupon.PriceQuote {
	return coupon.PriceQuote{
		Plan: plans.Plan{
			ID:    "plan_pro_monthly",
			Name:  "Pro",
			Price: plans.Money{Amount: 2999, Currency: "USD"},
		},
		OriginalAmount: 2999,
		FinalAmount:    2999,
	}
}

func newTestSwitcher(api subscription.API, purchaser subscription.PlanPurchaser, opts ...subscription.SwitcherOption) *subscription.Switcher {
	opts = append(opts, subscription.WithSwitcherSleep(instantSleep))
	return subscription.NewSwitcher(api, purchaser, 2*time.Second, opts...)
}

func TestSwitcher_Switch_HappyPath(t *testing.T) {
	t.Parallel()

	api := new(mockAPI)
	api.On("Cancel", mock.Anything, "sub_old", "switching to plan Pro").Return(nil)

	purchaser := new(mockPurchaser)
	purchaser.On("Purchase", mock.Anything, mock.Anything, "").
		Return(activeSub("plan_pro_monthly"), nil)

	switcher := newTestSwitcher(api, purchaser)

	sub, err := switcher.Switch(context.Background(), "sub_old", proQuote(), "")
	require.NoError(t, err)
	assert.True(t, sub.IsLive())

	api.AssertExpectations(t)
	purchaser.AssertExpectations(t)
	assert.False(t, switcher.InProgress())
}

func TestSwitcher_Switch_CancelFailureIssuesNoSubscribe(t *testing.T) {
	t.Parallel()

	api := new(mockAPI)
	api.On("Cancel", mock.Anything, "sub_old", mock.Anything).
		Return(errors.New("cancellation window closed"))

	purchaser := new(mockPurchaser)

	switcher := newTestSwitcher(api, purchaser)

	_, err := switcher.Switch(context.Background(), "sub_old", proQuote(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, subscription.ErrCancelFailed)
	assert.Contains(t, err.Error(), "cancellation window closed")

	// The user keeps the original plan: no purchase was ever attempted.
	purchaser.AssertNumberOfCalls(t, "Purchase", 0)
}

func TestSwitcher_Switch_PurchaseFailureIsSurfacedAsIncomplete(t *testing.T) {
	t.Parallel()

	api := new(mockAPI)
	api.On("Cancel", mock.Anything, "sub_old", mock.Anything).Return(nil)

	purchaser := new(mockPurchaser)
	purchaser.On("Purchase", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("payment declined"))

	switcher := newTestSwitcher(api, purchaser)

	_, err := switcher.Switch(context.Background(), "sub_old", proQuote(), "")
	require.Error(t, err)

	// The cancelled-but-not-resubscribed state must not hide behind a
	// generic error.
	assert.ErrorIs(t, err, subscription.ErrSwitchIncomplete)
	assert.NotErrorIs(t, err, subscription.ErrCancelFailed)
	assert.Contains(t, err.Error(), "payment declined")
}

func TestSwitcher_Switch_SettlesBeforePurchase(t *testing.T) {
	t.Parallel()

	var order []string

	api := new(mockAPI)
	api.On("Cancel", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { order = append(order, "cancel") }).Return(nil)

	purchaser := new(mockPurchaser)
	purchaser.On("Purchase", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { order = append(order, "purchase") }).
		Return(activeSub("plan_pro_monthly"), nil)

	var settled time.Duration
	switcher := subscription.NewSwitcher(api, purchaser, 2*time.Second,
		subscription.WithSwitcherSleep(func(_ context.Context, d time.Duration) error {
			settled = d
			order = append(order, "settle")
			return nil
		}))

	_, err := switcher.Switch(context.Background(), "sub_old", proQuote(), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"cancel", "settle", "purchase"}, order)
	assert.Equal(t, 2*time.Second, settled)
}

func TestSwitcher_Switch_RejectsConcurrentInvocation(t *testing.T) {
	t.Parallel()

	inPurchase := make(chan struct{})
	releasePurchase := make(chan struct{})

	api := new(mockAPI)
	api.On("Cancel", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	purchaser := new(mockPurchaser)
	purchaser.On("Purchase", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(inPurchase)
			<-releasePurchase
		}).
		Return(activeSub("plan_pro_monthly"), nil)

	switcher := newTestSwitcher(api, purchaser)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := switcher.Switch(context.Background(), "sub_old", proQuote(), "")
		assert.NoError(t, err)
	}()

	<-inPurchase
	assert.True(t, switcher.InProgress())

	// The second switch is rejected, not queued: queuing would cancel the
	// subscription the first switch just created.
	_, err := switcher.Switch(context.Background(), "sub_old", proQuote(), "")
	assert.ErrorIs(t, err, subscription.ErrSwitchInProgress)

	close(releasePurchase)
	wg.Wait()
	assert.False(t, switcher.InProgress())

	api.AssertNumberOfCalls(t, "Cancel", 1)
}
