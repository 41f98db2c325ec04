package coupon_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/payflow/pkg/coupon"
	"github.com/dmitrymomot/payflow/pkg/plans"
)

type mockValidator struct {
	mock.Mock
}

func (m *mockValidator) Validate(ctx context.Context, req coupon.ValidationRequest) (*coupon.ValidationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coupon.ValidationResult), args.Error(1)
}

func basicPlan() plans.Plan {
	return plans.Plan{
		ID:       "plan_basic_monthly",
		Name:     "Basic",
		Price:    plans.Money{Amount: 999, Currency: "USD"},
		Interval: plans.BillingIntervalMonthly,
	}
}

func TestPricer_Quote_NoCoupon(t *testing.T) {
	t.Parallel()

	validator := new(mockValidator)
	pricer := coupon.NewPricer(validator)

	quote, err := pricer.Quote(context.Background(), basicPlan(), 999, "")
	require.NoError(t, err)

	assert.Equal(t, int64(999), quote.OriginalAmount)
	assert.Equal(t, int64(0), quote.DiscountAmount)
	assert.Equal(t, int64(999), quote.FinalAmount)
	assert.False(t, quote.HasCoupon())
	validator.AssertNotCalled(t, "Validate")
}

func TestPricer_Quote_AmountMismatch(t *testing.T) {
	t.Parallel()

	validator := new(mockValidator)
	pricer := coupon.NewPricer(validator)

	_, err := pricer.Quote(context.Background(), basicPlan(), 500, "SAVE200")
	assert.ErrorIs(t, err, coupon.ErrAmountMismatch)
	validator.AssertNotCalled(t, "Validate")
}

func TestPricer_Quote_ResolvedDiscount(t *testing.T) {
	t.Parallel()

	validator := new(mockValidator)
	validator.On("Validate", mock.Anything, coupon.ValidationRequest{
		Code:     "SAVE200",
		Amount:   999,
		ItemType: coupon.ItemTypePlan,
		ItemID:   "plan_basic_monthly",
	}).Return(&coupon.ValidationResult{
		Resolved:       true,
		DiscountAmount: 200,
		FinalPrice:     799,
	}, nil)

	pricer := coupon.NewPricer(validator)

	quote, err := pricer.Quote(context.Background(), basicPlan(), 999, "SAVE200")
	require.NoError(t, err)

	assert.Equal(t, "SAVE200", quote.CouponCode)
	assert.Equal(t, int64(200), quote.DiscountAmount)
	assert.Equal(t, int64(799), quote.FinalAmount)
	validator.AssertExpectations(t)
}

func TestPricer_Quote_FixedDescriptor(t *testing.T) {
	t.Parallel()

	validator := new(mockValidator)
	validator.On("Validate", mock.Anything, mock.Anything).Return(&coupon.ValidationResult{
		Descriptor: &coupon.Discount{Kind: coupon.DiscountFixed, Value: 200},
	}, nil)

	pricer := coupon.NewPricer(validator)

	quote, err := pricer.Quote(context.Background(), basicPlan(), 999, "SAVE200")
	require.NoError(t, err)
	assert.Equal(t, int64(799), quote.FinalAmount)
}

func TestPricer_Quote_FixedDiscountExceedsPrice(t *testing.T) {
	t.Parallel()

	validator := new(mockValidator)
	validator.On("Validate", mock.Anything, mock.Anything).Return(&coupon.ValidationResult{
		Descriptor: &coupon.Discount{Kind: coupon.DiscountFixed, Value: 5000},
	}, nil)

	pricer := coupon.NewPricer(validator)

	quote, err := pricer.Quote(context.Background(), basicPlan(), 999, "MEGA")
	require.NoError(t, err)

	// Final amount never goes negative.
	assert.Equal(t, int64(999), quote.DiscountAmount)
	assert.Equal(t, int64(0), quote.FinalAmount)
}

func TestPricer_Quote_PercentageWithCap(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		value        int64
		maxDiscount  int64
		wantDiscount int64
		wantFinal    int64
	}{
		{name: "under cap", value: 10, maxDiscount: 500, wantDiscount: 99, wantFinal: 900},
		{name: "capped", value: 50, maxDiscount: 300, wantDiscount: 300, wantFinal: 699},
		{name: "uncapped", value: 50, maxDiscount: 0, wantDiscount: 499, wantFinal: 500},
		{name: "full discount", value: 100, maxDiscount: 0, wantDiscount: 999, wantFinal: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			validator := new(mockValidator)
			validator.On("Validate", mock.Anything, mock.Anything).Return(&coupon.ValidationResult{
				Descriptor: &coupon.Discount{
					Kind:        coupon.DiscountPercentage,
					Value:       tc.value,
					MaxDiscount: tc.maxDiscount,
				},
			}, nil)

			quote, err := coupon.NewPricer(validator).Quote(context.Background(), basicPlan(), 999, "PCT")
			require.NoError(t, err)
			assert.Equal(t, tc.wantDiscount, quote.DiscountAmount)
			assert.Equal(t, tc.wantFinal, quote.FinalAmount)
		})
	}
}

func TestPricer_Quote_InvalidCoupon(t *testing.T) {
	t.Parallel()

	validator := new(mockValidator)
	validator.On("Validate", mock.Anything, mock.Anything).
		Return(nil, coupon.NewInvalidCouponError("EXPIRED1", "coupon has expired"))

	pricer := coupon.NewPricer(validator)

	_, err := pricer.Quote(context.Background(), basicPlan(), 999, "EXPIRED1")
	require.Error(t, err)
	assert.ErrorIs(t, err, coupon.ErrCouponInvalid)

	// Authority message is preserved verbatim for the user.
	var invalidErr *coupon.InvalidCouponError
	require.True(t, errors.As(err, &invalidErr))
	assert.Equal(t, "coupon has expired", invalidErr.Reason)
}

func TestPricer_Quote_TransportError(t *testing.T) {
	t.Parallel()

	validator := new(mockValidator)
	validator.On("Validate", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	pricer := coupon.NewPricer(validator)

	_, err := pricer.Quote(context.Background(), basicPlan(), 999, "SAVE200")
	assert.ErrorIs(t, err, coupon.ErrValidatorFailed)
	assert.NotErrorIs(t, err, coupon.ErrCouponInvalid)
}
