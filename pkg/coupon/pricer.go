package coupon

import (
	"context"
	"errors"

	"github.com/dmitrymomot/payflow/pkg/plans"
)

// Validator checks a coupon code against the authority that owns coupon
// state. The engine never applies a discount the authority did not confirm
// for the exact (code, amount, item) pairing.
type Validator interface {
	// Validate returns the authority's discount decision, or an error
	// unwrapping to ErrCouponInvalid when the code is rejected.
	Validate(ctx context.Context, req ValidationRequest) (*ValidationResult, error)
}

// Pricer computes coupon-adjusted price quotes.
type Pricer struct {
	validator Validator
}

// NewPricer creates a pricer backed by the given coupon authority.
// Panics if validator is nil to fail fast during initialization.
func NewPricer(validator Validator) *Pricer {
	if validator == nil {
		panic("coupon: Validator is required")
	}
	return &Pricer{validator: validator}
}

// Quote prices a plan with an optional coupon code. The amount must be the
// plan's current price; a stale amount is rejected before any network call.
// An empty code returns a passthrough quote at the original amount.
//
// Rejected codes return an error unwrapping to ErrCouponInvalid with the
// authority's message preserved; no discount is applied in that case.
func (p *Pricer) Quote(ctx context.Context, plan plans.Plan, amount int64, code string) (PriceQuote, error) {
	if amount != plan.Price.Amount {
		return PriceQuote{}, ErrAmountMismatch
	}

	quote := PriceQuote{
		Plan:           plan,
		OriginalAmount: amount,
		FinalAmount:    amount,
	}

	if code == "" {
		return quote, nil
	}

	result, err := p.validator.Validate(ctx, ValidationRequest{
		Code:     code,
		Amount:   amount,
		ItemType: ItemTypePlan,
		ItemID:   plan.ID,
	})
	if err != nil {
		if errors.Is(err, ErrCouponInvalid) {
			return PriceQuote{}, err
		}
		return PriceQuote{}, errors.Join(ErrValidatorFailed, err)
	}

	discount := resolveDiscount(amount, result)

	quote.CouponCode = code
	quote.DiscountAmount = discount
	quote.FinalAmount = max(0, amount-discount)
	return quote, nil
}

// resolveDiscount prefers the authority's precomputed amounts and falls back
// to computing from the descriptor: percentage first, then capping.
func resolveDiscount(amount int64, result *ValidationResult) int64 {
	if result.Resolved {
		return min(result.DiscountAmount, amount)
	}

	if result.Descriptor == nil {
		return 0
	}

	d := result.Descriptor
	discount := d.Value
	if d.Kind == DiscountPercentage {
		discount = amount * d.Value / 100
	}
	if d.MaxDiscount > 0 && discount > d.MaxDiscount {
		discount = d.MaxDiscount
	}
	return min(discount, amount)
}
