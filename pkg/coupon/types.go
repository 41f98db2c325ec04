package coupon

import "github.com/dmitrymomot/payflow/pkg/plans"

// DiscountKind distinguishes how a discount value is interpreted.
type DiscountKind string

const (
	DiscountFixed      DiscountKind = "fixed"      // value is an absolute amount off
	DiscountPercentage DiscountKind = "percentage" // value is a percentage of the amount
)

// ItemType identifies what a coupon applies to. The coupon authority scopes
// codes per item type, so the pricer always sends it along.
type ItemType string

const (
	ItemTypePlan ItemType = "plan"
	ItemTypeQuiz ItemType = "quiz"
)

// Discount describes a coupon's effect when the authority returns a
// descriptor instead of a precomputed final price.
type Discount struct {
	Kind        DiscountKind
	Value       int64
	MaxDiscount int64 // 0 means uncapped
}

// ValidationRequest is what the pricer sends to the coupon authority.
type ValidationRequest struct {
	Code     string
	Amount   int64
	ItemType ItemType
	ItemID   string
}

// ValidationResult is the authority's decision on a coupon. When Resolved is
// true, DiscountAmount and FinalPrice are authoritative and the descriptor
// is ignored. Otherwise the pricer computes the final amount from Descriptor.
type ValidationResult struct {
	Resolved       bool
	DiscountAmount int64
	FinalPrice     int64
	Descriptor     *Discount
}

// PriceQuote is the outcome of pricing a plan with an optional coupon.
// Quotes are derived values and are never persisted.
type PriceQuote struct {
	Plan           plans.Plan
	CouponCode     string // empty when no coupon was applied
	OriginalAmount int64
	DiscountAmount int64
	FinalAmount    int64
}

// HasCoupon reports whether a validated coupon contributed to the quote.
func (q PriceQuote) HasCoupon() bool {
	return q.CouponCode != ""
}
