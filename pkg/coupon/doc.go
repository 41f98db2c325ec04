// Package coupon computes coupon-adjusted price quotes for plan purchases.
//
// The pricer never trusts client-side coupon state: every code is validated
// against the authority that owns coupons for the exact (code, amount, item)
// pairing, and the discount is taken from the authority's response. When the
// authority returns only a discount descriptor, the final amount is computed
// as max(0, amount - min(discount, cap)), with percentage discounts resolved
// as amount*value/100 before capping.
//
//	pricer := coupon.NewPricer(backendClient)
//	quote, err := pricer.Quote(ctx, plan, plan.Price.Amount, "SAVE200")
//	if errors.Is(err, coupon.ErrCouponInvalid) {
//		// show the authority's message, fall back to undiscounted price
//	}
//
// Quotes are derived data: they are recomputed whenever the plan or coupon
// selection changes and are never persisted.
package coupon
