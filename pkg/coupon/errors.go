package coupon

import (
	"errors"
	"fmt"
)

var (
	ErrCouponInvalid   = errors.New("coupon is not valid for this purchase")
	ErrAmountMismatch  = errors.New("quote amount does not match the plan price")
	ErrValidatorFailed = errors.New("coupon validation request failed")
)

// InvalidCouponError carries the authority's rejection message so callers
// can show it to the user verbatim.
type InvalidCouponError struct {
	Code   string
	Reason string
}

func (e *InvalidCouponError) Error() string {
	return fmt.Sprintf("coupon %q rejected: %s", e.Code, e.Reason)
}

func (e *InvalidCouponError) Unwrap() error {
	return ErrCouponInvalid
}

func NewInvalidCouponError(code, reason string) *InvalidCouponError {
	return &InvalidCouponError{Code: code, Reason: reason}
}
