// Package backend provides the REST client for the platform's billing API.
//
// One Client implements every interface the engine consumes: the coupon
// authority (coupon.Validator), the payment gateway (payment.Gateway), and
// the subscription resource (subscription.API). Error bodies from the
// backend are preserved verbatim in APIError so user-facing messages are
// never rewritten by this layer.
package backend
