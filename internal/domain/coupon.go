package domain

import "errors"

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// Coupon lives only for the duration of one checkout session, resolved by the
// coupon collaborator and never stored locally.
type Coupon struct {
	Code          string       `json:"code"`
	DiscountValue float64      `json:"discount_value"`
	DiscountType  DiscountType `json:"discount_type"`
}

// Coupon rejection reasons as classified from the collaborator response.
// These are business-rule outcomes, shown to the user, never fatal.
var (
	ErrCouponExpired           = errors.New("coupon expired")
	ErrCouponUsageLimitReached = errors.New("coupon usage limit reached")
	ErrCouponMinPurchaseNotMet = errors.New("minimum purchase for coupon not met")
	ErrCouponAlreadyUsed       = errors.New("coupon already used by customer")
	ErrCouponNotFound          = errors.New("coupon code not found")
)

type DiscountRecord struct {
	Amount float64 `json:"amount"`
	Type   string  `json:"type"`
}

// AppliedDiscounts is the structured discount record attached to an order.
// Both entries are optional.
type AppliedDiscounts struct {
	Coupon  *DiscountRecord `json:"coupon,omitempty"`
	Loyalty *DiscountRecord `json:"loyalty,omitempty"`
}
