package pricing

import (
	"context"
	"errors"
	"log"

	"github.com/hajarsalhi/book-store-sub000/internal/domain"
)

// CouponService resolves a coupon code against the coupon collaborator.
// Business-rule rejections come back as the domain coupon sentinels.
type CouponService interface {
	ValidateCoupon(ctx context.Context, code string, subtotal float64) (*domain.Coupon, error)
}

// LoyaltyService computes the customer's loyalty percentage from purchase
// history. Resolved per checkout attempt, never cached.
type LoyaltyService interface {
	LoyaltyDiscountPercent(ctx context.Context) (float64, error)
}

type CouponStatus string

const (
	CouponStatusNone              CouponStatus = "none"
	CouponStatusApplied           CouponStatus = "applied"
	CouponStatusExpired           CouponStatus = "expired"
	CouponStatusUsageLimitReached CouponStatus = "usage_limit_reached"
	CouponStatusMinPurchaseNotMet CouponStatus = "min_purchase_not_met"
	CouponStatusAlreadyUsed       CouponStatus = "already_used"
	CouponStatusNotFound          CouponStatus = "not_found"
	CouponStatusNetworkError      CouponStatus = "network_error"
)

// CouponOutcome is the classified result of a coupon application. Rejections
// are outcomes for display, not errors: the discount simply stays at zero.
type CouponOutcome struct {
	Status             CouponStatus   `json:"status"`
	Coupon             *domain.Coupon `json:"coupon,omitempty"`
	DiscountedSubtotal float64        `json:"discounted_subtotal"`
}

func (o CouponOutcome) Applied() bool {
	return o.Status == CouponStatusApplied
}

type Quote struct {
	Subtotal        float64                 `json:"subtotal"`
	Coupon          CouponOutcome           `json:"coupon"`
	LoyaltyPercent  float64                 `json:"loyalty_percent"`
	CouponDiscount  float64                 `json:"coupon_discount"`
	LoyaltyDiscount float64                 `json:"loyalty_discount"`
	Total           float64                 `json:"total"`
	Applied         domain.AppliedDiscounts `json:"applied_discounts"`
}

type Engine struct {
	coupons CouponService
	loyalty LoyaltyService
}

func NewEngine(coupons CouponService, loyalty LoyaltyService) *Engine {
	return &Engine{
		coupons: coupons,
		loyalty: loyalty,
	}
}

// ApplyCoupon validates the code against the collaborator and classifies the
// outcome. The subtotal is passed along so the collaborator can check its
// minimum-purchase rule.
func (e *Engine) ApplyCoupon(ctx context.Context, code string, subtotal float64) CouponOutcome {
	if code == "" {
		return CouponOutcome{Status: CouponStatusNone, DiscountedSubtotal: subtotal}
	}

	coupon, err := e.coupons.ValidateCoupon(ctx, code, subtotal)
	if err != nil {
		return CouponOutcome{
			Status:             classifyCouponError(err),
			DiscountedSubtotal: subtotal,
		}
	}

	return CouponOutcome{
		Status:             CouponStatusApplied,
		Coupon:             coupon,
		DiscountedSubtotal: CouponDiscountedSubtotal(subtotal, coupon),
	}
}

func classifyCouponError(err error) CouponStatus {
	switch {
	case errors.Is(err, domain.ErrCouponExpired):
		return CouponStatusExpired
	case errors.Is(err, domain.ErrCouponUsageLimitReached):
		return CouponStatusUsageLimitReached
	case errors.Is(err, domain.ErrCouponMinPurchaseNotMet):
		return CouponStatusMinPurchaseNotMet
	case errors.Is(err, domain.ErrCouponAlreadyUsed):
		return CouponStatusAlreadyUsed
	case errors.Is(err, domain.ErrCouponNotFound):
		return CouponStatusNotFound
	default:
		log.Printf("coupon validation failed: %v", err)
		return CouponStatusNetworkError
	}
}

// CouponDiscountedSubtotal applies a coupon to the raw subtotal, clamped to
// zero immediately so no later step ever sees a negative amount.
func CouponDiscountedSubtotal(subtotal float64, coupon *domain.Coupon) float64 {
	if coupon == nil {
		return subtotal
	}

	var discounted float64
	switch coupon.DiscountType {
	case domain.DiscountTypePercentage:
		discounted = subtotal * (1 - coupon.DiscountValue/100)
	case domain.DiscountTypeFixed:
		discounted = subtotal - coupon.DiscountValue
	default:
		discounted = subtotal
	}

	return clamp(discounted)
}

// Quote derives the final payable total from a subtotal. The coupon is
// applied to the raw subtotal first; the loyalty percentage applies to the
// coupon-adjusted amount, never to the raw subtotal.
func (e *Engine) Quote(ctx context.Context, subtotal float64, couponCode string) *Quote {
	outcome := e.ApplyCoupon(ctx, couponCode, subtotal)

	loyaltyPercent, err := e.loyalty.LoyaltyDiscountPercent(ctx)
	if err != nil {
		// A failed loyalty lookup must not block checkout; the customer
		// just misses the perk this time.
		log.Printf("loyalty discount lookup failed: %v", err)
		loyaltyPercent = 0
	}

	discounted := outcome.DiscountedSubtotal
	total := clamp(discounted * (1 - loyaltyPercent/100))

	q := &Quote{
		Subtotal:        subtotal,
		Coupon:          outcome,
		LoyaltyPercent:  loyaltyPercent,
		CouponDiscount:  subtotal - discounted,
		LoyaltyDiscount: discounted - total,
		Total:           total,
	}

	if outcome.Applied() {
		q.Applied.Coupon = &domain.DiscountRecord{
			Amount: outcome.Coupon.DiscountValue,
			Type:   string(outcome.Coupon.DiscountType),
		}
	}
	if loyaltyPercent > 0 {
		q.Applied.Loyalty = &domain.DiscountRecord{
			Amount: loyaltyPercent,
			Type:   "%",
		}
	}

	return q
}

func clamp(amount float64) float64 {
	if amount < 0 {
		return 0
	}
	return amount
}
