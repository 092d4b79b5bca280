package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hajarsalhi/book-store-sub000/internal/domain"
)

type CouponValidator struct {
	client *Client
}

func NewCouponValidator(baseURL string, timeout time.Duration) *CouponValidator {
	return &CouponValidator{client: newClient("coupons", baseURL, timeout)}
}

type validateCouponRequest struct {
	Code     string  `json:"code"`
	Subtotal float64 `json:"subtotal"`
}

type validateCouponResponse struct {
	Discount   float64 `json:"discount"`
	CouponType string  `json:"couponType"`
	Status     string  `json:"status"`
}

// Business rejections arrive in the 200 body's status field; only transport
// and server failures surface as plain errors.
var couponStatusErrors = map[string]error{
	"expired":              domain.ErrCouponExpired,
	"usage_limit_reached":  domain.ErrCouponUsageLimitReached,
	"min_purchase_not_met": domain.ErrCouponMinPurchaseNotMet,
	"already_used":         domain.ErrCouponAlreadyUsed,
	"not_found":            domain.ErrCouponNotFound,
}

func (c *CouponValidator) ValidateCoupon(ctx context.Context, code string, subtotal float64) (*domain.Coupon, error) {
	req := validateCouponRequest{Code: code, Subtotal: subtotal}

	var resp validateCouponResponse
	if err := c.client.doJSON(ctx, http.MethodPost, "/coupons/validate", req, &resp); err != nil {
		return nil, fmt.Errorf("validate coupon: %w", err)
	}

	if resp.Status != "valid" {
		if known, ok := couponStatusErrors[resp.Status]; ok {
			return nil, known
		}
		return nil, fmt.Errorf("validate coupon: unknown status %q", resp.Status)
	}

	return &domain.Coupon{
		Code:          code,
		DiscountValue: resp.Discount,
		DiscountType:  domain.DiscountType(resp.CouponType),
	}, nil
}
