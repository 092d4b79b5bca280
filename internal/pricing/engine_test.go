package pricing

import (
	"context"
	"fmt"
	"testing"

	"github.com/hajarsalhi/book-store-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCouponService struct {
	coupon *domain.Coupon
	err    error
}

func (m *mockCouponService) ValidateCoupon(context.Context, string, float64) (*domain.Coupon, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.coupon, nil
}

type mockLoyaltyService struct {
	percent float64
	err     error
}

func (m *mockLoyaltyService) LoyaltyDiscountPercent(context.Context) (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.percent, nil
}

func newTestEngine(coupons *mockCouponService, loyalty *mockLoyaltyService) *Engine {
	if coupons == nil {
		coupons = &mockCouponService{}
	}
	if loyalty == nil {
		loyalty = &mockLoyaltyService{}
	}
	return NewEngine(coupons, loyalty)
}

func TestCouponDiscountedSubtotal_Percentage(t *testing.T) {
	coupon := &domain.Coupon{Code: "SAVE10", DiscountValue: 10, DiscountType: domain.DiscountTypePercentage}

	assert.InDelta(t, 90, CouponDiscountedSubtotal(100, coupon), 0.001)
	assert.InDelta(t, 0, CouponDiscountedSubtotal(0, coupon), 0.001)
	assert.InDelta(t, 45, CouponDiscountedSubtotal(50, coupon), 0.001)
}

func TestCouponDiscountedSubtotal_Fixed(t *testing.T) {
	coupon := &domain.Coupon{Code: "FLAT15", DiscountValue: 15, DiscountType: domain.DiscountTypeFixed}

	assert.InDelta(t, 85, CouponDiscountedSubtotal(100, coupon), 0.001)
	// Fixed discount larger than subtotal clamps to zero
	assert.InDelta(t, 0, CouponDiscountedSubtotal(10, coupon), 0.001)
}

func TestCouponDiscountedSubtotal_FullPercentageClampsAtZero(t *testing.T) {
	coupon := &domain.Coupon{Code: "FREE", DiscountValue: 100, DiscountType: domain.DiscountTypePercentage}
	assert.InDelta(t, 0, CouponDiscountedSubtotal(42, coupon), 0.001)
}

func TestApplyCoupon_Success(t *testing.T) {
	sut := newTestEngine(&mockCouponService{
		coupon: &domain.Coupon{Code: "SAVE10", DiscountValue: 10, DiscountType: domain.DiscountTypePercentage},
	}, nil)

	outcome := sut.ApplyCoupon(context.Background(), "SAVE10", 100)
	assert.Equal(t, CouponStatusApplied, outcome.Status)
	assert.True(t, outcome.Applied())
	assert.InDelta(t, 90, outcome.DiscountedSubtotal, 0.001)
}

func TestApplyCoupon_EmptyCode(t *testing.T) {
	sut := newTestEngine(nil, nil)

	outcome := sut.ApplyCoupon(context.Background(), "", 100)
	assert.Equal(t, CouponStatusNone, outcome.Status)
	assert.InDelta(t, 100, outcome.DiscountedSubtotal, 0.001)
}

func TestApplyCoupon_RejectionClassification(t *testing.T) {
	cases := []struct {
		err    error
		status CouponStatus
	}{
		{domain.ErrCouponExpired, CouponStatusExpired},
		{domain.ErrCouponUsageLimitReached, CouponStatusUsageLimitReached},
		{domain.ErrCouponMinPurchaseNotMet, CouponStatusMinPurchaseNotMet},
		{domain.ErrCouponAlreadyUsed, CouponStatusAlreadyUsed},
		{domain.ErrCouponNotFound, CouponStatusNotFound},
		{fmt.Errorf("connection refused"), CouponStatusNetworkError},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			sut := newTestEngine(&mockCouponService{err: tc.err}, nil)

			outcome := sut.ApplyCoupon(context.Background(), "ANY", 100)
			assert.Equal(t, tc.status, outcome.Status)
			// A rejected coupon leaves the subtotal untouched
			assert.InDelta(t, 100, outcome.DiscountedSubtotal, 0.001)
			assert.Nil(t, outcome.Coupon)
		})
	}
}

func TestQuote_CouponThenLoyalty(t *testing.T) {
	// Subtotal $100, 10% coupon, 5% loyalty: discounted $90, final $85.50.
	// Loyalty applies to the coupon-adjusted amount, never the raw subtotal.
	sut := newTestEngine(&mockCouponService{
		coupon: &domain.Coupon{Code: "SAVE10", DiscountValue: 10, DiscountType: domain.DiscountTypePercentage},
	}, &mockLoyaltyService{percent: 5})

	q := sut.Quote(context.Background(), 100, "SAVE10")
	require.NotNil(t, q)
	assert.InDelta(t, 100, q.Subtotal, 0.001)
	assert.InDelta(t, 10, q.CouponDiscount, 0.001)
	assert.InDelta(t, 4.50, q.LoyaltyDiscount, 0.001)
	assert.InDelta(t, 85.50, q.Total, 0.001)

	require.NotNil(t, q.Applied.Coupon)
	assert.InDelta(t, 10, q.Applied.Coupon.Amount, 0.001)
	assert.Equal(t, "percentage", q.Applied.Coupon.Type)
	require.NotNil(t, q.Applied.Loyalty)
	assert.InDelta(t, 5, q.Applied.Loyalty.Amount, 0.001)
	assert.Equal(t, "%", q.Applied.Loyalty.Type)
}

func TestQuote_NoDiscounts(t *testing.T) {
	sut := newTestEngine(nil, nil)

	q := sut.Quote(context.Background(), 40, "")
	assert.InDelta(t, 40, q.Total, 0.001)
	assert.Nil(t, q.Applied.Coupon)
	assert.Nil(t, q.Applied.Loyalty)
}

func TestQuote_LoyaltyOnly(t *testing.T) {
	sut := newTestEngine(nil, &mockLoyaltyService{percent: 20})

	q := sut.Quote(context.Background(), 50, "")
	assert.InDelta(t, 40, q.Total, 0.001)
	assert.Nil(t, q.Applied.Coupon)
	require.NotNil(t, q.Applied.Loyalty)
	assert.InDelta(t, 20, q.Applied.Loyalty.Amount, 0.001)
}

func TestQuote_RejectedCouponLeavesSubtotalForLoyalty(t *testing.T) {
	sut := newTestEngine(&mockCouponService{err: domain.ErrCouponExpired}, &mockLoyaltyService{percent: 10})

	q := sut.Quote(context.Background(), 100, "OLD")
	assert.Equal(t, CouponStatusExpired, q.Coupon.Status)
	assert.InDelta(t, 0, q.CouponDiscount, 0.001)
	assert.InDelta(t, 90, q.Total, 0.001)
	assert.Nil(t, q.Applied.Coupon)
}

func TestQuote_LoyaltyLookupFailureFallsBackToZero(t *testing.T) {
	sut := newTestEngine(nil, &mockLoyaltyService{err: fmt.Errorf("timeout")})

	q := sut.Quote(context.Background(), 100, "")
	assert.InDelta(t, 100, q.Total, 0.001)
	assert.Zero(t, q.LoyaltyPercent)
	assert.Nil(t, q.Applied.Loyalty)
}

func TestQuote_NeverNegative(t *testing.T) {
	sut := newTestEngine(&mockCouponService{
		coupon: &domain.Coupon{Code: "HUGE", DiscountValue: 500, DiscountType: domain.DiscountTypeFixed},
	}, &mockLoyaltyService{percent: 5})

	q := sut.Quote(context.Background(), 100, "HUGE")
	assert.InDelta(t, 0, q.Total, 0.001)
	assert.GreaterOrEqual(t, q.Total, 0.0)
}
