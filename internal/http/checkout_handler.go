package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/hajarsalhi/book-store-sub000/internal/checkout"
	"github.com/hajarsalhi/book-store-sub000/internal/domain"
	"github.com/hajarsalhi/book-store-sub000/internal/pricing"
)

// CheckoutService is the pipeline surface the handlers need.
type CheckoutService interface {
	Checkout(ctx context.Context, req *checkout.Request) (*checkout.Result, error)
	Quote(ctx context.Context, userID, couponCode string) (*pricing.Quote, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
	timeout  time.Duration
}

func NewCheckoutHandler(checkoutService CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkoutService,
		timeout:  timeout,
	}
}

type QuoteRequestDTO struct {
	CouponCode string `json:"coupon_code"`
}

type CheckoutRequestDTO struct {
	CouponCode string                `json:"coupon_code"`
	Payment    domain.PaymentDetails `json:"payment"`
}

// Quote prices the current cart with the given coupon without committing to
// anything.
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req QuoteRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	quote, err := h.checkout.Quote(ctx, userID, req.CouponCode)
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
			return
		}
		log.Printf("quote failed request_id=%s: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to price cart")
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

// Checkout runs the purchase pipeline. The Idempotency-Key header is
// mandatory: it is what makes an accidental double submit harmless.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	if idempotencyKey == "" {
		respondError(w, http.StatusBadRequest, "missing_idempotency_key", "Idempotency-Key header is required")
		return
	}

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, err := h.checkout.Checkout(ctx, &checkout.Request{
		UserID:         userID,
		IdempotencyKey: idempotencyKey,
		CouponCode:     req.CouponCode,
		Payment:        req.Payment,
	})
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
		case errors.Is(err, checkout.ErrCheckoutInProgress):
			respondError(w, http.StatusConflict, "checkout_in_progress", "another checkout is already in progress")
		default:
			log.Printf("checkout failed request_id=%s: %v", getRequestID(r.Context()), err)
			respondError(w, http.StatusInternalServerError, "internal_error", "checkout failed")
		}
		return
	}

	respondJSON(w, checkoutStatusCode(result), result)
}

func checkoutStatusCode(result *checkout.Result) int {
	if result.Replayed {
		return http.StatusOK
	}
	if result.Status == domain.CheckoutStatusFailed {
		if len(result.FieldErrors) > 0 {
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadGateway
	}
	return http.StatusCreated
}
