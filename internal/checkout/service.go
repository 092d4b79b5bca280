// Package checkout drives the cart-to-order pipeline: price the cart, validate
// payment input, submit the order, unlock the purchased books, clear the cart.
// Every attempt is tracked as a durable session so duplicates and crashes are
// recoverable.
package checkout

import (
	"context"

	"github.com/hajarsalhi/book-store-sub000/internal/client"
	"github.com/hajarsalhi/book-store-sub000/internal/domain"
	"github.com/hajarsalhi/book-store-sub000/internal/pricing"
	"github.com/hajarsalhi/book-store-sub000/internal/checkout/repository"
)

// CartStore is the slice of the cart service the pipeline needs: read the
// current cart, and clear it once the purchase went through.
type CartStore interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	Clear(ctx context.Context, userID string) error
}

type PricingEngine interface {
	Quote(ctx context.Context, subtotal float64, couponCode string) *pricing.Quote
}

type OrderService interface {
	CreateOrder(ctx context.Context, items []domain.OrderItem, totalAmount float64, discounts domain.AppliedDiscounts) (*client.OrderCreation, error)
}

type LibraryService interface {
	AddToLibrary(ctx context.Context, bookID string) error
}

// Request is one checkout attempt. The idempotency key comes from the client
// and guards against double submission.
type Request struct {
	UserID         string
	IdempotencyKey string
	CouponCode     string
	Payment        domain.PaymentDetails
}

// UnlockResult records the outcome of one library unlock. Failures here never
// fail the checkout, the purchase already happened.
type UnlockResult struct {
	BookID   string `json:"book_id"`
	Unlocked bool   `json:"unlocked"`
	Error    string `json:"error,omitempty"`
}

// Result is what the handler renders. FieldErrors is set when payment input
// was rejected; FailureReason when order creation was refused. Both are
// business outcomes, not transport errors.
type Result struct {
	CheckoutID    string                `json:"checkout_id"`
	Status        domain.CheckoutStatus `json:"status"`
	Replayed      bool                  `json:"replayed,omitempty"`
	FieldErrors   map[string]string     `json:"field_errors,omitempty"`
	FailureReason string                `json:"failure_reason,omitempty"`

	Quote             *pricing.Quote `json:"quote,omitempty"`
	Order             *domain.Order  `json:"order,omitempty"`
	RelatedByAuthor   []client.Book  `json:"related_by_author,omitempty"`
	RelatedByCategory []client.Book  `json:"related_by_category,omitempty"`
	Unlocks           []UnlockResult `json:"unlocks,omitempty"`
}

type Service struct {
	repo    repository.Store
	cart    CartStore
	pricing PricingEngine
	orders  OrderService
	library LibraryService
}

func NewService(repo repository.Store, cart CartStore, pricing PricingEngine, orders OrderService, library LibraryService) *Service {
	return &Service{
		repo:    repo,
		cart:    cart,
		pricing: pricing,
		orders:  orders,
		library: library,
	}
}

// Quote prices the user's current cart without starting a checkout session.
func (s *Service) Quote(ctx context.Context, userID, couponCode string) (*pricing.Quote, error) {
	c, err := s.cart.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}
	return s.pricing.Quote(ctx, c.Subtotal(), couponCode), nil
}
