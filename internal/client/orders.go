package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hajarsalhi/book-store-sub000/internal/domain"
)

type Orders struct {
	client *Client
}

func NewOrders(baseURL string, timeout time.Duration) *Orders {
	return &Orders{client: newClient("orders", baseURL, timeout)}
}

// Wire shapes for the order collaborator, which speaks camelCase.
type orderItemWire struct {
	BookID   string  `json:"bookId"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type discountRecordWire struct {
	Amount float64 `json:"amount"`
	Type   string  `json:"type"`
}

type appliedDiscountsWire struct {
	Coupon  *discountRecordWire `json:"coupon,omitempty"`
	Loyalty *discountRecordWire `json:"loyalty,omitempty"`
}

type createOrderRequest struct {
	Items            []orderItemWire      `json:"items"`
	TotalAmount      float64              `json:"totalAmount"`
	AppliedDiscounts appliedDiscountsWire `json:"appliedDiscounts"`
}

type orderWire struct {
	ID               string               `json:"id"`
	Items            []orderItemWire      `json:"items"`
	TotalAmount      float64              `json:"totalAmount"`
	AppliedDiscounts appliedDiscountsWire `json:"appliedDiscounts"`
	CreatedAt        time.Time            `json:"createdAt"`
}

type createOrderResponse struct {
	Order                  orderWire `json:"order"`
	RelatedBooksByAuthor   []Book    `json:"relatedBooksByAuthor"`
	RelatedBooksByCategory []Book    `json:"relatedBooksByCategory"`
}

// OrderCreation is the collaborator's reply: the immutable order plus the two
// recommendation lists shown on the confirmation screen.
type OrderCreation struct {
	Order             domain.Order
	RelatedByAuthor   []Book
	RelatedByCategory []Book
}

func (o *Orders) CreateOrder(ctx context.Context, items []domain.OrderItem, totalAmount float64, discounts domain.AppliedDiscounts) (*OrderCreation, error) {
	req := createOrderRequest{
		Items:            make([]orderItemWire, len(items)),
		TotalAmount:      totalAmount,
		AppliedDiscounts: discountsToWire(discounts),
	}
	for i, item := range items {
		req.Items[i] = orderItemWire{
			BookID:   item.BookID,
			Quantity: item.Quantity,
			Price:    item.Price,
		}
	}

	var resp createOrderResponse
	if err := o.client.doJSON(ctx, http.MethodPost, "/orders", req, &resp); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	return &OrderCreation{
		Order:             orderFromWire(resp.Order),
		RelatedByAuthor:   resp.RelatedBooksByAuthor,
		RelatedByCategory: resp.RelatedBooksByCategory,
	}, nil
}

func discountsToWire(d domain.AppliedDiscounts) appliedDiscountsWire {
	var wire appliedDiscountsWire
	if d.Coupon != nil {
		wire.Coupon = &discountRecordWire{Amount: d.Coupon.Amount, Type: d.Coupon.Type}
	}
	if d.Loyalty != nil {
		wire.Loyalty = &discountRecordWire{Amount: d.Loyalty.Amount, Type: d.Loyalty.Type}
	}
	return wire
}

func orderFromWire(w orderWire) domain.Order {
	order := domain.Order{
		ID:          w.ID,
		Items:       make([]domain.OrderItem, len(w.Items)),
		TotalAmount: w.TotalAmount,
		CreatedAt:   w.CreatedAt,
	}
	for i, item := range w.Items {
		order.Items[i] = domain.OrderItem{
			BookID:   item.BookID,
			Quantity: item.Quantity,
			Price:    item.Price,
		}
	}
	if w.AppliedDiscounts.Coupon != nil {
		order.AppliedDiscounts.Coupon = &domain.DiscountRecord{
			Amount: w.AppliedDiscounts.Coupon.Amount,
			Type:   w.AppliedDiscounts.Coupon.Type,
		}
	}
	if w.AppliedDiscounts.Loyalty != nil {
		order.AppliedDiscounts.Loyalty = &domain.DiscountRecord{
			Amount: w.AppliedDiscounts.Loyalty.Amount,
			Type:   w.AppliedDiscounts.Loyalty.Type,
		}
	}
	return order
}
