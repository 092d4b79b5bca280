package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type Loyalty struct {
	client *Client
}

func NewLoyalty(baseURL string, timeout time.Duration) *Loyalty {
	return &Loyalty{client: newClient("loyalty", baseURL, timeout)}
}

// LoyaltyDiscountPercent derives the customer's percentage from purchase
// history, resolved fresh on every checkout attempt.
func (l *Loyalty) LoyaltyDiscountPercent(ctx context.Context) (float64, error) {
	var resp struct {
		Discount float64 `json:"discount"`
	}
	if err := l.client.doJSON(ctx, http.MethodGet, "/loyalty/discount", nil, &resp); err != nil {
		return 0, fmt.Errorf("calculate loyalty discount: %w", err)
	}
	return resp.Discount, nil
}
