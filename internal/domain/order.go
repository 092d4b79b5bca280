package domain

import "time"

type OrderItem struct {
	BookID   string  `json:"book_id"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order is immutable once created by the order collaborator.
type Order struct {
	ID               string           `json:"id"`
	Items            []OrderItem      `json:"items"`
	TotalAmount      float64          `json:"total_amount"`
	AppliedDiscounts AppliedDiscounts `json:"applied_discounts"`
	CreatedAt        time.Time        `json:"created_at"`
}
