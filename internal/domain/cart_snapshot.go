package domain

import "time"

type CartSnapshotItem struct {
	BookID    string  `json:"book_id"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}

// CartSnapshot represents the full cart state at submit time. Later cart
// mutations never touch it.
type CartSnapshot struct {
	Items      []CartSnapshotItem `json:"items"`
	Subtotal   float64            `json:"subtotal"`
	CapturedAt time.Time          `json:"captured_at"`
}
