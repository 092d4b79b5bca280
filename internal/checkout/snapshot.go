package checkout

import (
	"time"

	"github.com/hajarsalhi/book-store-sub000/internal/domain"
)

// buildSnapshot freezes the cart at submit time. Mutations to the live cart
// after this point do not affect the checkout in flight.
func buildSnapshot(c *domain.Cart) domain.CartSnapshot {
	snapshot := domain.CartSnapshot{
		Items:      make([]domain.CartSnapshotItem, len(c.Items)),
		CapturedAt: time.Now().UTC(),
	}

	for i, item := range c.Items {
		lineSubtotal := item.Price * float64(item.Quantity)
		snapshot.Items[i] = domain.CartSnapshotItem{
			BookID:    item.BookID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
			Subtotal:  lineSubtotal,
		}
		snapshot.Subtotal += lineSubtotal
	}

	return snapshot
}

func orderItemsFromSnapshot(snapshot domain.CartSnapshot) []domain.OrderItem {
	items := make([]domain.OrderItem, len(snapshot.Items))
	for i, item := range snapshot.Items {
		items[i] = domain.OrderItem{
			BookID:   item.BookID,
			Quantity: item.Quantity,
			Price:    item.UnitPrice,
		}
	}
	return items
}
