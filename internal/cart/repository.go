package cart

import (
	"context"
	"errors"

	"github.com/hajarsalhi/book-store-sub000/internal/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("item not found in cart")
)

// Repository defines the interface for the durable cart mirror.
// Consumers define this interface, not the MongoDB implementation.
type Repository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, item domain.CartItem) error
	SetItemQuantity(ctx context.Context, userID, bookID string, quantity int) error
	RemoveItem(ctx context.Context, userID, bookID string) error
	DeleteCart(ctx context.Context, userID string) error
}
