package domain

import "time"

type Cart struct {
	ID                string     `bson:"_id,omitempty" json:"id,omitempty"`
	UserID            string     `bson:"user_id" json:"user_id"`
	Items             []CartItem `bson:"items" json:"items"`
	LastAddedCategory string     `bson:"last_added_category" json:"last_added_category"`
	CreatedAt         time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `bson:"updated_at" json:"updated_at"`
}

// CartItem is a cart line keyed by book id. Price and display fields are a
// snapshot of the catalog entry captured when the item was first added.
type CartItem struct {
	BookID   string    `bson:"book_id" json:"book_id"`
	Title    string    `bson:"title" json:"title"`
	Author   string    `bson:"author" json:"author"`
	Price    float64   `bson:"price" json:"price"`
	Quantity int       `bson:"quantity" json:"quantity"`
	Category string    `bson:"category" json:"category"`
	ImageURL string    `bson:"image_url" json:"image_url"`
	AddedAt  time.Time `bson:"added_at" json:"added_at"`
}

// Subtotal is always derived from the current lines, never stored.
func (c *Cart) Subtotal() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}
