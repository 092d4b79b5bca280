package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

var ErrBookNotFound = errors.New("book not found")

// Book is the catalog collaborator's view of a title. Price and display
// fields feed the cart's add-time snapshot.
type Book struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	ImageURL string  `json:"imageUrl"`
	Stock    int     `json:"stock"`
}

type Catalog struct {
	client *Client
}

func NewCatalog(baseURL string, timeout time.Duration) *Catalog {
	return &Catalog{client: newClient("catalog", baseURL, timeout)}
}

func (c *Catalog) GetBook(ctx context.Context, id string) (*Book, error) {
	var book Book
	err := c.client.doJSON(ctx, http.MethodGet, "/books/"+url.PathEscape(id), nil, &book)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("get book %s: %w", id, err)
	}
	return &book, nil
}

func (c *Catalog) SearchBooks(ctx context.Context, query string) ([]Book, error) {
	var result struct {
		Books []Book `json:"books"`
	}
	path := "/books?q=" + url.QueryEscape(query)
	if err := c.client.doJSON(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	return result.Books, nil
}
