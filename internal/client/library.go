package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type Library struct {
	client *Client
}

func NewLibrary(baseURL string, timeout time.Duration) *Library {
	return &Library{client: newClient("library", baseURL, timeout)}
}

type addToLibraryRequest struct {
	BookID string `json:"bookId"`
}

// AddToLibrary grants a purchased book into the buyer's personal collection.
// Treated as idempotent by the collaborator, so retries are safe.
func (l *Library) AddToLibrary(ctx context.Context, bookID string) error {
	req := addToLibraryRequest{BookID: bookID}
	if err := l.client.doJSON(ctx, http.MethodPost, "/library/items", req, nil); err != nil {
		return fmt.Errorf("add book %s to library: %w", bookID, err)
	}
	return nil
}
