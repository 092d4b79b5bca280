package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hajarsalhi/book-store-sub000/internal/cart"
	"github.com/hajarsalhi/book-store-sub000/internal/client"
	"github.com/hajarsalhi/book-store-sub000/internal/domain"
)

// CartService is the cart surface the handlers need.
type CartService interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, item domain.CartItem) error
	SetQuantity(ctx context.Context, userID, bookID string, quantity int) error
	RemoveItem(ctx context.Context, userID, bookID string) error
	Clear(ctx context.Context, userID string) error
}

// BookCatalog resolves book details at add time and powers recommendations.
type BookCatalog interface {
	GetBook(ctx context.Context, id string) (*client.Book, error)
	SearchBooks(ctx context.Context, query string) ([]client.Book, error)
}

type CartHandler struct {
	cart    CartService
	catalog BookCatalog
	timeout time.Duration
}

func NewCartHandler(cartService CartService, catalog BookCatalog, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:    cartService,
		catalog: catalog,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	BookID   string `json:"book_id"`
	Quantity int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	c, err := h.cart.GetCart(ctx, userID)
	if err != nil {
		log.Printf("get cart failed request_id=%s: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(c))
}

// AddItem resolves the book against the catalog so the cart line carries a
// snapshot of price and display fields from the moment of adding.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.BookID == "" {
		respondError(w, http.StatusBadRequest, "invalid_book_id", "book_id is required")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	book, err := h.catalog.GetBook(ctx, req.BookID)
	if err != nil {
		if errors.Is(err, client.ErrBookNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "book not found")
			return
		}
		log.Printf("catalog lookup failed request_id=%s: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusBadGateway, "catalog_unavailable", "failed to look up book")
		return
	}

	item := domain.CartItem{
		BookID:   book.ID,
		Title:    book.Title,
		Author:   book.Author,
		Price:    book.Price,
		Quantity: req.Quantity,
		Category: book.Category,
		ImageURL: book.ImageURL,
		AddedAt:  time.Now().UTC(),
	}
	if err := h.cart.AddItem(ctx, userID, item); err != nil {
		log.Printf("add item failed request_id=%s: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to add item")
		return
	}

	c, err := h.cart.GetCart(ctx, userID)
	if err != nil {
		log.Printf("get cart after add failed request_id=%s: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	respondJSON(w, http.StatusCreated, cartResponse(c))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	bookID := chi.URLParam(r, "book_id")
	if bookID == "" {
		respondError(w, http.StatusBadRequest, "invalid_book_id", "book_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	if err := h.cart.SetQuantity(ctx, userID, bookID, req.Quantity); err != nil {
		if errors.Is(err, cart.ErrItemNotFound) || errors.Is(err, cart.ErrCartNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "item not in cart")
			return
		}
		log.Printf("update quantity failed request_id=%s: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update quantity")
		return
	}

	c, err := h.cart.GetCart(ctx, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(c))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	bookID := chi.URLParam(r, "book_id")
	if bookID == "" {
		respondError(w, http.StatusBadRequest, "invalid_book_id", "book_id is required")
		return
	}

	if err := h.cart.RemoveItem(ctx, userID, bookID); err != nil {
		log.Printf("remove item failed request_id=%s: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to remove item")
		return
	}

	c, err := h.cart.GetCart(ctx, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(c))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	if err := h.cart.Clear(ctx, userID); err != nil {
		log.Printf("clear cart failed request_id=%s: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to clear cart")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// Recommendations suggests more books from the category of whatever the
// customer added last. An empty cart yields an empty list, not an error.
func (h *CartHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	c, err := h.cart.GetCart(ctx, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	if c.LastAddedCategory == "" {
		respondJSON(w, http.StatusOK, map[string]interface{}{"books": []client.Book{}})
		return
	}

	books, err := h.catalog.SearchBooks(ctx, c.LastAddedCategory)
	if err != nil {
		log.Printf("recommendation search failed request_id=%s: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusBadGateway, "catalog_unavailable", "failed to load recommendations")
		return
	}

	// Do not recommend what is already in the cart.
	inCart := make(map[string]bool, len(c.Items))
	for _, item := range c.Items {
		inCart[item.BookID] = true
	}
	filtered := make([]client.Book, 0, len(books))
	for _, book := range books {
		if !inCart[book.ID] {
			filtered = append(filtered, book)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"books": filtered})
}

type CartResponseDTO struct {
	UserID   string            `json:"user_id"`
	Items    []domain.CartItem `json:"items"`
	Subtotal float64           `json:"subtotal"`
}

func cartResponse(c *domain.Cart) CartResponseDTO {
	items := c.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return CartResponseDTO{
		UserID:   c.UserID,
		Items:    items,
		Subtotal: c.Subtotal(),
	}
}
