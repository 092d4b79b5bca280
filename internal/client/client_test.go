package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hajarsalhi/book-store-sub000/internal/domain"
)

func TestCatalogGetBook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/books/book-1", r.URL.Path)
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(Book{
			ID:       "book-1",
			Title:    "The Go Programming Language",
			Author:   "Donovan",
			Price:    39.99,
			Category: "programming",
		})
	}))
	defer server.Close()

	catalog := NewCatalog(server.URL, 2*time.Second)
	ctx := WithToken(context.Background(), "session-token")

	book, err := catalog.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, "The Go Programming Language", book.Title)
	assert.Equal(t, 39.99, book.Price)
}

func TestCatalogGetBook_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "book not found"})
	}))
	defer server.Close()

	catalog := NewCatalog(server.URL, 2*time.Second)

	_, err := catalog.GetBook(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestCatalogSearchBooks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "fantasy", r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode(map[string][]Book{
			"books": {
				{ID: "book-2", Title: "A Wizard of Earthsea", Category: "fantasy"},
				{ID: "book-3", Title: "The Hobbit", Category: "fantasy"},
			},
		})
	}))
	defer server.Close()

	catalog := NewCatalog(server.URL, 2*time.Second)

	books, err := catalog.SearchBooks(context.Background(), "fantasy")
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "A Wizard of Earthsea", books[0].Title)
}

func TestValidateCoupon_Valid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "SAVE10", req["code"])
		assert.Equal(t, 100.0, req["subtotal"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"discount":   10.0,
			"couponType": "percentage",
			"status":     "valid",
		})
	}))
	defer server.Close()

	validator := NewCouponValidator(server.URL, 2*time.Second)

	coupon, err := validator.ValidateCoupon(context.Background(), "SAVE10", 100.0)
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", coupon.Code)
	assert.Equal(t, 10.0, coupon.DiscountValue)
	assert.Equal(t, domain.DiscountTypePercentage, coupon.DiscountType)
}

func TestValidateCoupon_RejectionStatuses(t *testing.T) {
	cases := []struct {
		status string
		want   error
	}{
		{"expired", domain.ErrCouponExpired},
		{"usage_limit_reached", domain.ErrCouponUsageLimitReached},
		{"min_purchase_not_met", domain.ErrCouponMinPurchaseNotMet},
		{"already_used", domain.ErrCouponAlreadyUsed},
		{"not_found", domain.ErrCouponNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]string{"status": tc.status})
			}))
			defer server.Close()

			validator := NewCouponValidator(server.URL, 2*time.Second)

			_, err := validator.ValidateCoupon(context.Background(), "ANY", 50.0)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestValidateCoupon_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "coupon service unavailable"})
	}))
	defer server.Close()

	validator := NewCouponValidator(server.URL, 2*time.Second)

	_, err := validator.ValidateCoupon(context.Background(), "SAVE10", 100.0)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.Equal(t, "coupon service unavailable", statusErr.Message)
}

func TestLoyaltyDiscountPercent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/loyalty/discount", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]float64{"discount": 5.0})
	}))
	defer server.Close()

	loyalty := NewLoyalty(server.URL, 2*time.Second)

	percent, err := loyalty.LoyaltyDiscountPercent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5.0, percent)
}

func TestCreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Items, 1)
		assert.Equal(t, "book-1", req.Items[0].BookID)
		assert.Equal(t, 85.50, req.TotalAmount)
		require.NotNil(t, req.AppliedDiscounts.Coupon)
		assert.Equal(t, "percentage", req.AppliedDiscounts.Coupon.Type)

		json.NewEncoder(w).Encode(createOrderResponse{
			Order: orderWire{
				ID:          "order-77",
				Items:       req.Items,
				TotalAmount: req.TotalAmount,
				CreatedAt:   time.Now().UTC(),
			},
			RelatedBooksByAuthor: []Book{
				{ID: "book-9", Title: "Another by Same Author"},
			},
		})
	}))
	defer server.Close()

	orders := NewOrders(server.URL, 2*time.Second)

	items := []domain.OrderItem{{BookID: "book-1", Quantity: 2, Price: 50.0}}
	discounts := domain.AppliedDiscounts{
		Coupon:  &domain.DiscountRecord{Amount: 10, Type: "percentage"},
		Loyalty: &domain.DiscountRecord{Amount: 5, Type: "%"},
	}

	created, err := orders.CreateOrder(context.Background(), items, 85.50, discounts)
	require.NoError(t, err)
	assert.Equal(t, "order-77", created.Order.ID)
	assert.Equal(t, 85.50, created.Order.TotalAmount)
	require.Len(t, created.RelatedByAuthor, 1)
	assert.Empty(t, created.RelatedByCategory)
}

func TestCreateOrder_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "insufficient stock"})
	}))
	defer server.Close()

	orders := NewOrders(server.URL, 2*time.Second)

	_, err := orders.CreateOrder(context.Background(), []domain.OrderItem{{BookID: "book-1", Quantity: 1, Price: 10}}, 10, domain.AppliedDiscounts{})
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusConflict, statusErr.Code)
}

func TestAddToLibrary(t *testing.T) {
	var got addToLibraryRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	library := NewLibrary(server.URL, 2*time.Second)

	require.NoError(t, library.AddToLibrary(context.Background(), "book-1"))
	assert.Equal(t, "book-1", got.BookID)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	library := NewLibrary(server.URL, 2*time.Second)

	for i := 0; i < 5; i++ {
		err := library.AddToLibrary(context.Background(), "book-1")
		require.Error(t, err)
	}

	err := library.AddToLibrary(context.Background(), "book-1")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
