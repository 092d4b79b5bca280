package cart

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/hajarsalhi/book-store-sub000/internal/cache"
	"github.com/hajarsalhi/book-store-sub000/internal/domain"
	"golang.org/x/sync/singleflight"
)

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Service is the single source of truth for what the customer intends to buy.
// Every mutation is mirrored to the durable repository before returning; reads
// are served cache-aside.
type Service struct {
	repo  Repository
	cache cache.CartCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewService(repo Repository, cache cache.CartCache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

func (s *Service) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {

		c, err := s.cache.Get(ctx, userID)
		if err == nil {
			return c, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		c, errGet := s.repo.GetCart(ctx, userID)
		if errGet != nil && errors.Is(errGet, ErrCartNotFound) {
			// No durable mirror yet: the cart starts empty
			return &domain.Cart{
				UserID:    userID,
				Items:     nil,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			errSet := s.cache.Set(context.Background(), userID, c)
			if errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return c, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem appends a new line from the snapshot, or increments the existing
// line for the same book. Stock bounds are a caller concern.
func (s *Service) AddItem(ctx context.Context, userID string, item domain.CartItem) error {
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}

	errAdd := s.repo.AddItem(ctx, userID, item)
	if errAdd != nil {
		log.Printf("repo add item error: %v", errAdd)
		return errAdd
	}

	s.invalidateCache(userID)
	return nil
}

func (s *Service) SetQuantity(ctx context.Context, userID, bookID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	errSet := s.repo.SetItemQuantity(ctx, userID, bookID, quantity)
	if errSet != nil {
		log.Printf("repo set item quantity error: %v", errSet)
		return errSet
	}

	s.invalidateCache(userID)
	return nil
}

// RemoveItem deletes the line unconditionally; removing from a missing cart
// is a no-op.
func (s *Service) RemoveItem(ctx context.Context, userID, bookID string) error {
	errRemove := s.repo.RemoveItem(ctx, userID, bookID)
	if errRemove != nil && !errors.Is(errRemove, ErrCartNotFound) {
		log.Printf("repo remove item error: %v", errRemove)
		return errRemove
	}

	s.invalidateCache(userID)
	return nil
}

// Clear empties in-memory state and removes the durable mirror. Clearing an
// already-empty cart succeeds.
func (s *Service) Clear(ctx context.Context, userID string) error {
	errDelete := s.repo.DeleteCart(ctx, userID)
	if errDelete != nil && !errors.Is(errDelete, ErrCartNotFound) {
		log.Printf("repo delete cart error: %v", errDelete)
		return errDelete
	}

	s.invalidateCache(userID)
	return nil
}

func (s *Service) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	errInvalidate := s.cache.Delete(ctx, userID)
	if errInvalidate != nil {
		log.Printf("cache invalidate error: %v", errInvalidate)
	}
}
