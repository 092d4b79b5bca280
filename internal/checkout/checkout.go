package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/hajarsalhi/book-store-sub000/internal/checkout/repository"
	"github.com/hajarsalhi/book-store-sub000/internal/domain"
	"github.com/hajarsalhi/book-store-sub000/internal/payment"
)

// Checkout runs the full pipeline for one attempt. Business rejections
// (bad payment input, refused order) come back inside the Result; only
// infrastructure failures surface as errors.
func (s *Service) Checkout(ctx context.Context, req *Request) (*Result, error) {
	existingID, existingStatus, err := s.repo.GetSessionByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil && !errors.Is(err, repository.ErrIdempotencyKeyNotFound) {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existingID != nil {
		// This checkout already exists. Return the recorded outcome instead
		// of running the pipeline again.
		log.Printf("duplicate checkout request idempotency_key = %v checkout_id = %v status = %v",
			req.IdempotencyKey, *existingID, *existingStatus)
		return &Result{CheckoutID: *existingID, Status: *existingStatus, Replayed: true}, nil
	}

	active, err := s.repo.HasActiveSession(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active sessions: %w", err)
	}
	if active {
		return nil, ErrCheckoutInProgress
	}

	c, err := s.cart.GetCart(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	snapshot := buildSnapshot(c)
	quote := s.pricing.Quote(ctx, snapshot.Subtotal, req.CouponCode)

	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cart snapshot: %w", err)
	}

	sessionID := uuid.New().String()
	session := &repository.CheckoutSession{
		ID:             sessionID,
		UserID:         req.UserID,
		CartSnapshot:   snapshotJSON,
		IdempotencyKey: req.IdempotencyKey,
		TotalAmount:    fmt.Sprintf("%.2f", quote.Total),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	result := &Result{CheckoutID: sessionID, Quote: quote}

	if err := s.advance(ctx, sessionID, domain.CheckoutStatusInitiated, domain.CheckoutStatusValidating); err != nil {
		return nil, err
	}
	if ok, fieldErrors := payment.Validate(req.Payment); !ok {
		s.fail(ctx, sessionID, "payment validation failed")
		result.Status = domain.CheckoutStatusFailed
		result.FieldErrors = fieldErrors
		return result, nil
	}

	if err := s.advance(ctx, sessionID, domain.CheckoutStatusValidating, domain.CheckoutStatusSubmittingOrder); err != nil {
		return nil, err
	}
	created, orderErr := s.orders.CreateOrder(ctx, orderItemsFromSnapshot(snapshot), quote.Total, quote.Applied)
	if orderErr != nil {
		// The cart stays as it was and nothing gets unlocked.
		log.Printf("order creation failed for checkout %v: %v", sessionID, orderErr)
		s.fail(ctx, sessionID, orderErr.Error())
		result.Status = domain.CheckoutStatusFailed
		result.FailureReason = "order creation failed"
		return result, nil
	}

	if !domain.CanTransitionTo(domain.CheckoutStatusSubmittingOrder, domain.CheckoutStatusUnlockingLibrary) {
		return nil, IllegalTransitionError
	}
	if err := s.repo.SetOrder(ctx, sessionID, created.Order.ID, domain.CheckoutStatusUnlockingLibrary); err != nil {
		return nil, fmt.Errorf("failed to attach order: %w", err)
	}

	result.Order = &created.Order
	result.RelatedByAuthor = created.RelatedByAuthor
	result.RelatedByCategory = created.RelatedByCategory

	result.Unlocks = s.unlockLibrary(ctx, snapshot)

	if err := s.cart.Clear(ctx, req.UserID); err != nil {
		log.Printf("failed to clear cart after checkout %v: %v", sessionID, err)
	}

	if err := s.complete(ctx, sessionID, domain.CheckoutStatusUnlockingLibrary, &snapshot, req.UserID, created.Order.ID, quote.Total); err != nil {
		// The order exists and books are unlocked; the recovery poller will
		// finish the session. Report what is durably true right now.
		log.Printf("failed to complete checkout %v: %v", sessionID, err)
		result.Status = domain.CheckoutStatusUnlockingLibrary
		return result, nil
	}

	result.Status = domain.CheckoutStatusCompleted
	return result, nil
}

func (s *Service) advance(ctx context.Context, sessionID string, from, to domain.CheckoutStatus) error {
	if !domain.CanTransitionTo(from, to) {
		return IllegalTransitionError
	}
	return s.repo.UpdateSessionStatus(ctx, sessionID, to)
}

func (s *Service) fail(ctx context.Context, sessionID string, reason string) {
	if err := s.repo.FailSession(ctx, sessionID, reason); err != nil {
		log.Printf("failed to mark checkout %v as failed: %v", sessionID, err)
	}
}
