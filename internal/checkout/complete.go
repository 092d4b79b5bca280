package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hajarsalhi/book-store-sub000/internal/domain"
)

func (s *Service) complete(ctx context.Context, checkoutID string, status domain.CheckoutStatus, snapshot *domain.CartSnapshot, userID, orderID string, total float64) error {
	if !domain.CanTransitionTo(status, domain.CheckoutStatusCompleted) {
		return IllegalTransitionError
	}

	payload := map[string]interface{}{
		"checkout_id":  checkoutID,
		"user_id":      userID,
		"order_id":     orderID,
		"items":        snapshot.Items,
		"total_amount": total,
		"completed_at": time.Now(),
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal checkout payload: %w", err)
	}

	return s.repo.CompleteSession(ctx, checkoutID, payloadJSON)
}
