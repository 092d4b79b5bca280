// Package publisher drains the checkout outbox into Kafka so downstream
// consumers (receipts, analytics, recommendations) see every completed order
// exactly once from their side.
package publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/hajarsalhi/book-store-sub000/internal/checkout/repository"
	"github.com/hajarsalhi/book-store-sub000/internal/domain"
)

type OutboxPoller struct {
	eventTick    time.Duration
	recoveryTick time.Duration
	repo         repository.Store
	writer       *kafka.Writer
}

func NewOutboxPoller(repo repository.Store, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "order-completed",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{time.Second, time.Second * 5, repo, w}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	recoveryTicker := time.NewTicker(p.recoveryTick)
	defer eventTicker.Stop()
	defer recoveryTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-recoveryTicker.C:
			p.recoverStuckSessions(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, 100)
	if err != nil {
		log.Printf("failed to fetch events %v", err)
		return
	}

	for _, event := range events {
		errPublish := p.publishToKafka(ctx, event)
		if errPublish != nil {
			log.Printf("failed to publish event id = %v with error %v", event.ID, errPublish)
			continue
		}

		errMark := p.repo.MarkEventAsProcessed(ctx, event.ID)
		if errMark != nil {
			log.Printf("failed to mark event as processed id = %v with error %v", event.ID, errMark)
			continue
		}
	}
}

func (p *OutboxPoller) recoverStuckSessions(ctx context.Context) {
	// A stuck session crashed mid library unlock: the order exists but the
	// session never reached COMPLETED and no outbox event was written.
	sessions, err := p.repo.GetStuckSessions(ctx)
	if err != nil {
		log.Printf("failed to get stuck sessions: %v", err)
		return
	}
	for _, session := range sessions {
		log.Printf("recovering stuck session: %v", session.ID)

		var snapshot domain.CartSnapshot
		if err := json.Unmarshal(session.CartSnapshot, &snapshot); err != nil {
			log.Printf("failed to unmarshal cart snapshot for session %v: %v", session.ID, err)
			continue
		}

		payload := map[string]interface{}{
			"checkout_id":  session.ID,
			"user_id":      session.UserID,
			"order_id":     session.OrderID.String,
			"items":        snapshot.Items,
			"total_amount": session.TotalAmount,
			"completed_at": session.UpdatedAt,
		}

		payloadJSON, err := json.Marshal(payload)
		if err != nil {
			log.Printf("failed to marshal checkout payload in poller: %v", err)
			continue
		}

		if err := p.repo.CompleteSession(ctx, session.ID, payloadJSON); err != nil {
			log.Printf("failed to complete checkout in poller: %v", err)
			continue
		}

		log.Printf("session recovered: %v", session.ID)
	}
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event *repository.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateId), // checkout_id for ordering
		Value: event.Payload,             // Already JSON from database
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	return p.writer.WriteMessages(ctx, msg)
}
