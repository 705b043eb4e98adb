package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/repository"
)

const batchSize = 100

// MessageWriter is the subset of *kafka.Writer the poller needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OutboxPoller relays recorded order events to Kafka and marks them published.
// Delivery is at-least-once: an event whose mark fails is sent again next tick.
// Events of one order are sent in the order they were recorded.
type OutboxPoller struct {
	tick   time.Duration
	repo   repository.OrderEventRepository
	writer MessageWriter
	logger *zap.Logger
	now    func() time.Time
}

func NewOutboxPoller(repo repository.OrderEventRepository, writer MessageWriter, logger *zap.Logger) *OutboxPoller {
	return &OutboxPoller{
		tick:   time.Second,
		repo:   repo,
		writer: writer,
		logger: logger,
		now:    time.Now,
	}
}

// NewKafkaWriter builds the writer used in production
func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.ListUnpublished(ctx, batchSize)
	if err != nil {
		p.logger.Error("Failed to fetch unpublished order events", zap.Error(err))
		return
	}

	// once an order's event fails, its later events wait for the next tick
	blocked := make(map[string]bool)
	for _, event := range events {
		if blocked[event.OrderID] {
			continue
		}
		if err := p.publish(ctx, event); err != nil {
			blocked[event.OrderID] = true
			p.logger.Warn("Failed to publish order event",
				zap.String("event_id", event.ID),
				zap.String("order_id", event.OrderID),
				zap.Error(err),
			)
			continue
		}
		if err := p.repo.MarkPublished(ctx, event.ID, p.now()); err != nil {
			blocked[event.OrderID] = true
			p.logger.Warn("Failed to mark order event as published",
				zap.String("event_id", event.ID),
				zap.String("order_id", event.OrderID),
				zap.Error(err),
			)
		}
	}
}

type eventMessage struct {
	ID        string         `json:"id"`
	OrderID   string         `json:"orderId"`
	EventType string         `json:"eventType"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (p *OutboxPoller) publish(ctx context.Context, event *domain.OrderEvent) error {
	payload, err := json.Marshal(eventMessage{
		ID:        event.ID,
		OrderID:   event.OrderID,
		EventType: event.EventType,
		Data:      event.EventData,
		CreatedAt: event.CreatedAt,
	})
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID), // keeps one order's events in sequence
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	})
}
