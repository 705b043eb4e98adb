package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/pkg/errors"
)

type OrderEventRepository struct {
	mu     sync.Mutex
	events []*domain.OrderEvent
}

func NewOrderEventRepository() *OrderEventRepository {
	return &OrderEventRepository{}
}

func (r *OrderEventRepository) Create(_ context.Context, event *domain.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	clone := *event
	r.events = append(r.events, &clone)
	return nil
}

func (r *OrderEventRepository) ListUnpublished(_ context.Context, limit int) ([]*domain.OrderEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.OrderEvent
	for _, e := range r.events {
		if e.PublishedAt != nil {
			continue
		}
		clone := *e
		out = append(out, &clone)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *OrderEventRepository) MarkPublished(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.events {
		if e.ID == id {
			e.PublishedAt = &at
			return nil
		}
	}
	return &errors.ErrNotFound{Resource: "order event", ID: id}
}

// All returns every recorded event in insertion order
func (r *OrderEventRepository) All() []domain.OrderEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.OrderEvent, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, *e)
	}
	return out
}
