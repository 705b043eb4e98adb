package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/repository"
	apperrors "github.com/jafarshop/storefront/pkg/errors"
)

type orderEventRepository struct {
	collection *mongo.Collection
}

// NewOrderEventRepository creates a new order event repository
func NewOrderEventRepository(db *mongo.Database) repository.OrderEventRepository {
	return &orderEventRepository{collection: db.Collection(eventsCollection)}
}

func (r *orderEventRepository) Create(ctx context.Context, event *domain.OrderEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if _, err := r.collection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to insert order event: %w", err)
	}
	return nil
}

func (r *orderEventRepository) ListUnpublished(ctx context.Context, limit int) ([]*domain.OrderEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{"publishedAt": nil}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list order events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*domain.OrderEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode order events: %w", err)
	}
	return events, nil
}

func (r *orderEventRepository) MarkPublished(ctx context.Context, id string, at time.Time) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"publishedAt": at}})
	if err != nil {
		return fmt.Errorf("failed to mark order event published: %w", err)
	}
	if result.MatchedCount == 0 {
		return &apperrors.ErrNotFound{Resource: "order event", ID: id}
	}
	return nil
}
