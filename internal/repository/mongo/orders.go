package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/repository"
	apperrors "github.com/jafarshop/storefront/pkg/errors"
)

type orderRepository struct {
	collection *mongo.Collection
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *mongo.Database) repository.OrderRepository {
	return &orderRepository{collection: db.Collection(ordersCollection)}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	if _, err := r.collection.InsertOne(ctx, order); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &apperrors.ErrNotFound{Resource: "order", ID: id}
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{"user": userID}, opts)
}

func (r *orderRepository) List(ctx context.Context, limit, offset int) ([]*domain.Order, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, bson.M{}, opts)
}

func (r *orderRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}

func (r *orderRepository) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	update := bson.M{"$set": bson.M{
		"isDelivered": true,
		"deliveredAt": at,
		"updatedAt":   at,
	}}
	return r.transition(ctx, id, update)
}

func (r *orderRepository) SetItemRestocked(ctx context.Context, id string, index int, restocked bool) error {
	field := fmt.Sprintf("orderItems.%d.restocked", index)
	filter := bson.M{
		"_id":                               id,
		fmt.Sprintf("orderItems.%d", index): bson.M{"$exists": true},
		field:                               bson.M{"$ne": restocked},
	}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{field: restocked}})
	if err != nil {
		return fmt.Errorf("failed to set item restock marker: %w", err)
	}
	if result.MatchedCount == 0 {
		order, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(order.OrderItems) {
			return fmt.Errorf("order %s has no item %d", id, index)
		}
		return repository.ErrStateChanged
	}
	return nil
}

func (r *orderRepository) MarkCancelled(ctx context.Context, id, reason string, at time.Time) error {
	update := bson.M{"$set": bson.M{
		"isCancelled":        true,
		"cancelledAt":        at,
		"cancellationReason": reason,
		"updatedAt":          at,
	}}
	return r.transition(ctx, id, update)
}

func (r *orderRepository) UpdateTracking(ctx context.Context, id, shippingPartner, trackingID string) error {
	update := bson.M{"$set": bson.M{
		"shippingPartner": shippingPartner,
		"trackingId":      trackingID,
		"updatedAt":       time.Now(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update tracking: %w", err)
	}
	if result.MatchedCount == 0 {
		return &apperrors.ErrNotFound{Resource: "order", ID: id}
	}
	return nil
}

func (r *orderRepository) TotalSales(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"isPaid": true}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$totalPrice"}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate sales: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("failed to decode sales: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func (r *orderRepository) DailySales(ctx context.Context) ([]domain.DailySales, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"isPaid": true, "paidAt": bson.M{"$ne": nil}}}},
		{{Key: "$group", Value: bson.M{
			"_id":        bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$paidAt"}},
			"totalSales": bson.M{"$sum": "$totalPrice"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily sales: %w", err)
	}
	defer cursor.Close(ctx)

	series := []domain.DailySales{}
	if err := cursor.All(ctx, &series); err != nil {
		return nil, fmt.Errorf("failed to decode daily sales: %w", err)
	}
	return series, nil
}

// transition applies update only while the order is neither delivered nor cancelled
func (r *orderRepository) transition(ctx context.Context, id string, update bson.M) error {
	filter := bson.M{"_id": id, "isDelivered": false, "isCancelled": false}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return repository.ErrStateChanged
}

func (r *orderRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Order, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []*domain.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}
