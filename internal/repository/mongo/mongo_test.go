package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/repository"
	apperrors "github.com/jafarshop/storefront/pkg/errors"
)

func setupTestDB(t *testing.T) *repository.Repositories {
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	// Start MongoDB container
	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)
	require.NoError(t, CreateIndexes(ctx, db))

	return NewRepositories(db, false, zap.NewNop())
}

func seedProduct(t *testing.T, repos *repository.Repositories, id string, stock int) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repos.Product.Create(context.Background(), &domain.Product{
		ID:           id,
		Name:         "Product " + id,
		Category:     "audio",
		Price:        100,
		CountInStock: stock,
		CreatedAt:    now,
		UpdatedAt:    now,
	}))
}

func paidOrder(id, userID string, total float64, paidAt time.Time) *domain.Order {
	return &domain.Order{
		ID:     id,
		UserID: userID,
		OrderItems: []domain.OrderItem{
			{ProductID: "p1", Name: "Product p1", Price: total, Quantity: 1},
		},
		PaymentMethod: "Razorpay",
		TotalPrice:    total,
		IsPaid:        true,
		PaidAt:        &paidAt,
		CreatedAt:     paidAt,
		UpdatedAt:     paidAt,
	}
}

func TestProductRepository_DecrementStock(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()
	seedProduct(t, repos, "p1", 3)

	require.NoError(t, repos.Product.DecrementStock(ctx, "p1", 2))
	assert.ErrorIs(t, repos.Product.DecrementStock(ctx, "p1", 2), repository.ErrInsufficientStock)

	p, err := repos.Product.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.CountInStock)

	err = repos.Product.DecrementStock(ctx, "missing", 1)
	assert.True(t, apperrors.IsNotFound(err))

	require.NoError(t, repos.Product.IncrementStock(ctx, "p1", 4))
	p, err = repos.Product.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, p.CountInStock)
}

func TestOrderRepository_CreateAndList(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repos.Order.Create(ctx, paidOrder("o1", "u1", 100, base)))
	require.NoError(t, repos.Order.Create(ctx, paidOrder("o2", "u2", 25, base.Add(time.Hour))))
	require.NoError(t, repos.Order.Create(ctx, paidOrder("o3", "u1", 50, base.Add(24*time.Hour))))
	assert.ErrorIs(t, repos.Order.Create(ctx, paidOrder("o1", "u1", 1, base)), repository.ErrDuplicate)

	mine, err := repos.Order.ListByUserID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "o3", mine[0].ID)

	page, err := repos.Order.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, []string{"o3", "o2"}, []string{page[0].ID, page[1].ID})

	n, err := repos.Order.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	total, err := repos.Order.TotalSales(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 175, total, 1e-9)

	series, err := repos.Order.DailySales(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.DailySales{
		{Date: "2026-03-01", TotalSales: 125},
		{Date: "2026-03-02", TotalSales: 50},
	}, series)
}

func TestOrderRepository_ConditionalTransitions(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repos.Order.Create(ctx, paidOrder("o1", "u1", 100, now)))
	require.NoError(t, repos.Order.SetItemRestocked(ctx, "o1", 0, true))
	assert.ErrorIs(t, repos.Order.SetItemRestocked(ctx, "o1", 0, true), repository.ErrStateChanged)
	require.NoError(t, repos.Order.MarkCancelled(ctx, "o1", "changed my mind", now))

	assert.ErrorIs(t, repos.Order.MarkDelivered(ctx, "o1", now), repository.ErrStateChanged)
	assert.ErrorIs(t, repos.Order.MarkCancelled(ctx, "o1", "again", now), repository.ErrStateChanged)
	assert.True(t, apperrors.IsNotFound(repos.Order.MarkDelivered(ctx, "missing", now)))

	o, err := repos.Order.GetByID(ctx, "o1")
	require.NoError(t, err)
	assert.True(t, o.IsCancelled)
	assert.False(t, o.IsDelivered)
	assert.Equal(t, "changed my mind", o.CancellationReason)
	assert.True(t, o.OrderItems[0].Restocked)
	assert.Equal(t, domain.OrderStatusCancelled, o.Status())
}

func TestOrderRepository_PaymentIsSingleUse(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := paidOrder("o1", "u1", 100, now)
	first.PaymentResult = domain.PaymentResult{PaymentID: "pay_1", OrderID: "intent_1", Status: "paid"}
	require.NoError(t, repos.Order.Create(ctx, first))

	replay := paidOrder("o2", "u2", 100, now)
	replay.PaymentResult = first.PaymentResult
	assert.ErrorIs(t, repos.Order.Create(ctx, replay), repository.ErrDuplicate)

	// orders without a gateway reference never collide
	require.NoError(t, repos.Order.Create(ctx, paidOrder("o3", "u1", 5, now)))
	require.NoError(t, repos.Order.Create(ctx, paidOrder("o4", "u1", 5, now)))
}

func TestOrderEventRepository_Unpublished(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()

	first := &domain.OrderEvent{OrderID: "o1", EventType: domain.EventOrderCreated, CreatedAt: time.Now().UTC().Add(-time.Minute)}
	second := &domain.OrderEvent{OrderID: "o1", EventType: domain.EventOrderDelivered, CreatedAt: time.Now().UTC()}
	require.NoError(t, repos.OrderEvent.Create(ctx, first))
	require.NoError(t, repos.OrderEvent.Create(ctx, second))

	events, err := repos.OrderEvent.ListUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, first.ID, events[0].ID)

	require.NoError(t, repos.OrderEvent.MarkPublished(ctx, first.ID, time.Now()))
	events, err = repos.OrderEvent.ListUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, second.ID, events[0].ID)
}
