package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jafarshop/storefront/internal/domain"
)

var (
	// ErrInsufficientStock is returned when a decrement would drive stock below zero
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStateChanged is returned when a conditional order update matched nothing
	// because the order moved to another state concurrently
	ErrStateChanged = errors.New("order state changed concurrently")
	// ErrDuplicate is returned when a unique key already exists
	ErrDuplicate = errors.New("duplicate key")
)

// Repositories groups every store the services depend on
type Repositories struct {
	Order      OrderRepository
	Product    ProductRepository
	User       UserRepository
	OrderEvent OrderEventRepository
	Tx         Transactor
}

type OrderRepository interface {
	// Create returns ErrDuplicate when the id or the gateway payment
	// (paymentResult.orderId) is already recorded on another order
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// ListByUserID returns every order of a user, newest first
	ListByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	// List returns orders newest first. limit <= 0 means no limit.
	List(ctx context.Context, limit, offset int) ([]*domain.Order, error)
	Count(ctx context.Context) (int64, error)
	// MarkDelivered only applies to orders that are neither delivered nor cancelled
	MarkDelivered(ctx context.Context, id string, at time.Time) error
	// SetItemRestocked flips one line's restock marker. It returns
	// ErrStateChanged when the marker already holds the requested value.
	SetItemRestocked(ctx context.Context, id string, index int, restocked bool) error
	// MarkCancelled only applies to orders that are neither delivered nor cancelled
	MarkCancelled(ctx context.Context, id, reason string, at time.Time) error
	UpdateTracking(ctx context.Context, id, shippingPartner, trackingID string) error
	// TotalSales sums totalPrice over paid orders
	TotalSales(ctx context.Context) (float64, error)
	// DailySales groups paid orders by UTC day of paidAt, ascending
	DailySales(ctx context.Context) ([]domain.DailySales, error)
}

// ProductFilter selects a page of the catalog
type ProductFilter struct {
	Category string
	Sort     string
	Limit    int
	Offset   int
}

// Product sort orders
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
)

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// List returns one page and the total number of matching products
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int64, error)
	Count(ctx context.Context) (int64, error)
	// DecrementStock subtracts qty only if at least qty is in stock
	DecrementStock(ctx context.Context, id string, qty int) error
	IncrementStock(ctx context.Context, id string, qty int) error
	SetStock(ctx context.Context, id string, count int) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Count(ctx context.Context) (int64, error)
}

type OrderEventRepository interface {
	Create(ctx context.Context, event *domain.OrderEvent) error
	// ListUnpublished returns up to limit events not yet published, oldest first
	ListUnpublished(ctx context.Context, limit int) ([]*domain.OrderEvent, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
}

// Transactor runs fn atomically when the backing store supports it. Stores
// without transactions run fn directly.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
