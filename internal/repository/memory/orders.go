package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/repository"
	"github.com/jafarshop/storefront/pkg/errors"
)

type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	ids    []string // insertion order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]*domain.Order)}
}

func (r *OrderRepository) Create(_ context.Context, order *domain.Order) error {
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return repository.ErrDuplicate
	}
	if ref := order.PaymentResult.OrderID; ref != "" {
		for _, o := range r.orders {
			if o.PaymentResult.OrderID == ref {
				return repository.ErrDuplicate
			}
		}
	}
	r.orders[order.ID] = cloneOrder(order)
	r.ids = append(r.ids, order.ID)
	return nil
}

func (r *OrderRepository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id}
	}
	return cloneOrder(order), nil
}

func (r *OrderRepository) ListByUserID(_ context.Context, userID string) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.newestFirst(func(o *domain.Order) bool { return o.UserID == userID }), nil
}

func (r *OrderRepository) List(_ context.Context, limit, offset int) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.newestFirst(func(*domain.Order) bool { return true })
	if offset >= len(all) {
		return []*domain.Order{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *OrderRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.orders)), nil
}

func (r *OrderRepository) MarkDelivered(_ context.Context, id string, at time.Time) error {
	return r.update(id, func(o *domain.Order) error {
		if o.IsDelivered || o.IsCancelled {
			return repository.ErrStateChanged
		}
		o.IsDelivered = true
		o.DeliveredAt = &at
		o.UpdatedAt = at
		return nil
	})
}

func (r *OrderRepository) SetItemRestocked(_ context.Context, id string, index int, restocked bool) error {
	return r.update(id, func(o *domain.Order) error {
		if index < 0 || index >= len(o.OrderItems) {
			return fmt.Errorf("order %s has no item %d", id, index)
		}
		if o.OrderItems[index].Restocked == restocked {
			return repository.ErrStateChanged
		}
		o.OrderItems[index].Restocked = restocked
		return nil
	})
}

func (r *OrderRepository) MarkCancelled(_ context.Context, id, reason string, at time.Time) error {
	return r.update(id, func(o *domain.Order) error {
		if o.IsDelivered || o.IsCancelled {
			return repository.ErrStateChanged
		}
		o.IsCancelled = true
		o.CancelledAt = &at
		o.CancellationReason = reason
		o.UpdatedAt = at
		return nil
	})
}

func (r *OrderRepository) UpdateTracking(_ context.Context, id, shippingPartner, trackingID string) error {
	return r.update(id, func(o *domain.Order) error {
		o.ShippingPartner = shippingPartner
		o.TrackingID = trackingID
		o.UpdatedAt = time.Now()
		return nil
	})
}

func (r *OrderRepository) TotalSales(_ context.Context) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total float64
	for _, o := range r.orders {
		if o.IsPaid {
			total += o.TotalPrice
		}
	}
	return total, nil
}

func (r *OrderRepository) DailySales(_ context.Context) ([]domain.DailySales, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byDay := make(map[string]float64)
	for _, o := range r.orders {
		if !o.IsPaid || o.PaidAt == nil {
			continue
		}
		byDay[o.PaidAt.UTC().Format("2006-01-02")] += o.TotalPrice
	}

	out := make([]domain.DailySales, 0, len(byDay))
	for day, total := range byDay {
		out = append(out, domain.DailySales{Date: day, TotalSales: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *OrderRepository) update(id string, fn func(o *domain.Order) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: id}
	}
	next := cloneOrder(order)
	if err := fn(next); err != nil {
		return err
	}
	r.orders[id] = next
	return nil
}

// newestFirst must be called with r.mu held
func (r *OrderRepository) newestFirst(keep func(*domain.Order) bool) []*domain.Order {
	out := make([]*domain.Order, 0, len(r.ids))
	for i := len(r.ids) - 1; i >= 0; i-- {
		if o := r.orders[r.ids[i]]; keep(o) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func cloneOrder(order *domain.Order) *domain.Order {
	if order == nil {
		return nil
	}
	clone := *order
	clone.OrderItems = append([]domain.OrderItem(nil), order.OrderItems...)
	return &clone
}
