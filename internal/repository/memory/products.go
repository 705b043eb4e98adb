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

type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[string]*domain.Product)}
}

func (r *ProductRepository) Create(_ context.Context, product *domain.Product) error {
	if product == nil || product.ID == "" {
		return fmt.Errorf("product repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[product.ID]; exists {
		return repository.ErrDuplicate
	}
	clone := *product
	r.products[product.ID] = &clone
	return nil
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id}
	}
	clone := *p
	return &clone, nil
}

func (r *ProductRepository) List(_ context.Context, filter repository.ProductFilter) ([]*domain.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		clone := *p
		matched = append(matched, &clone)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch filter.Sort {
		case repository.SortPriceAsc:
			if a.Price != b.Price {
				return a.Price < b.Price
			}
		case repository.SortPriceDesc:
			if a.Price != b.Price {
				return a.Price > b.Price
			}
		case repository.SortRating:
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})

	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return []*domain.Product{}, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (r *ProductRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.products)), nil
}

func (r *ProductRepository) DecrementStock(_ context.Context, id string, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "product", ID: id}
	}
	if p.CountInStock < qty {
		return repository.ErrInsufficientStock
	}
	p.CountInStock -= qty
	p.UpdatedAt = time.Now()
	return nil
}

func (r *ProductRepository) IncrementStock(_ context.Context, id string, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "product", ID: id}
	}
	p.CountInStock += qty
	p.UpdatedAt = time.Now()
	return nil
}

func (r *ProductRepository) SetStock(_ context.Context, id string, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "product", ID: id}
	}
	p.CountInStock = count
	p.UpdatedAt = time.Now()
	return nil
}
