package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jafarshop/storefront/internal/cache"
	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/logging"
	"github.com/jafarshop/storefront/internal/repository"
	apperrors "github.com/jafarshop/storefront/pkg/errors"
)

const productsPageSize = 12

// ProductCache is the read-through cache in front of the product repository
type ProductCache interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	Set(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, ids ...string) error
}

type CatalogService struct {
	repos  *repository.Repositories
	cache  ProductCache
	logger *zap.Logger
	sfg    singleflight.Group // Prevents cache stampede
}

// NewCatalogService creates a new catalog service. productCache may be nil.
func NewCatalogService(repos *repository.Repositories, productCache ProductCache, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		repos:  repos,
		cache:  productCache,
		logger: logger,
	}
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if s.cache == nil {
		return s.repos.Product.GetByID(ctx, id)
	}

	// the lookup is shared with concurrent callers, so it must outlive this one
	sfCtx := context.WithoutCancel(ctx)
	v, err, _ := s.sfg.Do(id, func() (interface{}, error) {
		ctx := sfCtx
		product, err := s.cache.Get(ctx, id)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logging.FromContext(ctx, s.logger).Warn("Product cache read failed", zap.String("product_id", id), zap.Error(err))
		}

		product, err = s.repos.Product.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, product); err != nil {
			logging.FromContext(ctx, s.logger).Warn("Product cache write failed", zap.String("product_id", id), zap.Error(err))
		}
		return product, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Product), nil
}

// ListProducts returns one page of the catalog
func (s *CatalogService) ListProducts(ctx context.Context, page int, category, sort string) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	switch sort {
	case "", repository.SortNewest, repository.SortPriceAsc, repository.SortPriceDesc, repository.SortRating:
	default:
		return nil, &apperrors.ErrValidation{Message: "unknown sort order " + sort}
	}

	products, total, err := s.repos.Product.List(ctx, repository.ProductFilter{
		Category: category,
		Sort:     sort,
		Limit:    productsPageSize,
		Offset:   (page - 1) * productsPageSize,
	})
	if err != nil {
		return nil, err
	}

	return &ProductPage{
		Products: products,
		Page:     page,
		Pages:    pageCount(total, productsPageSize),
		Total:    total,
	}, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, requester domain.Requester, req CreateProductRequest) (*domain.Product, error) {
	if err := requireAdmin(requester); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Image:        req.Image,
		Brand:        req.Brand,
		Category:     req.Category,
		Description:  req.Description,
		Price:        req.Price,
		CountInStock: req.CountInStock,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repos.Product.Create(ctx, product); err != nil {
		return nil, err
	}

	logging.FromContext(ctx, s.logger).Info("Product created", zap.String("product_id", product.ID))
	return product, nil
}

// SetStock overwrites the stock count of a product
func (s *CatalogService) SetStock(ctx context.Context, requester domain.Requester, id string, count int) (*domain.Product, error) {
	if err := requireAdmin(requester); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, &apperrors.ErrValidation{Message: "countInStock cannot be negative"}
	}

	if err := s.repos.Product.SetStock(ctx, id, count); err != nil {
		return nil, err
	}
	s.InvalidateProducts(ctx, id)

	return s.repos.Product.GetByID(ctx, id)
}

// InvalidateProducts drops cached copies after a stock change
func (s *CatalogService) InvalidateProducts(ctx context.Context, ids ...string) {
	if s.cache == nil || len(ids) == 0 {
		return
	}
	if err := s.cache.Delete(ctx, ids...); err != nil {
		logging.FromContext(ctx, s.logger).Warn("Product cache invalidation failed",
			zap.Strings("product_ids", ids),
			zap.Error(err),
		)
	}
}
