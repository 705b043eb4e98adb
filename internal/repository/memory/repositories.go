package memory

import (
	"context"

	"github.com/jafarshop/storefront/internal/repository"
)

// Transactor runs fn without isolation; the in-memory stores only guarantee
// per-call atomicity.
type Transactor struct{}

func (Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// NewRepositories creates in-memory repositories
func NewRepositories() *repository.Repositories {
	return &repository.Repositories{
		Order:      NewOrderRepository(),
		Product:    NewProductRepository(),
		User:       NewUserRepository(),
		OrderEvent: NewOrderEventRepository(),
		Tx:         Transactor{},
	}
}
