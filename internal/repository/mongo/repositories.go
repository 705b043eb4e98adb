package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/repository"
)

type transactor struct {
	client  *mongo.Client
	enabled bool
	logger  *zap.Logger
}

// WithinTransaction runs fn in a multi-document transaction. Transactions need a
// replica set; when disabled fn runs directly and callers rely on idempotent steps.
func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.enabled {
		return fn(ctx)
	}

	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil {
		t.logger.Warn("Transaction aborted", zap.Error(err))
	}
	return err
}

// NewRepositories creates the document-store repositories. Users live in
// Postgres and are attached by the caller.
func NewRepositories(db *mongo.Database, transactions bool, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		Order:      NewOrderRepository(db),
		Product:    NewProductRepository(db),
		OrderEvent: NewOrderEventRepository(db),
		Tx: &transactor{
			client:  db.Client(),
			enabled: transactions,
			logger:  logger,
		},
	}
}
