package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/logging"
	"github.com/jafarshop/storefront/internal/razorpay"
	apperrors "github.com/jafarshop/storefront/pkg/errors"
)

// PaymentGateway opens payment intents with the external gateway
type PaymentGateway interface {
	PaymentVerifier
	CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error)
	KeyID() string
	Currency() string
}

type PaymentService struct {
	gateway PaymentGateway
	logger  *zap.Logger
	now     func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(gateway PaymentGateway, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		gateway: gateway,
		logger:  logger,
		now:     time.Now,
	}
}

// CreatePaymentIntent opens a gateway intent for amount, given in major units
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, amount float64) (*razorpay.Order, error) {
	minor := razorpay.ToMinorUnits(amount)
	if minor <= 0 {
		return nil, &apperrors.ErrValidation{Message: "amount must be positive"}
	}

	receipt := razorpay.NewReceipt(s.now())
	intent, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		Amount:   minor,
		Currency: s.gateway.Currency(),
		Receipt:  receipt,
	})
	if err != nil {
		logging.FromContext(ctx, s.logger).Error("Failed to create payment intent",
			zap.Int64("amount", minor),
			zap.String("receipt", receipt),
			zap.Error(err),
		)
		return nil, err
	}

	logging.FromContext(ctx, s.logger).Info("Payment intent created",
		zap.String("intent_id", intent.ID),
		zap.Int64("amount", intent.Amount),
	)
	return intent, nil
}

// KeyID is the public key the checkout widget is opened with
func (s *PaymentService) KeyID() string {
	return s.gateway.KeyID()
}

func (s *PaymentService) Currency() string {
	return s.gateway.Currency()
}
