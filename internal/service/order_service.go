package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/logging"
	"github.com/jafarshop/storefront/internal/metrics"
	"github.com/jafarshop/storefront/internal/razorpay"
	"github.com/jafarshop/storefront/internal/repository"
	apperrors "github.com/jafarshop/storefront/pkg/errors"
)

const (
	defaultOrdersPageSize = 10
	defaultPaymentStatus  = "completed"
)

// priceTolerance absorbs float rounding in client-computed breakdowns
var priceTolerance = decimal.New(1, -2)

// PaymentVerifier checks the gateway's proof-of-payment signature and reads
// back what the gateway actually settled for an intent
type PaymentVerifier interface {
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	FetchOrder(ctx context.Context, id string) (*razorpay.Order, error)
}

// StockInvalidator is told which products changed stock
type StockInvalidator interface {
	InvalidateProducts(ctx context.Context, ids ...string)
}

type OrderService struct {
	repos    *repository.Repositories
	payments PaymentVerifier
	catalog  StockInvalidator
	metrics  *metrics.Metrics
	logger   *zap.Logger
	pageSize int
	now      func() time.Time
	tracer   trace.Tracer
}

// NewOrderService creates a new order service. catalog and m may be nil.
func NewOrderService(
	repos *repository.Repositories,
	payments PaymentVerifier,
	catalog StockInvalidator,
	m *metrics.Metrics,
	logger *zap.Logger,
	pageSize int,
) *OrderService {
	if pageSize < 1 {
		pageSize = defaultOrdersPageSize
	}
	return &OrderService{
		repos:    repos,
		payments: payments,
		catalog:  catalog,
		metrics:  m,
		logger:   logger,
		pageSize: pageSize,
		now:      time.Now,
		tracer:   otel.Tracer("storefront/service"),
	}
}

// CreateOrder persists a paid order after verifying the payment proof and
// reserving stock for every line
func (s *OrderService) CreateOrder(ctx context.Context, requester domain.Requester, req CreateOrderRequest) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder")
	defer span.End()
	logger := logging.FromContext(ctx, s.logger)

	if len(req.OrderItems) == 0 {
		return nil, &apperrors.ErrValidation{Message: "No order items"}
	}
	for _, item := range req.OrderItems {
		if item.ProductID == "" || item.Quantity < 1 {
			return nil, &apperrors.ErrValidation{Message: "order items need a product and a quantity of at least 1"}
		}
	}
	if err := checkPriceBreakdown(req); err != nil {
		return nil, err
	}

	proof := req.PaymentResult
	if proof == nil || proof.PaymentID == "" || proof.OrderID == "" || proof.Signature == "" {
		return nil, &apperrors.ErrValidation{Message: "payment result is required"}
	}
	if !s.payments.VerifyPaymentSignature(proof.OrderID, proof.PaymentID, proof.Signature) {
		logger.Warn("Rejected payment signature",
			zap.String("user_id", requester.UserID),
			zap.String("gateway_order_id", proof.OrderID),
		)
		return nil, &apperrors.ErrValidation{Message: "invalid payment signature"}
	}
	if err := s.checkSettledAmount(ctx, proof.OrderID, req.TotalPrice); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	status := proof.Status
	if status == "" {
		status = defaultPaymentStatus
	}

	order := &domain.Order{
		ID:     uuid.NewString(),
		UserID: requester.UserID,
		ShippingAddress: domain.ShippingAddress{
			Address:    req.ShippingAddress.Address,
			City:       req.ShippingAddress.City,
			PostalCode: req.ShippingAddress.PostalCode,
			Country:    req.ShippingAddress.Country,
		},
		PaymentMethod: req.PaymentMethod,
		PaymentResult: domain.PaymentResult{
			PaymentID: proof.PaymentID,
			OrderID:   proof.OrderID,
			Signature: proof.Signature,
			Status:    status,
		},
		ItemsPrice:    req.ItemsPrice,
		TaxPrice:      req.TaxPrice,
		ShippingPrice: req.ShippingPrice,
		TotalPrice:    req.TotalPrice,
		IsPaid:        true,
		PaidAt:        &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	order.OrderItems = make([]domain.OrderItem, len(req.OrderItems))
	for i, item := range req.OrderItems {
		order.OrderItems[i] = domain.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Price:     item.Price,
			Quantity:  item.Quantity,
		}
	}
	span.SetAttributes(attribute.String("order.id", order.ID), attribute.Int("order.items", len(order.OrderItems)))

	err := s.repos.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		reserved := make([]domain.OrderItem, 0, len(order.OrderItems))
		for _, item := range order.OrderItems {
			if err := s.repos.Product.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				s.releaseStock(ctx, reserved)
				if errors.Is(err, repository.ErrInsufficientStock) {
					return &apperrors.ErrDomain{Message: fmt.Sprintf("insufficient stock for %s", item.Name)}
				}
				return err
			}
			reserved = append(reserved, item)
		}

		if err := s.repos.Order.Create(ctx, order); err != nil {
			s.releaseStock(ctx, reserved)
			if errors.Is(err, repository.ErrDuplicate) {
				logger.Warn("Rejected reused payment",
					zap.String("user_id", requester.UserID),
					zap.String("gateway_order_id", proof.OrderID),
					zap.String("payment_id", proof.PaymentID),
				)
				return &apperrors.ErrValidation{Message: "payment already used"}
			}
			return err
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.recordEvent(ctx, order.ID, domain.EventOrderCreated, map[string]interface{}{
		"user_id":     order.UserID,
		"total_price": order.TotalPrice,
		"items":       len(order.OrderItems),
		"payment_id":  proof.PaymentID,
	})

	s.invalidate(ctx, order.OrderItems)
	s.metrics.OrderEvent("created")
	logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.Float64("total_price", order.TotalPrice),
	)

	return order, nil
}

// GetOrder returns an order to its owner or an admin
func (s *OrderService) GetOrder(ctx context.Context, requester domain.Requester, id string) (*domain.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !requester.CanAccess(order) {
		return nil, &apperrors.ErrUnauthorized{Message: "not authorized to view this order"}
	}
	return order, nil
}

// ListMyOrders returns every order of the requester, newest first
func (s *OrderService) ListMyOrders(ctx context.Context, requester domain.Requester) ([]*domain.Order, error) {
	return s.repos.Order.ListByUserID(ctx, requester.UserID)
}

// ListOrders returns one fixed-size page of all orders. A positive limit
// returns the newest limit orders instead.
func (s *OrderService) ListOrders(ctx context.Context, requester domain.Requester, page, limit int) (*OrderPage, error) {
	if err := requireAdmin(requester); err != nil {
		return nil, err
	}

	if limit > 0 {
		orders, err := s.repos.Order.List(ctx, limit, 0)
		if err != nil {
			return nil, err
		}
		return &OrderPage{Orders: orders, Page: 1, Pages: 1}, nil
	}

	if page < 1 {
		page = 1
	}
	count, err := s.repos.Order.Count(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.repos.Order.List(ctx, s.pageSize, (page-1)*s.pageSize)
	if err != nil {
		return nil, err
	}

	return &OrderPage{
		Orders: orders,
		Page:   page,
		Pages:  pageCount(count, s.pageSize),
	}, nil
}

// MarkDelivered moves an open order to Delivered
func (s *OrderService) MarkDelivered(ctx context.Context, requester domain.Requester, id string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.MarkDelivered", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if err := requireAdmin(requester); err != nil {
		return nil, err
	}

	order, err := s.repos.Order.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Validate state transition
	status := order.Status()
	if !status.CanTransitionTo(domain.OrderStatusDelivered) {
		return nil, &apperrors.ErrInvalidStateTransition{From: status, To: domain.OrderStatusDelivered}
	}

	now := s.now().UTC()
	err = s.repos.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repos.Order.MarkDelivered(ctx, id, now); err != nil {
			return s.transitionError(ctx, id, domain.OrderStatusDelivered, err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.recordEvent(ctx, id, domain.EventOrderDelivered, map[string]interface{}{
		"from": status,
		"to":   domain.OrderStatusDelivered,
	})

	s.metrics.OrderEvent("delivered")
	logging.FromContext(ctx, s.logger).Info("Order delivered", zap.String("order_id", id))
	return s.repos.Order.GetByID(ctx, id)
}

// CancelOrder cancels an undelivered order on behalf of its owner and returns
// every line's quantity to stock. The cancel transition is claimed before any
// stock moves, so a concurrent delivery either wins outright or loses without
// side effects. Cancelling an already cancelled order finishes any restock a
// previous attempt left behind.
func (s *OrderService) CancelOrder(ctx context.Context, requester domain.Requester, id, reason string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CancelOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()
	logger := logging.FromContext(ctx, s.logger)

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, &apperrors.ErrValidation{Message: "cancellation reason is required"}
	}

	order, err := s.repos.Order.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.IsOwnedBy(requester.UserID) {
		return nil, &apperrors.ErrUnauthorized{Message: "not authorized to cancel this order"}
	}
	if order.IsDelivered {
		return nil, &apperrors.ErrDomain{Message: "Cannot cancel a delivered order"}
	}

	now := s.now().UTC()
	var (
		cancelled  bool
		restockErr error
		restocked  = make([]domain.OrderItem, 0, len(order.OrderItems))
	)
	err = s.repos.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		cancelled, restockErr = false, nil
		restocked = restocked[:0]

		if !order.IsCancelled {
			if err := s.repos.Order.MarkCancelled(ctx, id, reason, now); err != nil {
				if err = s.transitionError(ctx, id, domain.OrderStatusCancelled, err); !isCancelledAlready(err) {
					return err
				}
			} else {
				cancelled = true
			}
		}

		for i, item := range order.OrderItems {
			if item.Restocked {
				continue
			}
			ok, err := s.restockItem(ctx, id, i, item)
			if err != nil {
				restockErr = err
				break
			}
			if ok {
				restocked = append(restocked, item)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.invalidate(ctx, restocked)
	if cancelled {
		s.recordEvent(ctx, id, domain.EventOrderCancelled, map[string]interface{}{
			"reason":    reason,
			"restocked": len(restocked),
		})
		s.metrics.OrderEvent("cancelled")
		logger.Info("Order cancelled",
			zap.String("order_id", id),
			zap.String("reason", reason),
			zap.Int("restocked_items", len(restocked)),
		)
	} else if len(restocked) > 0 {
		logger.Info("Resumed restock of cancelled order",
			zap.String("order_id", id),
			zap.Int("restocked_items", len(restocked)),
		)
	}
	if restockErr != nil {
		span.RecordError(restockErr)
		return nil, fmt.Errorf("order %s is cancelled but restock is incomplete: %w", id, restockErr)
	}
	return s.repos.Order.GetByID(ctx, id)
}

// restockItem claims the line's restock marker and returns its quantity to
// stock. It reports false when the line was already claimed or its product
// no longer exists; the claim is released whenever stock was not returned.
func (s *OrderService) restockItem(ctx context.Context, orderID string, index int, item domain.OrderItem) (bool, error) {
	if err := s.repos.Order.SetItemRestocked(ctx, orderID, index, true); err != nil {
		if errors.Is(err, repository.ErrStateChanged) {
			return false, nil
		}
		return false, err
	}

	err := s.repos.Product.IncrementStock(ctx, item.ProductID, item.Quantity)
	if err == nil {
		return true, nil
	}
	if releaseErr := s.repos.Order.SetItemRestocked(ctx, orderID, index, false); releaseErr != nil {
		logging.FromContext(ctx, s.logger).Error("Failed to release restock claim",
			zap.String("order_id", orderID),
			zap.Int("item", index),
			zap.Error(releaseErr),
		)
	}
	if apperrors.IsNotFound(err) {
		logging.FromContext(ctx, s.logger).Warn("Skipping restock of missing product",
			zap.String("order_id", orderID),
			zap.String("product_id", item.ProductID),
		)
		return false, nil
	}
	return false, err
}

func isCancelledAlready(err error) bool {
	var transition *apperrors.ErrInvalidStateTransition
	return errors.As(err, &transition) && transition.From == domain.OrderStatusCancelled
}

// UpdateTracking replaces the shipping partner and tracking id
func (s *OrderService) UpdateTracking(ctx context.Context, requester domain.Requester, id string, req TrackingRequest) (*domain.Order, error) {
	if err := requireAdmin(requester); err != nil {
		return nil, err
	}

	order, err := s.repos.Order.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.IsCancelled {
		return nil, &apperrors.ErrInvalidStateTransition{From: domain.OrderStatusCancelled, To: domain.OrderStatusShipped}
	}

	if err := s.repos.Order.UpdateTracking(ctx, id, req.ShippingPartner, req.TrackingID); err != nil {
		return nil, err
	}

	s.recordEvent(ctx, id, domain.EventTrackingUpdate, map[string]interface{}{
		"shipping_partner": req.ShippingPartner,
		"tracking_id":      req.TrackingID,
	})

	return s.repos.Order.GetByID(ctx, id)
}

// Summary returns the dashboard totals
func (s *OrderService) Summary(ctx context.Context, requester domain.Requester) (*domain.Summary, error) {
	if err := requireAdmin(requester); err != nil {
		return nil, err
	}

	total, err := s.repos.Order.TotalSales(ctx)
	if err != nil {
		return nil, err
	}
	numOrders, err := s.repos.Order.Count(ctx)
	if err != nil {
		return nil, err
	}
	numUsers, err := s.repos.User.Count(ctx)
	if err != nil {
		return nil, err
	}
	numProducts, err := s.repos.Product.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.Summary{
		TotalSales:  decimal.NewFromFloat(total).Round(2).InexactFloat64(),
		NumOrders:   numOrders,
		NumUsers:    numUsers,
		NumProducts: numProducts,
	}, nil
}

// SalesData returns the daily sales series, oldest day first
func (s *OrderService) SalesData(ctx context.Context, requester domain.Requester) ([]domain.DailySales, error) {
	if err := requireAdmin(requester); err != nil {
		return nil, err
	}
	return s.repos.Order.DailySales(ctx)
}

// transitionError turns a lost conditional update into the state it lost to
func (s *OrderService) transitionError(ctx context.Context, id string, to domain.OrderStatus, err error) error {
	if !errors.Is(err, repository.ErrStateChanged) {
		return err
	}
	current, getErr := s.repos.Order.GetByID(ctx, id)
	if getErr != nil {
		return getErr
	}
	return &apperrors.ErrInvalidStateTransition{From: current.Status(), To: to}
}

// checkSettledAmount requires the gateway to report the intent as paid for
// exactly the order total
func (s *OrderService) checkSettledAmount(ctx context.Context, intentID string, total float64) error {
	intent, err := s.payments.FetchOrder(ctx, intentID)
	if err != nil {
		return err
	}
	if want := razorpay.ToMinorUnits(total); intent.AmountPaid != want {
		logging.FromContext(ctx, s.logger).Warn("Payment does not cover order total",
			zap.String("gateway_order_id", intentID),
			zap.Int64("amount_paid", intent.AmountPaid),
			zap.Int64("total", want),
		)
		return &apperrors.ErrValidation{Message: "payment amount does not match the order total"}
	}
	return nil
}

// releaseStock undoes reservations made before a failed order insert
func (s *OrderService) releaseStock(ctx context.Context, items []domain.OrderItem) {
	for _, item := range items {
		if err := s.repos.Product.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			logging.FromContext(ctx, s.logger).Error("Failed to release reserved stock",
				zap.String("product_id", item.ProductID),
				zap.Int("qty", item.Quantity),
				zap.Error(err),
			)
		}
	}
}

func (s *OrderService) recordEvent(ctx context.Context, orderID, eventType string, data map[string]interface{}) {
	event := &domain.OrderEvent{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		EventType: eventType,
		EventData: data,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repos.OrderEvent.Create(ctx, event); err != nil {
		logging.FromContext(ctx, s.logger).Warn("Failed to record order event",
			zap.String("order_id", orderID),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func (s *OrderService) invalidate(ctx context.Context, items []domain.OrderItem) {
	if s.catalog == nil || len(items) == 0 {
		return
	}
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	s.catalog.InvalidateProducts(ctx, ids...)
}

func checkPriceBreakdown(req CreateOrderRequest) error {
	items := decimal.Zero
	for _, item := range req.OrderItems {
		items = items.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if items.Sub(decimal.NewFromFloat(req.ItemsPrice)).Abs().GreaterThan(priceTolerance) {
		return &apperrors.ErrValidation{Message: "itemsPrice does not match the order items"}
	}

	total := decimal.NewFromFloat(req.ItemsPrice).
		Add(decimal.NewFromFloat(req.TaxPrice)).
		Add(decimal.NewFromFloat(req.ShippingPrice))
	if total.Sub(decimal.NewFromFloat(req.TotalPrice)).Abs().GreaterThan(priceTolerance) {
		return &apperrors.ErrValidation{Message: "totalPrice does not match the price breakdown"}
	}
	return nil
}

func requireAdmin(requester domain.Requester) error {
	if !requester.IsAdmin {
		return &apperrors.ErrUnauthorized{Message: "not authorized as an admin"}
	}
	return nil
}

func pageCount(total int64, size int) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
