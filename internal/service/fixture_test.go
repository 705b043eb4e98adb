package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/razorpay"
	"github.com/jafarshop/storefront/internal/repository"
	"github.com/jafarshop/storefront/internal/repository/memory"
	apperrors "github.com/jafarshop/storefront/pkg/errors"
)

const testSecret = "test_key_secret"

type fakeGateway struct {
	requests []razorpay.OrderRequest
	intents  map[string]*razorpay.Order
	err      error
}

func (f *fakeGateway) CreateOrder(_ context.Context, req razorpay.OrderRequest) (*razorpay.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, req)
	return f.open(req), nil
}

func (f *fakeGateway) open(req razorpay.OrderRequest) *razorpay.Order {
	if f.intents == nil {
		f.intents = make(map[string]*razorpay.Order)
	}
	intent := &razorpay.Order{
		ID:        fmt.Sprintf("intent_%d", len(f.intents)+1),
		Entity:    "order",
		Amount:    req.Amount,
		AmountDue: req.Amount,
		Currency:  req.Currency,
		Receipt:   req.Receipt,
		Status:    "created",
	}
	f.intents[intent.ID] = intent
	copied := *intent
	return &copied
}

// settle records a captured payment of amount against the intent
func (f *fakeGateway) settle(intentID string, amount int64) {
	intent := f.intents[intentID]
	intent.AmountPaid = amount
	intent.AmountDue = intent.Amount - amount
	intent.Status = "paid"
}

func (f *fakeGateway) FetchOrder(_ context.Context, id string) (*razorpay.Order, error) {
	intent, ok := f.intents[id]
	if !ok {
		return nil, &apperrors.ErrGateway{Op: "fetch order", Err: errors.New("The id provided does not exist")}
	}
	copied := *intent
	return &copied, nil
}

func (f *fakeGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return razorpay.VerifySignature(testSecret, orderID, paymentID, signature)
}

func (f *fakeGateway) KeyID() string    { return "rzp_test_key" }
func (f *fakeGateway) Currency() string { return "INR" }

type fakeInvalidator struct {
	ids []string
}

func (f *fakeInvalidator) InvalidateProducts(_ context.Context, ids ...string) {
	f.ids = append(f.ids, ids...)
}

type fixture struct {
	repos       *repository.Repositories
	events      *memory.OrderEventRepository
	gateway     *fakeGateway
	invalidator *fakeInvalidator
	orders      *OrderService
	payments    *PaymentService
	clock       time.Time
}

var (
	owner    = domain.Requester{UserID: "user-1"}
	stranger = domain.Requester{UserID: "user-2"}
	admin    = domain.Requester{UserID: "admin-1", IsAdmin: true}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	events := memory.NewOrderEventRepository()
	repos := memory.NewRepositories()
	repos.OrderEvent = events

	f := &fixture{
		repos:       repos,
		events:      events,
		gateway:     &fakeGateway{},
		invalidator: &fakeInvalidator{},
		clock:       time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	f.orders = NewOrderService(repos, f.gateway, f.invalidator, nil, zap.NewNop(), 2)
	f.orders.now = func() time.Time { return f.clock }
	f.payments = NewPaymentService(f.gateway, zap.NewNop())
	f.payments.now = func() time.Time { return f.clock }

	f.seedProduct(t, "P1", 100, 5)
	f.seedProduct(t, "P2", 40, 1)
	return f
}

func (f *fixture) seedProduct(t *testing.T, id string, price float64, stock int) {
	t.Helper()
	require.NoError(t, f.repos.Product.Create(context.Background(), &domain.Product{
		ID:           id,
		Name:         "Product " + id,
		Category:     "audio",
		Price:        price,
		CountInStock: stock,
		CreatedAt:    f.clock,
	}))
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.repos.Product.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.CountInStock
}

func (f *fixture) tick() {
	f.clock = f.clock.Add(time.Minute)
}

func signedProof(paymentID, intentID string) *PaymentResultRequest {
	return &PaymentResultRequest{
		PaymentID: paymentID,
		OrderID:   intentID,
		Signature: razorpay.Sign(testSecret, intentID, paymentID),
	}
}

// paidProof opens an intent for total, settles it in full and signs the
// resulting payment
func (f *fixture) paidProof(total float64) *PaymentResultRequest {
	intent := f.gateway.open(razorpay.OrderRequest{Amount: razorpay.ToMinorUnits(total), Currency: "INR"})
	f.gateway.settle(intent.ID, intent.Amount)
	return signedProof("pay_"+intent.ID, intent.ID)
}

func (f *fixture) orderRequest(items ...OrderItemRequest) CreateOrderRequest {
	var itemsPrice float64
	for _, item := range items {
		itemsPrice += item.Price * float64(item.Quantity)
	}
	return CreateOrderRequest{
		OrderItems: items,
		ShippingAddress: ShippingAddressRequest{
			Address:    "12 MG Road",
			City:       "Bengaluru",
			PostalCode: "560001",
			Country:    "India",
		},
		PaymentMethod: "Razorpay",
		ItemsPrice:    itemsPrice,
		TotalPrice:    itemsPrice,
		PaymentResult: f.paidProof(itemsPrice),
	}
}

func item(productID string, price float64, qty int) OrderItemRequest {
	return OrderItemRequest{ProductID: productID, Name: "Product " + productID, Price: price, Quantity: qty}
}

// placeOrder creates a paid order for requester buying qty of P1
func (f *fixture) placeOrder(t *testing.T, requester domain.Requester, qty int) *domain.Order {
	t.Helper()
	f.tick()
	order, err := f.orders.CreateOrder(context.Background(), requester, f.orderRequest(item("P1", 100, qty)))
	require.NoError(t, err)
	return order
}

func (f *fixture) eventTypes() []string {
	var types []string
	for _, e := range f.events.All() {
		types = append(types, e.EventType)
	}
	return types
}
