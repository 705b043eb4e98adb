package client

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/cart"
	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/razorpay"
	"github.com/jafarshop/storefront/internal/service"
	"github.com/jafarshop/storefront/pkg/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_LoginKeepsToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/login", func(w http.ResponseWriter, r *http.Request) {
		var req service.LoginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "secret1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": "tok_1"})
	})
	mux.HandleFunc("/orders/myorders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok_1", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, []domain.Order{{ID: "o1"}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL+"/", "", zap.NewNop())

	_, err := c.Login(context.Background(), "asha@example.com", "wrong")
	var unauth *errors.ErrUnauthorized
	require.True(t, stderrors.As(err, &unauth))
	assert.Equal(t, "invalid email or password", unauth.Message)
	assert.Empty(t, c.Token())

	token, err := c.Login(context.Background(), "asha@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok_1", token)

	orders, err := c.MyOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "o1", orders[0].ID)
}

func TestClient_CreateIntentRejectsMalformedIntent(t *testing.T) {
	var malformed atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req service.PaymentIntentRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		intent := razorpay.Order{ID: "intent_1", Amount: razorpay.ToMinorUnits(req.Amount), Currency: "INR"}
		if malformed.Load() {
			intent.ID = ""
		}
		writeJSON(w, http.StatusOK, intent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok_1", zap.NewNop())

	intent, err := c.CreateIntent(context.Background(), 236)
	require.NoError(t, err)
	assert.Equal(t, "intent_1", intent.ID)
	assert.Equal(t, int64(23600), intent.Amount)

	malformed.Store(true)
	_, err = c.CreateIntent(context.Background(), 236)
	assert.ErrorContains(t, err, "malformed payment intent")
}

func TestClient_PlaceOrderSendsCartAndBreakdown(t *testing.T) {
	var got service.CreateOrderRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/config/pricing", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, cart.DefaultPriceRules)
	})
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusCreated, domain.Order{ID: "o1", IsPaid: true, TotalPrice: got.TotalPrice})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL, "tok_1", zap.NewNop())
	rules, err := c.Pricing(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cart.DefaultPriceRules, rules)

	state := cart.DefaultState()
	state.Lines = []cart.Line{{ProductID: "P2", Name: "Cable", Price: 40, CountInStock: 3, Quantity: 2}}
	state.ShippingAddress = cart.ShippingAddress{Address: "12 MG Road", City: "Bengaluru", PostalCode: "560001", Country: "India"}

	confirmation := razorpay.PaymentConfirmation{
		PaymentID: "pay_1",
		OrderID:   "intent_1",
		Signature: razorpay.Sign("secret", "intent_1", "pay_1"),
	}
	order, err := c.PlaceOrder(context.Background(), state, rules, confirmation)
	require.NoError(t, err)
	assert.Equal(t, "o1", order.ID)

	require.Len(t, got.OrderItems, 1)
	assert.Equal(t, 2, got.OrderItems[0].Quantity)
	assert.Equal(t, 80.0, got.ItemsPrice)
	assert.Equal(t, 14.4, got.TaxPrice)
	assert.Equal(t, 10.0, got.ShippingPrice)
	assert.Equal(t, 104.4, got.TotalPrice)
	assert.Equal(t, "Razorpay", got.PaymentMethod)
	require.NotNil(t, got.PaymentResult)
	assert.Equal(t, "pay_1", got.PaymentResult.PaymentID)
}

func TestClient_PlaceOrderRejectsBadConfirmation(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok_1", zap.NewNop())
	_, err := c.PlaceOrder(context.Background(), cart.DefaultState(), cart.DefaultPriceRules,
		razorpay.PaymentConfirmation{PaymentID: "pay_1", OrderID: "intent_1", Signature: "not-hex"})

	var validation *errors.ErrValidation
	assert.True(t, stderrors.As(err, &validation))
	assert.Zero(t, calls.Load())
}

func TestClient_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found: P9"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", zap.NewNop())
	_, err := c.Product(context.Background(), "P9")
	assert.True(t, errors.IsNotFound(err))
}
