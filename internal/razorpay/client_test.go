package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/config"
	apperrors "github.com/jafarshop/storefront/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "secret",
		BaseURL:   srv.URL + "/",
		Currency:  "INR",
	}, nil, zap.NewNop())
}

func TestCreateOrder_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "secret", pass)

		var req OrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(20000), req.Amount)
		assert.Equal(t, "receipt_1", req.Receipt)

		_ = json.NewEncoder(w).Encode(Order{ID: "intent_1", Entity: "order", Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt, Status: "created"})
	})

	order, err := client.CreateOrder(context.Background(), OrderRequest{Amount: 20000, Currency: "INR", Receipt: "receipt_1"})
	require.NoError(t, err)
	assert.Equal(t, "intent_1", order.ID)
	assert.Equal(t, int64(20000), order.Amount)
	assert.Equal(t, "INR", order.Currency)
}

func TestCreateOrder_RejectedCredentials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`))
	})

	_, err := client.CreateOrder(context.Background(), OrderRequest{Amount: 100, Currency: "INR", Receipt: "r"})

	var gw *apperrors.ErrGateway
	require.True(t, errors.As(err, &gw))
	assert.Contains(t, err.Error(), "Authentication failed")
	assert.Equal(t, http.StatusBadGateway, apperrors.HTTPStatus(err))
}

func TestCreateOrder_MalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"entity":"order","amount":100,"currency":"INR"}`))
	})

	_, err := client.CreateOrder(context.Background(), OrderRequest{Amount: 100, Currency: "INR", Receipt: "r"})

	var gw *apperrors.ErrGateway
	assert.True(t, errors.As(err, &gw), "missing id must be rejected at the boundary")
}

func TestCreateOrder_InvalidRequest(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := client.CreateOrder(context.Background(), OrderRequest{Amount: 0, Currency: "INR", Receipt: "r"})

	var v *apperrors.ErrValidation
	assert.True(t, errors.As(err, &v))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 7; i++ {
		_, err := client.FetchOrder(context.Background(), "intent_1")
		require.Error(t, err)
	}

	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestFetchOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/orders/intent_9", r.URL.Path)
		_ = json.NewEncoder(w).Encode(Order{ID: "intent_9", Amount: 500, Currency: "INR", Status: "paid", AmountPaid: 500})
	})

	order, err := client.FetchOrder(context.Background(), "intent_9")
	require.NoError(t, err)
	assert.Equal(t, "paid", order.Status)
}

func TestSignature(t *testing.T) {
	sig := Sign("secret", "intent_1", "pay_1")

	assert.Len(t, sig, 64)
	assert.True(t, VerifySignature("secret", "intent_1", "pay_1", sig))
	assert.False(t, VerifySignature("secret", "intent_1", "pay_2", sig))
	assert.False(t, VerifySignature("other", "intent_1", "pay_1", sig))
	assert.False(t, VerifySignature("", "intent_1", "pay_1", sig))
	assert.False(t, VerifySignature("secret", "intent_1", "pay_1", ""))
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(20000), ToMinorUnits(200.00))
	assert.Equal(t, int64(23600), ToMinorUnits(236))
	assert.Equal(t, int64(1999), ToMinorUnits(19.99))
	assert.Equal(t, int64(1001), ToMinorUnits(10.005))
	assert.InDelta(t, 19.99, FromMinorUnits(1999), 1e-9)
}

func TestValidateConfirmation(t *testing.T) {
	ok := PaymentConfirmation{PaymentID: "pay_1", OrderID: "intent_1", Signature: Sign("s", "intent_1", "pay_1")}
	assert.NoError(t, ValidateConfirmation(ok))

	assert.Error(t, ValidateConfirmation(PaymentConfirmation{PaymentID: "pay_1", OrderID: "intent_1", Signature: "not-hex"}))
	assert.Error(t, ValidateConfirmation(PaymentConfirmation{OrderID: "intent_1", Signature: "ab"}))
	assert.Error(t, ValidateOrder(nil))
}

func TestNewReceipt(t *testing.T) {
	assert.Equal(t, "receipt_1700000000000", NewReceipt(time.UnixMilli(1700000000000)))
}
