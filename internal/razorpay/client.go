package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/config"
	"github.com/jafarshop/storefront/internal/metrics"
	"github.com/jafarshop/storefront/pkg/errors"
)

type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	currency   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	validate   *validator.Validate
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewClient creates a new Razorpay REST client
func NewClient(cfg config.RazorpayConfig, m *metrics.Metrics, logger *zap.Logger) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")

	c := &Client{
		baseURL:   baseURL,
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		currency:  cfg.Currency,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		validate: validator.New(),
		metrics:  m,
		logger:   logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "razorpay",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c
}

// KeyID is the public key the checkout widget is opened with
func (c *Client) KeyID() string {
	return c.keyID
}

func (c *Client) Currency() string {
	return c.currency
}

// CreateOrder opens a payment intent for amount minor units
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	const op = "create_order"

	if err := c.validate.Struct(req); err != nil {
		return nil, &errors.ErrValidation{Message: fmt.Sprintf("invalid payment intent request: %v", err)}
	}

	body, err := c.execute(ctx, op, http.MethodPost, "/v1/orders", req)
	if err != nil {
		return nil, err
	}
	return c.decodeOrder(op, body)
}

// FetchOrder returns the gateway's view of an existing intent
func (c *Client) FetchOrder(ctx context.Context, id string) (*Order, error) {
	const op = "fetch_order"

	if id == "" {
		return nil, &errors.ErrValidation{Message: "payment intent id is required"}
	}
	body, err := c.execute(ctx, op, http.MethodGet, "/v1/orders/"+id, nil)
	if err != nil {
		return nil, err
	}
	return c.decodeOrder(op, body)
}

// VerifyPaymentSignature checks the signature the checkout widget returned
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return VerifySignature(c.keySecret, orderID, paymentID, signature)
}

func (c *Client) decodeOrder(op string, body []byte) (*Order, error) {
	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, &errors.ErrGateway{Op: op, Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}
	if err := c.validate.Struct(order); err != nil {
		return nil, &errors.ErrGateway{Op: op, Err: fmt.Errorf("unexpected response: %w", err)}
	}
	return &order, nil
}

// execute sends one request through the circuit breaker. Failures are never retried.
func (c *Client) execute(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, method, path, payload)
	})
	c.metrics.GatewayRequest(op, err)
	if err != nil {
		c.logger.Error("Razorpay request failed", zap.String("op", op), zap.Error(err))
		return nil, &errors.ErrGateway{Op: op, Err: err}
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Description != "" {
			return nil, fmt.Errorf("razorpay API error: status %d, %s: %s", resp.StatusCode, apiErr.Error.Code, apiErr.Error.Description)
		}
		return nil, fmt.Errorf("razorpay API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
