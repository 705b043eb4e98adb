package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/cart"
	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/razorpay"
	"github.com/jafarshop/storefront/internal/service"
	"github.com/jafarshop/storefront/pkg/errors"
)

// Client talks to the storefront REST API on behalf of a shopper
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a storefront API client. token may be empty until Login.
func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

func (c *Client) Token() string {
	return c.token
}

// Login opens a session and keeps its token for later calls
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	req := service.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/users/login", req, &resp); err != nil {
		return "", err
	}
	c.token = resp.Token
	return resp.Token, nil
}

// Product fetches one catalog entry
func (c *Client) Product(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+id, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Pricing returns the price rules the server checks breakdowns against
func (c *Client) Pricing(ctx context.Context) (cart.PriceRules, error) {
	var rules cart.PriceRules
	if err := c.do(ctx, http.MethodGet, "/config/pricing", nil, &rules); err != nil {
		return cart.PriceRules{}, err
	}
	return rules, nil
}

// CreateIntent opens a payment intent for amount in major currency units
func (c *Client) CreateIntent(ctx context.Context, amount float64) (*razorpay.Order, error) {
	var intent razorpay.Order
	req := service.PaymentIntentRequest{Amount: amount}
	if err := c.do(ctx, http.MethodPost, "/orders/create-razorpay-order", req, &intent); err != nil {
		return nil, err
	}
	if err := razorpay.ValidateOrder(&intent); err != nil {
		return nil, fmt.Errorf("malformed payment intent: %w", err)
	}
	return &intent, nil
}

// PlaceOrder submits the cart together with the gateway's payment confirmation
func (c *Client) PlaceOrder(ctx context.Context, state cart.State, rules cart.PriceRules, confirmation razorpay.PaymentConfirmation) (*domain.Order, error) {
	if err := razorpay.ValidateConfirmation(confirmation); err != nil {
		return nil, &errors.ErrValidation{Message: fmt.Sprintf("invalid payment confirmation: %v", err)}
	}

	prices := state.Prices(rules)
	req := service.CreateOrderRequest{
		ShippingAddress: service.ShippingAddressRequest{
			Address:    state.ShippingAddress.Address,
			City:       state.ShippingAddress.City,
			PostalCode: state.ShippingAddress.PostalCode,
			Country:    state.ShippingAddress.Country,
		},
		PaymentMethod: state.PaymentMethod,
		ItemsPrice:    prices.ItemsPrice,
		TaxPrice:      prices.TaxPrice,
		ShippingPrice: prices.ShippingPrice,
		TotalPrice:    prices.TotalPrice,
		PaymentResult: &service.PaymentResultRequest{
			PaymentID: confirmation.PaymentID,
			OrderID:   confirmation.OrderID,
			Signature: confirmation.Signature,
			Status:    "captured",
		},
	}
	for _, l := range state.Lines {
		req.OrderItems = append(req.OrderItems, service.OrderItemRequest{
			ProductID: l.ProductID,
			Name:      l.Name,
			Image:     l.Image,
			Price:     l.Price,
			Quantity:  l.Quantity,
		})
	}

	var order domain.Order
	if err := c.do(ctx, http.MethodPost, "/orders", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// MyOrders lists the caller's orders, newest first
func (c *Client) MyOrders(ctx context.Context) ([]*domain.Order, error) {
	var orders []*domain.Order
	if err := c.do(ctx, http.MethodGet, "/orders/myorders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CancelOrder cancels one of the caller's orders
func (c *Client) CancelOrder(ctx context.Context, id, reason string) (*domain.Order, error) {
	var order domain.Order
	req := service.CancelOrderRequest{Reason: reason}
	if err := c.do(ctx, http.MethodPut, "/orders/"+id+"/cancel", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Debug("Storefront API error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return apiError(path, resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// apiError turns an {"error": "..."} body back into the matching typed error
func apiError(path string, status int, body []byte) error {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == "" {
		envelope.Error = strings.TrimSpace(string(body))
	}

	switch status {
	case http.StatusBadRequest:
		return &errors.ErrValidation{Message: envelope.Error}
	case http.StatusUnauthorized:
		return &errors.ErrUnauthorized{Message: envelope.Error}
	case http.StatusNotFound:
		return &errors.ErrNotFound{Resource: path}
	default:
		return fmt.Errorf("storefront API error: status %d, body: %s", status, envelope.Error)
	}
}
