package service

import (
	"github.com/jafarshop/storefront/internal/domain"
)

// CreateOrderRequest represents the order creation payload sent after payment
type CreateOrderRequest struct {
	OrderItems      []OrderItemRequest     `json:"orderItems" binding:"dive"`
	ShippingAddress ShippingAddressRequest `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod" binding:"required"`
	ItemsPrice      float64                `json:"itemsPrice" binding:"min=0"`
	TaxPrice        float64                `json:"taxPrice" binding:"min=0"`
	ShippingPrice   float64                `json:"shippingPrice" binding:"min=0"`
	TotalPrice      float64                `json:"totalPrice" binding:"min=0"`
	PaymentResult   *PaymentResultRequest  `json:"paymentResult"`
}

type OrderItemRequest struct {
	ProductID string  `json:"product" binding:"required"`
	Name      string  `json:"name" binding:"required"`
	Image     string  `json:"image"`
	Price     float64 `json:"price" binding:"min=0"`
	Quantity  int     `json:"qty" binding:"required,min=1"`
}

type ShippingAddressRequest struct {
	Address    string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

// PaymentResultRequest is the gateway's proof-of-payment triple
type PaymentResultRequest struct {
	PaymentID string `json:"id"`
	OrderID   string `json:"orderId"`
	Signature string `json:"signature"`
	Status    string `json:"status"`
}

type PaymentIntentRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

type TrackingRequest struct {
	ShippingPartner string `json:"shippingPartner"`
	TrackingID      string `json:"trackingId"`
}

// OrderPage is one page of the admin order list
type OrderPage struct {
	Orders []*domain.Order
	Page   int
	Pages  int
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateProductRequest struct {
	Name         string  `json:"name" binding:"required"`
	Image        string  `json:"image"`
	Brand        string  `json:"brand"`
	Category     string  `json:"category" binding:"required"`
	Description  string  `json:"description"`
	Price        float64 `json:"price" binding:"min=0"`
	CountInStock int     `json:"countInStock" binding:"min=0"`
}

type SetStockRequest struct {
	CountInStock *int `json:"countInStock" binding:"required,min=0"`
}

// ProductPage is one page of the public catalog
type ProductPage struct {
	Products []*domain.Product `json:"products"`
	Page     int               `json:"page"`
	Pages    int               `json:"pages"`
	Total    int64             `json:"total"`
}
