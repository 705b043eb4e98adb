package domain

import (
	"time"
)

// ShippingAddress is the free-form postal address captured at checkout
type ShippingAddress struct {
	Address    string `json:"address" bson:"address"`
	City       string `json:"city" bson:"city"`
	PostalCode string `json:"postalCode" bson:"postalCode"`
	Country    string `json:"country" bson:"country"`
}

// PaymentResult is the gateway's proof-of-payment stored on the order
type PaymentResult struct {
	PaymentID string `json:"id" bson:"id"`
	OrderID   string `json:"orderId" bson:"orderId"`
	Signature string `json:"signature" bson:"signature"`
	Status    string `json:"status" bson:"status"`
}

// OrderItem is a snapshot of a cart line at purchase time
type OrderItem struct {
	ProductID string  `json:"product" bson:"product"`
	Name      string  `json:"name" bson:"name"`
	Image     string  `json:"image" bson:"image"`
	Price     float64 `json:"price" bson:"price"`
	Quantity  int     `json:"qty" bson:"qty"`
	Restocked bool    `json:"-" bson:"restocked"`
}

// Order represents a completed purchase
type Order struct {
	ID                 string          `json:"_id" bson:"_id"`
	UserID             string          `json:"user" bson:"user"`
	OrderItems         []OrderItem     `json:"orderItems" bson:"orderItems"`
	ShippingAddress    ShippingAddress `json:"shippingAddress" bson:"shippingAddress"`
	PaymentMethod      string          `json:"paymentMethod" bson:"paymentMethod"`
	PaymentResult      PaymentResult   `json:"paymentResult" bson:"paymentResult"`
	ItemsPrice         float64         `json:"itemsPrice" bson:"itemsPrice"`
	TaxPrice           float64         `json:"taxPrice" bson:"taxPrice"`
	ShippingPrice      float64         `json:"shippingPrice" bson:"shippingPrice"`
	TotalPrice         float64         `json:"totalPrice" bson:"totalPrice"`
	IsPaid             bool            `json:"isPaid" bson:"isPaid"`
	PaidAt             *time.Time      `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	IsDelivered        bool            `json:"isDelivered" bson:"isDelivered"`
	DeliveredAt        *time.Time      `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
	IsCancelled        bool            `json:"isCancelled" bson:"isCancelled"`
	CancelledAt        *time.Time      `json:"cancelledAt,omitempty" bson:"cancelledAt,omitempty"`
	CancellationReason string          `json:"cancellationReason,omitempty" bson:"cancellationReason,omitempty"`
	ShippingPartner    string          `json:"shippingPartner,omitempty" bson:"shippingPartner,omitempty"`
	TrackingID         string          `json:"trackingId,omitempty" bson:"trackingId,omitempty"`
	CreatedAt          time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// IsOwnedBy reports whether userID placed the order
func (o *Order) IsOwnedBy(userID string) bool {
	return userID != "" && o.UserID == userID
}

// Product is a catalog entry
type Product struct {
	ID           string    `json:"_id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Image        string    `json:"image" bson:"image"`
	Brand        string    `json:"brand" bson:"brand"`
	Category     string    `json:"category" bson:"category"`
	Description  string    `json:"description" bson:"description"`
	Price        float64   `json:"price" bson:"price"`
	CountInStock int       `json:"countInStock" bson:"countInStock"`
	Rating       float64   `json:"rating" bson:"rating"`
	NumReviews   int       `json:"numReviews" bson:"numReviews"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// User is a storefront account
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	IsAdmin      bool
	Wishlist     []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Requester identifies the caller of an API operation
type Requester struct {
	UserID  string `json:"userId"`
	IsAdmin bool   `json:"isAdmin"`
}

// CanAccess reports whether the requester may read the order
func (r Requester) CanAccess(o *Order) bool {
	return r.IsAdmin || o.IsOwnedBy(r.UserID)
}

// OrderEvent represents an audit event for an order
type OrderEvent struct {
	ID          string                 `bson:"_id"`
	OrderID     string                 `bson:"orderId"`
	EventType   string                 `bson:"eventType"`
	EventData   map[string]interface{} `bson:"eventData"`
	CreatedAt   time.Time              `bson:"createdAt"`
	PublishedAt *time.Time             `bson:"publishedAt"`
}

// Order event types
const (
	EventOrderCreated   = "order_created"
	EventOrderDelivered = "order_delivered"
	EventOrderCancelled = "order_cancelled"
	EventTrackingUpdate = "tracking_updated"
)

// DailySales is one point of the dashboard sales series
type DailySales struct {
	Date       string  `json:"date" bson:"_id"`
	TotalSales float64 `json:"totalSales" bson:"totalSales"`
}

// Summary holds the admin dashboard totals
type Summary struct {
	TotalSales  float64 `json:"totalSales"`
	NumOrders   int64   `json:"numOrders"`
	NumUsers    int64   `json:"numUsers"`
	NumProducts int64   `json:"numProducts"`
}
