package razorpay

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// OrderRequest is the body of POST /v1/orders
type OrderRequest struct {
	Amount   int64             `json:"amount" validate:"gt=0"`
	Currency string            `json:"currency" validate:"required,len=3"`
	Receipt  string            `json:"receipt" validate:"required,max=40"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Order is the gateway's payment intent
type Order struct {
	ID         string `json:"id" validate:"required"`
	Entity     string `json:"entity"`
	Amount     int64  `json:"amount" validate:"gt=0"`
	AmountPaid int64  `json:"amount_paid"`
	AmountDue  int64  `json:"amount_due"`
	Currency   string `json:"currency" validate:"required,len=3"`
	Receipt    string `json:"receipt"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	CreatedAt  int64  `json:"created_at"`
}

// PaymentConfirmation is what the checkout widget hands back after a successful payment
type PaymentConfirmation struct {
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required,hexadecimal"`
}

// ErrorResponse is the gateway's error envelope
type ErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

var schema = validator.New()

// ValidateOrder checks a payment intent payload before it is trusted
func ValidateOrder(o *Order) error {
	if o == nil {
		return fmt.Errorf("payment intent is missing")
	}
	return schema.Struct(o)
}

// ValidateConfirmation checks a payment confirmation payload before it is trusted
func ValidateConfirmation(c PaymentConfirmation) error {
	return schema.Struct(c)
}

// ToMinorUnits converts a decimal currency amount to the gateway's integer
// representation, rounding half away from zero.
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromMinorUnits is the inverse of ToMinorUnits
func FromMinorUnits(amount int64) float64 {
	return decimal.New(amount, -2).InexactFloat64()
}

// NewReceipt returns a receipt identifier derived from the current time
func NewReceipt(now time.Time) string {
	return fmt.Sprintf("receipt_%d", now.UnixMilli())
}
