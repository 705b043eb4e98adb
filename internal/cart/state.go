package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/pkg/errors"
)

// DefaultPaymentMethod is selected until the shopper picks another one
const DefaultPaymentMethod = "Razorpay"

type ShippingAddress = domain.ShippingAddress

// Line is one product in the cart
type Line struct {
	ProductID    string  `json:"product"`
	Name         string  `json:"name"`
	Image        string  `json:"image"`
	Price        float64 `json:"price"`
	CountInStock int     `json:"countInStock"`
	Quantity     int     `json:"qty"`
}

// State is the full cart. IsDrawerOpen is UI-only and never persisted.
type State struct {
	Lines           []Line
	ShippingAddress ShippingAddress
	PaymentMethod   string
	IsDrawerOpen    bool
}

func DefaultState() State {
	return State{
		Lines:         []Line{},
		PaymentMethod: DefaultPaymentMethod,
	}
}

func (s State) clone() State {
	lines := make([]Line, len(s.Lines))
	copy(lines, s.Lines)
	s.Lines = lines
	return s
}

// Line returns the line for productID, if present
func (s State) Line(productID string) (Line, bool) {
	for _, l := range s.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return Line{}, false
}

// ValidateQuantity checks 1 <= qty <= stock. The store itself never clamps,
// callers run this before dispatching AddOrUpdateLine.
func ValidateQuantity(l Line) error {
	if l.Quantity < 1 {
		return &errors.ErrValidation{Message: "quantity must be at least 1"}
	}
	if l.Quantity > l.CountInStock {
		return &errors.ErrValidation{Message: fmt.Sprintf("only %d of %s in stock", l.CountInStock, l.Name)}
	}
	return nil
}

// PriceRules configure the checkout price breakdown
type PriceRules struct {
	TaxRate          float64 `json:"taxRate"`
	FreeShippingOver float64 `json:"freeShippingOver"`
	ShippingFee      float64 `json:"shippingFee"`
}

var DefaultPriceRules = PriceRules{TaxRate: 0.18, FreeShippingOver: 100, ShippingFee: 10}

// Prices is the breakdown sent with order creation
type Prices struct {
	ItemsPrice    float64 `json:"itemsPrice"`
	TaxPrice      float64 `json:"taxPrice"`
	ShippingPrice float64 `json:"shippingPrice"`
	TotalPrice    float64 `json:"totalPrice"`
}

// Prices computes the breakdown for the current lines, rounded to cents
func (s State) Prices(r PriceRules) Prices {
	items := decimal.Zero
	for _, l := range s.Lines {
		items = items.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	items = items.Round(2)

	shipping := decimal.NewFromFloat(r.ShippingFee)
	if len(s.Lines) == 0 || items.GreaterThanOrEqual(decimal.NewFromFloat(r.FreeShippingOver)) {
		shipping = decimal.Zero
	}
	tax := items.Mul(decimal.NewFromFloat(r.TaxRate)).Round(2)
	total := items.Add(tax).Add(shipping).Round(2)

	return Prices{
		ItemsPrice:    items.InexactFloat64(),
		TaxPrice:      tax.InexactFloat64(),
		ShippingPrice: shipping.InexactFloat64(),
		TotalPrice:    total.InexactFloat64(),
	}
}
