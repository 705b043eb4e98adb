package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/cart"
	"github.com/jafarshop/storefront/internal/client"
	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/logging"
	"github.com/jafarshop/storefront/internal/razorpay"
)

const usage = `Usage: shopctl <command> [args]

Commands:
  login <email> <password>                  print a session token for SHOPCTL_TOKEN
  add <product-id> <qty>                    add a product or replace its quantity
  remove <product-id>                       drop a product from the cart
  address <address> <city> <postal> <country>
  payment <method>                          select the payment method
  show                                      print the cart and its price breakdown
  checkout                                  open a payment intent for the cart total
  confirm <intent-id> <payment-id> <signature>
                                            place the order and clear the cart
  orders                                    list your orders
  cancel <order-id> <reason...>             cancel one of your orders

Environment:
  SHOPCTL_API_URL    storefront base URL (default http://localhost:8080)
  SHOPCTL_TOKEN      bearer token from login
  SHOPCTL_CART_FILE  cart file (default ~/.shopctl/cart.json)`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	logger, err := logging.NewLogger("shopctl", "development", "warn", "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := cart.New(cart.NewFileStorage(cartFile()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load cart: %v\n", err)
		os.Exit(1)
	}

	api := client.NewClient(getenvDefault("SHOPCTL_API_URL", "http://localhost:8080"), os.Getenv("SHOPCTL_TOKEN"), logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, api, store, os.Args[1], os.Args[2:], logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, api *client.Client, store *cart.Store, cmd string, args []string, logger *zap.Logger) error {
	switch cmd {
	case "login":
		if len(args) != 2 {
			return fmt.Errorf("usage: shopctl login <email> <password>")
		}
		token, err := api.Login(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("export SHOPCTL_TOKEN=%s\n", token)

	case "add":
		if len(args) != 2 {
			return fmt.Errorf("usage: shopctl add <product-id> <qty>")
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
		}
		p, err := api.Product(ctx, args[0])
		if err != nil {
			return err
		}
		line := cart.Line{
			ProductID:    p.ID,
			Name:         p.Name,
			Image:        p.Image,
			Price:        p.Price,
			CountInStock: p.CountInStock,
			Quantity:     qty,
		}
		if err := cart.ValidateQuantity(line); err != nil {
			return err
		}
		if err := store.Dispatch(cart.AddOrUpdateLine{Line: line}); err != nil {
			return err
		}
		fmt.Printf("Cart: %d x %s\n", qty, p.Name)

	case "remove":
		if len(args) != 1 {
			return fmt.Errorf("usage: shopctl remove <product-id>")
		}
		return store.Dispatch(cart.RemoveLine{ProductID: args[0]})

	case "address":
		if len(args) != 4 {
			return fmt.Errorf("usage: shopctl address <address> <city> <postal> <country>")
		}
		return store.Dispatch(cart.SetShippingAddress{Address: cart.ShippingAddress{
			Address:    args[0],
			City:       args[1],
			PostalCode: args[2],
			Country:    args[3],
		}})

	case "payment":
		if len(args) != 1 {
			return fmt.Errorf("usage: shopctl payment <method>")
		}
		return store.Dispatch(cart.SetPaymentMethod{Method: args[0]})

	case "show":
		rules, err := api.Pricing(ctx)
		if err != nil {
			logger.Warn("Using default price rules", zap.Error(err))
			rules = cart.DefaultPriceRules
		}
		printCart(store.State(), rules)

	case "checkout":
		state := store.State()
		if err := readyForCheckout(state); err != nil {
			return err
		}
		rules, err := api.Pricing(ctx)
		if err != nil {
			return err
		}
		prices := state.Prices(rules)
		intent, err := api.CreateIntent(ctx, prices.TotalPrice)
		if err != nil {
			return err
		}
		fmt.Printf("Payment intent %s for %s %s\n", intent.ID,
			strconv.FormatFloat(razorpay.FromMinorUnits(intent.Amount), 'f', 2, 64), intent.Currency)
		fmt.Println("Complete the payment, then run: shopctl confirm <intent-id> <payment-id> <signature>")

	case "confirm":
		if len(args) != 3 {
			return fmt.Errorf("usage: shopctl confirm <intent-id> <payment-id> <signature>")
		}
		state := store.State()
		if err := readyForCheckout(state); err != nil {
			return err
		}
		rules, err := api.Pricing(ctx)
		if err != nil {
			return err
		}
		order, err := api.PlaceOrder(ctx, state, rules, razorpay.PaymentConfirmation{
			OrderID:   args[0],
			PaymentID: args[1],
			Signature: args[2],
		})
		if err != nil {
			return err
		}
		if err := store.Dispatch(cart.Clear{}); err != nil {
			logger.Warn("Order placed but cart was not cleared", zap.Error(err))
		}
		fmt.Printf("Order %s placed, total %.2f\n", order.ID, order.TotalPrice)

	case "orders":
		orders, err := api.MyOrders(ctx)
		if err != nil {
			return err
		}
		for _, o := range orders {
			fmt.Printf("%s  %s  %10.2f  %s\n", o.ID, o.CreatedAt.Format("2006-01-02"), o.TotalPrice, domain.ClassifyOrderStatus(o))
		}

	case "cancel":
		if len(args) < 2 {
			return fmt.Errorf("usage: shopctl cancel <order-id> <reason...>")
		}
		order, err := api.CancelOrder(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Printf("Order %s cancelled\n", order.ID)

	default:
		fmt.Println(usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func readyForCheckout(s cart.State) error {
	if len(s.Lines) == 0 {
		return fmt.Errorf("cart is empty")
	}
	a := s.ShippingAddress
	if a.Address == "" || a.City == "" || a.PostalCode == "" || a.Country == "" {
		return fmt.Errorf("shipping address is incomplete, run shopctl address first")
	}
	return nil
}

func printCart(s cart.State, rules cart.PriceRules) {
	if len(s.Lines) == 0 {
		fmt.Println("Cart is empty")
		return
	}
	for _, l := range s.Lines {
		fmt.Printf("%-24s %3d x %8.2f\n", l.Name, l.Quantity, l.Price)
	}
	p := s.Prices(rules)
	fmt.Printf("\nItems:    %10.2f\nTax:      %10.2f\nShipping: %10.2f\nTotal:    %10.2f\n",
		p.ItemsPrice, p.TaxPrice, p.ShippingPrice, p.TotalPrice)
	fmt.Printf("Ship to:  %s, %s %s, %s\nPayment:  %s\n",
		s.ShippingAddress.Address, s.ShippingAddress.City, s.ShippingAddress.PostalCode,
		s.ShippingAddress.Country, s.PaymentMethod)
}

func cartFile() string {
	if path := os.Getenv("SHOPCTL_CART_FILE"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "cart.json"
	}
	return filepath.Join(home, ".shopctl", "cart.json")
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
