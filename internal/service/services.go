package service

// Services groups the application services the HTTP layer depends on
type Services struct {
	Orders   *OrderService
	Payments *PaymentService
	Catalog  *CatalogService
	Auth     *AuthService
}
