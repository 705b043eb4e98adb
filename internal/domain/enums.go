package domain

// OrderStatus is the display status derived from an order's flags
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further lifecycle transition exists
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo checks if a status transition is valid
func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	switch s {
	case OrderStatusProcessing:
		return newStatus == OrderStatusShipped ||
			newStatus == OrderStatusDelivered ||
			newStatus == OrderStatusCancelled
	case OrderStatusShipped:
		return newStatus == OrderStatusShipped ||
			newStatus == OrderStatusDelivered ||
			newStatus == OrderStatusCancelled
	case OrderStatusDelivered, OrderStatusCancelled:
		return false // Terminal states
	default:
		return false
	}
}

// ClassifyOrderStatus derives the single display status of an order.
// Cancellation wins over delivery so a corrupted record never reads as delivered.
func ClassifyOrderStatus(o *Order) OrderStatus {
	switch {
	case o.IsCancelled:
		return OrderStatusCancelled
	case o.IsDelivered:
		return OrderStatusDelivered
	case o.TrackingID != "":
		return OrderStatusShipped
	default:
		return OrderStatusProcessing
	}
}

// Status returns the order's display status
func (o *Order) Status() OrderStatus {
	return ClassifyOrderStatus(o)
}
