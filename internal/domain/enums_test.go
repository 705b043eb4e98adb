package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyOrderStatus(t *testing.T) {
	cases := []struct {
		name  string
		order Order
		want  OrderStatus
	}{
		{"fresh", Order{IsPaid: true}, OrderStatusProcessing},
		{"tracking set", Order{IsPaid: true, TrackingID: "TRK1"}, OrderStatusShipped},
		{"delivered", Order{IsPaid: true, TrackingID: "TRK1", IsDelivered: true}, OrderStatusDelivered},
		{"cancelled", Order{IsPaid: true, IsCancelled: true}, OrderStatusCancelled},
		{"cancelled wins", Order{IsCancelled: true, IsDelivered: true}, OrderStatusCancelled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyOrderStatus(&tc.order))
		})
	}
}

func TestCanTransitionTo(t *testing.T) {
	assert.True(t, OrderStatusProcessing.CanTransitionTo(OrderStatusDelivered))
	assert.True(t, OrderStatusProcessing.CanTransitionTo(OrderStatusCancelled))
	assert.True(t, OrderStatusShipped.CanTransitionTo(OrderStatusCancelled))
	assert.False(t, OrderStatusDelivered.CanTransitionTo(OrderStatusCancelled))
	assert.False(t, OrderStatusCancelled.CanTransitionTo(OrderStatusDelivered))
	assert.False(t, OrderStatus("Unknown").CanTransitionTo(OrderStatusDelivered))
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatus("Paid").IsValid())
}

func TestRequesterCanAccess(t *testing.T) {
	o := &Order{UserID: "u1"}
	assert.True(t, Requester{UserID: "u1"}.CanAccess(o))
	assert.True(t, Requester{UserID: "admin", IsAdmin: true}.CanAccess(o))
	assert.False(t, Requester{UserID: "u2"}.CanAccess(o))
	assert.False(t, Requester{}.CanAccess(&Order{}))
}
