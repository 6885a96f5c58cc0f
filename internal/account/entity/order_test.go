package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrder_CanReturn(t *testing.T) {
	delivered := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status OrderStatus
		now    time.Time
		want   bool
	}{
		{name: "same day", status: OrderStatusDelivered, now: delivered.Add(time.Hour), want: true},
		{name: "day thirty", status: OrderStatusDelivered, now: delivered.Add(30*24*time.Hour + 23*time.Hour), want: true},
		{name: "day thirty one", status: OrderStatusDelivered, now: delivered.Add(31 * 24 * time.Hour), want: false},
		{name: "shipped", status: OrderStatusShipped, now: delivered.Add(time.Hour), want: false},
		{name: "return already open", status: OrderStatusReturnInProgress, now: delivered, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Order{Status: tt.status, DeliveryDate: delivered}
			assert.Equal(t, tt.want, o.CanReturn(tt.now))
		})
	}

	assert.False(t, Order{Status: OrderStatusDelivered}.CanReturn(delivered), "no delivery date")
}

func TestOrder_HasItems(t *testing.T) {
	o := Order{Items: []OrderItem{{ID: "a"}, {ID: "b"}}}

	assert.True(t, o.HasItems([]string{"b"}))
	assert.True(t, o.HasItems([]string{"a", "b"}))
	assert.False(t, o.HasItems([]string{"a", "z"}))
}

func TestOrderStatus_Text(t *testing.T) {
	assert.Equal(t, "Entregado", OrderStatusDelivered.Text())
	assert.Equal(t, "Devolución en curso", OrderStatusReturnInProgress.Text())
	assert.Equal(t, "lost", OrderStatus("lost").Text())
	assert.False(t, OrderStatus("lost").Valid())
	assert.True(t, ValidReturnReason("Otro"))
	assert.False(t, ValidReturnReason("otro"))
}
