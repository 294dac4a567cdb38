package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_CanTransition(t *testing.T) {
	all := []OrderStatus{OrderPending, OrderPaidCash, OrderPaidMobile, OrderCancelled}
	for _, from := range all {
		for _, to := range all {
			want := from == OrderPending && to != OrderPending
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
	assert.False(t, OrderPending.CanTransition("refunded"))
}

func TestOrderStatus_IsPaid(t *testing.T) {
	assert.True(t, OrderPaidCash.IsPaid())
	assert.True(t, OrderPaidMobile.IsPaid())
	assert.False(t, OrderPending.IsPaid())
	assert.False(t, OrderCancelled.IsPaid())
	assert.True(t, OrderCancelled.IsTerminal())
}

func TestOrderTotal(t *testing.T) {
	lines := []OrderLine{
		{Name: "Castel", Quantity: 3, UnitPrice: decimal.RequireFromString("1.50")},
		{Name: "Brochettes", Quantity: 2, UnitPrice: decimal.RequireFromString("4.25")},
	}
	assert.True(t, decimal.RequireFromString("13.00").Equal(OrderTotal(lines)))
	assert.True(t, decimal.Zero.Equal(OrderTotal(nil)))
}

func TestOrderFilter_Match(t *testing.T) {
	table := "T4"
	order := &Order{
		Status:      OrderPaidMobile,
		Seller:      Seller{Name: "Awa Diallo"},
		Customer:    &Customer{Name: "Moussa"},
		TableNumber: &table,
	}

	tests := []struct {
		name   string
		filter OrderFilter
		want   bool
	}{
		{"all", OrderFilter{Status: "all"}, true},
		{"paid groups both methods", OrderFilter{Status: "paid"}, true},
		{"exact status", OrderFilter{Status: "paid-mobile"}, true},
		{"other status", OrderFilter{Status: "pending"}, false},
		{"customer", OrderFilter{Search: "mous"}, true},
		{"table", OrderFilter{Search: "t4"}, true},
		{"seller", OrderFilter{Search: "diallo"}, true},
		{"miss", OrderFilter{Search: "zzz"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(order))
		})
	}
}
