package trade

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSalesOrder(t *testing.T) {
	_, err := NewSalesOrder(uuid.New(), "", "SHOPIFY", time.Now())
	assert.Error(t, err)

	so, err := NewSalesOrder(uuid.New(), "#1001", "SHOPIFY", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, SalesOrderStatusPending, so.Status)
	assert.False(t, so.OrderedAt.IsZero())
	assert.Equal(t, "USD", so.Currency)
}

func TestSalesOrder_Totals(t *testing.T) {
	so, err := NewSalesOrder(uuid.New(), "#1002", "MANUAL", time.Now())
	require.NoError(t, err)

	require.NoError(t, so.AddLine(SalesOrderLine{SKU: "A", Quantity: 2, UnitPrice: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(4)}))
	require.NoError(t, so.AddLine(SalesOrderLine{SKU: "B", Quantity: 1, UnitPrice: decimal.NewFromFloat(5.5), UnitCost: decimal.NewFromInt(2)}))
	so.SetTax(decimal.NewFromFloat(2.55))

	assert.True(t, so.Subtotal.Equal(decimal.NewFromFloat(25.5)))
	assert.True(t, so.Total.Equal(decimal.NewFromFloat(28.05)))
	assert.True(t, so.CostOfGoods().Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 3, so.UnitsSold())
	assert.NotEqual(t, uuid.Nil, so.Lines[0].ID)

	assert.Error(t, so.AddLine(SalesOrderLine{SKU: "C", Quantity: 0}))
}

func TestSalesOrderStatus(t *testing.T) {
	tests := []struct {
		status  SalesOrderStatus
		valid   bool
		revenue bool
	}{
		{SalesOrderStatusPending, true, true},
		{SalesOrderStatusPaid, true, true},
		{SalesOrderStatusFulfilled, true, true},
		{SalesOrderStatusCancelled, true, false},
		{SalesOrderStatusRefunded, true, false},
		{"shipped", false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.status.IsValid())
			assert.Equal(t, tt.revenue, tt.status.CountsAsRevenue())
		})
	}
}
