package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period is a reporting window ending at End
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

// NewPeriod returns the window of days ending at end. Days outside 1..365 fall back to 30.
func NewPeriod(end time.Time, days int) Period {
	if days < 1 || days > 365 {
		days = 30
	}
	return Period{Start: end.AddDate(0, 0, -days), End: end, Days: days}
}

// SalesTotals is the headline aggregate of a period
type SalesTotals struct {
	Revenue     decimal.Decimal `json:"revenue"`
	OrderCount  int64           `json:"order_count"`
	UnitsSold   int64           `json:"units_sold"`
	CostOfGoods decimal.Decimal `json:"cost_of_goods"`
}

// AverageOrderValue is revenue divided by order count
func (t SalesTotals) AverageOrderValue() decimal.Decimal {
	if t.OrderCount == 0 {
		return decimal.Zero
	}
	return t.Revenue.Div(decimal.NewFromInt(t.OrderCount)).Round(2)
}

// PlatformRevenue is revenue attributed to one sales channel
type PlatformRevenue struct {
	Platform   string          `json:"platform"`
	OrderCount int64           `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// DailySalesTrend represents daily sales trend data
type DailySalesTrend struct {
	Date       time.Time       `json:"date"`
	OrderCount int64           `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
	UnitsSold  int64           `json:"units_sold"`
}

// SKUSales aggregates the sales of one SKU in a period
type SKUSales struct {
	SKU         string          `json:"sku"`
	Title       string          `json:"title"`
	UnitsSold   int64           `json:"units_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
	CostOfGoods decimal.Decimal `json:"cost_of_goods"`
	OrderCount  int64           `json:"order_count"`
	LastSoldAt  *time.Time      `json:"last_sold_at,omitempty"`
	// Velocity is units per day over the period
	Velocity decimal.Decimal `json:"velocity"`
}

// Dashboard is the landing page summary
type Dashboard struct {
	Period            Period            `json:"period"`
	TotalRevenue      decimal.Decimal   `json:"total_revenue"`
	TotalOrders       int64             `json:"total_orders"`
	AverageOrderValue decimal.Decimal   `json:"average_order_value"`
	ProductCount      int64             `json:"product_count"`
	LowStockCount     int64             `json:"low_stock_count"`
	InventoryValue    decimal.Decimal   `json:"inventory_value"`
	RevenueByPlatform []PlatformRevenue `json:"revenue_by_platform"`
	DailyTrend        []DailySalesTrend `json:"daily_trend"`
}

// SalesReport is the per-SKU view of a period
type SalesReport struct {
	Period Period      `json:"period"`
	Totals SalesTotals `json:"totals"`
	SKUs   []SKUSales  `json:"skus"`
}
