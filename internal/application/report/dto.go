package report

import (
	"github.com/shopspring/decimal"
	"github.com/stockpilot/backend/internal/domain/report"
)

// PeriodFilter selects a trailing window in days
type PeriodFilter struct {
	Period int `form:"period" binding:"omitempty,min=1,max=365"`
}

// DaysFilter selects a trailing window in days. Zero means the endpoint default.
type DaysFilter struct {
	Days int `form:"days" binding:"omitempty,min=1,max=365"`
}

// UpdateSettingsRequest changes analytics settings of the tenant
type UpdateSettingsRequest struct {
	DeadStockDays int `json:"dead_stock_days" binding:"required,min=1,max=365"`
}

// SettingsResponse is the analytics settings of the tenant
type SettingsResponse struct {
	DeadStockDays int `json:"dead_stock_days"`
}

// SupplierPerformanceResponse ranks the active suppliers
type SupplierPerformanceResponse struct {
	Suppliers []report.SupplierPerformance `json:"suppliers"`
	Counts    map[report.SupplierTier]int  `json:"counts"`
}

// ReorderResponse lists variants to reorder
type ReorderResponse struct {
	Items         []report.ReorderItem `json:"items"`
	TotalUnits    int64                `json:"total_units"`
	EstimatedCost decimal.Decimal      `json:"estimated_cost"`
}

// ABCResponse is an ABC classification over a window
type ABCResponse struct {
	Period report.Period `json:"period"`
	report.ABCSummary
}

// WeeksFilter selects a trailing window of whole weeks. Zero means the endpoint default.
type WeeksFilter struct {
	Weeks int `form:"weeks" binding:"omitempty,min=1,max=52"`
}

// HistoricalSalesFilter selects SKUs and a trailing window of whole weeks
type HistoricalSalesFilter struct {
	SKUs  []string `form:"sku" binding:"required,min=1,max=50,dive,required,max=100"`
	Weeks int      `form:"weeks" binding:"omitempty,min=1,max=52"`
}

// MarginResponse is the gross margin of every SKU sold in a period
type MarginResponse struct {
	Period report.Period `json:"period"`
	report.MarginSummary
}

// ForecastResponse projects next week's demand per SKU
type ForecastResponse struct {
	Period report.Period         `json:"period"`
	Weeks  int                   `json:"weeks"`
	Items  []report.ForecastItem `json:"items"`
}

// VelocityResponse is the selling rate of every SKU sold in a period
type VelocityResponse struct {
	Period report.Period                   `json:"period"`
	Items  []report.VelocityItem           `json:"items"`
	Counts map[report.VelocityCategory]int `json:"counts"`
}

// OpportunitiesResponse lists SKUs worth acting on
type OpportunitiesResponse struct {
	Period report.Period        `json:"period"`
	Items  []report.Opportunity `json:"items"`
}

// ChannelFeesResponse compares the fee burden of the sales channels
type ChannelFeesResponse struct {
	Period     report.Period        `json:"period"`
	Channels   []report.ChannelFees `json:"channels"`
	GrossSales decimal.Decimal      `json:"gross_sales"`
	TotalFees  decimal.Decimal      `json:"total_fees"`
	NetRevenue decimal.Decimal      `json:"net_revenue"`
	FeePercent decimal.Decimal      `json:"fee_percent"`
}

// UpdateChannelFeesRequest sets the fee schedule of one platform.
// Amounts carry at most two decimals; the rate is a percentage.
type UpdateChannelFeesRequest struct {
	Platform        string          `json:"platform" binding:"required,max=50"`
	TransactionRate decimal.Decimal `json:"transaction_rate"`
	PerOrderFee     decimal.Decimal `json:"per_order_fee"`
	MonthlyFee      decimal.Decimal `json:"monthly_fee"`
}

// HistoricalSalesResponse is the weekly sales series of the requested SKUs
type HistoricalSalesResponse struct {
	Period report.Period       `json:"period"`
	SKUs   []report.SKUHistory `json:"skus"`
}
