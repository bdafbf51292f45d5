package report

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SalesReportRepository defines the aggregate queries behind the analytics endpoints.
// Revenue figures exclude cancelled and refunded orders.
type SalesReportRepository interface {
	// GetSalesTotals returns revenue, order count and COGS for the period
	GetSalesTotals(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (SalesTotals, error)

	// GetRevenueByPlatform groups revenue by order source
	GetRevenueByPlatform(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]PlatformRevenue, error)

	// GetDailySalesTrend returns one row per day that had orders
	GetDailySalesTrend(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]DailySalesTrend, error)

	// GetSalesBySKU groups order lines by SKU
	GetSalesBySKU(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]SKUSales, error)

	// GetLastSaleDates returns the most recent sale per SKU across all time
	GetLastSaleDates(ctx context.Context, tenantID uuid.UUID) (map[string]time.Time, error)

	// GetWeeklySalesBySKU returns a zero-filled series of seven-day buckets per SKU,
	// the first starting at from. An empty skus selects every SKU sold in the window.
	GetWeeklySalesBySKU(ctx context.Context, tenantID uuid.UUID, from, to time.Time, skus []string) ([]SKUHistory, error)

	// GetCustomerSummaries groups orders by customer email, ignoring orders without one
	GetCustomerSummaries(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]CustomerSummary, error)
}

// SettingsRepository reads per-tenant settings
type SettingsRepository interface {
	// GetInt returns the setting and whether it was present
	GetInt(ctx context.Context, tenantID uuid.UUID, key string) (int, bool, error)
	SetInt(ctx context.Context, tenantID uuid.UUID, key string, value int) error
}

// SettingDeadStockDays is the tenant setting for the dead stock window
const SettingDeadStockDays = "dead_stock_days"

// DefaultDeadStockDays applies when the tenant has no setting
const DefaultDeadStockDays = 90

// Channel fee settings are stored per platform as integers: the transaction
// rate in basis points and the fixed fees in cents.
func SettingChannelRateBps(platform string) string      { return "channel_fee." + platform + ".rate_bps" }
func SettingChannelOrderFeeCents(platform string) string { return "channel_fee." + platform + ".order_fee_cents" }
func SettingChannelMonthlyCents(platform string) string  { return "channel_fee." + platform + ".monthly_fee_cents" }
