package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StockCollector reads per-tenant stock health and integration status counts
// from the database at scrape time
type StockCollector struct {
	db      *gorm.DB
	logger  *zap.Logger
	timeout time.Duration

	lowStock     *prometheus.Desc
	outOfStock   *prometheus.Desc
	integrations *prometheus.Desc
	scrapeErrors prometheus.Counter
}

// NewStockCollector creates a collector; register it on the /metrics registry
func NewStockCollector(db *gorm.DB, logger *zap.Logger) *StockCollector {
	return &StockCollector{
		db:      db,
		logger:  logger,
		timeout: 5 * time.Second,
		lowStock: prometheus.NewDesc(namespace+"_inventory_low_stock_variants",
			"Variants at or below their reorder point with stock left.", []string{"tenant_id"}, nil),
		outOfStock: prometheus.NewDesc(namespace+"_inventory_out_of_stock_variants",
			"Variants with no stock.", []string{"tenant_id"}, nil),
		integrations: prometheus.NewDesc(namespace+"_integrations",
			"Integrations by platform and status.", []string{"platform", "status"}, nil),
		scrapeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "stock_collector_errors_total",
			Help: "Failed database reads while collecting stock metrics.",
		}),
	}
}

// Describe implements prometheus.Collector
func (c *StockCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.lowStock
	ch <- c.outOfStock
	ch <- c.integrations
	c.scrapeErrors.Describe(ch)
}

// Collect implements prometheus.Collector
func (c *StockCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	type tenantCount struct {
		TenantID string
		N        int64
	}
	stock := func(desc *prometheus.Desc, where string) {
		var rows []tenantCount
		err := c.db.WithContext(ctx).
			Table("product_variants").
			Select("tenant_id, COUNT(*) AS n").
			Where(where).
			Group("tenant_id").
			Scan(&rows).Error
		if err != nil {
			c.fail(err)
			return
		}
		for _, r := range rows {
			ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(r.N), r.TenantID)
		}
	}
	stock(c.lowStock, "reorder_point > 0 AND inventory_quantity > 0 AND inventory_quantity <= reorder_point")
	stock(c.outOfStock, "inventory_quantity <= 0")

	var statuses []struct {
		Platform string
		Status   string
		N        int64
	}
	err := c.db.WithContext(ctx).
		Table("integrations").
		Select("platform, status, COUNT(*) AS n").
		Group("platform, status").
		Scan(&statuses).Error
	if err != nil {
		c.fail(err)
	}
	for _, s := range statuses {
		ch <- prometheus.MustNewConstMetric(c.integrations, prometheus.GaugeValue, float64(s.N), s.Platform, s.Status)
	}

	c.scrapeErrors.Collect(ch)
}

func (c *StockCollector) fail(err error) {
	c.scrapeErrors.Inc()
	c.logger.Warn("Stock metrics query failed", zap.Error(err))
}
