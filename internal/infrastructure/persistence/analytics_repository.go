package persistence

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockpilot/backend/internal/domain/report"
	"github.com/stockpilot/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// revenueStatuses are the order states that count towards sales figures
var revenueStatuses = []trade.SalesOrderStatus{
	trade.SalesOrderStatusPending,
	trade.SalesOrderStatusPaid,
	trade.SalesOrderStatusFulfilled,
}

// GormSalesReportRepository implements report.SalesReportRepository.
// Windows are half-open: from <= ordered_at < to.
type GormSalesReportRepository struct {
	db *gorm.DB
}

// NewGormSalesReportRepository creates a new GormSalesReportRepository
func NewGormSalesReportRepository(db *gorm.DB) *GormSalesReportRepository {
	return &GormSalesReportRepository{db: db}
}

func (r *GormSalesReportRepository) orders(ctx context.Context, tenantID uuid.UUID, from, to time.Time) *gorm.DB {
	return conn(ctx, r.db).Table("sales_orders AS o").
		Where("o.tenant_id = ? AND o.status IN ?", tenantID, revenueStatuses).
		Where("o.ordered_at >= ? AND o.ordered_at < ?", from.UTC(), to.UTC())
}

func (r *GormSalesReportRepository) lines(ctx context.Context, tenantID uuid.UUID, from, to time.Time) *gorm.DB {
	return r.orders(ctx, tenantID, from, to).Joins("JOIN sales_order_lines AS l ON l.order_id = o.id")
}

// GetSalesTotals returns revenue, order count, units and cost of goods for the window
func (r *GormSalesReportRepository) GetSalesTotals(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (report.SalesTotals, error) {
	var orders struct {
		OrderCount int64
		Revenue    decimal.Decimal
	}
	if err := r.orders(ctx, tenantID, from, to).
		Select("COUNT(*) AS order_count, COALESCE(SUM(o.total), 0) AS revenue").
		Scan(&orders).Error; err != nil {
		return report.SalesTotals{}, err
	}

	var lines struct {
		UnitsSold   int64
		CostOfGoods decimal.Decimal
	}
	if err := r.lines(ctx, tenantID, from, to).
		Select("COALESCE(SUM(l.quantity), 0) AS units_sold, COALESCE(SUM(l.quantity * l.unit_cost), 0) AS cost_of_goods").
		Scan(&lines).Error; err != nil {
		return report.SalesTotals{}, err
	}

	return report.SalesTotals{
		Revenue:     orders.Revenue,
		OrderCount:  orders.OrderCount,
		UnitsSold:   lines.UnitsSold,
		CostOfGoods: lines.CostOfGoods,
	}, nil
}

// GetRevenueByPlatform groups revenue by order source, highest first
func (r *GormSalesReportRepository) GetRevenueByPlatform(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]report.PlatformRevenue, error) {
	var rows []report.PlatformRevenue
	err := r.orders(ctx, tenantID, from, to).
		Select("o.source_platform AS platform, COUNT(*) AS order_count, COALESCE(SUM(o.total), 0) AS revenue").
		Group("o.source_platform").
		Order("revenue DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetDailySalesTrend returns one entry per UTC day in the window, zero-filled.
// Bucketing happens here so the query stays portable across dialects.
func (r *GormSalesReportRepository) GetDailySalesTrend(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]report.DailySalesTrend, error) {
	var rows []struct {
		OrderedAt time.Time
		Total     decimal.Decimal
		Units     int64
	}
	err := r.orders(ctx, tenantID, from, to).
		Select("o.ordered_at, o.total, (SELECT COALESCE(SUM(l.quantity), 0) FROM sales_order_lines AS l WHERE l.order_id = o.id) AS units").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	buckets := make(map[time.Time]*report.DailySalesTrend)
	start := truncateDay(from)
	end := to.UTC()
	var trend []report.DailySalesTrend
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		trend = append(trend, report.DailySalesTrend{Date: day, Revenue: decimal.Zero})
	}
	for i := range trend {
		buckets[trend[i].Date] = &trend[i]
	}
	for _, row := range rows {
		b, ok := buckets[truncateDay(row.OrderedAt)]
		if !ok {
			continue
		}
		b.OrderCount++
		b.Revenue = b.Revenue.Add(row.Total)
		b.UnitsSold += row.Units
	}
	return trend, nil
}

// GetSalesBySKU aggregates order lines per SKU, highest revenue first
func (r *GormSalesReportRepository) GetSalesBySKU(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]report.SKUSales, error) {
	rows, err := r.lines(ctx, tenantID, from, to).
		Select(`l.sku, MAX(l.title), COALESCE(SUM(l.quantity), 0),
			COALESCE(SUM(l.quantity * l.unit_price), 0), COALESCE(SUM(l.quantity * l.unit_cost), 0),
			COUNT(DISTINCT o.id), MAX(o.ordered_at)`).
		Group("l.sku").
		Rows()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []report.SKUSales
	for rows.Next() {
		var (
			s    report.SKUSales
			last dbTime
		)
		if err := rows.Scan(&s.SKU, &s.Title, &s.UnitsSold, &s.Revenue, &s.CostOfGoods, &s.OrderCount, &last); err != nil {
			return nil, err
		}
		if last.Valid {
			t := last.Time
			s.LastSoldAt = &t
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].SKU < out[j].SKU
	})
	return out, nil
}

// GetLastSaleDates returns the most recent sale per SKU over all time
func (r *GormSalesReportRepository) GetLastSaleDates(ctx context.Context, tenantID uuid.UUID) (map[string]time.Time, error) {
	rows, err := conn(ctx, r.db).Table("sales_order_lines AS l").
		Joins("JOIN sales_orders AS o ON o.id = l.order_id").
		Where("o.tenant_id = ? AND o.status IN ?", tenantID, revenueStatuses).
		Select("l.sku, MAX(o.ordered_at)").
		Group("l.sku").
		Rows()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]time.Time)
	for rows.Next() {
		var (
			sku  string
			last dbTime
		)
		if err := rows.Scan(&sku, &last); err != nil {
			return nil, err
		}
		if last.Valid {
			out[sku] = last.Time
		}
	}
	return out, rows.Err()
}

const week = 7 * 24 * time.Hour

// GetWeeklySalesBySKU buckets order lines into seven-day weeks starting at from, zero-filled
func (r *GormSalesReportRepository) GetWeeklySalesBySKU(ctx context.Context, tenantID uuid.UUID, from, to time.Time, skus []string) ([]report.SKUHistory, error) {
	q := r.lines(ctx, tenantID, from, to)
	if len(skus) > 0 {
		q = q.Where("l.sku IN ?", skus)
	}
	var rows []struct {
		SKU       string
		Title     string
		OrderedAt time.Time
		Quantity  int64
		Revenue   decimal.Decimal
	}
	if err := q.Select("l.sku, l.title, o.ordered_at, l.quantity, l.quantity * l.unit_price AS revenue").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	start := from.UTC()
	weeks := int((to.UTC().Sub(start) + week - 1) / week)
	if weeks < 1 {
		weeks = 1
	}
	newHistory := func(sku string) *report.SKUHistory {
		h := &report.SKUHistory{SKU: sku, Revenue: decimal.Zero, Weeks: make([]report.WeeklySales, weeks)}
		for i := range h.Weeks {
			h.Weeks[i] = report.WeeklySales{WeekStart: start.Add(time.Duration(i) * week), Revenue: decimal.Zero}
		}
		return h
	}

	bySKU := make(map[string]*report.SKUHistory)
	// requested SKUs without sales still get an empty series
	for _, sku := range skus {
		if _, ok := bySKU[sku]; !ok {
			bySKU[sku] = newHistory(sku)
		}
	}
	for _, row := range rows {
		h, ok := bySKU[row.SKU]
		if !ok {
			h = newHistory(row.SKU)
			bySKU[row.SKU] = h
		}
		if h.Title == "" {
			h.Title = row.Title
		}
		i := int(row.OrderedAt.UTC().Sub(start) / week)
		if i < 0 || i >= weeks {
			continue
		}
		h.Weeks[i].UnitsSold += row.Quantity
		h.Weeks[i].Revenue = h.Weeks[i].Revenue.Add(row.Revenue)
		h.UnitsSold += row.Quantity
		h.Revenue = h.Revenue.Add(row.Revenue)
	}

	out := make([]report.SKUHistory, 0, len(bySKU))
	for _, h := range bySKU {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

// GetCustomerSummaries aggregates orders per lower-cased customer email, biggest spenders first
func (r *GormSalesReportRepository) GetCustomerSummaries(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]report.CustomerSummary, error) {
	rows, err := r.orders(ctx, tenantID, from, to).
		Where("o.customer_email <> ''").
		Select(`LOWER(o.customer_email), MAX(o.customer_name), COUNT(*),
			COALESCE(SUM(o.total), 0), MIN(o.ordered_at), MAX(o.ordered_at)`).
		Group("LOWER(o.customer_email)").
		Rows()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []report.CustomerSummary
	for rows.Next() {
		var (
			c           report.CustomerSummary
			name        *string
			first, last dbTime
		)
		if err := rows.Scan(&c.Email, &name, &c.OrderCount, &c.TotalSpent, &first, &last); err != nil {
			return nil, err
		}
		if name != nil {
			c.Name = *name
		}
		c.FirstOrderAt, c.LastOrderAt = first.Time, last.Time
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].TotalSpent.Cmp(out[j].TotalSpent); c != 0 {
			return c > 0
		}
		return out[i].Email < out[j].Email
	})
	return out, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// dbTime scans aggregate timestamps, which some drivers return as text
type dbTime struct {
	Time  time.Time
	Valid bool
}

var dbTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// Scan implements sql.Scanner
func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Valid = false
		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	}
	return fmt.Errorf("dbTime: unsupported value %T", src)
}

func (t *dbTime) parse(s string) error {
	for _, layout := range dbTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("dbTime: cannot parse %q", s)
}

var _ report.SalesReportRepository = (*GormSalesReportRepository)(nil)
