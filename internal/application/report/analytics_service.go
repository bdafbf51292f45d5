package report

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/partner"
	"github.com/stockpilot/backend/internal/domain/report"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const (
	defaultTurnoverDays = 365
	defaultABCDays      = 90
)

// AnalyticsService computes dashboard and inventory reports
type AnalyticsService struct {
	salesRepo    report.SalesReportRepository
	settingsRepo report.SettingsRepository
	productRepo  catalog.ProductRepository
	variantRepo  catalog.VariantRepository
	supplierRepo partner.SupplierRepository
	now          func() time.Time

	defaultPeriod    int
	defaultDeadStock int
}

// AnalyticsServiceOption configures an AnalyticsService
type AnalyticsServiceOption func(*AnalyticsService)

// WithDefaults sets the period used when a request names none and the dead
// stock threshold for tenants without a setting. Values outside 1..365 are ignored.
func WithDefaults(periodDays, deadStockDays int) AnalyticsServiceOption {
	return func(s *AnalyticsService) {
		if periodDays >= 1 && periodDays <= 365 {
			s.defaultPeriod = periodDays
		}
		if deadStockDays >= 1 && deadStockDays <= 365 {
			s.defaultDeadStock = deadStockDays
		}
	}
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(
	salesRepo report.SalesReportRepository,
	settingsRepo report.SettingsRepository,
	productRepo catalog.ProductRepository,
	variantRepo catalog.VariantRepository,
	supplierRepo partner.SupplierRepository,
	opts ...AnalyticsServiceOption,
) *AnalyticsService {
	s := &AnalyticsService{
		salesRepo:        salesRepo,
		settingsRepo:     settingsRepo,
		productRepo:      productRepo,
		variantRepo:      variantRepo,
		supplierRepo:     supplierRepo,
		now:              func() time.Time { return time.Now().UTC() },
		defaultPeriod:    30,
		defaultDeadStock: report.DefaultDeadStockDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AnalyticsService) period(days int) report.Period {
	if days == 0 {
		days = s.defaultPeriod
	}
	return report.NewPeriod(s.now(), days)
}

// Dashboard returns the headline numbers for the period
func (s *AnalyticsService) Dashboard(ctx context.Context, tenantID uuid.UUID, filter PeriodFilter) (*report.Dashboard, error) {
	p := s.period(filter.Period)

	totals, err := s.salesRepo.GetSalesTotals(ctx, tenantID, p.Start, p.End)
	if err != nil {
		return nil, err
	}
	byPlatform, err := s.salesRepo.GetRevenueByPlatform(ctx, tenantID, p.Start, p.End)
	if err != nil {
		return nil, err
	}
	trend, err := s.salesRepo.GetDailySalesTrend(ctx, tenantID, p.Start, p.End)
	if err != nil {
		return nil, err
	}

	// page size 1: only the total is needed
	_, productCount, err := s.productRepo.FindAllForTenant(ctx, tenantID, catalog.ProductFilter{
		Filter: shared.Filter{Page: 1, PageSize: 1}.Normalize(),
	})
	if err != nil {
		return nil, err
	}

	variants, err := s.variantRepo.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	inventoryValue := decimal.Zero
	var lowStock int64
	for i := range variants {
		inventoryValue = inventoryValue.Add(variants[i].InventoryValue())
		if variants[i].NeedsReorder() {
			lowStock++
		}
	}

	return &report.Dashboard{
		Period:            p,
		TotalRevenue:      totals.Revenue,
		TotalOrders:       totals.OrderCount,
		AverageOrderValue: totals.AverageOrderValue(),
		ProductCount:      productCount,
		LowStockCount:     lowStock,
		InventoryValue:    inventoryValue,
		RevenueByPlatform: nonNil(byPlatform),
		DailyTrend:        nonNil(trend),
	}, nil
}

// Sales returns per-SKU sales for the period, best sellers first
func (s *AnalyticsService) Sales(ctx context.Context, tenantID uuid.UUID, filter PeriodFilter) (*report.SalesReport, error) {
	p := s.period(filter.Period)

	totals, err := s.salesRepo.GetSalesTotals(ctx, tenantID, p.Start, p.End)
	if err != nil {
		return nil, err
	}
	skus, err := s.salesRepo.GetSalesBySKU(ctx, tenantID, p.Start, p.End)
	if err != nil {
		return nil, err
	}
	lastSold, err := s.salesRepo.GetLastSaleDates(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	for i := range skus {
		skus[i].Velocity = report.SalesVelocity(skus[i].UnitsSold, p.Days)
		if at, ok := lastSold[skus[i].SKU]; ok {
			at := at
			skus[i].LastSoldAt = &at
		}
	}
	sort.SliceStable(skus, func(a, b int) bool { return skus[a].UnitsSold > skus[b].UnitsSold })

	return &report.SalesReport{Period: p, Totals: totals, SKUs: nonNil(skus)}, nil
}

// Inventory summarizes stock on hand
func (s *AnalyticsService) Inventory(ctx context.Context, tenantID uuid.UUID) (*report.InventoryReport, error) {
	variants, err := s.variantRepo.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	r := &report.InventoryReport{
		VariantCount: int64(len(variants)),
		TotalValue:   decimal.Zero,
		OutOfStock:   []report.StockLine{},
		LowStock:     []report.StockLine{},
	}
	for i := range variants {
		v := &variants[i]
		line := stockLine(v)
		r.TotalValue = r.TotalValue.Add(line.Value)
		if v.InventoryQuantity > 0 {
			r.TotalUnits += int64(v.InventoryQuantity)
		}
		switch {
		case v.InventoryQuantity <= 0:
			r.OutOfStock = append(r.OutOfStock, line)
		case v.NeedsReorder():
			r.LowStock = append(r.LowStock, line)
		}
	}
	r.OutOfStockCount = int64(len(r.OutOfStock))
	r.LowStockCount = int64(len(r.LowStock))
	return r, nil
}

// DeadStock lists variants holding stock with no sale in the window.
// Days of zero use the tenant setting.
func (s *AnalyticsService) DeadStock(ctx context.Context, tenantID uuid.UUID, filter DaysFilter) (*report.DeadStockReport, error) {
	days := filter.Days
	if days <= 0 {
		var err error
		if days, err = s.deadStockDays(ctx, tenantID); err != nil {
			return nil, err
		}
	}
	now := s.now()
	cutoff := now.AddDate(0, 0, -days)

	variants, err := s.variantRepo.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	lastSold, err := s.salesRepo.GetLastSaleDates(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	r := &report.DeadStockReport{Days: days, TotalValue: decimal.Zero, Items: []report.DeadStockItem{}}
	for i := range variants {
		v := &variants[i]
		if v.InventoryQuantity <= 0 {
			continue
		}
		item := report.DeadStockItem{StockLine: stockLine(v)}
		if at, ok := lastSold[v.SKU]; ok {
			if !at.Before(cutoff) {
				continue
			}
			at := at
			idle := int(now.Sub(at).Hours() / 24)
			item.LastSoldAt = &at
			item.DaysWithoutSale = &idle
		}
		r.TotalValue = r.TotalValue.Add(item.Value)
		r.Items = append(r.Items, item)
	}
	sort.SliceStable(r.Items, func(a, b int) bool { return r.Items[a].Value.GreaterThan(r.Items[b].Value) })
	return r, nil
}

// Reorder lists variants at or below their reorder point, emptiest first
func (s *AnalyticsService) Reorder(ctx context.Context, tenantID uuid.UUID) (*ReorderResponse, error) {
	variants, err := s.variantRepo.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	names := map[uuid.UUID]string{}
	resp := &ReorderResponse{Items: []report.ReorderItem{}, EstimatedCost: decimal.Zero}
	for i := range variants {
		v := &variants[i]
		if !v.NeedsReorder() {
			continue
		}
		qty := v.SuggestedReorderQuantity()
		item := report.ReorderItem{
			StockLine:         stockLine(v),
			SuggestedQuantity: qty,
			EstimatedCost:     v.Cost.Mul(decimal.NewFromInt(int64(qty))),
			SupplierID:        v.SupplierID,
		}
		if v.SupplierID != nil {
			item.SupplierName = s.supplierName(ctx, tenantID, *v.SupplierID, names)
		}
		resp.TotalUnits += int64(qty)
		resp.EstimatedCost = resp.EstimatedCost.Add(item.EstimatedCost)
		resp.Items = append(resp.Items, item)
	}

	sort.SliceStable(resp.Items, func(a, b int) bool {
		return urgency(resp.Items[a].StockLine) < urgency(resp.Items[b].StockLine)
	})
	return resp, nil
}

// urgency is stock as a fraction of the reorder point; lower is more urgent
func urgency(l report.StockLine) float64 {
	return float64(l.InventoryQuantity) / float64(l.ReorderPoint)
}

// supplierName resolves and memoizes supplier names. A missing supplier yields an empty name.
func (s *AnalyticsService) supplierName(ctx context.Context, tenantID, id uuid.UUID, names map[uuid.UUID]string) string {
	if name, ok := names[id]; ok {
		return name
	}
	name := ""
	supplier, err := s.supplierRepo.FindByIDForTenant(ctx, tenantID, id)
	switch {
	case err == nil:
		name = supplier.Name
	case !errors.Is(err, shared.ErrNotFound):
		logger.L(ctx).Warn("Failed to resolve supplier for reorder report",
			zap.String("supplier_id", id.String()), zap.Error(err))
	}
	names[id] = name
	return name
}

// Turnover computes COGS over current inventory value for the window
func (s *AnalyticsService) Turnover(ctx context.Context, tenantID uuid.UUID, filter DaysFilter) (*report.TurnoverReport, error) {
	days := filter.Days
	if days <= 0 {
		days = defaultTurnoverDays
	}
	p := s.period(days)

	totals, err := s.salesRepo.GetSalesTotals(ctx, tenantID, p.Start, p.End)
	if err != nil {
		return nil, err
	}
	variants, err := s.variantRepo.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	value := decimal.Zero
	for i := range variants {
		value = value.Add(variants[i].InventoryValue())
	}

	r := report.ComputeTurnover(p.Days, totals.CostOfGoods, value)
	return &r, nil
}

// SupplierPerformance scores and ranks the active suppliers
func (s *AnalyticsService) SupplierPerformance(ctx context.Context, tenantID uuid.UUID) (*SupplierPerformanceResponse, error) {
	var items []report.SupplierPerformance
	filter := partner.SupplierFilter{
		Filter:     shared.Filter{Page: 1, PageSize: shared.MaxPageSize, OrderBy: "name", OrderDir: "asc"}.Normalize(),
		ActiveOnly: true,
	}
	for {
		suppliers, total, err := s.supplierRepo.FindAllForTenant(ctx, tenantID, filter)
		if err != nil {
			return nil, err
		}
		for i := range suppliers {
			sup := &suppliers[i]
			items = append(items, report.SupplierPerformance{
				SupplierID:         sup.ID,
				Name:               sup.Name,
				OnTimeDeliveryRate: sup.OnTimeDeliveryRate,
				QualityScore:       sup.QualityScore,
				CostScore:          sup.CostScore,
				ResponseTimeHours:  sup.ResponseTimeHours,
			})
		}
		if len(suppliers) == 0 || int64(filter.Offset()+len(suppliers)) >= total {
			break
		}
		filter.Page++
	}

	resp := &SupplierPerformanceResponse{
		Suppliers: nonNil(report.RankSuppliers(items)),
		Counts: map[report.SupplierTier]int{
			report.SupplierExcellent: 0,
			report.SupplierGood:      0,
			report.SupplierAverage:   0,
			report.SupplierPoor:      0,
		},
	}
	for _, item := range resp.Suppliers {
		resp.Counts[item.Tier]++
	}
	return resp, nil
}

// ABCAnalysis classifies SKUs by revenue over the window
func (s *AnalyticsService) ABCAnalysis(ctx context.Context, tenantID uuid.UUID, filter DaysFilter) (*ABCResponse, error) {
	days := filter.Days
	if days <= 0 {
		days = defaultABCDays
	}
	p := s.period(days)

	sales, err := s.salesRepo.GetSalesBySKU(ctx, tenantID, p.Start, p.End)
	if err != nil {
		return nil, err
	}
	return &ABCResponse{Period: p, ABCSummary: report.ClassifyABC(sales)}, nil
}

// GetSettings returns the analytics settings with defaults applied
func (s *AnalyticsService) GetSettings(ctx context.Context, tenantID uuid.UUID) (*SettingsResponse, error) {
	days, err := s.deadStockDays(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &SettingsResponse{DeadStockDays: days}, nil
}

// UpdateSettings stores the analytics settings
func (s *AnalyticsService) UpdateSettings(ctx context.Context, tenantID uuid.UUID, req UpdateSettingsRequest) (*SettingsResponse, error) {
	if req.DeadStockDays < 1 || req.DeadStockDays > 365 {
		return nil, shared.NewDomainError("INVALID_SETTING", "dead_stock_days must be between 1 and 365")
	}
	if err := s.settingsRepo.SetInt(ctx, tenantID, report.SettingDeadStockDays, req.DeadStockDays); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Analytics settings updated", zap.Int("dead_stock_days", req.DeadStockDays))
	return &SettingsResponse{DeadStockDays: req.DeadStockDays}, nil
}

func (s *AnalyticsService) deadStockDays(ctx context.Context, tenantID uuid.UUID) (int, error) {
	days, ok, err := s.settingsRepo.GetInt(ctx, tenantID, report.SettingDeadStockDays)
	if err != nil {
		return 0, err
	}
	if !ok || days <= 0 {
		return s.defaultDeadStock, nil
	}
	return days, nil
}

func stockLine(v *catalog.Variant) report.StockLine {
	title := v.Title
	if title == "" {
		title = v.SKU
	}
	return report.StockLine{
		VariantID:         v.ID,
		ProductID:         v.ProductID,
		SKU:               v.SKU,
		Title:             title,
		InventoryQuantity: v.InventoryQuantity,
		ReorderPoint:      v.ReorderPoint,
		Cost:              v.Cost,
		Value:             v.InventoryValue(),
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
