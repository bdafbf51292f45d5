package report

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/report"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const (
	defaultForecastWeeks   = 8
	defaultHistoryWeeks    = 12
	defaultCustomerDays    = 365
	maxChannelRatePercent  = 100
	channelAmountPrecision = 2
)

// weeksPeriod is the window of whole weeks ending now
func (s *AnalyticsService) weeksPeriod(weeks, fallback int) (report.Period, int) {
	if weeks <= 0 {
		weeks = fallback
	}
	return report.NewPeriod(s.now(), weeks*7), weeks
}

// GrossMargin rates the margin of each SKU sold in the period
func (s *AnalyticsService) GrossMargin(ctx context.Context, tenantID uuid.UUID, filter PeriodFilter) (*MarginResponse, error) {
	p := s.period(filter.Period)
	sales, err := s.salesRepo.GetSalesBySKU(ctx, tenantID, p.Start, p.End)
	if err != nil {
		return nil, err
	}
	return &MarginResponse{Period: p, MarginSummary: report.AnalyzeMargins(sales)}, nil
}

// DemandForecast projects next week's units for every SKU sold in the window,
// largest forecast first
func (s *AnalyticsService) DemandForecast(ctx context.Context, tenantID uuid.UUID, filter WeeksFilter) (*ForecastResponse, error) {
	p, weeks := s.weeksPeriod(filter.Weeks, defaultForecastWeeks)
	history, err := s.salesRepo.GetWeeklySalesBySKU(ctx, tenantID, p.Start, p.End, nil)
	if err != nil {
		return nil, err
	}
	stock, err := s.stockBySKU(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	items := make([]report.ForecastItem, 0, len(history))
	for _, h := range history {
		items = append(items, report.Forecast(h, stock[h.SKU].quantity))
	}
	sort.SliceStable(items, func(a, b int) bool {
		if c := items[a].ForecastUnits.Cmp(items[b].ForecastUnits); c != 0 {
			return c > 0
		}
		return items[a].SKU < items[b].SKU
	})
	return &ForecastResponse{Period: p, Weeks: weeks, Items: items}, nil
}

// SalesVelocity reports units and revenue per day with the weekly trend, fastest first
func (s *AnalyticsService) SalesVelocity(ctx context.Context, tenantID uuid.UUID, filter PeriodFilter) (*VelocityResponse, error) {
	p := s.period(filter.Period)
	history, err := s.salesRepo.GetWeeklySalesBySKU(ctx, tenantID, p.Start, p.End, nil)
	if err != nil {
		return nil, err
	}

	resp := &VelocityResponse{
		Period: p,
		Items:  make([]report.VelocityItem, 0, len(history)),
		Counts: map[report.VelocityCategory]int{
			report.VelocityHigh:   0,
			report.VelocityMedium: 0,
			report.VelocityLow:    0,
		},
	}
	for _, h := range history {
		item := report.ComputeVelocity(h, p.Days)
		resp.Counts[item.Category]++
		resp.Items = append(resp.Items, item)
	}
	sort.SliceStable(resp.Items, func(a, b int) bool {
		if c := resp.Items[a].UnitsPerDay.Cmp(resp.Items[b].UnitsPerDay); c != 0 {
			return c > 0
		}
		return resp.Items[a].SKU < resp.Items[b].SKU
	})
	return resp, nil
}

// Opportunities runs the opportunity rules over every SKU that sold in the
// period or holds stock. Unsold SKUs are judged on their list margin.
func (s *AnalyticsService) Opportunities(ctx context.Context, tenantID uuid.UUID, filter PeriodFilter) (*OpportunitiesResponse, error) {
	p := s.period(filter.Period)
	sales, err := s.salesRepo.GetSalesBySKU(ctx, tenantID, p.Start, p.End)
	if err != nil {
		return nil, err
	}
	stock, err := s.stockBySKU(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	inputs := make([]report.OpportunityInput, 0, len(stock))
	sold := make(map[string]bool, len(sales))
	for _, sale := range sales {
		sold[sale.SKU] = true
		inputs = append(inputs, report.OpportunityInput{
			SKU:               sale.SKU,
			Title:             sale.Title,
			MarginPercent:     report.ComputeMargin(sale).MarginPercent,
			UnitsPerDay:       report.SalesVelocity(sale.UnitsSold, p.Days),
			InventoryQuantity: stock[sale.SKU].quantity,
		})
	}
	for sku, st := range stock {
		if sold[sku] || st.quantity <= 0 {
			continue
		}
		inputs = append(inputs, report.OpportunityInput{
			SKU:               sku,
			Title:             st.title,
			MarginPercent:     st.listMargin,
			UnitsPerDay:       decimal.Zero,
			InventoryQuantity: st.quantity,
		})
	}
	return &OpportunitiesResponse{Period: p, Items: report.FindOpportunities(inputs)}, nil
}

// CustomerInsights segments the customers who ordered in the window. Days of zero cover a year.
func (s *AnalyticsService) CustomerInsights(ctx context.Context, tenantID uuid.UUID, filter DaysFilter) (*report.CustomerReport, error) {
	days := filter.Days
	if days <= 0 {
		days = defaultCustomerDays
	}
	p := s.period(days)
	customers, err := s.salesRepo.GetCustomerSummaries(ctx, tenantID, p.Start, p.End)
	if err != nil {
		return nil, err
	}
	r := report.AnalyzeCustomers(p, customers)
	return &r, nil
}

// ChannelFees applies each platform's fee schedule to its revenue in the period
func (s *AnalyticsService) ChannelFees(ctx context.Context, tenantID uuid.UUID, filter PeriodFilter) (*ChannelFeesResponse, error) {
	p := s.period(filter.Period)
	byPlatform, err := s.salesRepo.GetRevenueByPlatform(ctx, tenantID, p.Start, p.End)
	if err != nil {
		return nil, err
	}

	resp := &ChannelFeesResponse{
		Period:     p,
		Channels:   make([]report.ChannelFees, 0, len(byPlatform)),
		GrossSales: decimal.Zero,
		TotalFees:  decimal.Zero,
		NetRevenue: decimal.Zero,
		FeePercent: decimal.Zero,
	}
	for _, rev := range byPlatform {
		schedule, err := s.feeSchedule(ctx, tenantID, rev.Platform)
		if err != nil {
			return nil, err
		}
		c := report.AnalyzeChannel(rev, *schedule, p.Days)
		resp.GrossSales = resp.GrossSales.Add(c.GrossSales)
		resp.TotalFees = resp.TotalFees.Add(c.TotalFees)
		resp.Channels = append(resp.Channels, c)
	}
	resp.NetRevenue = resp.GrossSales.Sub(resp.TotalFees)
	if resp.GrossSales.IsPositive() {
		resp.FeePercent = resp.TotalFees.Div(resp.GrossSales).Mul(decimal.NewFromInt(100)).Round(2)
	}
	sort.SliceStable(resp.Channels, func(a, b int) bool {
		return resp.Channels[a].FeePercent.LessThan(resp.Channels[b].FeePercent)
	})
	return resp, nil
}

// UpdateChannelFees stores the fee schedule of one platform
func (s *AnalyticsService) UpdateChannelFees(ctx context.Context, tenantID uuid.UUID, req UpdateChannelFeesRequest) (*report.ChannelFeeSchedule, error) {
	platform := strings.ToUpper(strings.TrimSpace(req.Platform))
	if platform == "" {
		return nil, shared.NewDomainError("INVALID_SETTING", "platform is required")
	}
	if req.TransactionRate.IsNegative() || req.TransactionRate.GreaterThan(decimal.NewFromInt(maxChannelRatePercent)) {
		return nil, shared.NewDomainError("INVALID_SETTING", "transaction_rate must be between 0 and 100")
	}
	if req.PerOrderFee.IsNegative() || req.MonthlyFee.IsNegative() {
		return nil, shared.NewDomainError("INVALID_SETTING", "fees cannot be negative")
	}

	values := map[string]decimal.Decimal{
		report.SettingChannelRateBps(platform):       req.TransactionRate,
		report.SettingChannelOrderFeeCents(platform): req.PerOrderFee,
		report.SettingChannelMonthlyCents(platform):  req.MonthlyFee,
	}
	for _, v := range values {
		if !isWhole(v.Shift(channelAmountPrecision)) {
			return nil, shared.NewDomainError("INVALID_SETTING", "fees and rates take at most two decimals")
		}
	}
	for key, v := range values {
		if err := s.settingsRepo.SetInt(ctx, tenantID, key, int(v.Shift(channelAmountPrecision).IntPart())); err != nil {
			return nil, err
		}
	}

	logger.L(ctx).Info("Channel fee schedule updated",
		zap.String("platform", platform),
		zap.String("transaction_rate", req.TransactionRate.String()),
	)
	return s.feeSchedule(ctx, tenantID, platform)
}

// HistoricalSales returns the weekly series of the requested SKUs
func (s *AnalyticsService) HistoricalSales(ctx context.Context, tenantID uuid.UUID, filter HistoricalSalesFilter) (*HistoricalSalesResponse, error) {
	p, _ := s.weeksPeriod(filter.Weeks, defaultHistoryWeeks)
	skus := make([]string, 0, len(filter.SKUs))
	seen := make(map[string]bool, len(filter.SKUs))
	for _, sku := range filter.SKUs {
		sku = strings.TrimSpace(sku)
		if sku == "" || seen[sku] {
			continue
		}
		seen[sku] = true
		skus = append(skus, sku)
	}
	if len(skus) == 0 {
		return nil, shared.NewDomainError("INVALID_SKU", "at least one sku is required")
	}

	history, err := s.salesRepo.GetWeeklySalesBySKU(ctx, tenantID, p.Start, p.End, skus)
	if err != nil {
		return nil, err
	}
	return &HistoricalSalesResponse{Period: p, SKUs: nonNil(history)}, nil
}

// feeSchedule is the platform default overlaid with the tenant's settings
func (s *AnalyticsService) feeSchedule(ctx context.Context, tenantID uuid.UUID, platform string) (*report.ChannelFeeSchedule, error) {
	schedule := report.DefaultFeeSchedule(platform)
	for key, field := range map[string]*decimal.Decimal{
		report.SettingChannelRateBps(platform):       &schedule.TransactionRate,
		report.SettingChannelOrderFeeCents(platform): &schedule.PerOrderFee,
		report.SettingChannelMonthlyCents(platform):  &schedule.MonthlyFee,
	} {
		v, ok, err := s.settingsRepo.GetInt(ctx, tenantID, key)
		if err != nil {
			return nil, err
		}
		if ok {
			*field = decimal.New(int64(v), -channelAmountPrecision)
		}
	}
	return &schedule, nil
}

func isWhole(v decimal.Decimal) bool {
	return v.Equal(v.Truncate(0))
}

type skuStock struct {
	title      string
	quantity   int
	listMargin decimal.Decimal
}

// stockBySKU sums on-hand units per SKU; the list margin comes from the first variant carrying the SKU
func (s *AnalyticsService) stockBySKU(ctx context.Context, tenantID uuid.UUID) (map[string]skuStock, error) {
	variants, err := s.variantRepo.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]skuStock, len(variants))
	for i := range variants {
		v := &variants[i]
		st, ok := out[v.SKU]
		if !ok {
			st = skuStock{title: stockLine(v).Title, listMargin: listMargin(v)}
		}
		if v.InventoryQuantity > 0 {
			st.quantity += v.InventoryQuantity
		}
		out[v.SKU] = st
	}
	return out, nil
}

func listMargin(v *catalog.Variant) decimal.Decimal {
	return report.ComputeMargin(report.SKUSales{Revenue: v.Price, CostOfGoods: v.Cost}).MarginPercent
}
