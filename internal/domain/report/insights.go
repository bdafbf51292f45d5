package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// percentOf is part/whole as a percentage rounded to two decimals; zero when whole is not positive
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}

// ---------------------------------------------------------------------------
// Gross margin
// ---------------------------------------------------------------------------

// MarginRating buckets a gross margin percentage
type MarginRating string

const (
	MarginExcellent MarginRating = "Excellent"
	MarginGood      MarginRating = "Good"
	MarginAverage   MarginRating = "Average"
	MarginPoor      MarginRating = "Poor"
	MarginCritical  MarginRating = "Critical"
)

// RateMargin maps a margin percentage to its rating
func RateMargin(pct decimal.Decimal) MarginRating {
	switch {
	case pct.GreaterThanOrEqual(decimal.NewFromInt(50)):
		return MarginExcellent
	case pct.GreaterThanOrEqual(decimal.NewFromInt(30)):
		return MarginGood
	case pct.GreaterThanOrEqual(decimal.NewFromInt(20)):
		return MarginAverage
	case pct.GreaterThanOrEqual(decimal.NewFromInt(10)):
		return MarginPoor
	default:
		return MarginCritical
	}
}

// MarginItem is the gross margin of one SKU
type MarginItem struct {
	SKU           string          `json:"sku"`
	Title         string          `json:"title"`
	UnitsSold     int64           `json:"units_sold"`
	Revenue       decimal.Decimal `json:"revenue"`
	CostOfGoods   decimal.Decimal `json:"cost_of_goods"`
	GrossProfit   decimal.Decimal `json:"gross_profit"`
	MarginPercent decimal.Decimal `json:"margin_percent"`
	MarginPerUnit decimal.Decimal `json:"margin_per_unit"`
	Rating        MarginRating    `json:"rating"`
}

// ComputeMargin derives profit, margin percentage and margin per unit from a SKU's sales
func ComputeMargin(s SKUSales) MarginItem {
	profit := s.Revenue.Sub(s.CostOfGoods)
	item := MarginItem{
		SKU:           s.SKU,
		Title:         s.Title,
		UnitsSold:     s.UnitsSold,
		Revenue:       s.Revenue,
		CostOfGoods:   s.CostOfGoods,
		GrossProfit:   profit,
		MarginPercent: percentOf(profit, s.Revenue),
		MarginPerUnit: decimal.Zero,
	}
	if s.UnitsSold > 0 {
		item.MarginPerUnit = profit.Div(decimal.NewFromInt(s.UnitsSold)).Round(2)
	}
	item.Rating = RateMargin(item.MarginPercent)
	return item
}

// MarginSummary is the margin of every SKU sold plus the blended totals
type MarginSummary struct {
	Items         []MarginItem         `json:"items"`
	Revenue       decimal.Decimal      `json:"revenue"`
	CostOfGoods   decimal.Decimal      `json:"cost_of_goods"`
	GrossProfit   decimal.Decimal      `json:"gross_profit"`
	MarginPercent decimal.Decimal      `json:"margin_percent"`
	Counts        map[MarginRating]int `json:"counts"`
}

// AnalyzeMargins rates each SKU and sorts by gross profit, largest first
func AnalyzeMargins(sales []SKUSales) MarginSummary {
	summary := MarginSummary{
		Items:       make([]MarginItem, 0, len(sales)),
		Revenue:     decimal.Zero,
		CostOfGoods: decimal.Zero,
		Counts: map[MarginRating]int{
			MarginExcellent: 0, MarginGood: 0, MarginAverage: 0, MarginPoor: 0, MarginCritical: 0,
		},
	}
	for _, s := range sales {
		item := ComputeMargin(s)
		summary.Revenue = summary.Revenue.Add(s.Revenue)
		summary.CostOfGoods = summary.CostOfGoods.Add(s.CostOfGoods)
		summary.Counts[item.Rating]++
		summary.Items = append(summary.Items, item)
	}
	summary.GrossProfit = summary.Revenue.Sub(summary.CostOfGoods)
	summary.MarginPercent = percentOf(summary.GrossProfit, summary.Revenue)
	sort.SliceStable(summary.Items, func(i, j int) bool {
		if c := summary.Items[i].GrossProfit.Cmp(summary.Items[j].GrossProfit); c != 0 {
			return c > 0
		}
		return summary.Items[i].SKU < summary.Items[j].SKU
	})
	return summary
}

// ---------------------------------------------------------------------------
// Weekly history, trend and forecast
// ---------------------------------------------------------------------------

// WeeklySales is one seven-day bucket of a SKU's sales
type WeeklySales struct {
	WeekStart time.Time       `json:"week_start"`
	UnitsSold int64           `json:"units_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// SKUHistory is the weekly sales series of one SKU, oldest week first
type SKUHistory struct {
	SKU       string          `json:"sku"`
	Title     string          `json:"title"`
	UnitsSold int64           `json:"units_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
	Weeks     []WeeklySales   `json:"weeks"`
}

// Units returns the weekly unit series
func (h SKUHistory) Units() []int64 {
	units := make([]int64, len(h.Weeks))
	for i, w := range h.Weeks {
		units[i] = w.UnitsSold
	}
	return units
}

// Trend is the direction of a sales series
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// TrendOf compares the last point of a series with the first
func TrendOf(series []int64) Trend {
	if len(series) < 2 {
		return TrendStable
	}
	first, last := series[0], series[len(series)-1]
	switch {
	case last > first:
		return TrendIncreasing
	case last < first:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// ForecastWindow is the number of weeks in each moving average
const ForecastWindow = 4

// MovingAverages returns the trailing averages of window points. A series
// shorter than the window yields none.
func MovingAverages(series []int64, window int) []decimal.Decimal {
	if window <= 0 || len(series) < window {
		return nil
	}
	out := make([]decimal.Decimal, 0, len(series)-window+1)
	var sum int64
	for i, v := range series {
		sum += v
		if i >= window {
			sum -= series[i-window]
		}
		if i >= window-1 {
			out = append(out, decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(window))))
		}
	}
	return out
}

// ForecastNextWeek projects next week's units as the last moving average plus
// its change from the previous one. With a single average the average is the
// forecast; a series shorter than the window forecasts its mean. Never negative.
func ForecastNextWeek(series []int64) (decimal.Decimal, []decimal.Decimal) {
	averages := MovingAverages(series, ForecastWindow)
	var forecast decimal.Decimal
	switch len(averages) {
	case 0:
		if len(series) == 0 {
			return decimal.Zero, nil
		}
		var sum int64
		for _, v := range series {
			sum += v
		}
		forecast = decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(len(series))))
	case 1:
		forecast = averages[0]
	default:
		last, prev := averages[len(averages)-1], averages[len(averages)-2]
		forecast = last.Add(last.Sub(prev))
	}
	if forecast.IsNegative() {
		forecast = decimal.Zero
	}
	return forecast.Round(2), averages
}

// ForecastItem is the next-week demand projection of one SKU
type ForecastItem struct {
	SKU            string            `json:"sku"`
	Title          string            `json:"title"`
	WeeklyUnits    []int64           `json:"weekly_units"`
	MovingAverages []decimal.Decimal `json:"moving_averages"`
	ForecastUnits  decimal.Decimal   `json:"forecast_units"`
	Trend          Trend             `json:"trend"`
	CurrentStock   int               `json:"current_stock"`
	// WeeksOfCover is stock over forecast demand; omitted when no demand is forecast
	WeeksOfCover *decimal.Decimal `json:"weeks_of_cover,omitempty"`
}

// Forecast builds the projection for a SKU history against current stock
func Forecast(h SKUHistory, stock int) ForecastItem {
	units := h.Units()
	forecast, averages := ForecastNextWeek(units)
	item := ForecastItem{
		SKU:            h.SKU,
		Title:          h.Title,
		WeeklyUnits:    units,
		MovingAverages: averages,
		ForecastUnits:  forecast,
		Trend:          TrendOf(units),
		CurrentStock:   stock,
	}
	if item.MovingAverages == nil {
		item.MovingAverages = []decimal.Decimal{}
	}
	if forecast.IsPositive() {
		cover := decimal.NewFromInt(int64(max(stock, 0))).Div(forecast).Round(1)
		item.WeeksOfCover = &cover
	}
	return item
}

// ---------------------------------------------------------------------------
// Sales velocity
// ---------------------------------------------------------------------------

// VelocityCategory buckets units sold per day
type VelocityCategory string

const (
	VelocityHigh   VelocityCategory = "high"
	VelocityMedium VelocityCategory = "medium"
	VelocityLow    VelocityCategory = "low"
)

// CategorizeVelocity maps units per day to a category
func CategorizeVelocity(unitsPerDay decimal.Decimal) VelocityCategory {
	switch {
	case unitsPerDay.GreaterThanOrEqual(decimal.NewFromInt(5)):
		return VelocityHigh
	case unitsPerDay.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return VelocityMedium
	default:
		return VelocityLow
	}
}

// VelocityItem is the selling rate of one SKU
type VelocityItem struct {
	SKU           string           `json:"sku"`
	Title         string           `json:"title"`
	UnitsSold     int64            `json:"units_sold"`
	Revenue       decimal.Decimal  `json:"revenue"`
	Days          int              `json:"days"`
	UnitsPerDay   decimal.Decimal  `json:"units_per_day"`
	RevenuePerDay decimal.Decimal  `json:"revenue_per_day"`
	Trend         Trend            `json:"trend"`
	Category      VelocityCategory `json:"category"`
}

// ComputeVelocity derives per-day rates over days and the trend of the weekly series
func ComputeVelocity(h SKUHistory, days int) VelocityItem {
	item := VelocityItem{
		SKU:           h.SKU,
		Title:         h.Title,
		UnitsSold:     h.UnitsSold,
		Revenue:       h.Revenue,
		Days:          days,
		UnitsPerDay:   SalesVelocity(h.UnitsSold, days),
		RevenuePerDay: decimal.Zero,
		Trend:         TrendOf(h.Units()),
	}
	if days > 0 {
		item.RevenuePerDay = h.Revenue.Div(decimal.NewFromInt(int64(days))).Round(2)
	}
	item.Category = CategorizeVelocity(item.UnitsPerDay)
	return item
}

// ---------------------------------------------------------------------------
// Hidden opportunities
// ---------------------------------------------------------------------------

// Recommendations attached to opportunities
const (
	RecommendMarketing = "Increase marketing for high-margin product"
	RecommendPricing   = "Optimize pricing or reduce costs"
	RecommendBundling  = "Consider bundling or promotional campaigns"
)

// OpportunityInput is what the opportunity rules look at for one SKU
type OpportunityInput struct {
	SKU               string
	Title             string
	MarginPercent     decimal.Decimal
	UnitsPerDay       decimal.Decimal
	InventoryQuantity int
}

// Opportunity is a SKU with at least one matching rule
type Opportunity struct {
	SKU               string          `json:"sku"`
	Title             string          `json:"title"`
	MarginPercent     decimal.Decimal `json:"margin_percent"`
	UnitsPerDay       decimal.Decimal `json:"units_per_day"`
	InventoryQuantity int             `json:"inventory_quantity"`
	Score             int             `json:"score"`
	Recommendations   []string        `json:"recommendations"`
}

// FindOpportunities scores each SKU:
//   - margin over 50% selling under 5 a day: 30, more marketing
//   - over 15 a day at a margin under 20%: 25, pricing or cost review
//   - more than 60 units on hand at a 20..50% margin: 20, bundling or promotion
//
// SKUs scoring zero are dropped; the rest sort by score, highest first.
func FindOpportunities(inputs []OpportunityInput) []Opportunity {
	out := []Opportunity{}
	for _, in := range inputs {
		o := Opportunity{
			SKU:               in.SKU,
			Title:             in.Title,
			MarginPercent:     in.MarginPercent,
			UnitsPerDay:       in.UnitsPerDay,
			InventoryQuantity: in.InventoryQuantity,
		}
		if in.MarginPercent.GreaterThan(decimal.NewFromInt(50)) && in.UnitsPerDay.LessThan(decimal.NewFromInt(5)) {
			o.Score += 30
			o.Recommendations = append(o.Recommendations, RecommendMarketing)
		}
		if in.UnitsPerDay.GreaterThan(decimal.NewFromInt(15)) && in.MarginPercent.LessThan(decimal.NewFromInt(20)) {
			o.Score += 25
			o.Recommendations = append(o.Recommendations, RecommendPricing)
		}
		if in.InventoryQuantity > 60 &&
			in.MarginPercent.GreaterThanOrEqual(decimal.NewFromInt(20)) &&
			in.MarginPercent.LessThanOrEqual(decimal.NewFromInt(50)) {
			o.Score += 20
			o.Recommendations = append(o.Recommendations, RecommendBundling)
		}
		if o.Score > 0 {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].SKU < out[j].SKU
	})
	return out
}

// ---------------------------------------------------------------------------
// Customer insights
// ---------------------------------------------------------------------------

// CustomerSummary aggregates one customer's orders in a window. Customers are keyed by email.
type CustomerSummary struct {
	Email        string
	Name         string
	OrderCount   int64
	TotalSpent   decimal.Decimal
	FirstOrderAt time.Time
	LastOrderAt  time.Time
}

// CustomerSegment is a scored customer group
type CustomerSegment string

const (
	SegmentChampions          CustomerSegment = "Champions"
	SegmentLoyal              CustomerSegment = "Loyal Customers"
	SegmentPotentialLoyalists CustomerSegment = "Potential Loyalists"
	SegmentNew                CustomerSegment = "New Customers"
)

// SegmentFor maps a combined score to its segment
func SegmentFor(score decimal.Decimal) CustomerSegment {
	switch {
	case score.GreaterThanOrEqual(decimal.NewFromInt(12)):
		return SegmentChampions
	case score.GreaterThanOrEqual(decimal.NewFromInt(9)):
		return SegmentLoyal
	case score.GreaterThanOrEqual(decimal.NewFromInt(6)):
		return SegmentPotentialLoyalists
	default:
		return SegmentNew
	}
}

// CustomerInsight is a customer's scores and segment. Each score is capped at 5.
type CustomerInsight struct {
	Email             string          `json:"email"`
	Name              string          `json:"name"`
	OrderCount        int64           `json:"order_count"`
	TotalSpent        decimal.Decimal `json:"total_spent"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	OrdersPerMonth    decimal.Decimal `json:"orders_per_month"`
	LastOrderAt       time.Time       `json:"last_order_at"`
	RateScore         decimal.Decimal `json:"rate_score"`
	FrequencyScore    decimal.Decimal `json:"frequency_score"`
	MonetaryScore     decimal.Decimal `json:"monetary_score"`
	Score             decimal.Decimal `json:"score"`
	Segment           CustomerSegment `json:"segment"`
}

var scoreCap = decimal.NewFromInt(5)

func capScore(v decimal.Decimal) decimal.Decimal {
	return decimal.Min(v, scoreCap)
}

// ScoreCustomer scores a customer over a window of days: the rate score is
// orders per 30 days, frequency is orders over 4 and monetary is spend per 1000.
func ScoreCustomer(c CustomerSummary, days int) CustomerInsight {
	orders := decimal.NewFromInt(c.OrderCount)
	in := CustomerInsight{
		Email:             c.Email,
		Name:              c.Name,
		OrderCount:        c.OrderCount,
		TotalSpent:        c.TotalSpent,
		AverageOrderValue: SalesTotals{Revenue: c.TotalSpent, OrderCount: c.OrderCount}.AverageOrderValue(),
		OrdersPerMonth:    decimal.Zero,
		LastOrderAt:       c.LastOrderAt,
	}
	if days > 0 {
		in.OrdersPerMonth = orders.Mul(decimal.NewFromInt(30)).Div(decimal.NewFromInt(int64(days))).Round(2)
	}
	in.RateScore = capScore(in.OrdersPerMonth)
	in.FrequencyScore = capScore(orders.Div(decimal.NewFromInt(4)))
	in.MonetaryScore = capScore(c.TotalSpent.Div(decimal.NewFromInt(1000)))
	total := in.RateScore.Add(in.FrequencyScore).Add(in.MonetaryScore)
	in.Segment = SegmentFor(total)
	in.Score = total.Round(1)
	return in
}

// CustomerReport segments the customers who ordered in a period
type CustomerReport struct {
	Period               Period                  `json:"period"`
	TotalCustomers       int                     `json:"total_customers"`
	RepeatCustomers      int                     `json:"repeat_customers"`
	RepeatRate           decimal.Decimal         `json:"repeat_rate"`
	AverageLifetimeSpend decimal.Decimal         `json:"average_lifetime_spend"`
	Segments             map[CustomerSegment]int `json:"segments"`
	Customers            []CustomerInsight       `json:"customers"`
}

// AnalyzeCustomers scores every customer and sorts by score then spend
func AnalyzeCustomers(p Period, customers []CustomerSummary) CustomerReport {
	r := CustomerReport{
		Period:               p,
		TotalCustomers:       len(customers),
		RepeatRate:           decimal.Zero,
		AverageLifetimeSpend: decimal.Zero,
		Segments: map[CustomerSegment]int{
			SegmentChampions: 0, SegmentLoyal: 0, SegmentPotentialLoyalists: 0, SegmentNew: 0,
		},
		Customers: make([]CustomerInsight, 0, len(customers)),
	}
	spent := decimal.Zero
	for _, c := range customers {
		in := ScoreCustomer(c, p.Days)
		if c.OrderCount > 1 {
			r.RepeatCustomers++
		}
		spent = spent.Add(c.TotalSpent)
		r.Segments[in.Segment]++
		r.Customers = append(r.Customers, in)
	}
	if r.TotalCustomers > 0 {
		total := decimal.NewFromInt(int64(r.TotalCustomers))
		r.RepeatRate = percentOf(decimal.NewFromInt(int64(r.RepeatCustomers)), total)
		r.AverageLifetimeSpend = spent.Div(total).Round(2)
	}
	sort.SliceStable(r.Customers, func(i, j int) bool {
		a, b := r.Customers[i], r.Customers[j]
		if c := a.Score.Cmp(b.Score); c != 0 {
			return c > 0
		}
		return a.TotalSpent.GreaterThan(b.TotalSpent)
	})
	return r
}

// ---------------------------------------------------------------------------
// Channel fees
// ---------------------------------------------------------------------------

// ChannelFeeSchedule is what a sales channel charges. TransactionRate is a percentage of gross sales.
type ChannelFeeSchedule struct {
	Platform        string          `json:"platform"`
	TransactionRate decimal.Decimal `json:"transaction_rate"`
	PerOrderFee     decimal.Decimal `json:"per_order_fee"`
	MonthlyFee      decimal.Decimal `json:"monthly_fee"`
}

// DefaultChannelFees apply to platforms the tenant has not configured. Unlisted
// channels, such as manually recorded orders, carry no fees.
var DefaultChannelFees = map[string]ChannelFeeSchedule{
	"SHOPIFY": {
		Platform:        "SHOPIFY",
		TransactionRate: decimal.RequireFromString("2.9"),
		PerOrderFee:     decimal.RequireFromString("0.30"),
		MonthlyFee:      decimal.RequireFromString("29"),
	},
	"WOOCOMMERCE": {
		Platform:        "WOOCOMMERCE",
		TransactionRate: decimal.RequireFromString("2.9"),
		PerOrderFee:     decimal.RequireFromString("0.30"),
		MonthlyFee:      decimal.Zero,
	},
	"AMAZON_FBA": {
		Platform:        "AMAZON_FBA",
		TransactionRate: decimal.RequireFromString("8"),
		PerOrderFee:     decimal.RequireFromString("0.99"),
		MonthlyFee:      decimal.RequireFromString("39.99"),
	},
}

// DefaultFeeSchedule returns the default schedule of a platform, or a zero one
func DefaultFeeSchedule(platform string) ChannelFeeSchedule {
	if s, ok := DefaultChannelFees[platform]; ok {
		return s
	}
	return ChannelFeeSchedule{
		Platform:        platform,
		TransactionRate: decimal.Zero,
		PerOrderFee:     decimal.Zero,
		MonthlyFee:      decimal.Zero,
	}
}

// ChannelEfficiency buckets the share of sales lost to fees
type ChannelEfficiency string

const (
	ChannelExcellent ChannelEfficiency = "Excellent"
	ChannelGood      ChannelEfficiency = "Good"
	ChannelAverage   ChannelEfficiency = "Average"
	ChannelPoor      ChannelEfficiency = "Poor"
)

// RateChannel maps a fee percentage to its efficiency
func RateChannel(feePercent decimal.Decimal) ChannelEfficiency {
	switch {
	case feePercent.LessThanOrEqual(decimal.NewFromInt(5)):
		return ChannelExcellent
	case feePercent.LessThanOrEqual(decimal.NewFromInt(8)):
		return ChannelGood
	case feePercent.LessThanOrEqual(decimal.NewFromInt(12)):
		return ChannelAverage
	default:
		return ChannelPoor
	}
}

// ChannelFees is the fee burden of one channel over a period
type ChannelFees struct {
	Platform           string             `json:"platform"`
	OrderCount         int64              `json:"order_count"`
	GrossSales         decimal.Decimal    `json:"gross_sales"`
	TransactionFees    decimal.Decimal    `json:"transaction_fees"`
	MonthlyFees        decimal.Decimal    `json:"monthly_fees"`
	OtherFees          decimal.Decimal    `json:"other_fees"`
	TotalFees          decimal.Decimal    `json:"total_fees"`
	NetRevenue         decimal.Decimal    `json:"net_revenue"`
	FeePercent         decimal.Decimal    `json:"fee_percent"`
	ProfitabilityScore decimal.Decimal    `json:"profitability_score"`
	Efficiency         ChannelEfficiency  `json:"efficiency"`
	Schedule           ChannelFeeSchedule `json:"schedule"`
}

// AnalyzeChannel applies a fee schedule to a channel's revenue. The monthly
// fee is prorated over days; per-order fees count as other fees.
func AnalyzeChannel(rev PlatformRevenue, schedule ChannelFeeSchedule, days int) ChannelFees {
	transaction := rev.Revenue.Mul(schedule.TransactionRate).Div(hundred).Round(2)
	monthly := schedule.MonthlyFee.Mul(decimal.NewFromInt(int64(max(days, 0)))).Div(decimal.NewFromInt(30)).Round(2)
	other := schedule.PerOrderFee.Mul(decimal.NewFromInt(rev.OrderCount)).Round(2)
	total := transaction.Add(monthly).Add(other)
	net := rev.Revenue.Sub(total)

	c := ChannelFees{
		Platform:           rev.Platform,
		OrderCount:         rev.OrderCount,
		GrossSales:         rev.Revenue,
		TransactionFees:    transaction,
		MonthlyFees:        monthly,
		OtherFees:          other,
		TotalFees:          total,
		NetRevenue:         net,
		FeePercent:         percentOf(total, rev.Revenue),
		ProfitabilityScore: percentOf(net, rev.Revenue),
		Schedule:           schedule,
	}
	c.Efficiency = RateChannel(c.FeePercent)
	if !rev.Revenue.IsPositive() && total.IsPositive() {
		c.Efficiency = ChannelPoor
	}
	return c
}
