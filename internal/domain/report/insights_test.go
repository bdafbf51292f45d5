package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateMargin(t *testing.T) {
	tests := []struct {
		pct  decimal.Decimal
		want MarginRating
	}{
		{d(62), MarginExcellent},
		{d(50), MarginExcellent},
		{d(30), MarginGood},
		{d(29.99), MarginAverage},
		{d(10), MarginPoor},
		{d(9.5), MarginCritical},
		{d(-12), MarginCritical},
	}
	for _, tt := range tests {
		t.Run(tt.pct.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, RateMargin(tt.pct))
		})
	}
}

func TestComputeMargin(t *testing.T) {
	m := ComputeMargin(SKUSales{SKU: "PROD-001", Revenue: d(10000), CostOfGoods: d(6000), UnitsSold: 100})
	assert.True(t, m.GrossProfit.Equal(d(4000)))
	assert.True(t, m.MarginPercent.Equal(d(40)))
	assert.True(t, m.MarginPerUnit.Equal(d(40)))

	loss := ComputeMargin(SKUSales{Revenue: d(100), CostOfGoods: d(150), UnitsSold: 4})
	assert.True(t, loss.MarginPercent.Equal(d(-50)))
	assert.True(t, loss.MarginPerUnit.Equal(d(-12.5)))
	assert.Equal(t, MarginCritical, loss.Rating)

	free := ComputeMargin(SKUSales{CostOfGoods: d(5)})
	assert.True(t, free.MarginPercent.IsZero())
	assert.True(t, free.MarginPerUnit.IsZero())

	assert.Empty(t, AnalyzeMargins(nil).Items)
}

func TestMovingAveragesAndForecast(t *testing.T) {
	series := []int64{100, 120, 110, 130, 125, 140, 135, 150}
	averages := MovingAverages(series, ForecastWindow)
	require.Len(t, averages, 5)
	assert.True(t, averages[0].Equal(d(115)))
	assert.True(t, averages[1].Equal(d(121.25)))
	assert.True(t, averages[4].Equal(d(137.5)))

	tests := []struct {
		name   string
		series []int64
		want   decimal.Decimal
	}{
		{"trend extrapolated", series, d(142.5)},
		{"single average", []int64{10, 20, 30, 40}, d(25)},
		{"shorter than window", []int64{3, 6}, d(4.5)},
		{"empty", nil, decimal.Zero},
		{"collapsing demand", []int64{100, 100, 100, 100, 0}, d(50)},
		{"never negative", []int64{400, 0, 0, 0, 0}, decimal.Zero},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := ForecastNextWeek(tt.series)
			assert.True(t, tt.want.Equal(got), got.String())
		})
	}
}

func TestTrendOf(t *testing.T) {
	assert.Equal(t, TrendIncreasing, TrendOf([]int64{10, 15, 20}))
	assert.Equal(t, TrendDecreasing, TrendOf([]int64{20, 30, 5}))
	assert.Equal(t, TrendStable, TrendOf([]int64{7, 1, 7}))
	assert.Equal(t, TrendStable, TrendOf([]int64{9}))
}

func TestComputeVelocity(t *testing.T) {
	h := SKUHistory{
		SKU:       "TEST-001",
		UnitsSold: 45,
		Revenue:   d(4500),
		Weeks:     []WeeklySales{{UnitsSold: 10}, {UnitsSold: 15}, {UnitsSold: 20}},
	}
	v := ComputeVelocity(h, 30)
	assert.True(t, v.UnitsPerDay.Equal(d(1.5)))
	assert.True(t, v.RevenuePerDay.Equal(d(150)))
	assert.Equal(t, TrendIncreasing, v.Trend)
	assert.Equal(t, VelocityMedium, v.Category)

	assert.Equal(t, VelocityHigh, CategorizeVelocity(d(5)))
	assert.Equal(t, VelocityLow, CategorizeVelocity(d(0.99)))
	assert.True(t, ComputeVelocity(h, 0).RevenuePerDay.IsZero())
}

func TestFindOpportunities(t *testing.T) {
	got := FindOpportunities([]OpportunityInput{
		{SKU: "BALANCED-PROD", MarginPercent: d(35), UnitsPerDay: d(10), InventoryQuantity: 75},
		{SKU: "LOW-MARGIN-HIGH-VEL", MarginPercent: d(15), UnitsPerDay: d(20), InventoryQuantity: 50},
		{SKU: "HIGH-MARGIN-LOW-VEL", MarginPercent: d(60), UnitsPerDay: d(2), InventoryQuantity: 100},
		{SKU: "UNREMARKABLE", MarginPercent: d(35), UnitsPerDay: d(10), InventoryQuantity: 10},
	})

	require.Len(t, got, 3)
	assert.Equal(t, "HIGH-MARGIN-LOW-VEL", got[0].SKU)
	assert.Equal(t, 30, got[0].Score)
	assert.Equal(t, []string{RecommendMarketing}, got[0].Recommendations)
	assert.Equal(t, 25, got[1].Score)
	assert.Equal(t, []string{RecommendPricing}, got[1].Recommendations)
	assert.Equal(t, 20, got[2].Score)

	assert.NotNil(t, FindOpportunities(nil))
}

func TestScoreCustomer(t *testing.T) {
	tests := []struct {
		name    string
		orders  int64
		spent   float64
		days    int
		want    CustomerSegment
		wantSum float64
	}{
		{"high value", 20, 5000, 240, SegmentChampions, 12.5},
		{"loyal", 16, 3000, 240, SegmentLoyal, 9},
		{"potential", 12, 2500, 240, SegmentPotentialLoyalists, 7},
		{"occasional", 2, 800, 300, SegmentNew, 1.5},
		{"scores capped", 400, 90000, 30, SegmentChampions, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := ScoreCustomer(CustomerSummary{OrderCount: tt.orders, TotalSpent: d(tt.spent)}, tt.days)
			assert.Equal(t, tt.want, in.Segment)
			assert.True(t, d(tt.wantSum).Equal(in.Score), in.Score.String())
		})
	}

	in := ScoreCustomer(CustomerSummary{OrderCount: 4, TotalSpent: d(1000), LastOrderAt: time.Unix(0, 0)}, 0)
	assert.True(t, in.OrdersPerMonth.IsZero())
	assert.True(t, in.AverageOrderValue.Equal(d(250)))
}

func TestAnalyzeChannel(t *testing.T) {
	tests := []struct {
		name     string
		rev      PlatformRevenue
		schedule ChannelFeeSchedule
		wantPct  decimal.Decimal
		want     ChannelEfficiency
	}{
		{
			name:     "payment processor only",
			rev:      PlatformRevenue{Platform: "WOOCOMMERCE", OrderCount: 200, Revenue: d(8000)},
			schedule: ChannelFeeSchedule{TransactionRate: d(3), PerOrderFee: d(0.5)},
			wantPct:  d(4.25),
			want:     ChannelExcellent,
		},
		{
			name:     "marketplace",
			rev:      PlatformRevenue{Platform: "AMAZON_FBA", OrderCount: 100, Revenue: d(15000)},
			schedule: ChannelFeeSchedule{TransactionRate: d(7), PerOrderFee: d(2), MonthlyFee: d(39.99)},
			wantPct:  d(8.6),
			want:     ChannelAverage,
		},
		{
			name:     "fees without sales",
			rev:      PlatformRevenue{Platform: "SHOPIFY"},
			schedule: DefaultFeeSchedule("SHOPIFY"),
			wantPct:  decimal.Zero,
			want:     ChannelPoor,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := AnalyzeChannel(tt.rev, tt.schedule, 30)
			assert.True(t, tt.wantPct.Equal(c.FeePercent), c.FeePercent.String())
			assert.Equal(t, tt.want, c.Efficiency)
			assert.True(t, c.NetRevenue.Equal(tt.rev.Revenue.Sub(c.TotalFees)))
		})
	}

	prorated := AnalyzeChannel(PlatformRevenue{Revenue: d(1000)}, ChannelFeeSchedule{MonthlyFee: d(30)}, 7)
	assert.True(t, prorated.MonthlyFees.Equal(d(7)))

	assert.Equal(t, ChannelGood, RateChannel(d(8)))
	assert.True(t, DefaultFeeSchedule("MANUAL").TransactionRate.IsZero())
}
