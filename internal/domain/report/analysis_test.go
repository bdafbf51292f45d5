package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestRateTurnover(t *testing.T) {
	tests := []struct {
		ratio decimal.Decimal
		want  TurnoverRating
	}{
		{d(12), TurnoverExcellent},
		{d(10), TurnoverExcellent},
		{d(6), TurnoverGood},
		{d(5.99), TurnoverAverage},
		{d(3), TurnoverAverage},
		{d(0.1), TurnoverPoor},
		{decimal.Zero, TurnoverDead},
	}
	for _, tt := range tests {
		t.Run(tt.ratio.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, RateTurnover(tt.ratio))
		})
	}
}

func TestComputeTurnover(t *testing.T) {
	r := ComputeTurnover(365, d(5000), d(1000))
	assert.True(t, r.Ratio.Equal(d(5)))
	require.NotNil(t, r.DaysOfInventory)
	assert.True(t, r.DaysOfInventory.Equal(d(73)))
	assert.Equal(t, TurnoverAverage, r.Rating)

	empty := ComputeTurnover(30, d(100), decimal.Zero)
	assert.True(t, empty.Ratio.IsZero())
	assert.Nil(t, empty.DaysOfInventory)
	assert.Equal(t, TurnoverDead, empty.Rating)
}

func TestScoreSupplier(t *testing.T) {
	tests := []struct {
		name                             string
		onTime, quality, cost, respHours float64
		wantScore                        float64
		wantTier                         SupplierTier
	}{
		{"perfect", 100, 100, 100, 0, 100, SupplierExcellent},
		{"slow response", 100, 100, 100, 4, 96, SupplierExcellent},
		{"response floor", 90, 80, 80, 30, 67, SupplierPoor},
		{"good", 90, 85, 80, 2, 86.3, SupplierGood},
		{"average", 80, 70, 70, 4, 75, SupplierAverage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := ScoreSupplier(tt.onTime, tt.quality, tt.cost, tt.respHours)
			assert.InDelta(t, tt.wantScore, score, 0.05)
			assert.Equal(t, tt.wantTier, TierFor(score))
		})
	}
}

func TestRankSuppliers(t *testing.T) {
	ranked := RankSuppliers([]SupplierPerformance{
		{Name: "slow", OnTimeDeliveryRate: 50, QualityScore: 50, CostScore: 50, ResponseTimeHours: 10},
		{Name: "fast", OnTimeDeliveryRate: 100, QualityScore: 95, CostScore: 90, ResponseTimeHours: 1},
	})
	require.Len(t, ranked, 2)
	assert.Equal(t, "fast", ranked[0].Name)
	assert.Equal(t, SupplierExcellent, ranked[0].Tier)
	assert.Equal(t, float64(95), ranked[0].ResponseScore)
	assert.Equal(t, SupplierPoor, ranked[1].Tier)
}

func TestClassifyABC(t *testing.T) {
	summary := ClassifyABC([]SKUSales{
		{SKU: "low-1", Revenue: d(30)},
		{SKU: "top", Revenue: d(700)},
		{SKU: "second", Revenue: d(100)},
		{SKU: "third", Revenue: d(100)},
		{SKU: "fourth", Revenue: d(50)},
		{SKU: "low-2", Revenue: d(20)},
	})

	require.Len(t, summary.Items, 6)
	assert.True(t, summary.Total.Equal(d(1000)))
	assert.Equal(t, "top", summary.Items[0].SKU)
	classes := map[string]ABCClass{}
	for _, item := range summary.Items {
		classes[item.SKU] = item.Class
	}
	// cumulative: 70, 80, 90, 95, 98, 100
	assert.Equal(t, ClassA, classes["top"])
	assert.Equal(t, ClassA, classes["second"])
	assert.Equal(t, ClassB, classes["third"])
	assert.Equal(t, ClassB, classes["fourth"])
	assert.Equal(t, ClassC, classes["low-1"])
	assert.Equal(t, ClassC, classes["low-2"])
	assert.Equal(t, 2, summary.Counts[ClassA])

	assert.Empty(t, ClassifyABC(nil).Items)
}

func TestPeriodAndVelocity(t *testing.T) {
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	p := NewPeriod(end, 0)
	assert.Equal(t, 30, p.Days)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), p.Start)

	assert.True(t, SalesVelocity(45, 30).Equal(d(1.5)))
	assert.True(t, SalesVelocity(10, 0).IsZero())

	totals := SalesTotals{Revenue: d(100), OrderCount: 3}
	assert.True(t, totals.AverageOrderValue().Equal(d(33.33)))
}
