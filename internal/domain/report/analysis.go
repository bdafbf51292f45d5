package report

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Inventory turnover
// ---------------------------------------------------------------------------

// TurnoverRating buckets a turnover ratio
type TurnoverRating string

const (
	TurnoverExcellent TurnoverRating = "Excellent"
	TurnoverGood      TurnoverRating = "Good"
	TurnoverAverage   TurnoverRating = "Average"
	TurnoverPoor      TurnoverRating = "Poor"
	TurnoverDead      TurnoverRating = "Dead Stock"
)

// RateTurnover maps a ratio to its rating
func RateTurnover(ratio decimal.Decimal) TurnoverRating {
	switch {
	case ratio.GreaterThanOrEqual(decimal.NewFromInt(10)):
		return TurnoverExcellent
	case ratio.GreaterThanOrEqual(decimal.NewFromInt(6)):
		return TurnoverGood
	case ratio.GreaterThanOrEqual(decimal.NewFromInt(3)):
		return TurnoverAverage
	case ratio.IsPositive():
		return TurnoverPoor
	default:
		return TurnoverDead
	}
}

// ComputeTurnover is COGS over current inventory value. Days of inventory is 365/ratio and
// is omitted when nothing sold.
func ComputeTurnover(days int, cogs, inventoryValue decimal.Decimal) TurnoverReport {
	r := TurnoverReport{
		Days:            days,
		CostOfGoodsSold: cogs,
		InventoryValue:  inventoryValue,
		Ratio:           decimal.Zero,
	}
	if inventoryValue.IsPositive() {
		r.Ratio = cogs.Div(inventoryValue).Round(2)
	}
	if r.Ratio.IsPositive() {
		doi := decimal.NewFromInt(365).Div(r.Ratio).Round(1)
		r.DaysOfInventory = &doi
	}
	r.Rating = RateTurnover(r.Ratio)
	return r
}

// ---------------------------------------------------------------------------
// Supplier performance
// ---------------------------------------------------------------------------

// SupplierTier buckets a supplier score
type SupplierTier string

const (
	SupplierExcellent SupplierTier = "Excellent"
	SupplierGood      SupplierTier = "Good"
	SupplierAverage   SupplierTier = "Average"
	SupplierPoor      SupplierTier = "Poor"
)

// Score weights
const (
	weightOnTime   = 0.30
	weightQuality  = 0.25
	weightCost     = 0.25
	weightResponse = 0.20
)

// SupplierPerformance is one supplier's weighted score
type SupplierPerformance struct {
	SupplierID         uuid.UUID    `json:"supplier_id"`
	Name               string       `json:"name"`
	OnTimeDeliveryRate float64      `json:"on_time_delivery_rate"`
	QualityScore       float64      `json:"quality_score"`
	CostScore          float64      `json:"cost_score"`
	ResponseTimeHours  float64      `json:"response_time_hours"`
	ResponseScore      float64      `json:"response_score"`
	Score              float64      `json:"score"`
	Tier               SupplierTier `json:"tier"`
}

// ResponseScore converts response hours to 0..100, losing 5 points per hour
func ResponseScore(hours float64) float64 {
	return math.Max(0, 100-5*hours)
}

// ScoreSupplier computes the weighted score, rounded to one decimal
func ScoreSupplier(onTime, quality, cost, responseHours float64) float64 {
	score := weightOnTime*onTime + weightQuality*quality + weightCost*cost + weightResponse*ResponseScore(responseHours)
	return math.Round(score*10) / 10
}

// TierFor maps a score to its tier
func TierFor(score float64) SupplierTier {
	switch {
	case score >= 90:
		return SupplierExcellent
	case score >= 80:
		return SupplierGood
	case score >= 70:
		return SupplierAverage
	default:
		return SupplierPoor
	}
}

// RankSuppliers fills score and tier and sorts best first
func RankSuppliers(items []SupplierPerformance) []SupplierPerformance {
	for i := range items {
		items[i].ResponseScore = ResponseScore(items[i].ResponseTimeHours)
		items[i].Score = ScoreSupplier(items[i].OnTimeDeliveryRate, items[i].QualityScore, items[i].CostScore, items[i].ResponseTimeHours)
		items[i].Tier = TierFor(items[i].Score)
	}
	sort.SliceStable(items, func(a, b int) bool { return items[a].Score > items[b].Score })
	return items
}

// ---------------------------------------------------------------------------
// ABC analysis
// ---------------------------------------------------------------------------

// ABCClass is a Pareto class
type ABCClass string

const (
	ClassA ABCClass = "A"
	ClassB ABCClass = "B"
	ClassC ABCClass = "C"
)

// ABCItem is one SKU's classification
type ABCItem struct {
	SKU             string          `json:"sku"`
	Title           string          `json:"title"`
	Revenue         decimal.Decimal `json:"revenue"`
	RevenueShare    decimal.Decimal `json:"revenue_share"`
	CumulativeShare decimal.Decimal `json:"cumulative_share"`
	Class           ABCClass        `json:"class"`
}

// ABCSummary counts SKUs per class
type ABCSummary struct {
	Items  []ABCItem        `json:"items"`
	Counts map[ABCClass]int `json:"counts"`
	Total  decimal.Decimal  `json:"total_revenue"`
}

// ClassifyABC sorts SKUs by revenue and assigns A up to 80% cumulative share, B up to 95%, C after.
// Shares are percentages.
func ClassifyABC(sales []SKUSales) ABCSummary {
	sorted := make([]SKUSales, len(sales))
	copy(sorted, sales)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Revenue.GreaterThan(sorted[j].Revenue) })

	total := decimal.Zero
	for _, s := range sorted {
		total = total.Add(s.Revenue)
	}

	summary := ABCSummary{
		Items:  make([]ABCItem, 0, len(sorted)),
		Counts: map[ABCClass]int{ClassA: 0, ClassB: 0, ClassC: 0},
		Total:  total,
	}
	if total.IsZero() {
		return summary
	}

	hundred := decimal.NewFromInt(100)
	cumulative := decimal.Zero
	for _, s := range sorted {
		share := s.Revenue.Div(total).Mul(hundred)
		cumulative = cumulative.Add(share)
		class := ClassC
		switch {
		case cumulative.LessThanOrEqual(decimal.NewFromInt(80)):
			class = ClassA
		case cumulative.LessThanOrEqual(decimal.NewFromInt(95)):
			class = ClassB
		}
		summary.Counts[class]++
		summary.Items = append(summary.Items, ABCItem{
			SKU:             s.SKU,
			Title:           s.Title,
			Revenue:         s.Revenue,
			RevenueShare:    share.Round(2),
			CumulativeShare: cumulative.Round(2),
			Class:           class,
		})
	}
	return summary
}

// SalesVelocity is units per day, rounded to two decimals
func SalesVelocity(units int64, days int) decimal.Decimal {
	if days <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(units).Div(decimal.NewFromInt(int64(days))).Round(2)
}
