package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLine is one variant as seen by inventory reports
type StockLine struct {
	VariantID         uuid.UUID       `json:"variant_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	SKU               string          `json:"sku"`
	Title             string          `json:"title"`
	InventoryQuantity int             `json:"inventory_quantity"`
	ReorderPoint      int             `json:"reorder_point"`
	Cost              decimal.Decimal `json:"cost"`
	Value             decimal.Decimal `json:"value"`
}

// InventoryReport summarizes stock on hand
type InventoryReport struct {
	VariantCount    int64           `json:"variant_count"`
	TotalUnits      int64           `json:"total_units"`
	TotalValue      decimal.Decimal `json:"total_value"`
	OutOfStockCount int64           `json:"out_of_stock_count"`
	LowStockCount   int64           `json:"low_stock_count"`
	OutOfStock      []StockLine     `json:"out_of_stock"`
	LowStock        []StockLine     `json:"low_stock"`
}

// DeadStockItem is a variant holding stock that has not sold within the window
type DeadStockItem struct {
	StockLine
	LastSoldAt      *time.Time `json:"last_sold_at,omitempty"`
	DaysWithoutSale *int       `json:"days_without_sale,omitempty"`
}

// DeadStockReport lists dead stock for a window
type DeadStockReport struct {
	Days       int             `json:"days"`
	TotalValue decimal.Decimal `json:"total_value"`
	Items      []DeadStockItem `json:"items"`
}

// ReorderItem is a variant at or below its reorder point
type ReorderItem struct {
	StockLine
	SuggestedQuantity int             `json:"suggested_quantity"`
	EstimatedCost     decimal.Decimal `json:"estimated_cost"`
	SupplierID        *uuid.UUID      `json:"supplier_id,omitempty"`
	SupplierName      string          `json:"supplier_name,omitempty"`
}

// TurnoverReport is the inventory turnover of a window
type TurnoverReport struct {
	Days            int              `json:"days"`
	CostOfGoodsSold decimal.Decimal  `json:"cost_of_goods_sold"`
	InventoryValue  decimal.Decimal  `json:"inventory_value"`
	Ratio           decimal.Decimal  `json:"ratio"`
	DaysOfInventory *decimal.Decimal `json:"days_of_inventory,omitempty"`
	Rating          TurnoverRating   `json:"rating"`
}
