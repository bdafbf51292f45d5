package persistence

import (
	"strings"

	"github.com/stockpilot/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC (the default)
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when whitelisted, defaultField otherwise
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" || !allowedFields[trimmed] {
		return defaultField
	}
	return trimmed
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"title":        true,
	"vendor":       true,
	"product_type": true,
	"status":       true,
}

// SupplierSortFields contains allowed sort fields for suppliers
var SupplierSortFields = map[string]bool{
	"created_at":            true,
	"updated_at":            true,
	"name":                  true,
	"lead_time_days":        true,
	"on_time_delivery_rate": true,
	"quality_score":         true,
	"cost_score":            true,
}

// PurchaseOrderSortFields contains allowed sort fields for purchase orders
var PurchaseOrderSortFields = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"number":      true,
	"status":      true,
	"expected_at": true,
	"total":       true,
}

// SalesOrderSortFields contains allowed sort fields for sales orders
var SalesOrderSortFields = map[string]bool{
	"created_at":   true,
	"ordered_at":   true,
	"order_number": true,
	"total":        true,
	"status":       true,
}

// IntegrationSortFields contains allowed sort fields for integrations
var IntegrationSortFields = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"name":         true,
	"platform":     true,
	"status":       true,
	"last_sync_at": true,
}

// SyncRunSortFields contains allowed sort fields for sync runs
var SyncRunSortFields = map[string]bool{
	"created_at":  true,
	"started_at":  true,
	"finished_at": true,
	"status":      true,
}

// paginate applies whitelisted ordering plus limit/offset from a normalized filter
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	filter = filter.Normalize()
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	return query.
		Order(field + " " + ValidateSortOrder(filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize)
}

// likePattern builds a case-insensitive contains pattern
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}
