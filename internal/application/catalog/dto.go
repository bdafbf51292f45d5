package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockpilot/backend/internal/domain/catalog"
)

// VariantInput describes a variant in a create request
type VariantInput struct {
	SKU               string           `json:"sku" binding:"required,sku"`
	Title             string           `json:"title" binding:"max=255"`
	Price             decimal.Decimal  `json:"price"`
	Cost              *decimal.Decimal `json:"cost"`
	InventoryQuantity int              `json:"inventory_quantity" binding:"min=0"`
	ReorderPoint      int              `json:"reorder_point" binding:"min=0"`
	ReorderQuantity   int              `json:"reorder_quantity" binding:"min=0"`
	SupplierID        *uuid.UUID       `json:"supplier_id"`
}

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Title       string         `json:"title" binding:"required,min=1,max=255"`
	Description string         `json:"description" binding:"max=5000"`
	Vendor      string         `json:"vendor" binding:"max=255"`
	ProductType string         `json:"product_type" binding:"max=255"`
	Status      string         `json:"status" binding:"omitempty,oneof=active draft archived"`
	Variants    []VariantInput `json:"variants" binding:"omitempty,dive"`
}

// VariantUpdate changes one existing variant; nil fields are left as they are
type VariantUpdate struct {
	ID              uuid.UUID        `json:"id" binding:"required"`
	Title           *string          `json:"title" binding:"omitempty,max=255"`
	Price           *decimal.Decimal `json:"price"`
	Cost            *decimal.Decimal `json:"cost"`
	ReorderPoint    *int             `json:"reorder_point" binding:"omitempty,min=0"`
	ReorderQuantity *int             `json:"reorder_quantity" binding:"omitempty,min=0"`
	SupplierID      *uuid.UUID       `json:"supplier_id"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	Title       *string         `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string         `json:"description" binding:"omitempty,max=5000"`
	Vendor      *string         `json:"vendor" binding:"omitempty,max=255"`
	ProductType *string         `json:"product_type" binding:"omitempty,max=255"`
	Status      *string         `json:"status" binding:"omitempty,oneof=active draft archived"`
	Variants    []VariantUpdate `json:"variants" binding:"omitempty,dive"`
}

// AdjustInventoryRequest changes on-hand stock by Delta
type AdjustInventoryRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"max=255"`
}

// ProductListFilter is the query of GET /products
type ProductListFilter struct {
	Search         string `form:"search"`
	Status         string `form:"status" binding:"omitempty,oneof=active draft archived"`
	SourcePlatform string `form:"source_platform"`
	Page           int    `form:"page" binding:"omitempty,min=1"`
	PageSize       int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy        string `form:"order_by"`
	OrderDir       string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// VariantResponse represents a variant in API responses
type VariantResponse struct {
	ID                uuid.UUID       `json:"id"`
	SKU               string          `json:"sku"`
	Title             string          `json:"title"`
	Price             decimal.Decimal `json:"price"`
	Cost              decimal.Decimal `json:"cost"`
	InventoryQuantity int             `json:"inventory_quantity"`
	ReorderPoint      int             `json:"reorder_point"`
	ReorderQuantity   int             `json:"reorder_quantity"`
	NeedsReorder      bool            `json:"needs_reorder"`
	SupplierID        *uuid.UUID      `json:"supplier_id,omitempty"`
	SourcePlatform    string          `json:"source_platform"`
	ExternalID        string          `json:"external_id,omitempty"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID             uuid.UUID         `json:"id"`
	TenantID       uuid.UUID         `json:"tenant_id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Vendor         string            `json:"vendor"`
	ProductType    string            `json:"product_type"`
	Status         string            `json:"status"`
	SourcePlatform string            `json:"source_platform"`
	ExternalID     string            `json:"external_id,omitempty"`
	TotalInventory int               `json:"total_inventory"`
	Variants       []VariantResponse `json:"variants"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// InventoryAdjustmentResponse is the result of an inventory adjustment
type InventoryAdjustmentResponse struct {
	VariantID         uuid.UUID `json:"variant_id"`
	SKU               string    `json:"sku"`
	Delta             int       `json:"delta"`
	InventoryQuantity int       `json:"inventory_quantity"`
}

// ToVariantResponse converts a domain variant to a response
func ToVariantResponse(v *catalog.Variant) VariantResponse {
	return VariantResponse{
		ID:                v.ID,
		SKU:               v.SKU,
		Title:             v.Title,
		Price:             v.Price,
		Cost:              v.Cost,
		InventoryQuantity: v.InventoryQuantity,
		ReorderPoint:      v.ReorderPoint,
		ReorderQuantity:   v.ReorderQuantity,
		NeedsReorder:      v.NeedsReorder(),
		SupplierID:        v.SupplierID,
		SourcePlatform:    v.SourcePlatform,
		ExternalID:        v.ExternalID,
		UpdatedAt:         v.UpdatedAt,
	}
}

// ToProductResponse converts a domain product to a response
func ToProductResponse(p *catalog.Product) ProductResponse {
	variants := make([]VariantResponse, 0, len(p.Variants))
	for i := range p.Variants {
		variants = append(variants, ToVariantResponse(&p.Variants[i]))
	}
	return ProductResponse{
		ID:             p.ID,
		TenantID:       p.TenantID,
		Title:          p.Title,
		Description:    p.Description,
		Vendor:         p.Vendor,
		ProductType:    p.ProductType,
		Status:         string(p.Status),
		SourcePlatform: p.SourcePlatform,
		ExternalID:     p.ExternalID,
		TotalInventory: p.TotalInventory(),
		Variants:       variants,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// ToProductResponses converts a slice of products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i])
	}
	return responses
}
