package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockpilot/backend/internal/domain/shared"
)

// ProductStatus represents the lifecycle status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusArchived ProductStatus = "archived"
)

// IsValid returns true if the status is a known value
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusActive, ProductStatusDraft, ProductStatusArchived:
		return true
	default:
		return false
	}
}

// SourceManual marks rows created in the dashboard rather than pulled from a platform
const SourceManual = "MANUAL"

// Product is the aggregate root of the catalog. Variants carry the SKU, price and stock.
type Product struct {
	shared.TenantEntity
	Title          string
	Description    string
	Vendor         string
	ProductType    string
	Status         ProductStatus
	SourcePlatform string
	ExternalID     string
	Variants       []Variant
}

// Variant is a sellable SKU of a product
type Variant struct {
	shared.TenantEntity
	ProductID         uuid.UUID
	SKU               string
	Title             string
	Price             decimal.Decimal
	Cost              decimal.Decimal
	InventoryQuantity int
	ReorderPoint      int
	ReorderQuantity   int
	SupplierID        *uuid.UUID
	SourcePlatform    string
	ExternalID        string
}

// NewProduct creates a new manually managed product
func NewProduct(tenantID uuid.UUID, title string) (*Product, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	return &Product{
		TenantEntity:   shared.NewTenantEntity(tenantID),
		Title:          strings.TrimSpace(title),
		Status:         ProductStatusActive,
		SourcePlatform: SourceManual,
	}, nil
}

// Update changes the descriptive fields of the product
func (p *Product) Update(title, description, vendor, productType string) error {
	if err := validateTitle(title); err != nil {
		return err
	}
	p.Title = strings.TrimSpace(title)
	p.Description = description
	p.Vendor = vendor
	p.ProductType = productType
	p.Touch()
	return nil
}

// SetStatus changes the product status
func (p *Product) SetStatus(status ProductStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Product status must be one of active, draft, archived")
	}
	p.Status = status
	p.Touch()
	return nil
}

// Archive marks the product archived; used when a platform deletes it
func (p *Product) Archive() {
	p.Status = ProductStatusArchived
	p.Touch()
}

// AddVariant appends a validated variant to the product
func (p *Product) AddVariant(sku, title string, price, cost decimal.Decimal) (*Variant, error) {
	v, err := NewVariant(p.TenantID, p.ID, sku, title, price, cost)
	if err != nil {
		return nil, err
	}
	for _, existing := range p.Variants {
		if strings.EqualFold(existing.SKU, v.SKU) {
			return nil, shared.NewDomainError("DUPLICATE_SKU", "SKU already exists on this product")
		}
	}
	v.SourcePlatform = p.SourcePlatform
	p.Variants = append(p.Variants, *v)
	p.Touch()
	return &p.Variants[len(p.Variants)-1], nil
}

// FindVariant returns the variant with the given ID
func (p *Product) FindVariant(id uuid.UUID) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// TotalInventory sums stock across variants
func (p *Product) TotalInventory() int {
	total := 0
	for _, v := range p.Variants {
		total += v.InventoryQuantity
	}
	return total
}

// NewVariant creates a validated variant
func NewVariant(tenantID, productID uuid.UUID, sku, title string, price, cost decimal.Decimal) (*Variant, error) {
	sku = strings.TrimSpace(sku)
	if err := ValidateSKU(sku); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if cost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Cost cannot be negative")
	}
	if title == "" {
		title = "Default"
	}
	return &Variant{
		TenantEntity:   shared.NewTenantEntity(tenantID),
		ProductID:      productID,
		SKU:            sku,
		Title:          title,
		Price:          price,
		Cost:           cost,
		SourcePlatform: SourceManual,
	}, nil
}

// SetReorderPolicy sets the reorder point and quantity
func (v *Variant) SetReorderPolicy(point, quantity int) error {
	if point < 0 || quantity < 0 {
		return shared.NewDomainError("INVALID_REORDER_POLICY", "Reorder point and quantity cannot be negative")
	}
	v.ReorderPoint = point
	v.ReorderQuantity = quantity
	v.Touch()
	return nil
}

// SetPricing updates price and cost
func (v *Variant) SetPricing(price, cost decimal.Decimal) error {
	if price.IsNegative() || cost.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price and cost cannot be negative")
	}
	v.Price = price
	v.Cost = cost
	v.Touch()
	return nil
}

// AdjustInventory applies delta to the on-hand quantity. Stock cannot go below zero.
func (v *Variant) AdjustInventory(delta int) error {
	next := v.InventoryQuantity + delta
	if next < 0 {
		return shared.NewDomainError("INSUFFICIENT_STOCK", "Inventory cannot go below zero")
	}
	v.InventoryQuantity = next
	v.UpdatedAt = time.Now()
	return nil
}

// NeedsReorder reports whether stock has fallen to the reorder point
func (v *Variant) NeedsReorder() bool {
	return v.ReorderPoint > 0 && v.InventoryQuantity <= v.ReorderPoint
}

// SuggestedReorderQuantity falls back to twice the reorder point when no quantity is configured
func (v *Variant) SuggestedReorderQuantity() int {
	if v.ReorderQuantity > 0 {
		return v.ReorderQuantity
	}
	return v.ReorderPoint * 2
}

// InventoryValue is on-hand quantity at cost
func (v *Variant) InventoryValue() decimal.Decimal {
	return v.Cost.Mul(decimal.NewFromInt(int64(v.InventoryQuantity)))
}

// ValidateSKU checks SKU shape: non-empty, at most 64 characters, no whitespace
func ValidateSKU(sku string) error {
	if sku == "" {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 64 {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 64 characters")
	}
	if strings.ContainsAny(sku, " \t\r\n") {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot contain whitespace")
	}
	return nil
}

func validateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Product title cannot be empty")
	}
	if len(title) > 255 {
		return shared.NewDomainError("INVALID_TITLE", "Product title cannot exceed 255 characters")
	}
	return nil
}
