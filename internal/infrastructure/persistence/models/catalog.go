package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockpilot/backend/internal/domain/catalog"
)

// ProductModel is the persistence model for the Product aggregate.
// Platform rows are unique on their external key; manual rows carry an empty external_id.
type ProductModel struct {
	BaseModel
	TenantID       uuid.UUID             `gorm:"type:uuid;not null;index;uniqueIndex:idx_product_external,priority:1,where:external_id <> ''"`
	Title          string                `gorm:"type:varchar(255);not null"`
	Description    string                `gorm:"type:text"`
	Vendor         string                `gorm:"type:varchar(200);index"`
	ProductType    string                `gorm:"type:varchar(100)"`
	Status         catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	SourcePlatform string                `gorm:"type:varchar(30);not null;uniqueIndex:idx_product_external,priority:2,where:external_id <> ''"`
	ExternalID     string                `gorm:"type:varchar(100);not null;default:'';uniqueIndex:idx_product_external,priority:3,where:external_id <> ''"`
	Variants       []VariantModel        `gorm:"foreignKey:ProductID"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		TenantEntity:   m.tenantEntity(m.TenantID),
		Title:          m.Title,
		Description:    m.Description,
		Vendor:         m.Vendor,
		ProductType:    m.ProductType,
		Status:         m.Status,
		SourcePlatform: m.SourcePlatform,
		ExternalID:     m.ExternalID,
		Variants:       make([]catalog.Variant, 0, len(m.Variants)),
	}
	for i := range m.Variants {
		p.Variants = append(p.Variants, *m.Variants[i].ToDomain())
	}
	return p
}

// FromDomain populates the model from a domain Product, variants excluded
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.TenantID = p.TenantID
	m.Title = p.Title
	m.Description = p.Description
	m.Vendor = p.Vendor
	m.ProductType = p.ProductType
	m.Status = p.Status
	m.SourcePlatform = p.SourcePlatform
	m.ExternalID = p.ExternalID
}

// ProductModelFromDomain creates a model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// VariantModel is the persistence model for a sellable SKU
type VariantModel struct {
	BaseModel
	TenantID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_variant_tenant_sku,priority:1;uniqueIndex:idx_variant_external,priority:1,where:external_id <> ''"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU               string          `gorm:"column:sku;type:varchar(100);not null;uniqueIndex:idx_variant_tenant_sku,priority:2"`
	Title             string          `gorm:"type:varchar(255)"`
	Price             decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Cost              decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	InventoryQuantity int             `gorm:"not null;default:0"`
	ReorderPoint      int             `gorm:"not null;default:0"`
	ReorderQuantity   int             `gorm:"not null;default:0"`
	SupplierID        *uuid.UUID      `gorm:"type:uuid;index"`
	SourcePlatform    string          `gorm:"type:varchar(30);not null;uniqueIndex:idx_variant_external,priority:2,where:external_id <> ''"`
	ExternalID        string          `gorm:"type:varchar(100);not null;default:'';uniqueIndex:idx_variant_external,priority:3,where:external_id <> ''"`
}

// TableName returns the table name for GORM
func (VariantModel) TableName() string {
	return "product_variants"
}

// ToDomain converts the persistence model to a domain Variant
func (m *VariantModel) ToDomain() *catalog.Variant {
	return &catalog.Variant{
		TenantEntity:      m.tenantEntity(m.TenantID),
		ProductID:         m.ProductID,
		SKU:               m.SKU,
		Title:             m.Title,
		Price:             m.Price,
		Cost:              m.Cost,
		InventoryQuantity: m.InventoryQuantity,
		ReorderPoint:      m.ReorderPoint,
		ReorderQuantity:   m.ReorderQuantity,
		SupplierID:        m.SupplierID,
		SourcePlatform:    m.SourcePlatform,
		ExternalID:        m.ExternalID,
	}
}

// FromDomain populates the model from a domain Variant
func (m *VariantModel) FromDomain(v *catalog.Variant) {
	m.FromDomainBaseEntity(v.BaseEntity)
	m.TenantID = v.TenantID
	m.ProductID = v.ProductID
	m.SKU = v.SKU
	m.Title = v.Title
	m.Price = v.Price
	m.Cost = v.Cost
	m.InventoryQuantity = v.InventoryQuantity
	m.ReorderPoint = v.ReorderPoint
	m.ReorderQuantity = v.ReorderQuantity
	m.SupplierID = v.SupplierID
	m.SourcePlatform = v.SourcePlatform
	m.ExternalID = v.ExternalID
}

// VariantModelFromDomain creates a model from a domain Variant
func VariantModelFromDomain(v *catalog.Variant) *VariantModel {
	m := &VariantModel{}
	m.FromDomain(v)
	return m
}
