package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/partner"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ProductService handles product-related business operations
type ProductService struct {
	productRepo  catalog.ProductRepository
	variantRepo  catalog.VariantRepository
	supplierRepo partner.SupplierRepository
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	variantRepo catalog.VariantRepository,
	supplierRepo partner.SupplierRepository,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		variantRepo:  variantRepo,
		supplierRepo: supplierRepo,
	}
}

// Create creates a new product with its variants
func (s *ProductService) Create(ctx context.Context, tenantID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	product, err := catalog.NewProduct(tenantID, req.Title)
	if err != nil {
		return nil, err
	}
	if err := product.Update(req.Title, req.Description, req.Vendor, req.ProductType); err != nil {
		return nil, err
	}
	if req.Status != "" {
		if err := product.SetStatus(catalog.ProductStatus(req.Status)); err != nil {
			return nil, err
		}
	}

	for _, in := range req.Variants {
		exists, err := s.productRepo.ExistsBySKU(ctx, tenantID, in.SKU)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "A variant with SKU "+in.SKU+" already exists")
		}

		cost := decimal.Zero
		if in.Cost != nil {
			cost = *in.Cost
		}
		variant, err := product.AddVariant(in.SKU, in.Title, in.Price, cost)
		if err != nil {
			return nil, err
		}
		if err := variant.SetReorderPolicy(in.ReorderPoint, in.ReorderQuantity); err != nil {
			return nil, err
		}
		if err := variant.AdjustInventory(in.InventoryQuantity); err != nil {
			return nil, err
		}
		if err := s.assignSupplier(ctx, tenantID, variant, in.SupplierID); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.Int("variants", len(product.Variants)))

	response := ToProductResponse(product)
	return &response, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, tenantID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	response := ToProductResponse(product)
	return &response, nil
}

// List retrieves a page of products
func (s *ProductService) List(ctx context.Context, tenantID uuid.UUID, filter ProductListFilter) (shared.Paginated[ProductResponse], error) {
	domainFilter := catalog.ProductFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		}.Normalize(),
		Status:         catalog.ProductStatus(filter.Status),
		SourcePlatform: filter.SourcePlatform,
	}

	products, total, err := s.productRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	return shared.NewPaginated(ToProductResponses(products), total, domainFilter.Page, domainFilter.PageSize), nil
}

// Update updates a product and, optionally, some of its variants
func (s *ProductService) Update(ctx context.Context, tenantID, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	title, description, vendor, productType := product.Title, product.Description, product.Vendor, product.ProductType
	if req.Title != nil {
		title = *req.Title
	}
	if req.Description != nil {
		description = *req.Description
	}
	if req.Vendor != nil {
		vendor = *req.Vendor
	}
	if req.ProductType != nil {
		productType = *req.ProductType
	}
	if err := product.Update(title, description, vendor, productType); err != nil {
		return nil, err
	}
	if req.Status != nil {
		if err := product.SetStatus(catalog.ProductStatus(*req.Status)); err != nil {
			return nil, err
		}
	}

	for _, vu := range req.Variants {
		variant, ok := product.FindVariant(vu.ID)
		if !ok {
			return nil, shared.NewDomainError("VARIANT_NOT_FOUND", "Variant does not belong to this product")
		}
		if err := applyVariantUpdate(variant, vu); err != nil {
			return nil, err
		}
		if vu.SupplierID != nil {
			if err := s.assignSupplier(ctx, tenantID, variant, vu.SupplierID); err != nil {
				return nil, err
			}
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	response := ToProductResponse(product)
	return &response, nil
}

// Delete deletes a product and its variants
func (s *ProductService) Delete(ctx context.Context, tenantID, productID uuid.UUID) error {
	if err := s.productRepo.DeleteForTenant(ctx, tenantID, productID); err != nil {
		return err
	}
	logger.L(ctx).Info("product deleted", zap.String("product_id", productID.String()))
	return nil
}

// AdjustInventory applies a stock delta to one variant of a product.
// The repository update is atomic and refuses to go below zero.
func (s *ProductService) AdjustInventory(ctx context.Context, tenantID, productID, variantID uuid.UUID, req AdjustInventoryRequest) (*InventoryAdjustmentResponse, error) {
	if req.Delta == 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Adjustment delta cannot be zero")
	}

	variant, err := s.variantRepo.FindByIDForTenant(ctx, tenantID, variantID)
	if err != nil {
		return nil, err
	}
	if variant.ProductID != productID {
		return nil, shared.ErrNotFound
	}

	quantity, err := s.variantRepo.AdjustInventory(ctx, tenantID, variantID, req.Delta)
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("inventory adjusted",
		zap.String("variant_id", variantID.String()),
		zap.String("sku", variant.SKU),
		zap.Int("delta", req.Delta),
		zap.Int("quantity", quantity),
		zap.String("reason", req.Reason))

	return &InventoryAdjustmentResponse{
		VariantID:         variantID,
		SKU:               variant.SKU,
		Delta:             req.Delta,
		InventoryQuantity: quantity,
	}, nil
}

func (s *ProductService) assignSupplier(ctx context.Context, tenantID uuid.UUID, variant *catalog.Variant, supplierID *uuid.UUID) error {
	if supplierID == nil || *supplierID == uuid.Nil {
		variant.SupplierID = nil
		return nil
	}
	if _, err := s.supplierRepo.FindByIDForTenant(ctx, tenantID, *supplierID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_SUPPLIER", "Supplier not found")
		}
		return err
	}
	id := *supplierID
	variant.SupplierID = &id
	return nil
}

func applyVariantUpdate(variant *catalog.Variant, vu VariantUpdate) error {
	if vu.Title != nil && *vu.Title != "" {
		variant.Title = *vu.Title
	}
	price, cost := variant.Price, variant.Cost
	if vu.Price != nil {
		price = *vu.Price
	}
	if vu.Cost != nil {
		cost = *vu.Cost
	}
	if err := variant.SetPricing(price, cost); err != nil {
		return err
	}
	point, quantity := variant.ReorderPoint, variant.ReorderQuantity
	if vu.ReorderPoint != nil {
		point = *vu.ReorderPoint
	}
	if vu.ReorderQuantity != nil {
		quantity = *vu.ReorderQuantity
	}
	return variant.SetReorderPolicy(point, quantity)
}
