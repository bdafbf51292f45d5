package importapp

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/shared"
	csvimport "github.com/stockpilot/backend/internal/infrastructure/import"
)

// ProductColumns is the header of product imports and exports
var ProductColumns = []string{
	"title", "sku", "price", "cost", "inventory_quantity", "reorder_point",
	"reorder_quantity", "vendor", "product_type", "status", "variant_title",
}

// ProductImportService imports products from CSV. Each row is one variant;
// rows sharing a title within a file become variants of one product.
type ProductImportService struct {
	importer
	productRepo catalog.ProductRepository
	variantRepo catalog.VariantRepository
}

// NewProductImportService creates a new ProductImportService
func NewProductImportService(
	productRepo catalog.ProductRepository,
	variantRepo catalog.VariantRepository,
	tx shared.Transactor,
	processor *csvimport.Processor,
) *ProductImportService {
	return &ProductImportService{
		importer:    importer{processor: processor, tx: tx},
		productRepo: productRepo,
		variantRepo: variantRepo,
	}
}

// GetValidationRules returns the validation rules for product import
func (s *ProductImportService) GetValidationRules() []csvimport.FieldRule {
	return []csvimport.FieldRule{
		csvimport.Field("title").Required().MaxLength(255).Build(),
		csvimport.Field("sku").Required().MaxLength(64).Pattern(`^\S+$`, "a SKU without whitespace").Unique().Build(),
		csvimport.Field("price").Required().Decimal().Min(0).Build(),
		csvimport.Field("cost").Decimal().Min(0).Build(),
		csvimport.Field("inventory_quantity").Int().Min(0).Build(),
		csvimport.Field("reorder_point").Int().Min(0).Build(),
		csvimport.Field("reorder_quantity").Int().Min(0).Build(),
		csvimport.Field("vendor").MaxLength(255).Build(),
		csvimport.Field("product_type").MaxLength(255).Build(),
		csvimport.Field("status").OneOf(string(catalog.ProductStatusActive), string(catalog.ProductStatusDraft), string(catalog.ProductStatusArchived)).Build(),
		csvimport.Field("variant_title").MaxLength(255).Build(),
	}
}

// Validate checks the file without writing anything
func (s *ProductImportService) Validate(ctx context.Context, tenantID uuid.UUID, data []byte) (*csvimport.Result, error) {
	return s.validate(ctx, data, s.writer(tenantID))
}

// Import writes the valid rows of the file
func (s *ProductImportService) Import(ctx context.Context, tenantID uuid.UUID, data []byte, mode ConflictMode) (*ImportResult, error) {
	return s.run(ctx, tenantID, data, mode, s.writer(tenantID))
}

func (s *ProductImportService) writer(tenantID uuid.UUID) *productRows {
	return &productRows{svc: s, tenantID: tenantID, created: map[string]*catalog.Product{}}
}

type productRows struct {
	svc      *ProductImportService
	tenantID uuid.UUID
	// products created by this import, by folded title
	created map[string]*catalog.Product
}

func (p *productRows) entity() string { return "product" }

func (p *productRows) rules() []csvimport.FieldRule { return p.svc.GetValidationRules() }

func (p *productRows) exists(ctx context.Context, row *csvimport.Row) (bool, error) {
	return p.svc.productRepo.ExistsBySKU(ctx, p.tenantID, row.Get("sku"))
}

func (p *productRows) create(ctx context.Context, row *csvimport.Row) error {
	title := row.Get("title")
	key := strings.ToLower(strings.TrimSpace(title))

	product, ok := p.created[key]
	if !ok {
		var err error
		if product, err = catalog.NewProduct(p.tenantID, title); err != nil {
			return err
		}
		if err := product.Update(title, "", row.Get("vendor"), row.Get("product_type")); err != nil {
			return err
		}
		if status := row.Get("status"); status != "" {
			if err := product.SetStatus(catalog.ProductStatus(strings.ToLower(status))); err != nil {
				return err
			}
		}
	}

	v, err := product.AddVariant(row.Get("sku"), row.Get("variant_title"), parseDecimal(row.Get("price")), parseDecimal(row.Get("cost")))
	if err != nil {
		return err
	}
	// a failed row must not linger on the cached product
	drop := func() { product.Variants = product.Variants[:len(product.Variants)-1] }
	if err := applyStock(v, row); err != nil {
		drop()
		return err
	}
	if err := p.svc.productRepo.Save(ctx, product); err != nil {
		drop()
		return err
	}
	p.created[key] = product
	return nil
}

func (p *productRows) update(ctx context.Context, row *csvimport.Row) error {
	existing, err := p.svc.variantRepo.FindBySKU(ctx, p.tenantID, row.Get("sku"))
	if err != nil {
		return err
	}
	product, err := p.svc.productRepo.FindByIDForTenant(ctx, p.tenantID, existing.ProductID)
	if err != nil {
		return err
	}
	v, ok := product.FindVariant(existing.ID)
	if !ok {
		return shared.ErrNotFound
	}

	if err := product.Update(row.Get("title"), product.Description,
		row.GetOrDefault("vendor", product.Vendor), row.GetOrDefault("product_type", product.ProductType)); err != nil {
		return err
	}
	if status := row.Get("status"); status != "" {
		if err := product.SetStatus(catalog.ProductStatus(strings.ToLower(status))); err != nil {
			return err
		}
	}

	cost := v.Cost
	if c := row.Get("cost"); c != "" {
		cost = parseDecimal(c)
	}
	if err := v.SetPricing(parseDecimal(row.Get("price")), cost); err != nil {
		return err
	}
	if t := row.Get("variant_title"); t != "" {
		v.Title = t
	}
	if err := applyStock(v, row); err != nil {
		return err
	}
	return p.svc.productRepo.Save(ctx, product)
}

// applyStock sets stock and reorder policy from the row; empty cells keep current values
func applyStock(v *catalog.Variant, row *csvimport.Row) error {
	if q := row.Get("inventory_quantity"); q != "" {
		if err := v.AdjustInventory(parseInt(q) - v.InventoryQuantity); err != nil {
			return err
		}
	}
	point, quantity := v.ReorderPoint, v.ReorderQuantity
	if s := row.Get("reorder_point"); s != "" {
		point = parseInt(s)
	}
	if s := row.Get("reorder_quantity"); s != "" {
		quantity = parseInt(s)
	}
	return v.SetReorderPolicy(point, quantity)
}

// parseDecimal reads a value the validator already accepted; empty is zero
func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
