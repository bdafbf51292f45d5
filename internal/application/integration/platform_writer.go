package integration

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/domain/trade"
)

// PlatformWriter maps remote records onto the local catalog and order book.
// Syncs and webhooks share it so both paths apply identical rules.
type PlatformWriter struct {
	products catalog.ProductRepository
	variants catalog.VariantRepository
	orders   trade.SalesOrderRepository
}

// NewPlatformWriter creates a PlatformWriter
func NewPlatformWriter(products catalog.ProductRepository, variants catalog.VariantRepository, orders trade.SalesOrderRepository) *PlatformWriter {
	return &PlatformWriter{products: products, variants: variants, orders: orders}
}

// DefaultSKU is used for remote variants that have no SKU, e.g. "SHOPIFY-4431"
func DefaultSKU(platform integration.PlatformCode, externalID string) string {
	return string(platform) + "-" + externalID
}

// UpsertProduct writes remote into the tenant's catalog and reports whether it was new.
// Remote fields that are unknown (nil) keep their local values.
func (w *PlatformWriter) UpsertProduct(ctx context.Context, in *integration.Integration, remote integration.RemoteProduct) (bool, error) {
	if strings.TrimSpace(remote.ExternalID) == "" {
		return false, shared.NewDomainError("INVALID_REMOTE_PRODUCT", "Remote product has no ID")
	}
	platform := string(in.Platform)

	existing, err := w.products.FindByExternalID(ctx, in.TenantID, platform, remote.ExternalID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return false, err
	}

	product := existing
	if product == nil {
		product, err = catalog.NewProduct(in.TenantID, remote.Title)
		if err != nil {
			return false, err
		}
		product.SourcePlatform = platform
		product.ExternalID = remote.ExternalID
	}
	newID := product.ID

	if err := product.Update(remote.Title, remote.Description, remote.Vendor, remote.ProductType); err != nil {
		return false, err
	}
	if remote.Status != "" {
		if err := product.SetStatus(remote.Status); err != nil {
			return false, err
		}
	}

	variants := make([]catalog.Variant, 0, len(remote.Variants))
	for _, rv := range remote.Variants {
		v, err := mergeVariant(in, product, existing, rv)
		if err != nil {
			return false, err
		}
		variants = append(variants, *v)
	}
	product.Variants = variants

	if err := w.products.UpsertFromPlatform(ctx, product); err != nil {
		return false, err
	}
	return existing == nil && product.ID == newID, nil
}

func mergeVariant(in *integration.Integration, product, existing *catalog.Product, rv integration.RemoteVariant) (*catalog.Variant, error) {
	if strings.TrimSpace(rv.ExternalID) == "" {
		return nil, shared.NewDomainError("INVALID_REMOTE_VARIANT", "Remote variant has no ID")
	}
	sku := strings.TrimSpace(rv.SKU)
	if sku == "" {
		sku = DefaultSKU(in.Platform, rv.ExternalID)
	}

	var v *catalog.Variant
	if existing != nil {
		for i := range existing.Variants {
			if existing.Variants[i].ExternalID == rv.ExternalID {
				copied := existing.Variants[i]
				v = &copied
				break
			}
		}
	}

	if v == nil {
		var err error
		v, err = catalog.NewVariant(in.TenantID, product.ID, sku, rv.Title, valueOr(rv.Price), valueOr(rv.Cost))
		if err != nil {
			return nil, err
		}
		v.SourcePlatform = string(in.Platform)
		v.ExternalID = rv.ExternalID
	} else {
		if err := catalog.ValidateSKU(sku); err != nil {
			return nil, err
		}
		v.SKU = sku
		if rv.Title != "" {
			v.Title = rv.Title
		}
		price, cost := v.Price, v.Cost
		if rv.Price != nil {
			price = *rv.Price
		}
		if rv.Cost != nil {
			cost = *rv.Cost
		}
		if err := v.SetPricing(price, cost); err != nil {
			return nil, err
		}
	}

	if rv.InventoryQuantity != nil {
		v.InventoryQuantity = *rv.InventoryQuantity
	}
	return v, nil
}

func valueOr(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// ArchiveProduct archives the product a platform reports as deleted.
// Unknown products are not an error; the platform may send deletes for items never synced.
func (w *PlatformWriter) ArchiveProduct(ctx context.Context, in *integration.Integration, externalID string) (bool, error) {
	product, err := w.products.FindByExternalID(ctx, in.TenantID, string(in.Platform), externalID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	product.Archive()
	if err := w.products.Save(ctx, product); err != nil {
		return false, err
	}
	return true, nil
}

// UpsertOrder writes remote into the tenant's order book and reports whether it was new.
// Lines are linked to local variants by SKU, which also fixes their unit cost.
func (w *PlatformWriter) UpsertOrder(ctx context.Context, in *integration.Integration, remote integration.RemoteOrder) (bool, error) {
	if strings.TrimSpace(remote.ExternalID) == "" {
		return false, shared.NewDomainError("INVALID_REMOTE_ORDER", "Remote order has no ID")
	}
	number := remote.OrderNumber
	if strings.TrimSpace(number) == "" {
		number = "#" + remote.ExternalID
	}

	order, err := trade.NewSalesOrder(in.TenantID, number, string(in.Platform), remote.OrderedAt)
	if err != nil {
		return false, err
	}
	order.ExternalID = remote.ExternalID
	order.CustomerName = remote.CustomerName
	order.CustomerEmail = remote.CustomerEmail
	if remote.Currency != "" {
		order.Currency = strings.ToUpper(remote.Currency)
	}
	if remote.Status != "" {
		if err := order.SetStatus(remote.Status); err != nil {
			return false, err
		}
	}

	known, err := w.variantsBySKU(ctx, in.TenantID, remote.Lines)
	if err != nil {
		return false, err
	}
	for _, rl := range remote.Lines {
		line := trade.SalesOrderLine{
			SKU:        rl.SKU,
			Title:      rl.Title,
			Quantity:   rl.Quantity,
			UnitPrice:  rl.UnitPrice,
			UnitCost:   decimal.Zero,
			ExternalID: rl.ExternalID,
		}
		if v, ok := known[strings.ToUpper(rl.SKU)]; ok {
			id := v.ID
			line.VariantID = &id
			line.UnitCost = v.Cost
		}
		if err := order.AddLine(line); err != nil {
			return false, err
		}
	}
	order.SetTax(remote.Tax)

	newID := order.ID
	if err := w.orders.UpsertFromPlatform(ctx, order); err != nil {
		return false, err
	}
	return order.ID == newID, nil
}

func (w *PlatformWriter) variantsBySKU(ctx context.Context, tenantID uuid.UUID, lines []integration.RemoteOrderLine) (map[string]catalog.Variant, error) {
	skus := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.SKU != "" {
			skus = append(skus, l.SKU)
		}
	}
	out := make(map[string]catalog.Variant, len(skus))
	if len(skus) == 0 {
		return out, nil
	}
	found, err := w.variants.FindBySKUs(ctx, tenantID, skus)
	if err != nil {
		return nil, err
	}
	for _, v := range found {
		out[strings.ToUpper(v.SKU)] = v
	}
	return out, nil
}
