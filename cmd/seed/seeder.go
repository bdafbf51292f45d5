package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/domain/partner"
	"github.com/stockpilot/backend/internal/domain/trade"
)

// orderWindow is how far back seeded orders are spread
const orderWindow = 60 * 24 * time.Hour

var (
	orderSources = []string{
		string(integration.PlatformShopify),
		string(integration.PlatformWooCommerce),
		string(integration.PlatformAmazonFBA),
		catalog.SourceManual,
	}
	variantSizes = []string{"S", "M", "L", "XL"}
)

// Options sets the volume of a seed run
type Options struct {
	TenantID  uuid.UUID
	Suppliers int
	Products  int
	Orders    int
}

// Summary counts what a seed run wrote
type Summary struct {
	Batch     string
	Suppliers int
	Products  int
	Variants  int
	Orders    int
}

// Seeder writes fake catalog and sales data for one tenant
type Seeder struct {
	suppliers partner.SupplierRepository
	products  catalog.ProductRepository
	orders    trade.SalesOrderRepository
	faker     *gofakeit.Faker
	logger    *zap.Logger
	now       func() time.Time
}

// NewSeeder creates a seeder. A zero seed picks a random one.
func NewSeeder(
	suppliers partner.SupplierRepository,
	products catalog.ProductRepository,
	orders trade.SalesOrderRepository,
	seed uint64,
	logger *zap.Logger,
) *Seeder {
	return &Seeder{
		suppliers: suppliers,
		products:  products,
		orders:    orders,
		faker:     gofakeit.New(seed),
		logger:    logger,
		now:       time.Now,
	}
}

// Run seeds suppliers, products with two variants each, and orders spread
// over the last 60 days. SKUs and order numbers carry a batch tag so that
// repeated runs do not collide.
func (s *Seeder) Run(ctx context.Context, opts Options) (Summary, error) {
	if opts.TenantID == uuid.Nil {
		return Summary{}, fmt.Errorf("tenant ID is required")
	}
	sum := Summary{Batch: strings.ToUpper(s.faker.LetterN(4))}

	supplierIDs := make([]uuid.UUID, 0, opts.Suppliers)
	names := make(map[string]bool, opts.Suppliers)
	for i := 0; i < opts.Suppliers; i++ {
		sup, err := s.supplier(opts.TenantID, names, sum.Batch)
		if err != nil {
			return sum, err
		}
		if err := s.suppliers.Save(ctx, sup); err != nil {
			// an earlier run may own the name
			if rerr := sup.Rename(sup.Name + " " + sum.Batch); rerr != nil {
				return sum, rerr
			}
			if err := s.suppliers.Save(ctx, sup); err != nil {
				return sum, fmt.Errorf("save supplier %q: %w", sup.Name, err)
			}
		}
		supplierIDs = append(supplierIDs, sup.ID)
		sum.Suppliers++
	}

	variants := make([]catalog.Variant, 0, opts.Products*2)
	for i := 0; i < opts.Products; i++ {
		p, err := s.product(opts.TenantID, sum.Batch, i, supplierIDs)
		if err != nil {
			return sum, err
		}
		if err := s.products.Save(ctx, p); err != nil {
			return sum, fmt.Errorf("save product %q: %w", p.Title, err)
		}
		variants = append(variants, p.Variants...)
		sum.Products++
		sum.Variants += len(p.Variants)
	}

	if len(variants) == 0 {
		return sum, nil
	}
	for i := 0; i < opts.Orders; i++ {
		o, err := s.order(opts.TenantID, sum.Batch, i, variants)
		if err != nil {
			return sum, err
		}
		if err := s.orders.Save(ctx, o); err != nil {
			return sum, fmt.Errorf("save order %s: %w", o.OrderNumber, err)
		}
		sum.Orders++
	}

	s.logger.Info("Seed complete",
		zap.String("tenant_id", opts.TenantID.String()),
		zap.String("batch", sum.Batch),
		zap.Int("suppliers", sum.Suppliers),
		zap.Int("products", sum.Products),
		zap.Int("variants", sum.Variants),
		zap.Int("orders", sum.Orders))
	return sum, nil
}

func (s *Seeder) supplier(tenantID uuid.UUID, taken map[string]bool, batch string) (*partner.Supplier, error) {
	name := s.faker.Company()
	if taken[name] {
		name = fmt.Sprintf("%s %s-%d", name, batch, len(taken))
	}
	taken[name] = true

	sup, err := partner.NewSupplier(tenantID, name)
	if err != nil {
		return nil, err
	}
	if err := sup.SetContact(s.faker.Name(), s.faker.Email(), s.faker.Phone(), s.faker.URL()); err != nil {
		return nil, err
	}
	if err := sup.SetLeadTime(s.faker.IntRange(2, 45)); err != nil {
		return nil, err
	}
	if err := sup.SetScores(partner.SupplierScores{
		OnTimeDeliveryRate: s.faker.Float64Range(60, 100),
		QualityScore:       s.faker.Float64Range(50, 100),
		CostScore:          s.faker.Float64Range(40, 100),
		ResponseTimeHours:  s.faker.Float64Range(1, 72),
	}); err != nil {
		return nil, err
	}
	return sup, nil
}

func (s *Seeder) product(tenantID uuid.UUID, batch string, n int, supplierIDs []uuid.UUID) (*catalog.Product, error) {
	p, err := catalog.NewProduct(tenantID, s.faker.ProductName())
	if err != nil {
		return nil, err
	}
	if err := p.Update(p.Title, s.faker.ProductDescription(), s.faker.Company(), s.faker.ProductCategory()); err != nil {
		return nil, err
	}

	first := s.faker.IntRange(0, len(variantSizes)-2)
	for _, size := range variantSizes[first : first+2] {
		cost := s.faker.Price(2, 80)
		price := cost * s.faker.Float64Range(1.3, 2.8)
		v, err := p.AddVariant(
			fmt.Sprintf("%s-%04d-%s", batch, n, size),
			size,
			decimal.NewFromFloat(price).Round(2),
			decimal.NewFromFloat(cost).Round(2),
		)
		if err != nil {
			return nil, err
		}
		if err := v.SetReorderPolicy(s.faker.IntRange(5, 30), s.faker.IntRange(20, 120)); err != nil {
			return nil, err
		}
		if err := v.AdjustInventory(s.faker.IntRange(0, 250)); err != nil {
			return nil, err
		}
		if len(supplierIDs) > 0 {
			id := supplierIDs[s.faker.IntRange(0, len(supplierIDs)-1)]
			v.SupplierID = &id
		}
	}
	return p, nil
}

func (s *Seeder) order(tenantID uuid.UUID, batch string, n int, variants []catalog.Variant) (*trade.SalesOrder, error) {
	source := orderSources[s.faker.IntRange(0, len(orderSources)-1)]
	orderedAt := s.now().Add(-time.Duration(s.faker.IntRange(0, int(orderWindow/time.Second))) * time.Second)

	o, err := trade.NewSalesOrder(tenantID, fmt.Sprintf("%s-%06d", batch, n+1), source, orderedAt)
	if err != nil {
		return nil, err
	}
	if source != catalog.SourceManual {
		o.ExternalID = fmt.Sprintf("%s-%d", strings.ToLower(batch), n+1)
	}
	o.CustomerName = s.faker.Name()
	o.CustomerEmail = s.faker.Email()

	lines := s.faker.IntRange(1, 4)
	for i := 0; i < lines; i++ {
		v := variants[s.faker.IntRange(0, len(variants)-1)]
		id := v.ID
		if err := o.AddLine(trade.SalesOrderLine{
			VariantID: &id,
			SKU:       v.SKU,
			Title:     v.Title,
			Quantity:  s.faker.IntRange(1, 5),
			UnitPrice: v.Price,
			UnitCost:  v.Cost,
		}); err != nil {
			return nil, err
		}
	}
	o.SetTax(o.Subtotal.Mul(decimal.NewFromFloat(0.08)).Round(2))

	if err := o.SetStatus(s.status()); err != nil {
		return nil, err
	}
	return o, nil
}

// status favours completed sales so revenue reports have data
func (s *Seeder) status() trade.SalesOrderStatus {
	switch r := s.faker.IntRange(1, 100); {
	case r <= 55:
		return trade.SalesOrderStatusFulfilled
	case r <= 80:
		return trade.SalesOrderStatusPaid
	case r <= 92:
		return trade.SalesOrderStatusPending
	case r <= 97:
		return trade.SalesOrderStatusCancelled
	default:
		return trade.SalesOrderStatusRefunded
	}
}
