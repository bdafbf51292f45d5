package main

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/partner"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/domain/trade"
	"github.com/stockpilot/backend/internal/infrastructure/persistence"
	"github.com/stockpilot/backend/tests/testutil"
)

type seedFixture struct {
	seeder    *Seeder
	suppliers *persistence.GormSupplierRepository
	products  *persistence.GormProductRepository
	orders    *persistence.GormSalesOrderRepository
	now       time.Time
}

func newSeedFixture(t *testing.T, seed uint64) *seedFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	f := &seedFixture{
		suppliers: persistence.NewGormSupplierRepository(db),
		products:  persistence.NewGormProductRepository(db),
		orders:    persistence.NewGormSalesOrderRepository(db),
		now:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.seeder = NewSeeder(f.suppliers, f.products, f.orders, seed, zap.NewNop())
	f.seeder.now = func() time.Time { return f.now }
	return f
}

func TestSeeder_Run(t *testing.T) {
	ctx := context.Background()
	f := newSeedFixture(t, 42)
	tenantID := testutil.TestTenantID()

	sum, err := f.seeder.Run(ctx, Options{TenantID: tenantID, Suppliers: 3, Products: 5, Orders: 20})
	require.NoError(t, err)

	assert.Len(t, sum.Batch, 4)
	assert.Equal(t, 3, sum.Suppliers)
	assert.Equal(t, 5, sum.Products)
	assert.Equal(t, 10, sum.Variants)
	assert.Equal(t, 20, sum.Orders)

	_, total, err := f.suppliers.FindAllForTenant(ctx, tenantID, partner.SupplierFilter{Filter: shared.Filter{Page: 1, PageSize: 100}.Normalize()})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	products, total, err := f.products.FindAllForTenant(ctx, tenantID, catalog.ProductFilter{Filter: shared.Filter{Page: 1, PageSize: 100}.Normalize()})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	for _, p := range products {
		assert.Len(t, p.Variants, 2)
		for _, v := range p.Variants {
			assert.True(t, v.Price.GreaterThan(v.Cost), "price above cost for %s", v.SKU)
			assert.NotNil(t, v.SupplierID)
		}
	}

	orders, total, err := f.orders.FindAllForTenant(ctx, tenantID, trade.SalesOrderFilter{Filter: shared.Filter{Page: 1, PageSize: 100}.Normalize()})
	require.NoError(t, err)
	assert.Equal(t, int64(20), total)
	earliest := f.now.Add(-orderWindow)
	for _, o := range orders {
		assert.False(t, o.OrderedAt.Before(earliest), "order %s older than the window", o.OrderNumber)
		assert.False(t, o.OrderedAt.After(f.now))
		assert.True(t, o.Total.IsPositive())
		if o.SourcePlatform == catalog.SourceManual {
			assert.Empty(t, o.ExternalID)
		} else {
			assert.NotEmpty(t, o.ExternalID)
		}
	}
}

func TestSeeder_RepeatRunsDoNotCollide(t *testing.T) {
	ctx := context.Background()
	f := newSeedFixture(t, 0)
	opts := Options{TenantID: uuid.New(), Suppliers: 1, Products: 2, Orders: 3}

	first, err := f.seeder.Run(ctx, opts)
	require.NoError(t, err)
	second, err := f.seeder.Run(ctx, opts)
	require.NoError(t, err)

	assert.NotEqual(t, first.Batch, second.Batch)
}

func TestSeeder_NoProductsSkipsOrders(t *testing.T) {
	f := newSeedFixture(t, 7)

	sum, err := f.seeder.Run(context.Background(), Options{TenantID: uuid.New(), Orders: 10})

	require.NoError(t, err)
	assert.Zero(t, sum.Orders)
}

func TestSeeder_RequiresTenant(t *testing.T) {
	f := newSeedFixture(t, 1)

	_, err := f.seeder.Run(context.Background(), Options{Products: 1})

	assert.Error(t, err)
}
