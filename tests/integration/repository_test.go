//go:build integration

package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/partner"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/infrastructure/persistence"
)

func newProduct(t *testing.T, tenantID uuid.UUID, title string, skus ...string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(tenantID, title)
	require.NoError(t, err)
	for _, sku := range skus {
		_, err := p.AddVariant(sku, sku, decimal.RequireFromString("24.00"), decimal.RequireFromString("9.00"))
		require.NoError(t, err)
	}
	return p
}

func TestTenantIsolation(t *testing.T) {
	tdb := NewTestDB(t)
	products := persistence.NewGormProductRepository(tdb.DB)
	suppliers := persistence.NewGormSupplierRepository(tdb.DB)
	ctx := context.Background()

	tenantA, tenantB := uuid.New(), uuid.New()

	mug := newProduct(t, tenantA, "Enamel Mug", "MUG-1")
	require.NoError(t, products.Save(ctx, mug))
	acme, err := partner.NewSupplier(tenantA, "Acme Ceramics")
	require.NoError(t, err)
	require.NoError(t, suppliers.Save(ctx, acme))

	t.Run("product invisible to other tenant", func(t *testing.T) {
		found, err := products.FindByIDForTenant(ctx, tenantA, mug.ID)
		require.NoError(t, err)
		assert.Equal(t, "Enamel Mug", found.Title)

		_, err = products.FindByIDForTenant(ctx, tenantB, mug.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, total, err := products.FindAllForTenant(ctx, tenantB, catalog.ProductFilter{})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("supplier invisible to other tenant", func(t *testing.T) {
		_, err := suppliers.FindByIDForTenant(ctx, tenantB, acme.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.ErrorIs(t, suppliers.DeleteForTenant(ctx, tenantB, acme.ID), shared.ErrNotFound)
	})

	t.Run("sku unique per tenant only", func(t *testing.T) {
		clash := newProduct(t, tenantA, "Second Mug", "MUG-1")
		assert.ErrorIs(t, products.Save(ctx, clash), shared.ErrAlreadyExists)

		elsewhere := newProduct(t, tenantB, "Second Mug", "MUG-1")
		assert.NoError(t, products.Save(ctx, elsewhere))
	})

	t.Run("supplier name unique per tenant", func(t *testing.T) {
		dup, err := partner.NewSupplier(tenantA, "Acme Ceramics")
		require.NoError(t, err)
		assert.ErrorIs(t, suppliers.Save(ctx, dup), shared.ErrAlreadyExists)
	})
}

func TestVariantRepository_ConcurrentAdjustments(t *testing.T) {
	tdb := NewTestDB(t)
	products := persistence.NewGormProductRepository(tdb.DB)
	variants := persistence.NewGormVariantRepository(tdb.DB)
	ctx := context.Background()
	tenantID := uuid.New()

	p := newProduct(t, tenantID, "Linen Apron", "APRON-1")
	require.NoError(t, products.Save(ctx, p))
	id := p.Variants[0].ID

	_, err := variants.AdjustInventory(ctx, tenantID, id, 20)
	require.NoError(t, err)

	// 30 concurrent single-unit sales against 20 units in stock
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		sold     int
		refusals int
	)
	for range 30 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := variants.AdjustInventory(ctx, tenantID, id, -1)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				refusals++
				return
			}
			sold++
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, sold)
	assert.Equal(t, 10, refusals)

	v, err := variants.FindByIDForTenant(ctx, tenantID, id)
	require.NoError(t, err)
	assert.Zero(t, v.InventoryQuantity)
}

func TestProductRepository_UpsertFromPlatformIsIdempotent(t *testing.T) {
	tdb := NewTestDB(t)
	products := persistence.NewGormProductRepository(tdb.DB)
	ctx := context.Background()
	tenantID := uuid.New()

	remote := func(title string, qty int) *catalog.Product {
		return &catalog.Product{
			TenantEntity:   shared.NewTenantEntity(tenantID),
			Title:          title,
			Status:         catalog.ProductStatusActive,
			SourcePlatform: "SHOPIFY",
			ExternalID:     "gid://shopify/Product/77",
			Variants: []catalog.Variant{{
				TenantEntity:      shared.NewTenantEntity(tenantID),
				SKU:               "TEE-M",
				Title:             "Medium",
				Price:             decimal.RequireFromString("30.00"),
				Cost:              decimal.RequireFromString("11.00"),
				InventoryQuantity: qty,
				ExternalID:        "gid://shopify/ProductVariant/701",
			}},
		}
	}

	first := remote("Organic Tee", 4)
	require.NoError(t, products.UpsertFromPlatform(ctx, first))
	second := remote("Organic Tee (2025)", 9)
	require.NoError(t, products.UpsertFromPlatform(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Variants[0].ID, second.Variants[0].ID)

	stored, err := products.FindByExternalID(ctx, tenantID, "SHOPIFY", "gid://shopify/Product/77")
	require.NoError(t, err)
	assert.Equal(t, "Organic Tee (2025)", stored.Title)
	require.Len(t, stored.Variants, 1)
	assert.Equal(t, 9, stored.Variants[0].InventoryQuantity)
}
