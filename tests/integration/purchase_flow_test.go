//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tradeapp "github.com/stockpilot/backend/internal/application/trade"
	"github.com/stockpilot/backend/internal/domain/partner"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/domain/trade"
	"github.com/stockpilot/backend/internal/infrastructure/persistence"
)

func TestPurchaseOrderFlow_ReceiveUpdatesStock(t *testing.T) {
	tdb := NewTestDB(t)
	ctx := context.Background()
	tenantID := uuid.New()

	products := persistence.NewGormProductRepository(tdb.DB)
	variants := persistence.NewGormVariantRepository(tdb.DB)
	suppliers := persistence.NewGormSupplierRepository(tdb.DB)
	svc := tradeapp.NewPurchaseOrderService(
		persistence.NewGormPurchaseOrderRepository(tdb.DB),
		suppliers,
		variants,
		persistence.NewGormTransactor(tdb.DB),
	)

	supplier, err := partner.NewSupplier(tenantID, "Northwind Textiles")
	require.NoError(t, err)
	require.NoError(t, suppliers.Save(ctx, supplier))

	towel := newProduct(t, tenantID, "Waffle Towel", "TOWEL-S", "TOWEL-L")
	require.NoError(t, products.Save(ctx, towel))
	small, large := towel.Variants[0], towel.Variants[1]

	cost := decimal.RequireFromString("3.10")
	po, err := svc.Create(ctx, tenantID, tradeapp.CreatePurchaseOrderRequest{
		SupplierID: supplier.ID,
		Items: []tradeapp.PurchaseOrderItemInput{
			{VariantID: small.ID, Quantity: 10, UnitCost: &cost},
			{VariantID: large.ID, Quantity: 6},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, string(trade.PurchaseOrderStatusDraft), po.Status)
	assert.True(t, decimal.RequireFromString("85").Equal(po.Total), "10*3.10 + 6*9.00")

	_, err = svc.Submit(ctx, tenantID, po.ID)
	require.NoError(t, err)

	itemFor := func(variantID uuid.UUID) uuid.UUID {
		for _, item := range po.Items {
			if item.VariantID == variantID {
				return item.ID
			}
		}
		t.Fatalf("no item for variant %s", variantID)
		return uuid.Nil
	}

	t.Run("partial receipt", func(t *testing.T) {
		got, err := svc.Receive(ctx, tenantID, po.ID, tradeapp.ReceivePurchaseOrderRequest{
			Lines: []tradeapp.ReceiveLineInput{{ItemID: itemFor(small.ID), Quantity: 4}},
		})
		require.NoError(t, err)
		assert.Equal(t, string(trade.PurchaseOrderStatusPartiallyReceived), got.Status)

		v, err := variants.FindByIDForTenant(ctx, tenantID, small.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, v.InventoryQuantity)
	})

	t.Run("over receipt leaves stock untouched", func(t *testing.T) {
		_, err := svc.Receive(ctx, tenantID, po.ID, tradeapp.ReceivePurchaseOrderRequest{
			Lines: []tradeapp.ReceiveLineInput{
				{ItemID: itemFor(large.ID), Quantity: 6},
				{ItemID: itemFor(small.ID), Quantity: 7},
			},
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "QUANTITY_EXCEEDED", domainErr.Code)

		v, err := variants.FindByIDForTenant(ctx, tenantID, large.ID)
		require.NoError(t, err)
		assert.Zero(t, v.InventoryQuantity)
	})

	t.Run("final receipt completes the order", func(t *testing.T) {
		got, err := svc.Receive(ctx, tenantID, po.ID, tradeapp.ReceivePurchaseOrderRequest{
			Lines: []tradeapp.ReceiveLineInput{
				{ItemID: itemFor(small.ID), Quantity: 6},
				{ItemID: itemFor(large.ID), Quantity: 6},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, string(trade.PurchaseOrderStatusReceived), got.Status)
		require.NotNil(t, got.ReceivedAt)
		assert.WithinDuration(t, time.Now(), *got.ReceivedAt, time.Minute)

		s, err := variants.FindByIDForTenant(ctx, tenantID, small.ID)
		require.NoError(t, err)
		l, err := variants.FindByIDForTenant(ctx, tenantID, large.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, s.InventoryQuantity)
		assert.Equal(t, 6, l.InventoryQuantity)
	})

	t.Run("other tenant cannot receive", func(t *testing.T) {
		_, err := svc.Receive(ctx, uuid.New(), po.ID, tradeapp.ReceivePurchaseOrderRequest{
			Lines: []tradeapp.ReceiveLineInput{{ItemID: itemFor(small.ID), Quantity: 1}},
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestPurchaseOrderRepository_SupplierMustExist(t *testing.T) {
	tdb := NewTestDB(t)
	repo := persistence.NewGormPurchaseOrderRepository(tdb.DB)
	ctx := context.Background()

	po, err := trade.NewPurchaseOrder(uuid.New(), uuid.New(), "PO-ORPHAN-1")
	require.NoError(t, err)
	assert.Error(t, repo.Save(ctx, po))
}
