package persistence

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/domain/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseOrderRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPurchaseOrderRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	supplierID := uuid.New()

	number, err := repo.NextNumber(ctx, tenantID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(number, "PO-"+time.Now().UTC().Format("20060102")+"-"))
	assert.True(t, strings.HasSuffix(number, "-0001"))

	po, err := trade.NewPurchaseOrder(tenantID, supplierID, number)
	require.NoError(t, err)
	first, err := po.AddItem(uuid.New(), "MUG-BLUE", 10, dec("4.25"))
	require.NoError(t, err)
	second, err := po.AddItem(uuid.New(), "MUG-RED", 5, dec("4.50"))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, po))

	next, err := repo.NextNumber(ctx, tenantID)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(next, "-0002"))

	t.Run("round trips items and total", func(t *testing.T) {
		found, err := repo.FindByIDForTenant(ctx, tenantID, po.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.PurchaseOrderStatusDraft, found.Status)
		assert.Len(t, found.Items, 2)
		assert.True(t, dec("65").Equal(found.Total))
	})

	t.Run("removed item is deleted and receipt persists", func(t *testing.T) {
		found, err := repo.FindByIDForTenant(ctx, tenantID, po.ID)
		require.NoError(t, err)
		require.NoError(t, found.RemoveItem(second.ID))
		require.NoError(t, found.Submit())
		require.NoError(t, found.Receive([]trade.ReceiptLine{{ItemID: first.ID, Quantity: 4}}))
		require.NoError(t, repo.Save(ctx, found))

		reloaded, err := repo.FindByIDForTenant(ctx, tenantID, po.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.PurchaseOrderStatusPartiallyReceived, reloaded.Status)
		require.Len(t, reloaded.Items, 1)
		assert.Equal(t, 4, reloaded.Items[0].ReceivedQuantity)
		assert.NotNil(t, reloaded.OrderedAt)
	})

	t.Run("filters by status and supplier", func(t *testing.T) {
		filter := trade.PurchaseOrderFilter{Status: trade.PurchaseOrderStatusPartiallyReceived, SupplierID: &supplierID}
		orders, total, err := repo.FindAllForTenant(ctx, tenantID, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, orders, 1)

		other := uuid.New()
		_, total, err = repo.FindAllForTenant(ctx, tenantID, trade.PurchaseOrderFilter{SupplierID: &other})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("duplicate number", func(t *testing.T) {
		dup, err := trade.NewPurchaseOrder(tenantID, supplierID, number)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Save(ctx, dup), shared.ErrAlreadyExists)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteForTenant(ctx, tenantID, po.ID))
		_, err := repo.FindByIDForTenant(ctx, tenantID, po.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.ErrorIs(t, repo.DeleteForTenant(ctx, tenantID, po.ID), shared.ErrNotFound)
	})
}

func newTestSalesOrder(t *testing.T, tenantID uuid.UUID, number, platform, externalID string, at time.Time, lines ...trade.SalesOrderLine) *trade.SalesOrder {
	t.Helper()
	o, err := trade.NewSalesOrder(tenantID, number, platform, at)
	require.NoError(t, err)
	o.ExternalID = externalID
	for _, l := range lines {
		require.NoError(t, o.AddLine(l))
	}
	return o
}

func TestSalesOrderRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSalesOrderRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	old := newTestSalesOrder(t, tenantID, "#1001", "SHOPIFY", "5001", now.Add(-72*time.Hour),
		trade.SalesOrderLine{SKU: "MUG-BLUE", Title: "Mug", Quantity: 2, UnitPrice: dec("10")})
	recent := newTestSalesOrder(t, tenantID, "#1002", "WOOCOMMERCE", "77", now.Add(-time.Hour),
		trade.SalesOrderLine{SKU: "MUG-RED", Title: "Mug", Quantity: 1, UnitPrice: dec("12")})
	require.NoError(t, repo.UpsertFromPlatform(ctx, old))
	require.NoError(t, repo.UpsertFromPlatform(ctx, recent))

	t.Run("upsert keeps id and replaces lines", func(t *testing.T) {
		again := newTestSalesOrder(t, tenantID, "#1001", "SHOPIFY", "5001", now.Add(-72*time.Hour),
			trade.SalesOrderLine{SKU: "MUG-BLUE", Title: "Mug", Quantity: 3, UnitPrice: dec("10")},
			trade.SalesOrderLine{SKU: "MUG-RED", Title: "Mug", Quantity: 1, UnitPrice: dec("12")})
		require.NoError(t, again.SetStatus(trade.SalesOrderStatusPaid))
		require.NoError(t, repo.UpsertFromPlatform(ctx, again))
		assert.Equal(t, old.ID, again.ID)

		found, err := repo.FindByIDForTenant(ctx, tenantID, old.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.SalesOrderStatusPaid, found.Status)
		assert.Len(t, found.Lines, 2)
		assert.True(t, dec("42").Equal(found.Total))
	})

	t.Run("newest first with date window", func(t *testing.T) {
		orders, total, err := repo.FindAllForTenant(ctx, tenantID, trade.SalesOrderFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, orders, 2)
		assert.Equal(t, "#1002", orders[0].OrderNumber)

		from := now.Add(-24 * time.Hour)
		orders, total, err = repo.FindAllForTenant(ctx, tenantID, trade.SalesOrderFilter{From: &from})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "#1002", orders[0].OrderNumber)
	})

	t.Run("filters by platform and search", func(t *testing.T) {
		_, total, err := repo.FindAllForTenant(ctx, tenantID, trade.SalesOrderFilter{SourcePlatform: "SHOPIFY"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)

		orders, total, err := repo.FindAllForTenant(ctx, tenantID, trade.SalesOrderFilter{Filter: shared.Filter{Search: "1002"}})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, recent.ID, orders[0].ID)
	})

	t.Run("tenant isolation", func(t *testing.T) {
		_, err := repo.FindByIDForTenant(ctx, uuid.New(), recent.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
