package trade

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/partner"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/infrastructure/persistence"
	"github.com/stockpilot/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type poFixture struct {
	svc        *PurchaseOrderService
	variants   *persistence.GormVariantRepository
	tenantID   uuid.UUID
	supplierID uuid.UUID
	hat        catalog.Variant
	scarf      catalog.Variant
}

func newPOFixture(t *testing.T) *poFixture {
	t.Helper()
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	tenantID := testutil.TestTenantID()

	suppliers := persistence.NewGormSupplierRepository(db)
	supplier, err := partner.NewSupplier(tenantID, "Acme Knits")
	require.NoError(t, err)
	require.NoError(t, suppliers.Save(ctx, supplier))

	products := persistence.NewGormProductRepository(db)
	product, err := catalog.NewProduct(tenantID, "Winter set")
	require.NoError(t, err)
	_, err = product.AddVariant("HAT-1", "Hat", decimal.NewFromInt(20), decimal.NewFromInt(8))
	require.NoError(t, err)
	_, err = product.AddVariant("SCARF-1", "Scarf", decimal.NewFromInt(30), decimal.NewFromInt(12))
	require.NoError(t, err)
	product.Variants[0].InventoryQuantity = 2
	require.NoError(t, products.Save(ctx, product))

	variants := persistence.NewGormVariantRepository(db)
	svc := NewPurchaseOrderService(
		persistence.NewGormPurchaseOrderRepository(db),
		suppliers,
		variants,
		persistence.NewGormTransactor(db),
	)
	return &poFixture{
		svc:        svc,
		variants:   variants,
		tenantID:   tenantID,
		supplierID: supplier.ID,
		hat:        product.Variants[0],
		scarf:      product.Variants[1],
	}
}

func (f *poFixture) createOrder(t *testing.T) *PurchaseOrderResponse {
	t.Helper()
	cost := decimal.NewFromInt(7)
	resp, err := f.svc.Create(context.Background(), f.tenantID, CreatePurchaseOrderRequest{
		SupplierID: f.supplierID,
		Items: []PurchaseOrderItemInput{
			{VariantID: f.hat.ID, Quantity: 10, UnitCost: &cost},
			{VariantID: f.scarf.ID, Quantity: 5},
		},
	})
	require.NoError(t, err)
	return resp
}

func TestPurchaseOrderService_Create(t *testing.T) {
	f := newPOFixture(t)
	resp := f.createOrder(t)

	assert.Equal(t, "draft", resp.Status)
	assert.Regexp(t, `^PO-\d{8}-0001$`, resp.Number)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "HAT-1", resp.Items[0].SKU)
	assert.True(t, resp.Items[1].UnitCost.Equal(decimal.NewFromInt(12)), "defaults to variant cost")
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(130)))

	second := f.createOrder(t)
	assert.Regexp(t, `-0002$`, second.Number)
}

func TestPurchaseOrderService_Create_Errors(t *testing.T) {
	ctx := context.Background()
	f := newPOFixture(t)

	_, err := f.svc.Create(ctx, f.tenantID, CreatePurchaseOrderRequest{SupplierID: uuid.New()})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_SUPPLIER", domainErr.Code)

	_, err = f.svc.Create(ctx, f.tenantID, CreatePurchaseOrderRequest{
		SupplierID: f.supplierID,
		Items:      []PurchaseOrderItemInput{{VariantID: uuid.New(), Quantity: 1}},
	})
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_VARIANT", domainErr.Code)

	_, err = f.svc.Create(ctx, testutil.OtherTenantID(), CreatePurchaseOrderRequest{SupplierID: f.supplierID})
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_SUPPLIER", domainErr.Code, "suppliers of other tenants are invisible")
}

func TestPurchaseOrderService_ReceiveAddsStock(t *testing.T) {
	ctx := context.Background()
	f := newPOFixture(t)
	order := f.createOrder(t)

	_, err := f.svc.Submit(ctx, f.tenantID, order.ID)
	require.NoError(t, err)

	partial, err := f.svc.Receive(ctx, f.tenantID, order.ID, ReceivePurchaseOrderRequest{
		Lines: []ReceiveLineInput{{ItemID: order.Items[0].ID, Quantity: 4}},
	})
	require.NoError(t, err)
	assert.Equal(t, "partially_received", partial.Status)

	hat, err := f.variants.FindByIDForTenant(ctx, f.tenantID, f.hat.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, hat.InventoryQuantity)

	done, err := f.svc.Receive(ctx, f.tenantID, order.ID, ReceivePurchaseOrderRequest{
		Lines: []ReceiveLineInput{
			{ItemID: order.Items[0].ID, Quantity: 6},
			{ItemID: order.Items[1].ID, Quantity: 5},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "received", done.Status)
	assert.NotNil(t, done.ReceivedAt)

	hat, _ = f.variants.FindByIDForTenant(ctx, f.tenantID, f.hat.ID)
	scarf, _ := f.variants.FindByIDForTenant(ctx, f.tenantID, f.scarf.ID)
	assert.Equal(t, 12, hat.InventoryQuantity)
	assert.Equal(t, 5, scarf.InventoryQuantity)
}

func TestPurchaseOrderService_ReceiveRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	f := newPOFixture(t)
	order := f.createOrder(t)
	_, err := f.svc.Submit(ctx, f.tenantID, order.ID)
	require.NoError(t, err)

	_, err = f.svc.Receive(ctx, f.tenantID, order.ID, ReceivePurchaseOrderRequest{
		Lines: []ReceiveLineInput{{ItemID: order.Items[0].ID, Quantity: 11}},
	})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "QUANTITY_EXCEEDED", domainErr.Code)

	hat, _ := f.variants.FindByIDForTenant(ctx, f.tenantID, f.hat.ID)
	assert.Equal(t, 2, hat.InventoryQuantity)

	stored, err := f.svc.GetByID(ctx, f.tenantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "ordered", stored.Status)
	assert.Zero(t, stored.Items[0].ReceivedQuantity)
}

func TestPurchaseOrderService_Transitions(t *testing.T) {
	ctx := context.Background()
	f := newPOFixture(t)

	t.Run("draft cannot be received", func(t *testing.T) {
		order := f.createOrder(t)
		_, err := f.svc.Receive(ctx, f.tenantID, order.ID, ReceivePurchaseOrderRequest{
			Lines: []ReceiveLineInput{{ItemID: order.Items[0].ID, Quantity: 1}},
		})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("update replaces items on draft only", func(t *testing.T) {
		order := f.createOrder(t)
		notes := "rush"
		updated, err := f.svc.Update(ctx, f.tenantID, order.ID, UpdatePurchaseOrderRequest{
			Notes: &notes,
			Items: []PurchaseOrderItemInput{{VariantID: f.scarf.ID, Quantity: 2}},
		})
		require.NoError(t, err)
		assert.Equal(t, "rush", updated.Notes)
		require.Len(t, updated.Items, 1)
		assert.True(t, updated.Total.Equal(decimal.NewFromInt(24)))

		_, err = f.svc.Submit(ctx, f.tenantID, order.ID)
		require.NoError(t, err)
		_, err = f.svc.Update(ctx, f.tenantID, order.ID, UpdatePurchaseOrderRequest{Notes: &notes})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("cancel then delete", func(t *testing.T) {
		order := f.createOrder(t)
		_, err := f.svc.Submit(ctx, f.tenantID, order.ID)
		require.NoError(t, err)

		assert.ErrorIs(t, f.svc.Delete(ctx, f.tenantID, order.ID), shared.ErrInvalidState)

		cancelled, err := f.svc.Cancel(ctx, f.tenantID, order.ID)
		require.NoError(t, err)
		assert.Equal(t, "cancelled", cancelled.Status)

		require.NoError(t, f.svc.Delete(ctx, f.tenantID, order.ID))
		_, err = f.svc.GetByID(ctx, f.tenantID, order.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("other tenant sees nothing", func(t *testing.T) {
		order := f.createOrder(t)
		_, err := f.svc.GetByID(ctx, testutil.OtherTenantID(), order.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestPurchaseOrderService_List(t *testing.T) {
	ctx := context.Background()
	f := newPOFixture(t)
	first := f.createOrder(t)
	f.createOrder(t)
	_, err := f.svc.Submit(ctx, f.tenantID, first.ID)
	require.NoError(t, err)

	all, err := f.svc.List(ctx, f.tenantID, PurchaseOrderListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)

	ordered, err := f.svc.List(ctx, f.tenantID, PurchaseOrderListFilter{Status: "ordered"})
	require.NoError(t, err)
	require.Len(t, ordered.Items, 1)
	assert.Equal(t, first.ID, ordered.Items[0].ID)
}
