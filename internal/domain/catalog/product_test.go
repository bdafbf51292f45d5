package catalog

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	tenantID := uuid.New()

	tests := []struct {
		name    string
		title   string
		wantErr bool
	}{
		{"valid title", "Wireless Mouse", false},
		{"trims whitespace", "  Keyboard  ", false},
		{"empty title", "", true},
		{"blank title", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProduct(tenantID, tt.title)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tenantID, p.TenantID)
			assert.Equal(t, ProductStatusActive, p.Status)
			assert.Equal(t, SourceManual, p.SourcePlatform)
			assert.NotEqual(t, uuid.Nil, p.ID)
		})
	}
}

func TestProduct_AddVariant(t *testing.T) {
	p, err := NewProduct(uuid.New(), "Mug")
	require.NoError(t, err)

	v, err := p.AddVariant("MUG-RED", "Red", decimal.NewFromInt(12), decimal.NewFromInt(4))
	require.NoError(t, err)
	assert.Equal(t, p.ID, v.ProductID)
	assert.Equal(t, p.TenantID, v.TenantID)

	t.Run("duplicate sku is rejected case-insensitively", func(t *testing.T) {
		_, err := p.AddVariant("mug-red", "Also red", decimal.NewFromInt(12), decimal.Zero)
		require.Error(t, err)
		assert.Len(t, p.Variants, 1)
	})

	t.Run("negative price is rejected", func(t *testing.T) {
		_, err := p.AddVariant("MUG-BLUE", "Blue", decimal.NewFromInt(-1), decimal.Zero)
		require.Error(t, err)
	})

	t.Run("sku with whitespace is rejected", func(t *testing.T) {
		_, err := p.AddVariant("MUG BLUE", "Blue", decimal.NewFromInt(1), decimal.Zero)
		require.Error(t, err)
	})

	t.Run("empty variant title defaults", func(t *testing.T) {
		v, err := p.AddVariant("MUG-GREEN", "", decimal.NewFromInt(1), decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, "Default", v.Title)
	})
}

func TestVariant_AdjustInventory(t *testing.T) {
	v, err := NewVariant(uuid.New(), uuid.New(), "SKU-1", "", decimal.NewFromInt(10), decimal.NewFromInt(5))
	require.NoError(t, err)

	require.NoError(t, v.AdjustInventory(10))
	assert.Equal(t, 10, v.InventoryQuantity)

	require.NoError(t, v.AdjustInventory(-10))
	assert.Equal(t, 0, v.InventoryQuantity)

	err = v.AdjustInventory(-1)
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INSUFFICIENT_STOCK", domainErr.Code)
	assert.Equal(t, 0, v.InventoryQuantity)
}

func TestVariant_ReorderPolicy(t *testing.T) {
	v, err := NewVariant(uuid.New(), uuid.New(), "SKU-1", "", decimal.NewFromInt(10), decimal.NewFromInt(5))
	require.NoError(t, err)

	assert.False(t, v.NeedsReorder(), "no reorder point configured")

	require.NoError(t, v.SetReorderPolicy(5, 0))
	v.InventoryQuantity = 5
	assert.True(t, v.NeedsReorder())
	assert.Equal(t, 10, v.SuggestedReorderQuantity())

	require.NoError(t, v.SetReorderPolicy(5, 25))
	assert.Equal(t, 25, v.SuggestedReorderQuantity())

	v.InventoryQuantity = 6
	assert.False(t, v.NeedsReorder())

	assert.Error(t, v.SetReorderPolicy(-1, 0))
}

func TestVariant_InventoryValue(t *testing.T) {
	v, err := NewVariant(uuid.New(), uuid.New(), "SKU-1", "", decimal.NewFromInt(10), decimal.RequireFromString("2.50"))
	require.NoError(t, err)
	v.InventoryQuantity = 4
	assert.True(t, decimal.NewFromInt(10).Equal(v.InventoryValue()))
}
