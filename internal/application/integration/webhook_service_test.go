package integration

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/infrastructure/cache"
	"github.com/stockpilot/backend/internal/infrastructure/ecommerce"
	"github.com/stockpilot/backend/internal/infrastructure/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopifyProductBody = `{
	"id": 632910392,
	"title": "IPod Nano - 8GB",
	"vendor": "Apple",
	"status": "active",
	"variants": [{"id": 808950810, "sku": "IPOD2008PINK", "title": "Pink", "price": "199.00", "inventory_quantity": 10}]
}`

func (f *syncFixture) webhookService(t *testing.T, seen shared.IdempotencyStore) *WebhookService {
	t.Helper()
	if seen == nil {
		store := cache.NewInMemoryIdempotencyStore(time.Minute)
		t.Cleanup(func() { _ = store.Close() })
		seen = store
	}
	registry := ecommerce.NewRegistry(ecommerce.Options{}, cache.NewInMemoryTokenCache())
	return NewWebhookService(webhook.NewVerifier(5*time.Minute), f.integrations, f.vault, seen, f.events, registry, f.writer, f.cache)
}

func shopifyHeaders(eventID, topic, body string) http.Header {
	h := http.Header{}
	h.Set(webhook.HeaderShopifyHmac, webhook.Sign(webhookTestSecret, []byte(body)))
	h.Set(webhook.HeaderShopifyWebhookID, eventID)
	h.Set(webhook.HeaderShopifyTopic, topic)
	h.Set(webhook.HeaderShopifyShopDomain, "acme.myshopify.com")
	h.Set(webhook.HeaderShopifyTriggeredAt, time.Now().UTC().Format(time.RFC3339Nano))
	return h
}

func TestWebhookService_ProductUpsertAndReplay(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t)
	svc := f.webhookService(t, nil)
	h := shopifyHeaders("evt-1", "products/create", shopifyProductBody)

	result, err := svc.Handle(ctx, integration.PlatformShopify, h, []byte(shopifyProductBody))
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Equal(t, integration.WebhookActionProductUpsert, result.Action)
	assert.Equal(t, integration.WebhookEventProcessed, result.Status)

	product, err := f.products.FindByExternalID(ctx, f.tenantID, "SHOPIFY", "632910392")
	require.NoError(t, err)
	require.Len(t, product.Variants, 1)
	assert.Equal(t, "IPOD2008PINK", product.Variants[0].SKU)
	assert.Equal(t, 10, product.Variants[0].InventoryQuantity)

	replay, err := svc.Handle(ctx, integration.PlatformShopify, h, []byte(shopifyProductBody))
	require.NoError(t, err)
	assert.True(t, replay.Duplicate)

	t.Run("database catches replays the seen store forgot", func(t *testing.T) {
		fresh := f.webhookService(t, nil)
		again, err := fresh.Handle(ctx, integration.PlatformShopify, h, []byte(shopifyProductBody))
		require.NoError(t, err)
		assert.True(t, again.Duplicate)
	})
}

func TestWebhookService_Rejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		platform integration.PlatformCode
		headers  func() http.Header
		wantErr  error
	}{
		{
			name:     "bad signature",
			platform: integration.PlatformShopify,
			headers: func() http.Header {
				h := shopifyHeaders("evt-bad", "products/create", shopifyProductBody)
				h.Set(webhook.HeaderShopifyHmac, webhook.Sign("wrong-secret", []byte(shopifyProductBody)))
				return h
			},
			wantErr: integration.ErrInvalidSignature,
		},
		{
			name:     "missing signature",
			platform: integration.PlatformShopify,
			headers: func() http.Header {
				h := shopifyHeaders("evt-nosig", "products/create", shopifyProductBody)
				h.Del(webhook.HeaderShopifyHmac)
				return h
			},
			wantErr: integration.ErrInvalidSignature,
		},
		{
			name:     "outside replay window",
			platform: integration.PlatformShopify,
			headers: func() http.Header {
				h := shopifyHeaders("evt-old", "products/create", shopifyProductBody)
				h.Set(webhook.HeaderShopifyTriggeredAt, time.Now().Add(-10*time.Minute).UTC().Format(time.RFC3339Nano))
				return h
			},
			wantErr: integration.ErrWebhookExpired,
		},
		{
			name:     "unknown shop",
			platform: integration.PlatformShopify,
			headers: func() http.Header {
				h := shopifyHeaders("evt-shop", "products/create", shopifyProductBody)
				h.Set(webhook.HeaderShopifyShopDomain, "stranger.myshopify.com")
				return h
			},
			wantErr: integration.ErrIntegrationNotFound,
		},
		{
			name:     "platform without webhooks",
			platform: integration.PlatformAmazonFBA,
			headers:  func() http.Header { return http.Header{} },
			wantErr:  integration.ErrPlatformNotSupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSyncFixture(t)
			h := tt.headers()
			_, err := f.webhookService(t, nil).Handle(ctx, tt.platform, h, []byte(shopifyProductBody))
			assert.ErrorIs(t, err, tt.wantErr)

			if id := h.Get(webhook.HeaderShopifyWebhookID); id != "" {
				recorded, err := f.events.Exists(ctx, integration.PlatformShopify, id)
				require.NoError(t, err)
				assert.False(t, recorded, "rejected deliveries are not recorded")
			}
			_, err = f.products.FindByExternalID(ctx, f.tenantID, "SHOPIFY", "632910392")
			assert.ErrorIs(t, err, shared.ErrNotFound)
		})
	}
}

func TestWebhookService_Actions(t *testing.T) {
	ctx := context.Background()

	t.Run("delete archives the product", func(t *testing.T) {
		f := newSyncFixture(t)
		svc := f.webhookService(t, nil)
		_, err := svc.Handle(ctx, integration.PlatformShopify, shopifyHeaders("evt-c", "products/create", shopifyProductBody), []byte(shopifyProductBody))
		require.NoError(t, err)

		body := `{"id": 632910392}`
		result, err := svc.Handle(ctx, integration.PlatformShopify, shopifyHeaders("evt-d", "products/delete", body), []byte(body))
		require.NoError(t, err)
		assert.Equal(t, integration.WebhookEventProcessed, result.Status)

		product, err := f.products.FindByExternalID(ctx, f.tenantID, "SHOPIFY", "632910392")
		require.NoError(t, err)
		assert.Equal(t, catalog.ProductStatusArchived, product.Status)
	})

	t.Run("uninstall disconnects", func(t *testing.T) {
		f := newSyncFixture(t)
		body := `{"id": 1, "domain": "acme.myshopify.com"}`
		result, err := f.webhookService(t, nil).Handle(ctx, integration.PlatformShopify, shopifyHeaders("evt-u", "app/uninstalled", body), []byte(body))
		require.NoError(t, err)
		assert.Equal(t, integration.WebhookActionUninstalled, result.Action)

		in := f.reload(t)
		assert.Equal(t, integration.StatusDisconnected, in.Status)
		assert.False(t, in.AutoSync)
		_, err = f.vault.Get(ctx, in.CredentialRef)
		assert.ErrorIs(t, err, integration.ErrCredentialsNotFound)
		assert.Contains(t, f.cache.forgotten, in.ID)
	})

	t.Run("unmapped topic is recorded and ignored", func(t *testing.T) {
		f := newSyncFixture(t)
		body := `{"id": 5}`
		result, err := f.webhookService(t, nil).Handle(ctx, integration.PlatformShopify, shopifyHeaders("evt-i", "customers/create", body), []byte(body))
		require.NoError(t, err)
		assert.Equal(t, integration.WebhookEventIgnored, result.Status)

		recorded, err := f.events.Exists(ctx, integration.PlatformShopify, "evt-i")
		require.NoError(t, err)
		assert.True(t, recorded)
	})

	t.Run("malformed payload is acknowledged as failed", func(t *testing.T) {
		f := newSyncFixture(t)
		body := `{"title": "no id"}`
		result, err := f.webhookService(t, nil).Handle(ctx, integration.PlatformShopify, shopifyHeaders("evt-m", "products/update", body), []byte(body))
		require.NoError(t, err)
		assert.Equal(t, integration.WebhookEventFailed, result.Status)
	})
}

// failingProducts fails UpsertFromPlatform with err while err is set
type failingProducts struct {
	catalog.ProductRepository
	err error
}

func (p *failingProducts) UpsertFromPlatform(ctx context.Context, product *catalog.Product) error {
	if p.err != nil {
		return p.err
	}
	return p.ProductRepository.UpsertFromPlatform(ctx, product)
}

func TestWebhookService_TransientFailureIsRedelivered(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t)
	products := &failingProducts{ProductRepository: f.products, err: errors.New("driver: bad connection")}
	f.writer = NewPlatformWriter(products, f.variants, f.orders)
	svc := f.webhookService(t, nil)
	h := shopifyHeaders("evt-t", "products/update", shopifyProductBody)

	_, err := svc.Handle(ctx, integration.PlatformShopify, h, []byte(shopifyProductBody))
	assert.ErrorIs(t, err, integration.ErrWebhookDeferred)

	recorded, err := f.events.Exists(ctx, integration.PlatformShopify, "evt-t")
	require.NoError(t, err)
	assert.False(t, recorded, "deferred deliveries are forgotten")

	products.err = nil
	result, err := svc.Handle(ctx, integration.PlatformShopify, h, []byte(shopifyProductBody))
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Equal(t, integration.WebhookEventProcessed, result.Status)

	_, err = f.products.FindByExternalID(ctx, f.tenantID, "SHOPIFY", "632910392")
	assert.NoError(t, err)
}
