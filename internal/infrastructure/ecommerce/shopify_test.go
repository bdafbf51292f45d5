package ecommerce

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/domain/trade"
)

const shopifyProductsPage1 = `{"products":[
 {"id":101,"title":"Linen Shirt","body_html":"<p>Soft</p>","vendor":"Acme","product_type":"Shirts","status":"active","updated_at":"2024-03-01T10:00:00-05:00",
  "variants":[{"id":1001,"sku":"LS-S","title":"Small","price":"39.00","inventory_quantity":7},
              {"id":1002,"sku":"","title":"Default Title","price":"41.50","inventory_quantity":0}]}
]}`

const shopifyProductsPage2 = `{"products":[{"id":102,"title":"Cap","status":"draft","variants":[{"id":2001,"sku":"CAP","price":"12.00"}]}]}`

func newShopifyServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Shopify-Access-Token") != "shpat_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/admin/api/2024-01/shop.json":
			_, _ = w.Write([]byte(`{"shop":{"id":5550001,"myshopify_domain":"acme.myshopify.com"}}`))
		case "/admin/api/2024-01/products.json":
			assert.Equal(t, "2", r.URL.Query().Get("limit"))
			if r.URL.Query().Get("page_info") == "" {
				w.Header().Set("Link", fmt.Sprintf(`<%s/admin/api/2024-01/products.json?limit=2&page_info=abc123>; rel="next"`, srv.URL))
				_, _ = w.Write([]byte(shopifyProductsPage1))
				return
			}
			assert.Equal(t, "abc123", r.URL.Query().Get("page_info"))
			w.Header().Set("Link", fmt.Sprintf(`<%s/admin/api/2024-01/products.json?limit=2&page_info=zzz>; rel="previous"`, srv.URL))
			_, _ = w.Write([]byte(shopifyProductsPage2))
		case "/admin/api/2024-01/orders.json":
			assert.Equal(t, "any", r.URL.Query().Get("status"))
			assert.Equal(t, "2024-02-01T00:00:00Z", r.URL.Query().Get("updated_at_min"))
			_, _ = w.Write([]byte(`{"orders":[
			 {"id":9001,"name":"#1001","email":"","financial_status":"paid","fulfillment_status":null,"cancelled_at":null,
			  "currency":"usd","total_tax":"3.20","created_at":"2024-02-10T08:00:00Z","updated_at":"2024-02-11T08:00:00Z",
			  "customer":{"first_name":"Ada","last_name":"Lovelace","email":"ada@example.com"},
			  "line_items":[{"id":1,"sku":"LS-S","title":"Linen Shirt","quantity":2,"price":"39.00"}]}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newShopify(t *testing.T, storeURL, token string) *ShopifyConnector {
	t.Helper()
	c, err := NewShopifyConnector(newTestClient(integration.PlatformShopify), storeURL, integration.Credentials{AccessToken: token}, 2)
	require.NoError(t, err)
	return c
}

func TestShopifyConnector_Ping(t *testing.T) {
	srv := newShopifyServer(t)

	id, err := newShopify(t, srv.URL, "shpat_test").Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "5550001", id)

	_, err = newShopify(t, srv.URL, "wrong").Ping(context.Background())
	assert.ErrorIs(t, err, integration.ErrPlatformAuthFailed)
}

func TestShopifyConnector_FetchProducts(t *testing.T) {
	srv := newShopifyServer(t)
	c := newShopify(t, srv.URL, "shpat_test")
	ctx := context.Background()

	page, err := c.FetchProducts(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "abc123", page.NextCursor)
	require.Len(t, page.Products, 1)

	p := page.Products[0]
	assert.Equal(t, "101", p.ExternalID)
	assert.Equal(t, "Linen Shirt", p.Title)
	assert.Equal(t, "Acme", p.Vendor)
	assert.Equal(t, catalog.ProductStatusActive, p.Status)
	assert.Equal(t, time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC), p.UpdatedAt)
	require.Len(t, p.Variants, 2)
	assert.Equal(t, "LS-S", p.Variants[0].SKU)
	assert.Equal(t, "39", p.Variants[0].Price.String())
	require.NotNil(t, p.Variants[0].InventoryQuantity)
	assert.Equal(t, 7, *p.Variants[0].InventoryQuantity)
	assert.Nil(t, p.Variants[0].Cost)
	assert.Equal(t, "SHOPIFY-1002", p.Variants[1].SKU, "missing SKUs get a platform default")
	assert.Empty(t, p.Variants[1].Title)

	page, err = c.FetchProducts(ctx, page.NextCursor)
	require.NoError(t, err)
	assert.Empty(t, page.NextCursor, "rel=previous is not a next page")
	require.Len(t, page.Products, 1)
	assert.Equal(t, catalog.ProductStatusDraft, page.Products[0].Status)
}

func TestShopifyConnector_FetchOrders(t *testing.T) {
	srv := newShopifyServer(t)
	c := newShopify(t, srv.URL, "shpat_test")

	page, err := c.FetchOrders(context.Background(), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "")
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)

	o := page.Orders[0]
	assert.Equal(t, "9001", o.ExternalID)
	assert.Equal(t, "#1001", o.OrderNumber)
	assert.Equal(t, trade.SalesOrderStatusPaid, o.Status)
	assert.Equal(t, "Ada Lovelace", o.CustomerName)
	assert.Equal(t, "ada@example.com", o.CustomerEmail)
	assert.Equal(t, "USD", o.Currency)
	assert.Equal(t, "3.2", o.Tax.String())
	require.Len(t, o.Lines, 1)
	assert.Equal(t, 2, o.Lines[0].Quantity)
	assert.Equal(t, "39", o.Lines[0].UnitPrice.String())
}

func TestNextPageInfo(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
	}{
		{name: "empty", link: "", want: ""},
		{name: "next only", link: `<https://s.myshopify.com/admin/api/2024-01/products.json?limit=50&page_info=n1>; rel="next"`, want: "n1"},
		{name: "previous and next", link: `<https://s/p.json?page_info=p0>; rel="previous", <https://s/p.json?page_info=n2>; rel="next"`, want: "n2"},
		{name: "previous only", link: `<https://s/p.json?page_info=p0>; rel="previous"`, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextPageInfo(tt.link))
		})
	}
}

func TestMapShopifyOrderStatus(t *testing.T) {
	tests := []struct {
		financial, fulfillment, cancelled string
		want                              trade.SalesOrderStatus
	}{
		{"paid", "", "", trade.SalesOrderStatusPaid},
		{"pending", "", "", trade.SalesOrderStatusPending},
		{"paid", "fulfilled", "", trade.SalesOrderStatusFulfilled},
		{"refunded", "fulfilled", "", trade.SalesOrderStatusRefunded},
		{"paid", "", "2024-01-01T00:00:00Z", trade.SalesOrderStatusCancelled},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mapShopifyOrderStatus(tt.financial, tt.fulfillment, tt.cancelled))
	}
}

func TestDecodeShopifyProduct(t *testing.T) {
	_, err := DecodeShopifyProduct([]byte(`{"title":"no id"}`))
	assert.ErrorIs(t, err, integration.ErrWebhookMalformed)

	p, err := DecodeShopifyProduct([]byte(`{"id":7,"title":"Hat","variants":[{"id":70,"sku":"HAT","price":"5.00"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "7", p.ExternalID)
	assert.Equal(t, "HAT", p.Variants[0].SKU)
}
