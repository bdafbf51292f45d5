package ecommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/domain/trade"
)

const wooMaxPerPage = 100

// WooCommerceConnector talks to the WooCommerce REST API v3
type WooCommerceConnector struct {
	client         *apiClient
	baseURL        string
	host           string
	consumerKey    string
	consumerSecret string
	pageSize       int
}

// NewWooCommerceConnector creates a connector for the WordPress site at storeURL
func NewWooCommerceConnector(client *apiClient, storeURL string, creds integration.Credentials, pageSize int) (*WooCommerceConnector, error) {
	u, err := url.Parse(storeURL)
	if storeURL == "" || err != nil || u.Host == "" {
		return nil, integration.ErrInvalidStoreURL
	}
	if pageSize > wooMaxPerPage {
		pageSize = wooMaxPerPage
	}
	return &WooCommerceConnector{
		client:         client,
		baseURL:        strings.TrimRight(storeURL, "/") + "/wp-json/wc/v3",
		host:           strings.ToLower(u.Hostname()),
		consumerKey:    creds.ConsumerKey,
		consumerSecret: creds.ConsumerSecret,
		pageSize:       pageSize,
	}, nil
}

// Platform returns WOOCOMMERCE
func (c *WooCommerceConnector) Platform() integration.PlatformCode {
	return integration.PlatformWooCommerce
}

// Ping lists a single product to verify the keys and returns the store host
func (c *WooCommerceConnector) Ping(ctx context.Context) (string, error) {
	var products []json.RawMessage
	if _, err := c.get(ctx, "/products", url.Values{"per_page": {"1"}}, &products); err != nil {
		return "", err
	}
	return c.host, nil
}

// FetchProducts returns one page of products. cursor is the 1-based page number.
// Variable products are expanded through their variations endpoint.
func (c *WooCommerceConnector) FetchProducts(ctx context.Context, cursor string) (*integration.ProductPage, error) {
	page := pageFromCursor(cursor)

	var products []wooProduct
	resp, err := c.get(ctx, "/products", url.Values{
		"per_page": {strconv.Itoa(c.pageSize)},
		"page":     {strconv.Itoa(page)},
	}, &products)
	if err != nil {
		return nil, err
	}

	out := &integration.ProductPage{
		Products:   make([]integration.RemoteProduct, 0, len(products)),
		NextCursor: nextWooPage(resp.Header, page),
	}
	for i := range products {
		p := &products[i]
		var variations []wooVariation
		if p.Type == "variable" && len(p.Variations) > 0 {
			variations, err = c.fetchVariations(ctx, p.ID)
			if err != nil {
				return nil, err
			}
		}
		out.Products = append(out.Products, p.toRemote(variations))
	}
	return out, nil
}

func (c *WooCommerceConnector) fetchVariations(ctx context.Context, productID int64) ([]wooVariation, error) {
	var all []wooVariation
	for page := 1; ; page++ {
		var batch []wooVariation
		resp, err := c.get(ctx, fmt.Sprintf("/products/%d/variations", productID), url.Values{
			"per_page": {strconv.Itoa(wooMaxPerPage)},
			"page":     {strconv.Itoa(page)},
		}, &batch)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if nextWooPage(resp.Header, page) == "" {
			return all, nil
		}
	}
}

// FetchOrders returns one page of orders created after since
func (c *WooCommerceConnector) FetchOrders(ctx context.Context, since time.Time, cursor string) (*integration.OrderPage, error) {
	page := pageFromCursor(cursor)
	q := url.Values{
		"per_page": {strconv.Itoa(c.pageSize)},
		"page":     {strconv.Itoa(page)},
		"orderby":  {"date"},
		"order":    {"asc"},
	}
	if !since.IsZero() {
		q.Set("after", since.UTC().Format(wooTimeLayout))
	}

	var orders []wooOrder
	resp, err := c.get(ctx, "/orders", q, &orders)
	if err != nil {
		return nil, err
	}

	out := &integration.OrderPage{
		Orders:     make([]integration.RemoteOrder, 0, len(orders)),
		NextCursor: nextWooPage(resp.Header, page),
	}
	for i := range orders {
		out.Orders = append(out.Orders, orders[i].toRemote())
	}
	return out, nil
}

func (c *WooCommerceConnector) get(ctx context.Context, path string, q url.Values, out any) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("woocommerce: failed to create request: %w", err)
	}
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)
	resp, err := c.client.do(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(resp.Body, out); err != nil {
		return nil, err
	}
	return resp, nil
}

func pageFromCursor(cursor string) int {
	page, err := strconv.Atoi(cursor)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// nextWooPage reads X-WP-TotalPages; an absent header means a single page
func nextWooPage(h http.Header, page int) string {
	total, err := strconv.Atoi(h.Get("X-WP-TotalPages"))
	if err != nil || page >= total {
		return ""
	}
	return strconv.Itoa(page + 1)
}

// ---------------------------------------------------------------------------
// Payload types
// ---------------------------------------------------------------------------

const wooTimeLayout = "2006-01-02T15:04:05"

var wooTimeLayouts = []string{wooTimeLayout, time.RFC3339}

type wooProduct struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	Status          string  `json:"status"`
	Description     string  `json:"description"`
	SKU             string  `json:"sku"`
	Price           string  `json:"price"`
	StockQuantity   *int    `json:"stock_quantity"`
	DateModifiedGMT string  `json:"date_modified_gmt"`
	Variations      []int64 `json:"variations"`
	Categories      []struct {
		Name string `json:"name"`
	} `json:"categories"`
}

type wooVariation struct {
	ID            int64  `json:"id"`
	SKU           string `json:"sku"`
	Price         string `json:"price"`
	StockQuantity *int   `json:"stock_quantity"`
	Attributes    []struct {
		Name   string `json:"name"`
		Option string `json:"option"`
	} `json:"attributes"`
}

type wooOrder struct {
	ID              int64  `json:"id"`
	Number          string `json:"number"`
	Status          string `json:"status"`
	Currency        string `json:"currency"`
	TotalTax        string `json:"total_tax"`
	DateCreatedGMT  string `json:"date_created_gmt"`
	DateModifiedGMT string `json:"date_modified_gmt"`
	Billing         struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	} `json:"billing"`
	LineItems []struct {
		ID       int64       `json:"id"`
		SKU      string      `json:"sku"`
		Name     string      `json:"name"`
		Quantity int         `json:"quantity"`
		Price    json.Number `json:"price"`
	} `json:"line_items"`
}

func (p *wooProduct) toRemote(variations []wooVariation) integration.RemoteProduct {
	id := strconv.FormatInt(p.ID, 10)
	rp := integration.RemoteProduct{
		ExternalID:  id,
		Title:       strings.TrimSpace(p.Name),
		Description: p.Description,
		Status:      mapWooProductStatus(p.Status),
		UpdatedAt:   parseTime(wooTimeLayouts, p.DateModifiedGMT),
	}
	if rp.Title == "" {
		rp.Title = "WooCommerce product " + id
	}
	if len(p.Categories) > 0 {
		rp.ProductType = p.Categories[0].Name
	}

	if len(variations) == 0 {
		sku := strings.TrimSpace(p.SKU)
		if sku == "" {
			sku = defaultSKU(integration.PlatformWooCommerce, id)
		}
		rp.Variants = []integration.RemoteVariant{{
			ExternalID:        id,
			SKU:               sku,
			Price:             parseMoney(p.Price),
			InventoryQuantity: p.StockQuantity,
		}}
		return rp
	}

	rp.Variants = make([]integration.RemoteVariant, 0, len(variations))
	for _, v := range variations {
		vid := strconv.FormatInt(v.ID, 10)
		sku := strings.TrimSpace(v.SKU)
		if sku == "" {
			sku = defaultSKU(integration.PlatformWooCommerce, vid)
		}
		options := make([]string, 0, len(v.Attributes))
		for _, a := range v.Attributes {
			options = append(options, a.Option)
		}
		rp.Variants = append(rp.Variants, integration.RemoteVariant{
			ExternalID:        vid,
			SKU:               sku,
			Title:             strings.Join(options, " / "),
			Price:             parseMoney(v.Price),
			InventoryQuantity: v.StockQuantity,
		})
	}
	return rp
}

func (o *wooOrder) toRemote() integration.RemoteOrder {
	ro := integration.RemoteOrder{
		ExternalID:    strconv.FormatInt(o.ID, 10),
		OrderNumber:   o.Number,
		Status:        mapWooOrderStatus(o.Status),
		CustomerName:  strings.TrimSpace(o.Billing.FirstName + " " + o.Billing.LastName),
		CustomerEmail: o.Billing.Email,
		Currency:      strings.ToUpper(o.Currency),
		Tax:           moneyOrZero(o.TotalTax),
		OrderedAt:     parseTime(wooTimeLayouts, o.DateCreatedGMT),
		UpdatedAt:     parseTime(wooTimeLayouts, o.DateModifiedGMT),
		Lines:         make([]integration.RemoteOrderLine, 0, len(o.LineItems)),
	}
	if ro.OrderNumber == "" {
		ro.OrderNumber = ro.ExternalID
	}
	for _, li := range o.LineItems {
		price, err := decimal.NewFromString(li.Price.String())
		if err != nil {
			price = decimal.Zero
		}
		ro.Lines = append(ro.Lines, integration.RemoteOrderLine{
			ExternalID: strconv.FormatInt(li.ID, 10),
			SKU:        strings.TrimSpace(li.SKU),
			Title:      li.Name,
			Quantity:   li.Quantity,
			UnitPrice:  price,
		})
	}
	return ro
}

func mapWooProductStatus(status string) catalog.ProductStatus {
	switch status {
	case "publish":
		return catalog.ProductStatusActive
	case "trash":
		return catalog.ProductStatusArchived
	default:
		return catalog.ProductStatusDraft
	}
}

func mapWooOrderStatus(status string) trade.SalesOrderStatus {
	switch status {
	case "processing":
		return trade.SalesOrderStatusPaid
	case "completed":
		return trade.SalesOrderStatusFulfilled
	case "cancelled", "failed":
		return trade.SalesOrderStatusCancelled
	case "refunded":
		return trade.SalesOrderStatusRefunded
	default:
		return trade.SalesOrderStatusPending
	}
}

// DecodeWooProduct maps a product.* webhook body. Variable products come back
// without variants; the next scheduled sync fetches their variations.
func DecodeWooProduct(body []byte) (*integration.RemoteProduct, error) {
	var p wooProduct
	if err := json.Unmarshal(body, &p); err != nil || p.ID == 0 {
		return nil, fmt.Errorf("%w: woocommerce product payload", integration.ErrWebhookMalformed)
	}
	rp := p.toRemote(nil)
	if p.Type == "variable" {
		rp.Variants = nil
	}
	return &rp, nil
}

// DecodeWooOrder maps an order.* webhook body
func DecodeWooOrder(body []byte) (*integration.RemoteOrder, error) {
	var o wooOrder
	if err := json.Unmarshal(body, &o); err != nil || o.ID == 0 {
		return nil, fmt.Errorf("%w: woocommerce order payload", integration.ErrWebhookMalformed)
	}
	ro := o.toRemote()
	return &ro, nil
}
