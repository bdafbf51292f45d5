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

	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/domain/trade"
)

// DefaultShopifyAPIVersion is used when the credentials do not pin one
const DefaultShopifyAPIVersion = "2024-01"

// ShopifyConnector talks to the Shopify Admin REST API
type ShopifyConnector struct {
	client      *apiClient
	baseURL     string
	accessToken string
	pageSize    int
}

// NewShopifyConnector creates a connector for the store at storeURL
func NewShopifyConnector(client *apiClient, storeURL string, creds integration.Credentials, pageSize int) (*ShopifyConnector, error) {
	if storeURL == "" {
		return nil, integration.ErrInvalidStoreURL
	}
	version := creds.APIVersion
	if version == "" {
		version = DefaultShopifyAPIVersion
	}
	if pageSize > 250 {
		pageSize = 250
	}
	return &ShopifyConnector{
		client:      client,
		baseURL:     strings.TrimRight(storeURL, "/") + "/admin/api/" + version,
		accessToken: creds.AccessToken,
		pageSize:    pageSize,
	}, nil
}

// Platform returns SHOPIFY
func (c *ShopifyConnector) Platform() integration.PlatformCode {
	return integration.PlatformShopify
}

// Ping fetches the shop and returns its numeric ID
func (c *ShopifyConnector) Ping(ctx context.Context) (string, error) {
	var resp struct {
		Shop struct {
			ID     int64  `json:"id"`
			Domain string `json:"myshopify_domain"`
		} `json:"shop"`
	}
	if _, err := c.client.getJSON(ctx, c.baseURL+"/shop.json", c.headers(), &resp); err != nil {
		return "", err
	}
	if resp.Shop.ID == 0 {
		return "", fmt.Errorf("%w: shop.json without shop id", integration.ErrPlatformInvalidResponse)
	}
	return strconv.FormatInt(resp.Shop.ID, 10), nil
}

// FetchProducts returns one page of products. cursor is Shopify's page_info.
func (c *ShopifyConnector) FetchProducts(ctx context.Context, cursor string) (*integration.ProductPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.pageSize))
	if cursor != "" {
		q.Set("page_info", cursor)
	}

	var payload struct {
		Products []shopifyProduct `json:"products"`
	}
	resp, err := c.client.getJSON(ctx, c.baseURL+"/products.json?"+q.Encode(), c.headers(), &payload)
	if err != nil {
		return nil, err
	}

	page := &integration.ProductPage{
		Products:   make([]integration.RemoteProduct, 0, len(payload.Products)),
		NextCursor: nextPageInfo(resp.Header.Get("Link")),
	}
	for i := range payload.Products {
		page.Products = append(page.Products, payload.Products[i].toRemote())
	}
	return page, nil
}

// FetchOrders returns one page of orders updated at or after since
func (c *ShopifyConnector) FetchOrders(ctx context.Context, since time.Time, cursor string) (*integration.OrderPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.pageSize))
	if cursor != "" {
		// page_info carries the original filters and cannot be combined with them
		q.Set("page_info", cursor)
	} else {
		q.Set("status", "any")
		if !since.IsZero() {
			q.Set("updated_at_min", since.UTC().Format(time.RFC3339))
		}
	}

	var payload struct {
		Orders []shopifyOrder `json:"orders"`
	}
	resp, err := c.client.getJSON(ctx, c.baseURL+"/orders.json?"+q.Encode(), c.headers(), &payload)
	if err != nil {
		return nil, err
	}

	page := &integration.OrderPage{
		Orders:     make([]integration.RemoteOrder, 0, len(payload.Orders)),
		NextCursor: nextPageInfo(resp.Header.Get("Link")),
	}
	for i := range payload.Orders {
		page.Orders = append(page.Orders, payload.Orders[i].toRemote())
	}
	return page, nil
}

func (c *ShopifyConnector) headers() http.Header {
	h := http.Header{}
	h.Set("X-Shopify-Access-Token", c.accessToken)
	return h
}

// nextPageInfo extracts page_info from the rel="next" entry of a Link header
func nextPageInfo(link string) string {
	for _, part := range strings.Split(link, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		isNext := false
		for _, attr := range segments[1:] {
			if strings.TrimSpace(attr) == `rel="next"` {
				isNext = true
				break
			}
		}
		if !isNext {
			continue
		}
		raw := strings.Trim(strings.TrimSpace(segments[0]), "<>")
		u, err := url.Parse(raw)
		if err != nil {
			return ""
		}
		return u.Query().Get("page_info")
	}
	return ""
}

// ---------------------------------------------------------------------------
// Payload types
// ---------------------------------------------------------------------------

type shopifyProduct struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	BodyHTML    string           `json:"body_html"`
	Vendor      string           `json:"vendor"`
	ProductType string           `json:"product_type"`
	Status      string           `json:"status"`
	UpdatedAt   string           `json:"updated_at"`
	Variants    []shopifyVariant `json:"variants"`
}

type shopifyVariant struct {
	ID                int64  `json:"id"`
	SKU               string `json:"sku"`
	Title             string `json:"title"`
	Price             string `json:"price"`
	InventoryQuantity *int   `json:"inventory_quantity"`
}

type shopifyOrder struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	FinancialStatus   string `json:"financial_status"`
	FulfillmentStatus string `json:"fulfillment_status"`
	CancelledAt       string `json:"cancelled_at"`
	Currency          string `json:"currency"`
	TotalTax          string `json:"total_tax"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
	Customer          *struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	} `json:"customer"`
	LineItems []struct {
		ID       int64  `json:"id"`
		SKU      string `json:"sku"`
		Title    string `json:"title"`
		Quantity int    `json:"quantity"`
		Price    string `json:"price"`
	} `json:"line_items"`
}

var shopifyTimeLayouts = []string{time.RFC3339, time.RFC3339Nano}

func (p *shopifyProduct) toRemote() integration.RemoteProduct {
	id := strconv.FormatInt(p.ID, 10)
	rp := integration.RemoteProduct{
		ExternalID:  id,
		Title:       strings.TrimSpace(p.Title),
		Description: p.BodyHTML,
		Vendor:      p.Vendor,
		ProductType: p.ProductType,
		Status:      mapShopifyProductStatus(p.Status),
		UpdatedAt:   parseTime(shopifyTimeLayouts, p.UpdatedAt),
		Variants:    make([]integration.RemoteVariant, 0, len(p.Variants)),
	}
	if rp.Title == "" {
		rp.Title = "Shopify product " + id
	}
	for _, v := range p.Variants {
		vid := strconv.FormatInt(v.ID, 10)
		sku := strings.TrimSpace(v.SKU)
		if sku == "" {
			sku = defaultSKU(integration.PlatformShopify, vid)
		}
		title := v.Title
		if title == "Default Title" {
			title = ""
		}
		rp.Variants = append(rp.Variants, integration.RemoteVariant{
			ExternalID:        vid,
			SKU:               sku,
			Title:             title,
			Price:             parseMoney(v.Price),
			InventoryQuantity: v.InventoryQuantity,
		})
	}
	return rp
}

func (o *shopifyOrder) toRemote() integration.RemoteOrder {
	ro := integration.RemoteOrder{
		ExternalID:    strconv.FormatInt(o.ID, 10),
		OrderNumber:   o.Name,
		Status:        mapShopifyOrderStatus(o.FinancialStatus, o.FulfillmentStatus, o.CancelledAt),
		CustomerEmail: o.Email,
		Currency:      strings.ToUpper(o.Currency),
		Tax:           moneyOrZero(o.TotalTax),
		OrderedAt:     parseTime(shopifyTimeLayouts, o.CreatedAt),
		UpdatedAt:     parseTime(shopifyTimeLayouts, o.UpdatedAt),
		Lines:         make([]integration.RemoteOrderLine, 0, len(o.LineItems)),
	}
	if ro.OrderNumber == "" {
		ro.OrderNumber = "#" + ro.ExternalID
	}
	if o.Customer != nil {
		ro.CustomerName = strings.TrimSpace(o.Customer.FirstName + " " + o.Customer.LastName)
		if ro.CustomerEmail == "" {
			ro.CustomerEmail = o.Customer.Email
		}
	}
	for _, li := range o.LineItems {
		ro.Lines = append(ro.Lines, integration.RemoteOrderLine{
			ExternalID: strconv.FormatInt(li.ID, 10),
			SKU:        strings.TrimSpace(li.SKU),
			Title:      li.Title,
			Quantity:   li.Quantity,
			UnitPrice:  moneyOrZero(li.Price),
		})
	}
	return ro
}

func mapShopifyProductStatus(status string) catalog.ProductStatus {
	switch strings.ToLower(status) {
	case "draft":
		return catalog.ProductStatusDraft
	case "archived":
		return catalog.ProductStatusArchived
	default:
		return catalog.ProductStatusActive
	}
}

func mapShopifyOrderStatus(financial, fulfillment, cancelledAt string) trade.SalesOrderStatus {
	if cancelledAt != "" {
		return trade.SalesOrderStatusCancelled
	}
	switch strings.ToLower(financial) {
	case "refunded", "voided":
		return trade.SalesOrderStatusRefunded
	}
	if strings.EqualFold(fulfillment, "fulfilled") {
		return trade.SalesOrderStatusFulfilled
	}
	switch strings.ToLower(financial) {
	case "paid", "partially_paid", "partially_refunded":
		return trade.SalesOrderStatusPaid
	}
	return trade.SalesOrderStatusPending
}

// DecodeShopifyProduct maps a products/* webhook body
func DecodeShopifyProduct(body []byte) (*integration.RemoteProduct, error) {
	var p shopifyProduct
	if err := json.Unmarshal(body, &p); err != nil || p.ID == 0 {
		return nil, fmt.Errorf("%w: shopify product payload", integration.ErrWebhookMalformed)
	}
	rp := p.toRemote()
	return &rp, nil
}

// DecodeShopifyOrder maps an orders/* webhook body
func DecodeShopifyOrder(body []byte) (*integration.RemoteOrder, error) {
	var o shopifyOrder
	if err := json.Unmarshal(body, &o); err != nil || o.ID == 0 {
		return nil, fmt.Errorf("%w: shopify order payload", integration.ErrWebhookMalformed)
	}
	ro := o.toRemote()
	return &ro, nil
}
