package ecommerce

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/domain/trade"
	"github.com/stockpilot/backend/internal/infrastructure/cache"
)

const (
	// DefaultLWATokenURL is the Login with Amazon token endpoint
	DefaultLWATokenURL = "https://api.amazon.com/auth/o2/token"

	// tokenExpirySkew refreshes tokens a little before Amazon expires them
	tokenExpirySkew = time.Minute
	// ordersLookback bounds the first order sync, which the Orders API requires
	ordersLookback = 365 * 24 * time.Hour
)

// amazonEndpoints maps SP-API regions to their base URLs
var amazonEndpoints = map[string]string{
	"na": "https://sellingpartnerapi-na.amazon.com",
	"eu": "https://sellingpartnerapi-eu.amazon.com",
	"fe": "https://sellingpartnerapi-fe.amazon.com",
}

// AmazonEndpointForRegion returns the SP-API base URL, defaulting to North America
func AmazonEndpointForRegion(region string) string {
	if u, ok := amazonEndpoints[strings.ToLower(region)]; ok {
		return u
	}
	return amazonEndpoints["na"]
}

// AmazonConnector talks to the Selling Partner API for FBA inventory and orders
type AmazonConnector struct {
	client   *apiClient
	baseURL  string
	tokenURL string
	creds    integration.Credentials
	tokens   cache.TokenCache
	tokenKey string
	pageSize int
	now      func() time.Time
}

// NewAmazonConnector creates a connector. tokenKey scopes the cached access token.
func NewAmazonConnector(client *apiClient, baseURL, tokenURL string, creds integration.Credentials, tokens cache.TokenCache, tokenKey string, pageSize int) *AmazonConnector {
	if baseURL == "" {
		baseURL = AmazonEndpointForRegion(creds.Region)
	}
	if tokenURL == "" {
		tokenURL = DefaultLWATokenURL
	}
	if tokens == nil {
		tokens = cache.NewInMemoryTokenCache()
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return &AmazonConnector{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		tokenURL: tokenURL,
		creds:    creds,
		tokens:   tokens,
		tokenKey: tokenKey,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// Platform returns AMAZON_FBA
func (c *AmazonConnector) Platform() integration.PlatformCode {
	return integration.PlatformAmazonFBA
}

// Ping exchanges the refresh token and lists marketplace participations.
// It returns the seller ID when known, else the configured marketplace.
func (c *AmazonConnector) Ping(ctx context.Context) (string, error) {
	var resp struct {
		Payload []struct {
			Marketplace struct {
				ID string `json:"id"`
			} `json:"marketplace"`
		} `json:"payload"`
	}
	if err := c.get(ctx, "/sellers/v1/marketplaceParticipations", nil, &resp); err != nil {
		return "", err
	}
	found := false
	for _, p := range resp.Payload {
		if p.Marketplace.ID == c.creds.MarketplaceID {
			found = true
			break
		}
	}
	if !found {
		return "", fmt.Errorf("%w: seller does not participate in marketplace %s", integration.ErrCredentialsInvalid, c.creds.MarketplaceID)
	}
	if c.creds.SellerID != "" {
		return c.creds.SellerID, nil
	}
	return c.creds.MarketplaceID, nil
}

// FetchProducts returns one page of FBA inventory summaries, one product per ASIN
func (c *AmazonConnector) FetchProducts(ctx context.Context, cursor string) (*integration.ProductPage, error) {
	q := url.Values{
		"details":         {"true"},
		"granularityType": {"Marketplace"},
		"granularityId":   {c.creds.MarketplaceID},
		"marketplaceIds":  {c.creds.MarketplaceID},
	}
	if cursor != "" {
		q.Set("nextToken", cursor)
	}

	var resp struct {
		Payload struct {
			InventorySummaries []amazonInventorySummary `json:"inventorySummaries"`
		} `json:"payload"`
		Pagination struct {
			NextToken string `json:"nextToken"`
		} `json:"pagination"`
	}
	if err := c.get(ctx, "/fba/inventory/v1/summaries", q, &resp); err != nil {
		return nil, err
	}

	page := &integration.ProductPage{
		Products:   make([]integration.RemoteProduct, 0, len(resp.Payload.InventorySummaries)),
		NextCursor: resp.Pagination.NextToken,
	}
	for i := range resp.Payload.InventorySummaries {
		if rp, ok := resp.Payload.InventorySummaries[i].toRemote(); ok {
			page.Products = append(page.Products, rp)
		}
	}
	return page, nil
}

// FetchOrders returns one page of orders updated after since, with their items
func (c *AmazonConnector) FetchOrders(ctx context.Context, since time.Time, cursor string) (*integration.OrderPage, error) {
	q := url.Values{
		"MarketplaceIds":    {c.creds.MarketplaceID},
		"MaxResultsPerPage": {fmt.Sprint(c.pageSize)},
	}
	switch {
	case cursor != "":
		q.Set("NextToken", cursor)
	case since.IsZero():
		q.Set("CreatedAfter", c.now().Add(-ordersLookback).UTC().Format(time.RFC3339))
	default:
		q.Set("LastUpdatedAfter", since.UTC().Format(time.RFC3339))
	}

	var resp struct {
		Payload struct {
			Orders    []amazonOrder `json:"Orders"`
			NextToken string        `json:"NextToken"`
		} `json:"payload"`
	}
	if err := c.get(ctx, "/orders/v0/orders", q, &resp); err != nil {
		return nil, err
	}

	page := &integration.OrderPage{
		Orders:     make([]integration.RemoteOrder, 0, len(resp.Payload.Orders)),
		NextCursor: resp.Payload.NextToken,
	}
	for i := range resp.Payload.Orders {
		o := &resp.Payload.Orders[i]
		items, err := c.fetchOrderItems(ctx, o.AmazonOrderID)
		if err != nil {
			return nil, err
		}
		page.Orders = append(page.Orders, o.toRemote(items))
	}
	return page, nil
}

func (c *AmazonConnector) fetchOrderItems(ctx context.Context, orderID string) ([]amazonOrderItem, error) {
	var items []amazonOrderItem
	next := ""
	for {
		q := url.Values{}
		if next != "" {
			q.Set("NextToken", next)
		}
		var resp struct {
			Payload struct {
				OrderItems []amazonOrderItem `json:"OrderItems"`
				NextToken  string            `json:"NextToken"`
			} `json:"payload"`
		}
		if err := c.get(ctx, "/orders/v0/orders/"+url.PathEscape(orderID)+"/orderItems", q, &resp); err != nil {
			return nil, err
		}
		items = append(items, resp.Payload.OrderItems...)
		next = resp.Payload.NextToken
		if next == "" {
			return items, nil
		}
	}
}

func (c *AmazonConnector) get(ctx context.Context, path string, q url.Values, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	rawURL := c.baseURL + path
	if len(q) > 0 {
		rawURL += "?" + q.Encode()
	}
	h := http.Header{}
	h.Set("x-amz-access-token", token)
	_, err = c.client.getJSON(ctx, rawURL, h, out)
	if errors.Is(err, integration.ErrPlatformAuthFailed) {
		// a revoked token stays cached until expiry otherwise
		_ = c.tokens.Delete(ctx, c.tokenKey)
	}
	return err
}

// accessToken returns a cached LWA access token or exchanges the refresh token for a new one
func (c *AmazonConnector) accessToken(ctx context.Context) (string, error) {
	if token, ok, err := c.tokens.Get(ctx, c.tokenKey); err == nil && ok {
		return token, nil
	} else if err != nil {
		c.client.logger.Warn("Token cache read failed", zap.String("key", c.tokenKey), zap.Error(err))
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {c.creds.RefreshToken},
		"client_id":     {c.creds.ClientID},
		"client_secret": {c.creds.ClientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("amazon: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.do(ctx, req)
	if err != nil {
		// LWA answers a bad refresh token with 400 invalid_grant
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusBadRequest {
			return "", fmt.Errorf("%w: token exchange rejected: %s", integration.ErrPlatformAuthFailed, se.Detail)
		}
		return "", err
	}
	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := decodeJSON(resp.Body, &tok); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: token response without access_token", integration.ErrPlatformInvalidResponse)
	}

	ttl := time.Duration(tok.ExpiresIn)*time.Second - tokenExpirySkew
	if ttl > 0 {
		if err := c.tokens.Set(ctx, c.tokenKey, tok.AccessToken, ttl); err != nil {
			c.client.logger.Warn("Token cache write failed", zap.String("key", c.tokenKey), zap.Error(err))
		}
	}
	return tok.AccessToken, nil
}

// ---------------------------------------------------------------------------
// Payload types
// ---------------------------------------------------------------------------

type amazonMoney struct {
	CurrencyCode string `json:"CurrencyCode"`
	Amount       string `json:"Amount"`
}

type amazonInventorySummary struct {
	ASIN             string `json:"asin"`
	FnSKU            string `json:"fnSku"`
	SellerSKU        string `json:"sellerSku"`
	ProductName      string `json:"productName"`
	TotalQuantity    *int   `json:"totalQuantity"`
	LastUpdatedTime  string `json:"lastUpdatedTime"`
	InventoryDetails *struct {
		FulfillableQuantity *int `json:"fulfillableQuantity"`
	} `json:"inventoryDetails"`
}

type amazonOrder struct {
	AmazonOrderID  string       `json:"AmazonOrderId"`
	PurchaseDate   string       `json:"PurchaseDate"`
	LastUpdateDate string       `json:"LastUpdateDate"`
	OrderStatus    string       `json:"OrderStatus"`
	OrderTotal     *amazonMoney `json:"OrderTotal"`
	BuyerInfo      *struct {
		BuyerEmail string `json:"BuyerEmail"`
		BuyerName  string `json:"BuyerName"`
	} `json:"BuyerInfo"`
}

type amazonOrderItem struct {
	OrderItemID     string       `json:"OrderItemId"`
	SellerSKU       string       `json:"SellerSKU"`
	Title           string       `json:"Title"`
	QuantityOrdered int          `json:"QuantityOrdered"`
	ItemPrice       *amazonMoney `json:"ItemPrice"`
	ItemTax         *amazonMoney `json:"ItemTax"`
}

func (s *amazonInventorySummary) toRemote() (integration.RemoteProduct, bool) {
	sku := strings.TrimSpace(s.SellerSKU)
	if sku == "" {
		return integration.RemoteProduct{}, false
	}
	externalID := s.ASIN
	if externalID == "" {
		externalID = sku
	}
	qty := s.TotalQuantity
	if s.InventoryDetails != nil && s.InventoryDetails.FulfillableQuantity != nil {
		qty = s.InventoryDetails.FulfillableQuantity
	}
	title := strings.TrimSpace(s.ProductName)
	if title == "" {
		title = sku
	}
	return integration.RemoteProduct{
		ExternalID: externalID,
		Title:      title,
		Status:     catalog.ProductStatusActive,
		UpdatedAt:  parseTime([]string{time.RFC3339}, s.LastUpdatedTime),
		Variants: []integration.RemoteVariant{{
			ExternalID:        sku,
			SKU:               sku,
			InventoryQuantity: qty,
		}},
	}, true
}

func (o *amazonOrder) toRemote(items []amazonOrderItem) integration.RemoteOrder {
	ro := integration.RemoteOrder{
		ExternalID:  o.AmazonOrderID,
		OrderNumber: o.AmazonOrderID,
		Status:      mapAmazonOrderStatus(o.OrderStatus),
		OrderedAt:   parseTime([]string{time.RFC3339}, o.PurchaseDate),
		UpdatedAt:   parseTime([]string{time.RFC3339}, o.LastUpdateDate),
		Tax:         decimal.Zero,
		Lines:       make([]integration.RemoteOrderLine, 0, len(items)),
	}
	if o.OrderTotal != nil {
		ro.Currency = o.OrderTotal.CurrencyCode
	}
	if o.BuyerInfo != nil {
		ro.CustomerName = o.BuyerInfo.BuyerName
		ro.CustomerEmail = o.BuyerInfo.BuyerEmail
	}
	for _, it := range items {
		unit := decimal.Zero
		if it.ItemPrice != nil && it.QuantityOrdered > 0 {
			// ItemPrice is the line total
			unit = moneyOrZero(it.ItemPrice.Amount).Div(decimal.NewFromInt(int64(it.QuantityOrdered))).Round(2)
			if ro.Currency == "" {
				ro.Currency = it.ItemPrice.CurrencyCode
			}
		}
		if it.ItemTax != nil {
			ro.Tax = ro.Tax.Add(moneyOrZero(it.ItemTax.Amount))
		}
		ro.Lines = append(ro.Lines, integration.RemoteOrderLine{
			ExternalID: it.OrderItemID,
			SKU:        strings.TrimSpace(it.SellerSKU),
			Title:      it.Title,
			Quantity:   it.QuantityOrdered,
			UnitPrice:  unit,
		})
	}
	return ro
}

func mapAmazonOrderStatus(status string) trade.SalesOrderStatus {
	switch status {
	case "Unshipped", "PartiallyShipped":
		return trade.SalesOrderStatusPaid
	case "Shipped", "InvoiceUnconfirmed":
		return trade.SalesOrderStatusFulfilled
	case "Canceled", "Unfulfillable":
		return trade.SalesOrderStatusCancelled
	default:
		return trade.SalesOrderStatusPending
	}
}
