package integration

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/trade"
)

// RemoteProduct is a platform product mapped into local terms
type RemoteProduct struct {
	ExternalID  string
	Title       string
	Description string
	Vendor      string
	ProductType string
	Status      catalog.ProductStatus
	UpdatedAt   time.Time
	Variants    []RemoteVariant
}

// RemoteVariant is a sellable unit of a RemoteProduct
type RemoteVariant struct {
	ExternalID        string
	SKU               string
	Title             string
	// nil fields are unknown remotely and must not overwrite local values
	Price             *decimal.Decimal
	Cost              *decimal.Decimal
	InventoryQuantity *int
}

// RemoteOrder is a platform order mapped into local terms
type RemoteOrder struct {
	ExternalID    string
	OrderNumber   string
	Status        trade.SalesOrderStatus
	CustomerName  string
	CustomerEmail string
	Currency      string
	Tax           decimal.Decimal
	OrderedAt     time.Time
	UpdatedAt     time.Time
	Lines         []RemoteOrderLine
}

// RemoteOrderLine is one line of a RemoteOrder
type RemoteOrderLine struct {
	ExternalID string
	SKU        string
	Title      string
	Quantity   int
	UnitPrice  decimal.Decimal
}

// ProductPage is one page of remote products. An empty NextCursor means last page.
type ProductPage struct {
	Products   []RemoteProduct
	NextCursor string
}

// OrderPage is one page of remote orders. An empty NextCursor means last page.
type OrderPage struct {
	Orders     []RemoteOrder
	NextCursor string
}

// Connector talks to one platform on behalf of one integration
type Connector interface {
	Platform() PlatformCode
	// Ping verifies credentials and returns the remote account/shop identifier
	Ping(ctx context.Context) (string, error)
	FetchProducts(ctx context.Context, cursor string) (*ProductPage, error)
	// FetchOrders returns orders updated after since; a zero since fetches everything
	FetchOrders(ctx context.Context, since time.Time, cursor string) (*OrderPage, error)
}

// ConnectorFactory builds connectors for integrations
type ConnectorFactory interface {
	NewConnector(integration *Integration, creds Credentials) (Connector, error)
}
