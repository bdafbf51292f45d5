package ecommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/infrastructure/cache"
)

// Registry builds connectors and keeps one rate limiter per integration,
// so consecutive syncs of the same store share a request budget.
type Registry struct {
	opts   Options
	tokens cache.TokenCache

	amazonBaseURL  string
	amazonTokenURL string

	mu       sync.Mutex
	limiters map[uuid.UUID]*rate.Limiter
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithAmazonEndpoints overrides the SP-API and LWA URLs (sandbox, tests)
func WithAmazonEndpoints(baseURL, tokenURL string) RegistryOption {
	return func(r *Registry) {
		r.amazonBaseURL = baseURL
		r.amazonTokenURL = tokenURL
	}
}

// NewRegistry creates a connector registry. tokens caches Amazon access tokens.
func NewRegistry(opts Options, tokens cache.TokenCache, options ...RegistryOption) *Registry {
	if tokens == nil {
		tokens = cache.NewInMemoryTokenCache()
	}
	r := &Registry{
		opts:     opts.withDefaults(),
		tokens:   tokens,
		limiters: make(map[uuid.UUID]*rate.Limiter),
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// NewConnector validates creds for the integration's platform and builds its connector
func (r *Registry) NewConnector(in *integration.Integration, creds integration.Credentials) (integration.Connector, error) {
	if err := creds.Validate(in.Platform); err != nil {
		return nil, err
	}
	client := &apiClient{
		platform: in.Platform,
		http:     r.opts.HTTPClient,
		limiter:  r.limiterFor(in.ID),
		logger:   r.opts.Logger.With(zap.String("integration_id", in.ID.String())),
	}

	switch in.Platform {
	case integration.PlatformShopify:
		return NewShopifyConnector(client, in.StoreURL, creds, r.opts.PageSize)
	case integration.PlatformWooCommerce:
		return NewWooCommerceConnector(client, in.StoreURL, creds, r.opts.PageSize)
	case integration.PlatformAmazonFBA:
		return NewAmazonConnector(client, r.amazonBaseURL, r.amazonTokenURL, creds, r.tokens, "amazon:"+in.ID.String(), r.opts.PageSize), nil
	default:
		return nil, fmt.Errorf("%w: %s", integration.ErrPlatformNotSupported, in.Platform)
	}
}

// Forget drops the limiter and cached token of a removed integration
func (r *Registry) Forget(ctx context.Context, integrationID uuid.UUID) {
	r.mu.Lock()
	delete(r.limiters, integrationID)
	r.mu.Unlock()
	_ = r.tokens.Delete(ctx, "amazon:"+integrationID.String())
}

func (r *Registry) limiterFor(id uuid.UUID) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.limiters[id]
	if !ok {
		l = rate.NewLimiter(rate.Limit(r.opts.RequestsPerSecond), r.opts.Burst)
		r.limiters[id] = l
	}
	return l
}

// DecodeProduct maps a product webhook body for platform
func (r *Registry) DecodeProduct(platform integration.PlatformCode, body []byte) (*integration.RemoteProduct, error) {
	switch platform {
	case integration.PlatformShopify:
		return DecodeShopifyProduct(body)
	case integration.PlatformWooCommerce:
		return DecodeWooProduct(body)
	default:
		return nil, fmt.Errorf("%w: %s webhooks", integration.ErrPlatformNotSupported, platform)
	}
}

// DecodeOrder maps an order webhook body for platform
func (r *Registry) DecodeOrder(platform integration.PlatformCode, body []byte) (*integration.RemoteOrder, error) {
	switch platform {
	case integration.PlatformShopify:
		return DecodeShopifyOrder(body)
	case integration.PlatformWooCommerce:
		return DecodeWooOrder(body)
	default:
		return nil, fmt.Errorf("%w: %s webhooks", integration.ErrPlatformNotSupported, platform)
	}
}

// DecodeDeletedID extracts the external ID from a delete webhook, which only carries {"id": ...}
func (r *Registry) DecodeDeletedID(_ integration.PlatformCode, body []byte) (string, error) {
	var payload struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.ID.String() == "" {
		return "", fmt.Errorf("%w: delete payload without id", integration.ErrWebhookMalformed)
	}
	return payload.ID.String(), nil
}

var _ integration.ConnectorFactory = (*Registry)(nil)
