// Package ecommerce implements integration.Connector for the supported commerce platforms.
package ecommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/infrastructure/config"
)

const (
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024

	defaultPageSize          = 50
	defaultRequestsPerSecond = 2
	defaultBurst             = 4
	defaultHTTPTimeout       = 30 * time.Second
	errorSnippetLength       = 200
)

// Options configures every connector built by a Registry
type Options struct {
	HTTPClient        *http.Client
	PageSize          int
	RequestsPerSecond float64
	Burst             int
	Logger            *zap.Logger
}

// OptionsFromConfig maps sync settings onto connector options
func OptionsFromConfig(cfg config.SyncConfig, logger *zap.Logger) Options {
	return Options{
		HTTPClient: &http.Client{
			Timeout:   cfg.HTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		PageSize:          cfg.PageSize,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		Logger:            logger,
	}
}

func (o Options) withDefaults() Options {
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if o.PageSize <= 0 {
		o.PageSize = defaultPageSize
	}
	if o.RequestsPerSecond <= 0 {
		o.RequestsPerSecond = defaultRequestsPerSecond
	}
	if o.Burst <= 0 {
		o.Burst = defaultBurst
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// StatusError is a non-2xx platform answer. Kind is one of the integration.ErrPlatform* sentinels.
type StatusError struct {
	Kind       error
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Kind, e.StatusCode, e.Detail)
}

func (e *StatusError) Unwrap() error {
	return e.Kind
}

// apiClient is the HTTP plumbing shared by all connectors
type apiClient struct {
	platform integration.PlatformCode
	http     *http.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
}

type apiResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// do waits for a throttle token, sends req and maps platform failures onto integration errors
func (c *apiClient) do(ctx context.Context, req *http.Request) (*apiResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	start := time.Now()
	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", integration.ErrPlatformUnavailable, err)
	}
	if len(body) > maxResponseSize {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", integration.ErrPlatformInvalidResponse, maxResponseSize)
	}

	c.logger.Debug("Platform request",
		zap.String("platform", string(c.platform)),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &integration.RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &StatusError{Kind: integration.ErrPlatformAuthFailed, StatusCode: resp.StatusCode}
	case resp.StatusCode >= 500:
		return nil, &StatusError{Kind: integration.ErrPlatformUnavailable, StatusCode: resp.StatusCode}
	case resp.StatusCode >= 400:
		return nil, &StatusError{Kind: integration.ErrPlatformRequestFailed, StatusCode: resp.StatusCode, Detail: snippet(body)}
	}

	return &apiResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// getJSON performs a GET and decodes the body into out
func (c *apiClient) getJSON(ctx context.Context, rawURL string, header http.Header, out any) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", strings.ToLower(string(c.platform)), err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(resp.Body, out); err != nil {
		return nil, err
	}
	return resp, nil
}

func decodeJSON(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	return nil
}

// parseRetryAfter accepts delta-seconds or an HTTP date
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil && secs >= 0 {
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(value); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > errorSnippetLength {
		return s[:errorSnippetLength] + "..."
	}
	return s
}

// parseMoney returns nil for empty or unparsable amounts
func parseMoney(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

func moneyOrZero(s string) decimal.Decimal {
	if d := parseMoney(s); d != nil {
		return *d
	}
	return decimal.Zero
}

// defaultSKU gives remote variants without a SKU a stable local one
func defaultSKU(platform integration.PlatformCode, externalID string) string {
	return string(platform) + "-" + externalID
}

func parseTime(layouts []string, value string) time.Time {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
