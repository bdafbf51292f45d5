package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stockpilot/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// Integration errors
	ErrIntegrationNotFound     = errors.New("integration: integration not found")
	ErrIntegrationDisconnected = errors.New("integration: integration is disconnected")
	ErrSyncAlreadyInProgress   = errors.New("integration: sync already in progress")
	ErrInvalidPlatform         = errors.New("integration: invalid platform code")
	ErrInvalidStoreURL         = errors.New("integration: invalid store URL")
	ErrTenantMismatch          = fmt.Errorf("integration: %w", shared.ErrTenantMismatch)

	// Platform errors
	ErrPlatformNotSupported    = errors.New("integration: platform not supported")
	ErrPlatformUnavailable     = errors.New("integration: platform temporarily unavailable")
	ErrPlatformRequestFailed   = errors.New("integration: platform request failed")
	ErrPlatformInvalidResponse = errors.New("integration: invalid platform response")
	ErrPlatformAuthFailed      = errors.New("integration: platform authentication failed")
	ErrPlatformRateLimited     = errors.New("integration: platform rate limited")

	// Credential errors
	ErrCredentialsNotFound = errors.New("integration: credentials not found")
	ErrCredentialsInvalid  = errors.New("integration: credentials invalid for platform")
	ErrVaultAccessDenied   = errors.New("integration: credential vault access denied")

	// Webhook errors
	ErrInvalidSignature = errors.New("integration: invalid webhook signature")
	ErrWebhookExpired   = errors.New("integration: webhook timestamp outside replay window")
	ErrWebhookMalformed = errors.New("integration: malformed webhook")
	ErrWebhookDeferred  = errors.New("integration: webhook not applied, awaiting redelivery")
)

// RateLimitError carries the server's Retry-After hint
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s (retry after %s)", ErrPlatformRateLimited, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return ErrPlatformRateLimited
}

// IsRetryable reports whether a failed sync attempt may succeed if repeated.
// Authentication, tenant and configuration failures are permanent.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, ErrPlatformAuthFailed),
		errors.Is(err, shared.ErrTenantMismatch),
		errors.Is(err, ErrCredentialsNotFound),
		errors.Is(err, ErrCredentialsInvalid),
		errors.Is(err, ErrVaultAccessDenied),
		errors.Is(err, ErrPlatformNotSupported),
		errors.Is(err, ErrIntegrationNotFound),
		errors.Is(err, ErrIntegrationDisconnected),
		errors.Is(err, ErrInvalidStoreURL):
		return false
	}
	return true
}

// ---------------------------------------------------------------------------
// PlatformCode
// ---------------------------------------------------------------------------

// PlatformCode identifies a commerce platform
type PlatformCode string

const (
	PlatformShopify     PlatformCode = "SHOPIFY"
	PlatformWooCommerce PlatformCode = "WOOCOMMERCE"
	PlatformAmazonFBA   PlatformCode = "AMAZON_FBA"
)

// AllPlatforms lists supported platforms in display order
func AllPlatforms() []PlatformCode {
	return []PlatformCode{PlatformShopify, PlatformWooCommerce, PlatformAmazonFBA}
}

// IsValid returns true if the platform code is valid
func (c PlatformCode) IsValid() bool {
	switch c {
	case PlatformShopify, PlatformWooCommerce, PlatformAmazonFBA:
		return true
	default:
		return false
	}
}

func (c PlatformCode) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the platform
func (c PlatformCode) DisplayName() string {
	switch c {
	case PlatformShopify:
		return "Shopify"
	case PlatformWooCommerce:
		return "WooCommerce"
	case PlatformAmazonFBA:
		return "Amazon FBA"
	default:
		return string(c)
	}
}

// SupportsWebhooks returns true if the platform pushes signed webhooks
func (c PlatformCode) SupportsWebhooks() bool {
	return c == PlatformShopify || c == PlatformWooCommerce
}

// RequiresStoreURL returns true if connecting needs the merchant's store address
func (c PlatformCode) RequiresStoreURL() bool {
	return c == PlatformShopify || c == PlatformWooCommerce
}
