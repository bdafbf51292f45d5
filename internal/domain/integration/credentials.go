package integration

import (
	"context"
	"strings"
)

// Credentials holds the secrets needed to talk to a platform.
// Which fields are required depends on the platform; see Validate.
type Credentials struct {
	// Shopify
	AccessToken string `json:"access_token,omitempty"`
	APIVersion  string `json:"api_version,omitempty"`

	// WooCommerce
	ConsumerKey    string `json:"consumer_key,omitempty"`
	ConsumerSecret string `json:"consumer_secret,omitempty"`

	// Amazon Login with Amazon + SP-API
	ClientID      string `json:"client_id,omitempty"`
	ClientSecret  string `json:"client_secret,omitempty"`
	RefreshToken  string `json:"refresh_token,omitempty"`
	MarketplaceID string `json:"marketplace_id,omitempty"`
	Region        string `json:"region,omitempty"`
	SellerID      string `json:"seller_id,omitempty"`

	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// Validate checks that the platform's required fields are present
func (c Credentials) Validate(platform PlatformCode) error {
	var missing []string
	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	switch platform {
	case PlatformShopify:
		require("access_token", c.AccessToken)
	case PlatformWooCommerce:
		require("consumer_key", c.ConsumerKey)
		require("consumer_secret", c.ConsumerSecret)
	case PlatformAmazonFBA:
		require("client_id", c.ClientID)
		require("client_secret", c.ClientSecret)
		require("refresh_token", c.RefreshToken)
		require("marketplace_id", c.MarketplaceID)
	default:
		return ErrInvalidPlatform
	}
	if len(missing) > 0 {
		return &CredentialsError{Missing: missing}
	}
	return nil
}

// CredentialsError lists the missing credential fields
type CredentialsError struct {
	Missing []string
}

func (e *CredentialsError) Error() string {
	return ErrCredentialsInvalid.Error() + ": missing " + strings.Join(e.Missing, ", ")
}

func (e *CredentialsError) Unwrap() error {
	return ErrCredentialsInvalid
}

// CredentialVault stores platform credentials outside the integrations table
type CredentialVault interface {
	// Put creates or replaces the credentials at ref
	Put(ctx context.Context, ref string, creds Credentials) error
	// Get returns ErrCredentialsNotFound when nothing is stored at ref
	Get(ctx context.Context, ref string) (Credentials, error)
	// Delete is idempotent
	Delete(ctx context.Context, ref string) error
}
