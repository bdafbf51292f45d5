// Package webhook authenticates platform webhook deliveries.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stockpilot/backend/internal/domain/integration"
)

// Shopify headers
const (
	HeaderShopifyHmac        = "X-Shopify-Hmac-Sha256"
	HeaderShopifyWebhookID   = "X-Shopify-Webhook-Id"
	HeaderShopifyEventID     = "X-Shopify-Event-Id"
	HeaderShopifyTriggeredAt = "X-Shopify-Triggered-At"
	HeaderShopifyTopic       = "X-Shopify-Topic"
	HeaderShopifyShopDomain  = "X-Shopify-Shop-Domain"
)

// WooCommerce headers
const (
	HeaderWooSignature  = "X-WC-Webhook-Signature"
	HeaderWooDeliveryID = "X-WC-Webhook-Delivery-ID"
	HeaderWooTopic      = "X-WC-Webhook-Topic"
	HeaderWooSource     = "X-WC-Webhook-Source"
)

// DefaultReplayWindow bounds how far a delivery timestamp may drift from now
const DefaultReplayWindow = 5 * time.Minute

// Delivery is a parsed but not yet authenticated webhook
type Delivery struct {
	integration.WebhookEnvelope
	Signature string
}

// SourceHost is the lower-cased store host the delivery claims to come from
func (d *Delivery) SourceHost() string {
	src := strings.TrimSpace(d.Source)
	if src == "" {
		return ""
	}
	if !strings.Contains(src, "://") {
		src = "https://" + src
	}
	u, err := url.Parse(src)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Verifier checks HMAC signatures and replay windows
type Verifier struct {
	replayWindow time.Duration
	now          func() time.Time
}

// NewVerifier creates a verifier. A non-positive window uses DefaultReplayWindow.
func NewVerifier(replayWindow time.Duration) *Verifier {
	if replayWindow <= 0 {
		replayWindow = DefaultReplayWindow
	}
	return &Verifier{replayWindow: replayWindow, now: time.Now}
}

// Parse reads the platform headers. The body is kept verbatim for signing.
func (v *Verifier) Parse(platform integration.PlatformCode, h http.Header, body []byte) (*Delivery, error) {
	d := &Delivery{WebhookEnvelope: integration.WebhookEnvelope{Platform: platform, Body: body}}

	switch platform {
	case integration.PlatformShopify:
		d.Signature = h.Get(HeaderShopifyHmac)
		d.EventID = h.Get(HeaderShopifyWebhookID)
		if d.EventID == "" {
			d.EventID = h.Get(HeaderShopifyEventID)
		}
		d.Topic = h.Get(HeaderShopifyTopic)
		d.Source = h.Get(HeaderShopifyShopDomain)
		if raw := h.Get(HeaderShopifyTriggeredAt); raw != "" {
			ts, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				return nil, fmt.Errorf("%w: bad %s", integration.ErrWebhookMalformed, HeaderShopifyTriggeredAt)
			}
			ts = ts.UTC()
			d.Timestamp = &ts
		}
	case integration.PlatformWooCommerce:
		d.Signature = h.Get(HeaderWooSignature)
		d.EventID = h.Get(HeaderWooDeliveryID)
		d.Topic = h.Get(HeaderWooTopic)
		d.Source = h.Get(HeaderWooSource)
		d.Timestamp = wooPayloadTimestamp(body)
	default:
		return nil, fmt.Errorf("%w: %s", integration.ErrPlatformNotSupported, platform)
	}

	if d.Signature == "" {
		return nil, integration.ErrInvalidSignature
	}
	if d.EventID == "" || d.SourceHost() == "" {
		return nil, fmt.Errorf("%w: missing event id or source", integration.ErrWebhookMalformed)
	}
	return d, nil
}

// Verify authenticates d with secret and enforces the replay window.
// Deliveries without a timestamp skip the window check.
func (v *Verifier) Verify(d *Delivery, secret string) error {
	if secret == "" || !ValidSignature(secret, d.Body, d.Signature) {
		return integration.ErrInvalidSignature
	}
	if d.Timestamp != nil {
		drift := v.now().Sub(*d.Timestamp)
		if drift < 0 {
			drift = -drift
		}
		if drift > v.replayWindow {
			return fmt.Errorf("%w: drift %s", integration.ErrWebhookExpired, drift.Round(time.Second))
		}
	}
	return nil
}

// Sign returns base64(HMAC-SHA256(secret, body))
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ValidSignature compares in constant time
func ValidSignature(secret string, body []byte, signature string) bool {
	got, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// wooPayloadTimestamp reads date_modified_gmt, falling back to date_created_gmt
func wooPayloadTimestamp(body []byte) *time.Time {
	var payload struct {
		Modified string `json:"date_modified_gmt"`
		Created  string `json:"date_created_gmt"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	for _, raw := range []string{payload.Modified, payload.Created} {
		if raw == "" {
			continue
		}
		if ts, err := time.ParseInLocation("2006-01-02T15:04:05", raw, time.UTC); err == nil {
			return &ts
		}
	}
	return nil
}
