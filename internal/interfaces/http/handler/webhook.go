package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	integrationapp "github.com/stockpilot/backend/internal/application/integration"
	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/interfaces/http/dto"
)

// MaxWebhookBodySize caps webhook payloads read into memory
const MaxWebhookBodySize = 2 << 20

// WebhookService verifies and applies platform deliveries
type WebhookService interface {
	Handle(ctx context.Context, platform integration.PlatformCode, h http.Header, body []byte) (*integrationapp.WebhookResult, error)
}

// WebhookHandler receives platform webhooks. Routes are public; deliveries
// authenticate with their signature.
type WebhookHandler struct {
	BaseHandler
	webhookService WebhookService
	maxBodySize    int64
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhookService WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService, maxBodySize: MaxWebhookBodySize}
}

// SetMaxBodySize overrides MaxWebhookBodySize; non-positive values are ignored
func (h *WebhookHandler) SetMaxBodySize(n int64) {
	if n > 0 {
		h.maxBodySize = n
	}
}

// Shopify godoc
// @Summary      Receive a Shopify webhook
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        X-Shopify-Hmac-Sha256 header string true "Base64 HMAC-SHA256 of the body"
// @Param        X-Shopify-Topic header string true "Topic"
// @Param        X-Shopify-Shop-Domain header string true "Shop domain"
// @Param        X-Shopify-Webhook-Id header string true "Delivery ID"
// @Success      200 {object} APIResponse[integrationapp.WebhookResult]
// @Failure      401 {object} ErrorResponse
// @Router       /webhooks/shopify [post]
func (h *WebhookHandler) Shopify(c *gin.Context) {
	h.receive(c, integration.PlatformShopify)
}

// WooCommerce godoc
// @Summary      Receive a WooCommerce webhook
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        X-WC-Webhook-Signature header string true "Base64 HMAC-SHA256 of the body"
// @Param        X-WC-Webhook-Topic header string true "Topic"
// @Param        X-WC-Webhook-Source header string true "Store URL"
// @Param        X-WC-Webhook-Delivery-ID header string true "Delivery ID"
// @Success      200 {object} APIResponse[integrationapp.WebhookResult]
// @Failure      401 {object} ErrorResponse
// @Router       /webhooks/woocommerce [post]
func (h *WebhookHandler) WooCommerce(c *gin.Context) {
	h.receive(c, integration.PlatformWooCommerce)
}

func (h *WebhookHandler) receive(c *gin.Context, platform integration.PlatformCode) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Webhook body too large")
			return
		}
		h.BadRequest(c, "Failed to read webhook body")
		return
	}

	res, err := h.webhookService.Handle(c.Request.Context(), platform, c.Request.Header, body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}
