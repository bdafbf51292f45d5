package integration

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/shared"
)

// WebhookAction is the local effect of a platform topic
type WebhookAction string

const (
	WebhookActionProductUpsert WebhookAction = "product_upsert"
	WebhookActionProductDelete WebhookAction = "product_delete"
	WebhookActionOrderUpsert   WebhookAction = "order_upsert"
	WebhookActionUninstalled   WebhookAction = "uninstalled"
	WebhookActionIgnore        WebhookAction = "ignore"
)

// ActionForTopic maps a platform topic to its local action
func ActionForTopic(platform PlatformCode, topic string) WebhookAction {
	topic = strings.ToLower(strings.TrimSpace(topic))
	switch platform {
	case PlatformShopify:
		switch topic {
		case "products/create", "products/update":
			return WebhookActionProductUpsert
		case "products/delete":
			return WebhookActionProductDelete
		case "orders/create", "orders/updated", "orders/paid", "orders/fulfilled", "orders/cancelled":
			return WebhookActionOrderUpsert
		case "app/uninstalled":
			return WebhookActionUninstalled
		}
	case PlatformWooCommerce:
		switch topic {
		case "product.created", "product.updated", "product.restored":
			return WebhookActionProductUpsert
		case "product.deleted":
			return WebhookActionProductDelete
		case "order.created", "order.updated":
			return WebhookActionOrderUpsert
		}
	}
	return WebhookActionIgnore
}

// WebhookEnvelope is a verified delivery, before it has been applied
type WebhookEnvelope struct {
	Platform  PlatformCode
	EventID   string
	Topic     string
	Source    string
	Timestamp *time.Time
	Body      []byte
}

// WebhookEventStatus is the outcome of processing a delivery
type WebhookEventStatus string

const (
	WebhookEventReceived  WebhookEventStatus = "received"
	WebhookEventProcessed WebhookEventStatus = "processed"
	WebhookEventIgnored   WebhookEventStatus = "ignored"
	WebhookEventFailed    WebhookEventStatus = "failed"
)

// WebhookEvent is the durable record of a delivered webhook.
// (Platform, EventID) is unique; a second insert means a replay.
type WebhookEvent struct {
	shared.TenantEntity
	IntegrationID uuid.UUID
	Platform      PlatformCode
	EventID       string
	Topic         string
	Status        WebhookEventStatus
	Error         string
	ReceivedAt    time.Time
	ProcessedAt   *time.Time
}

// NewWebhookEvent records a received delivery for integration
func NewWebhookEvent(integration *Integration, env WebhookEnvelope) *WebhookEvent {
	e := &WebhookEvent{
		TenantEntity:  shared.NewTenantEntity(integration.TenantID),
		IntegrationID: integration.ID,
		Platform:      env.Platform,
		EventID:       env.EventID,
		Topic:         env.Topic,
		Status:        WebhookEventReceived,
	}
	e.ReceivedAt = e.CreatedAt
	return e
}

// Finish sets the final status
func (e *WebhookEvent) Finish(status WebhookEventStatus, cause error) {
	now := time.Now()
	e.Status = status
	e.ProcessedAt = &now
	if cause != nil {
		e.Error = cause.Error()
	}
	e.Touch()
}

// SeenKey is the idempotency key for the event
func SeenKey(platform PlatformCode, eventID string) string {
	return "webhook:" + strings.ToLower(string(platform)) + ":" + eventID
}
