package integration

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/infrastructure/logger"
	"github.com/stockpilot/backend/internal/infrastructure/webhook"
	"go.uber.org/zap"
)

// DefaultSeenTTL is how long a delivery ID is remembered in the fast-path store
const DefaultSeenTTL = 72 * time.Hour

// WebhookVerifier parses and authenticates platform deliveries
type WebhookVerifier interface {
	Parse(platform integration.PlatformCode, h http.Header, body []byte) (*webhook.Delivery, error)
	Verify(d *webhook.Delivery, secret string) error
}

// PayloadDecoder maps webhook bodies into remote records
type PayloadDecoder interface {
	DecodeProduct(platform integration.PlatformCode, body []byte) (*integration.RemoteProduct, error)
	DecodeOrder(platform integration.PlatformCode, body []byte) (*integration.RemoteOrder, error)
	DecodeDeletedID(platform integration.PlatformCode, body []byte) (string, error)
}

// WebhookMetrics counts webhook outcomes
type WebhookMetrics interface {
	WebhookHandled(platform integration.PlatformCode, outcome string)
}

type nopWebhookMetrics struct{}

func (nopWebhookMetrics) WebhookHandled(integration.PlatformCode, string) {}

// WebhookService authenticates, deduplicates and applies platform webhooks
type WebhookService struct {
	verifier     WebhookVerifier
	integrations integration.IntegrationRepository
	vault        integration.CredentialVault
	seen         shared.IdempotencyStore
	events       integration.WebhookEventRepository
	decoder      PayloadDecoder
	writer       *PlatformWriter
	cache        ConnectorCache
	seenTTL      time.Duration
	metrics      WebhookMetrics
}

// WebhookServiceOption configures a WebhookService
type WebhookServiceOption func(*WebhookService)

// WithSeenTTL sets how long delivery IDs stay in the fast-path store
func WithSeenTTL(ttl time.Duration) WebhookServiceOption {
	return func(s *WebhookService) {
		if ttl > 0 {
			s.seenTTL = ttl
		}
	}
}

// WithWebhookMetrics attaches a metrics sink
func WithWebhookMetrics(m WebhookMetrics) WebhookServiceOption {
	return func(s *WebhookService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(
	verifier WebhookVerifier,
	integrations integration.IntegrationRepository,
	vault integration.CredentialVault,
	seen shared.IdempotencyStore,
	events integration.WebhookEventRepository,
	decoder PayloadDecoder,
	writer *PlatformWriter,
	cache ConnectorCache,
	opts ...WebhookServiceOption,
) *WebhookService {
	s := &WebhookService{
		verifier:     verifier,
		integrations: integrations,
		vault:        vault,
		seen:         seen,
		events:       events,
		decoder:      decoder,
		writer:       writer,
		cache:        cache,
		seenTTL:      DefaultSeenTTL,
		metrics:      nopWebhookMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle processes one delivery. Authentication failures return
// integration.ErrInvalidSignature or integration.ErrWebhookExpired. A replayed
// delivery is acknowledged with Duplicate set and is not applied again.
// A delivery that cannot be applied because of a bad payload or record is
// acknowledged with a failed status. Any other failure forgets the delivery
// and returns integration.ErrWebhookDeferred so the platform redelivers it.
func (s *WebhookService) Handle(ctx context.Context, platform integration.PlatformCode, h http.Header, body []byte) (*WebhookResult, error) {
	if !platform.SupportsWebhooks() {
		return nil, integration.ErrPlatformNotSupported
	}

	d, err := s.verifier.Parse(platform, h, body)
	if err != nil {
		s.metrics.WebhookHandled(platform, "rejected")
		return nil, err
	}

	in, err := s.integrations.FindByStoreHost(ctx, platform, d.SourceHost())
	if err != nil {
		s.metrics.WebhookHandled(platform, "unknown_store")
		return nil, err
	}
	ctx = logger.WithTenantID(ctx, in.TenantID.String())
	log := logger.L(ctx).With(
		zap.String("integration_id", in.ID.String()),
		zap.String("event_id", d.EventID),
		zap.String("topic", d.Topic))

	creds, err := s.vault.Get(ctx, in.WebhookSecretRef)
	if err != nil {
		return nil, err
	}
	if err := s.verifier.Verify(d, webhookSecret(platform, creds)); err != nil {
		log.Warn("Webhook rejected", zap.Error(err))
		s.metrics.WebhookHandled(platform, "rejected")
		return nil, err
	}

	action := integration.ActionForTopic(platform, d.Topic)
	result := &WebhookResult{EventID: d.EventID, Topic: d.Topic, Action: action}

	key := integration.SeenKey(platform, d.EventID)
	fresh, err := s.seen.MarkProcessed(ctx, key, s.seenTTL)
	if err != nil {
		// the webhook_events unique key still guards replays
		log.Warn("Seen-ID store unavailable", zap.Error(err))
		fresh = true
	}
	if !fresh {
		log.Info("Duplicate webhook acknowledged")
		s.metrics.WebhookHandled(platform, "duplicate")
		result.Duplicate = true
		return result, nil
	}

	event := integration.NewWebhookEvent(in, d.WebhookEnvelope)
	if err := s.events.Insert(ctx, event); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			log.Info("Duplicate webhook acknowledged")
			s.metrics.WebhookHandled(platform, "duplicate")
			result.Duplicate = true
			return result, nil
		}
		if relErr := s.seen.Release(ctx, key); relErr != nil {
			log.Warn("Failed to release seen-ID", zap.Error(relErr))
		}
		return nil, err
	}

	status, applyErr := s.apply(ctx, in, action, d)
	if applyErr != nil && !isPermanentApplyError(applyErr) {
		log.Warn("Webhook deferred to redelivery", zap.Error(applyErr))
		if err := s.events.Delete(ctx, event); err != nil {
			log.Warn("Failed to forget deferred webhook", zap.Error(err))
		}
		if err := s.seen.Release(ctx, key); err != nil {
			log.Warn("Failed to release seen-ID", zap.Error(err))
		}
		s.metrics.WebhookHandled(platform, "deferred")
		return nil, fmt.Errorf("%w: %w", integration.ErrWebhookDeferred, applyErr)
	}
	event.Finish(status, applyErr)
	if err := s.events.Save(ctx, event); err != nil {
		log.Warn("Failed to record webhook outcome", zap.Error(err))
	}
	if applyErr != nil {
		log.Error("Webhook could not be applied", zap.Error(applyErr))
	} else {
		log.Info("Webhook processed", zap.String("action", string(action)), zap.String("status", string(status)))
	}

	s.metrics.WebhookHandled(platform, string(status))
	result.Status = status
	return result, nil
}

func (s *WebhookService) apply(ctx context.Context, in *integration.Integration, action integration.WebhookAction, d *webhook.Delivery) (integration.WebhookEventStatus, error) {
	var err error
	switch action {
	case integration.WebhookActionProductUpsert:
		var remote *integration.RemoteProduct
		if remote, err = s.decoder.DecodeProduct(in.Platform, d.Body); err == nil {
			_, err = s.writer.UpsertProduct(ctx, in, *remote)
		}
	case integration.WebhookActionProductDelete:
		var externalID string
		if externalID, err = s.decoder.DecodeDeletedID(in.Platform, d.Body); err == nil {
			_, err = s.writer.ArchiveProduct(ctx, in, externalID)
		}
	case integration.WebhookActionOrderUpsert:
		var remote *integration.RemoteOrder
		if remote, err = s.decoder.DecodeOrder(in.Platform, d.Body); err == nil {
			_, err = s.writer.UpsertOrder(ctx, in, *remote)
		}
	case integration.WebhookActionUninstalled:
		err = s.disconnect(ctx, in)
	default:
		return integration.WebhookEventIgnored, nil
	}
	if err != nil {
		return integration.WebhookEventFailed, err
	}
	return integration.WebhookEventProcessed, nil
}

// isPermanentApplyError reports whether redelivering the same payload would fail again
func isPermanentApplyError(err error) bool {
	return isRecordError(err) ||
		errors.Is(err, integration.ErrWebhookMalformed) ||
		errors.Is(err, integration.ErrPlatformNotSupported) ||
		errors.Is(err, integration.ErrIntegrationNotFound)
}

func (s *WebhookService) disconnect(ctx context.Context, in *integration.Integration) error {
	in.Disconnect()
	if err := s.integrations.Save(ctx, in); err != nil {
		return err
	}
	s.cache.Forget(ctx, in.ID)
	if err := s.vault.Delete(ctx, in.CredentialRef); err != nil && !errors.Is(err, integration.ErrCredentialsNotFound) {
		logger.L(ctx).Warn("Failed to remove credentials of uninstalled integration",
			zap.String("integration_id", in.ID.String()), zap.Error(err))
	}
	return nil
}

// webhookSecret picks the signing secret: an explicit webhook secret, else the
// platform's app secret (Shopify signs with the client secret, WooCommerce with the consumer secret).
func webhookSecret(platform integration.PlatformCode, creds integration.Credentials) string {
	if creds.WebhookSecret != "" {
		return creds.WebhookSecret
	}
	switch platform {
	case integration.PlatformShopify:
		return creds.ClientSecret
	case integration.PlatformWooCommerce:
		return creds.ConsumerSecret
	}
	return ""
}
