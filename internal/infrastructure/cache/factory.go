package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Stores bundles the caches built from one Redis configuration
type Stores struct {
	Seen   shared.IdempotencyStore
	Tokens TokenCache
	// Client is nil when running on in-memory stores
	Client *redis.Client
}

// Close releases the stores and the shared client
func (s *Stores) Close() error {
	_ = s.Seen.Close()
	if s.Client != nil {
		return s.Client.Close()
	}
	return nil
}

// Factory creates cache stores based on configuration
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when Redis is unavailable
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory. Fallback is allowed by default.
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStores connects to Redis when configured and falls back to in-memory stores
// if Redis is disabled, or unreachable and fallback is allowed.
func (f *Factory) CreateStores(ctx context.Context) (*Stores, error) {
	if f.redisConfig.Host == "" {
		f.logger.Info("Redis not configured, using in-memory caches")
		return f.inMemory(), nil
	}

	client, err := NewRedisClient(ctx, f.redisConfig)
	if err != nil {
		if !f.allowInMemoryFallback {
			return nil, err
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory caches",
			zap.String("addr", f.redisConfig.Addr()),
			zap.Error(err),
		)
		return f.inMemory(), nil
	}

	f.logger.Info("Using Redis caches", zap.String("addr", f.redisConfig.Addr()))
	return &Stores{
		Seen:   NewRedisIdempotencyStore(client, DefaultSeenKeyPrefix),
		Tokens: NewRedisTokenCache(client, DefaultTokenKeyPrefix),
		Client: client,
	}, nil
}

func (f *Factory) inMemory() *Stores {
	return &Stores{
		Seen:   NewInMemoryIdempotencyStore(defaultSweepInterval),
		Tokens: NewInMemoryTokenCache(),
	}
}
