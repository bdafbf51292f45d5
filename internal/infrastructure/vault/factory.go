package vault

import (
	"context"
	"fmt"

	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// New builds the vault selected by cfg.Provider
func New(ctx context.Context, cfg config.VaultConfig, db *gorm.DB, logger *zap.Logger) (integration.CredentialVault, error) {
	switch cfg.Provider {
	case "aws":
		logger.Info("Using AWS Secrets Manager credential vault",
			zap.String("region", cfg.AWSRegion),
			zap.String("prefix", cfg.AWSPrefix),
		)
		return NewAWSVault(ctx, cfg, logger)
	case "local", "":
		logger.Info("Using local encrypted credential vault")
		return NewLocalVault(db, cfg.MasterKey)
	case "memory":
		logger.Warn("Using in-memory credential vault; credentials are lost on restart")
		return NewMemoryVault(), nil
	default:
		return nil, fmt.Errorf("unknown vault provider %q", cfg.Provider)
	}
}
