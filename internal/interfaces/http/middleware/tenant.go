package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockpilot/backend/internal/interfaces/http/dto"
)

// TenantHeaderKey lets clients state the tenant they expect to act for
const TenantHeaderKey = "X-Tenant-ID"

// TenantMiddlewareConfig holds configuration for tenant middleware
type TenantMiddlewareConfig struct {
	// SkipPaths are paths served without a tenant (prefix match on path segments)
	SkipPaths []string
	Logger    *zap.Logger
}

// RequireTenant makes the token's tenant mandatory. The tenant always comes from
// the token; an X-Tenant-ID header must name the same tenant or the request is refused.
// Must run after JWTAuth.
func RequireTenant(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		tenantID, ok := GetTenantID(c)
		if !ok {
			abort(c, dto.ErrCodeUnauthorized, "Tenant identification required")
			return
		}

		if header := c.GetHeader(TenantHeaderKey); header != "" {
			claimed, err := uuid.Parse(header)
			if err != nil {
				abort(c, dto.ErrCodeBadRequest, "Invalid tenant ID format")
				return
			}
			if claimed != tenantID {
				cfg.Logger.Warn("Tenant header does not match token",
					zap.String("tenant_id", tenantID.String()),
					zap.String("header_tenant_id", claimed.String()),
					zap.String("path", path))
				abort(c, dto.ErrCodeForbidden, "Tenant does not match the authenticated company")
				return
			}
		}

		c.Next()
	}
}
