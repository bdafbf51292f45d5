// Package tenant provides multi-tenant query scoping for GORM.
//
// Every tenant-owned table carries a tenant_id column. Repositories apply
// TenantScope to every read, update and delete so that rows of another
// tenant behave as if they did not exist.
//
// Usage:
//
//	db.WithContext(ctx).Scopes(tenant.TenantScope(tenantID)).Find(&products)
package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

// ErrTenantIDRequired is returned when tenant_id is required but missing
var ErrTenantIDRequired = errors.New("tenant_id is required but not found")

// ErrInvalidTenantID is returned when tenant_id format is invalid
var ErrInvalidTenantID = errors.New("invalid tenant_id format")

// TenantScope filters by tenant_id. A nil tenant ID poisons the query instead of
// silently matching nothing.
func TenantScope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == uuid.Nil {
			_ = db.AddError(ErrTenantIDRequired)
			return db
		}
		return db.Where("tenant_id = ?", tenantID)
	}
}

// FromContext returns the tenant ID placed in ctx by the tenant middleware
func FromContext(ctx context.Context) (uuid.UUID, error) {
	raw := logger.GetTenantID(ctx)
	if raw == "" {
		return uuid.Nil, ErrTenantIDRequired
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidTenantID
	}
	return id, nil
}

// ContextScope filters by the tenant carried in ctx
func ContextScope(ctx context.Context) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		id, err := FromContext(ctx)
		if err != nil {
			_ = db.AddError(err)
			return db
		}
		return db.Where("tenant_id = ?", id)
	}
}
