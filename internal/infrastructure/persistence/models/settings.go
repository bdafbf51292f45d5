package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantSettingModel is a per-tenant key/value setting
type TenantSettingModel struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Key       string    `gorm:"type:varchar(100);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TenantSettingModel) TableName() string {
	return "tenant_settings"
}
