package models

import (
	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/partner"
)

// SupplierModel is the persistence model for the Supplier domain entity.
type SupplierModel struct {
	BaseModel
	TenantID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_supplier_tenant_name,priority:1"`
	Name               string    `gorm:"type:varchar(200);not null;uniqueIndex:idx_supplier_tenant_name,priority:2"`
	ContactName        string    `gorm:"type:varchar(100)"`
	Email              string    `gorm:"type:varchar(200)"`
	Phone              string    `gorm:"type:varchar(50)"`
	Website            string    `gorm:"type:varchar(255)"`
	LeadTimeDays       int       `gorm:"not null;default:0"`
	OnTimeDeliveryRate float64   `gorm:"not null;default:0"`
	QualityScore       float64   `gorm:"not null;default:0"`
	CostScore          float64   `gorm:"not null;default:0"`
	ResponseTimeHours  float64   `gorm:"not null;default:0"`
	Notes              string    `gorm:"type:text"`
	Active             bool      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SupplierModel) TableName() string {
	return "suppliers"
}

// ToDomain converts the persistence model to a domain Supplier entity.
func (m *SupplierModel) ToDomain() *partner.Supplier {
	return &partner.Supplier{
		TenantEntity:       m.tenantEntity(m.TenantID),
		Name:               m.Name,
		ContactName:        m.ContactName,
		Email:              m.Email,
		Phone:              m.Phone,
		Website:            m.Website,
		LeadTimeDays:       m.LeadTimeDays,
		OnTimeDeliveryRate: m.OnTimeDeliveryRate,
		QualityScore:       m.QualityScore,
		CostScore:          m.CostScore,
		ResponseTimeHours:  m.ResponseTimeHours,
		Notes:              m.Notes,
		Active:             m.Active,
	}
}

// FromDomain populates the persistence model from a domain Supplier entity.
func (m *SupplierModel) FromDomain(s *partner.Supplier) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.TenantID = s.TenantID
	m.Name = s.Name
	m.ContactName = s.ContactName
	m.Email = s.Email
	m.Phone = s.Phone
	m.Website = s.Website
	m.LeadTimeDays = s.LeadTimeDays
	m.OnTimeDeliveryRate = s.OnTimeDeliveryRate
	m.QualityScore = s.QualityScore
	m.CostScore = s.CostScore
	m.ResponseTimeHours = s.ResponseTimeHours
	m.Notes = s.Notes
	m.Active = s.Active
}

// SupplierModelFromDomain creates a new persistence model from a domain Supplier entity.
func SupplierModelFromDomain(s *partner.Supplier) *SupplierModel {
	m := &SupplierModel{}
	m.FromDomain(s)
	return m
}
