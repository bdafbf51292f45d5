package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/partner"
)

// CreateSupplierRequest represents a request to create a new supplier
type CreateSupplierRequest struct {
	Name               string   `json:"name" binding:"required,min=1,max=200"`
	ContactName        string   `json:"contact_name" binding:"max=200"`
	Email              string   `json:"email" binding:"omitempty,email,max=200"`
	Phone              string   `json:"phone" binding:"max=50"`
	Website            string   `json:"website" binding:"max=255"`
	LeadTimeDays       int      `json:"lead_time_days" binding:"min=0"`
	OnTimeDeliveryRate *float64 `json:"on_time_delivery_rate" binding:"omitempty,min=0,max=100"`
	QualityScore       *float64 `json:"quality_score" binding:"omitempty,min=0,max=100"`
	CostScore          *float64 `json:"cost_score" binding:"omitempty,min=0,max=100"`
	ResponseTimeHours  *float64 `json:"response_time_hours" binding:"omitempty,min=0"`
	Notes              string   `json:"notes" binding:"max=2000"`
}

// UpdateSupplierRequest represents a request to update a supplier; nil fields are unchanged
type UpdateSupplierRequest struct {
	Name               *string  `json:"name" binding:"omitempty,min=1,max=200"`
	ContactName        *string  `json:"contact_name" binding:"omitempty,max=200"`
	Email              *string  `json:"email" binding:"omitempty,max=200"`
	Phone              *string  `json:"phone" binding:"omitempty,max=50"`
	Website            *string  `json:"website" binding:"omitempty,max=255"`
	LeadTimeDays       *int     `json:"lead_time_days" binding:"omitempty,min=0"`
	OnTimeDeliveryRate *float64 `json:"on_time_delivery_rate" binding:"omitempty,min=0,max=100"`
	QualityScore       *float64 `json:"quality_score" binding:"omitempty,min=0,max=100"`
	CostScore          *float64 `json:"cost_score" binding:"omitempty,min=0,max=100"`
	ResponseTimeHours  *float64 `json:"response_time_hours" binding:"omitempty,min=0"`
	Notes              *string  `json:"notes" binding:"omitempty,max=2000"`
	Active             *bool    `json:"active"`
}

// SupplierListFilter is the query of GET /suppliers
type SupplierListFilter struct {
	Search     string `form:"search"`
	ActiveOnly bool   `form:"active_only"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string `form:"order_by"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SupplierResponse represents a supplier in API responses
type SupplierResponse struct {
	ID                 uuid.UUID `json:"id"`
	TenantID           uuid.UUID `json:"tenant_id"`
	Name               string    `json:"name"`
	ContactName        string    `json:"contact_name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	Website            string    `json:"website"`
	LeadTimeDays       int       `json:"lead_time_days"`
	OnTimeDeliveryRate float64   `json:"on_time_delivery_rate"`
	QualityScore       float64   `json:"quality_score"`
	CostScore          float64   `json:"cost_score"`
	ResponseTimeHours  float64   `json:"response_time_hours"`
	Notes              string    `json:"notes"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ToSupplierResponse converts a domain supplier to a response
func ToSupplierResponse(s *partner.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:                 s.ID,
		TenantID:           s.TenantID,
		Name:               s.Name,
		ContactName:        s.ContactName,
		Email:              s.Email,
		Phone:              s.Phone,
		Website:            s.Website,
		LeadTimeDays:       s.LeadTimeDays,
		OnTimeDeliveryRate: s.OnTimeDeliveryRate,
		QualityScore:       s.QualityScore,
		CostScore:          s.CostScore,
		ResponseTimeHours:  s.ResponseTimeHours,
		Notes:              s.Notes,
		Active:             s.Active,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

// ToSupplierResponses converts a slice of suppliers
func ToSupplierResponses(suppliers []partner.Supplier) []SupplierResponse {
	responses := make([]SupplierResponse, len(suppliers))
	for i := range suppliers {
		responses[i] = ToSupplierResponse(&suppliers[i])
	}
	return responses
}
