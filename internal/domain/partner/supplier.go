package partner

import (
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/shared"
)

// Supplier is a vendor the tenant purchases stock from
type Supplier struct {
	shared.TenantEntity
	Name               string
	ContactName        string
	Email              string
	Phone              string
	Website            string
	LeadTimeDays       int
	OnTimeDeliveryRate float64
	QualityScore       float64
	CostScore          float64
	ResponseTimeHours  float64
	Notes              string
	Active             bool
}

// SupplierScores groups the performance inputs tracked for a supplier
type SupplierScores struct {
	OnTimeDeliveryRate float64
	QualityScore       float64
	CostScore          float64
	ResponseTimeHours  float64
}

// NewSupplier creates an active supplier
func NewSupplier(tenantID uuid.UUID, name string) (*Supplier, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	return &Supplier{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Name:         name,
		Active:       true,
	}, nil
}

// Rename changes the supplier name
func (s *Supplier) Rename(name string) error {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return err
	}
	s.Name = name
	s.Touch()
	return nil
}

// SetContact sets contact details. An empty email is allowed.
func (s *Supplier) SetContact(contactName, email, phone, website string) error {
	email = strings.TrimSpace(email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return shared.NewDomainError("INVALID_EMAIL", "Supplier email is not a valid address")
		}
	}
	s.ContactName = strings.TrimSpace(contactName)
	s.Email = email
	s.Phone = strings.TrimSpace(phone)
	s.Website = strings.TrimSpace(website)
	s.Touch()
	return nil
}

// SetLeadTime sets the expected delivery lead time in days
func (s *Supplier) SetLeadTime(days int) error {
	if days < 0 {
		return shared.NewDomainError("INVALID_LEAD_TIME", "Lead time cannot be negative")
	}
	s.LeadTimeDays = days
	s.Touch()
	return nil
}

// SetScores records performance scores. Rates and scores are percentages in [0, 100].
func (s *Supplier) SetScores(scores SupplierScores) error {
	for _, v := range []float64{scores.OnTimeDeliveryRate, scores.QualityScore, scores.CostScore} {
		if v < 0 || v > 100 {
			return shared.NewDomainError("INVALID_SCORE", "Supplier scores must be between 0 and 100")
		}
	}
	if scores.ResponseTimeHours < 0 {
		return shared.NewDomainError("INVALID_SCORE", "Response time cannot be negative")
	}
	s.OnTimeDeliveryRate = scores.OnTimeDeliveryRate
	s.QualityScore = scores.QualityScore
	s.CostScore = scores.CostScore
	s.ResponseTimeHours = scores.ResponseTimeHours
	s.Touch()
	return nil
}

// Scores returns the current performance inputs
func (s *Supplier) Scores() SupplierScores {
	return SupplierScores{
		OnTimeDeliveryRate: s.OnTimeDeliveryRate,
		QualityScore:       s.QualityScore,
		CostScore:          s.CostScore,
		ResponseTimeHours:  s.ResponseTimeHours,
	}
}

// Deactivate hides the supplier from new purchase orders
func (s *Supplier) Deactivate() {
	s.Active = false
	s.Touch()
}

// Activate re-enables the supplier
func (s *Supplier) Activate() {
	s.Active = true
	s.Touch()
}

func validateName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Supplier name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Supplier name cannot exceed 200 characters")
	}
	return nil
}
