package partner

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/partner"
	"github.com/stockpilot/backend/internal/domain/shared"
)

// SupplierService handles supplier-related business operations
type SupplierService struct {
	supplierRepo partner.SupplierRepository
}

// NewSupplierService creates a new SupplierService
func NewSupplierService(supplierRepo partner.SupplierRepository) *SupplierService {
	return &SupplierService{
		supplierRepo: supplierRepo,
	}
}

// Create creates a new supplier. Names are unique per tenant, ignoring case.
func (s *SupplierService) Create(ctx context.Context, tenantID uuid.UUID, req CreateSupplierRequest) (*SupplierResponse, error) {
	exists, err := s.supplierRepo.ExistsByName(ctx, tenantID, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Supplier with this name already exists")
	}

	supplier, err := partner.NewSupplier(tenantID, req.Name)
	if err != nil {
		return nil, err
	}
	if err := supplier.SetContact(req.ContactName, req.Email, req.Phone, req.Website); err != nil {
		return nil, err
	}
	if err := supplier.SetLeadTime(req.LeadTimeDays); err != nil {
		return nil, err
	}

	scores := supplier.Scores()
	mergeScores(&scores, req.OnTimeDeliveryRate, req.QualityScore, req.CostScore, req.ResponseTimeHours)
	if err := supplier.SetScores(scores); err != nil {
		return nil, err
	}
	supplier.Notes = req.Notes

	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}

	response := ToSupplierResponse(supplier)
	return &response, nil
}

// GetByID retrieves a supplier by ID
func (s *SupplierService) GetByID(ctx context.Context, tenantID, supplierID uuid.UUID) (*SupplierResponse, error) {
	supplier, err := s.supplierRepo.FindByIDForTenant(ctx, tenantID, supplierID)
	if err != nil {
		return nil, err
	}

	response := ToSupplierResponse(supplier)
	return &response, nil
}

// List retrieves a page of suppliers
func (s *SupplierService) List(ctx context.Context, tenantID uuid.UUID, filter SupplierListFilter) (shared.Paginated[SupplierResponse], error) {
	domainFilter := partner.SupplierFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		}.Normalize(),
		ActiveOnly: filter.ActiveOnly,
	}

	suppliers, total, err := s.supplierRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return shared.Paginated[SupplierResponse]{}, err
	}
	return shared.NewPaginated(ToSupplierResponses(suppliers), total, domainFilter.Page, domainFilter.PageSize), nil
}

// Update updates a supplier
func (s *SupplierService) Update(ctx context.Context, tenantID, supplierID uuid.UUID, req UpdateSupplierRequest) (*SupplierResponse, error) {
	supplier, err := s.supplierRepo.FindByIDForTenant(ctx, tenantID, supplierID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && !strings.EqualFold(strings.TrimSpace(*req.Name), supplier.Name) {
		exists, err := s.supplierRepo.ExistsByName(ctx, tenantID, *req.Name)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Supplier with this name already exists")
		}
	}
	if req.Name != nil {
		if err := supplier.Rename(*req.Name); err != nil {
			return nil, err
		}
	}

	contactName, email, phone, website := supplier.ContactName, supplier.Email, supplier.Phone, supplier.Website
	if req.ContactName != nil {
		contactName = *req.ContactName
	}
	if req.Email != nil {
		email = *req.Email
	}
	if req.Phone != nil {
		phone = *req.Phone
	}
	if req.Website != nil {
		website = *req.Website
	}
	if err := supplier.SetContact(contactName, email, phone, website); err != nil {
		return nil, err
	}

	if req.LeadTimeDays != nil {
		if err := supplier.SetLeadTime(*req.LeadTimeDays); err != nil {
			return nil, err
		}
	}

	scores := supplier.Scores()
	mergeScores(&scores, req.OnTimeDeliveryRate, req.QualityScore, req.CostScore, req.ResponseTimeHours)
	if err := supplier.SetScores(scores); err != nil {
		return nil, err
	}

	if req.Notes != nil {
		supplier.Notes = *req.Notes
	}
	if req.Active != nil {
		if *req.Active {
			supplier.Activate()
		} else {
			supplier.Deactivate()
		}
	}

	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}

	response := ToSupplierResponse(supplier)
	return &response, nil
}

// Delete deletes a supplier; variants sourced from it are unlinked
func (s *SupplierService) Delete(ctx context.Context, tenantID, supplierID uuid.UUID) error {
	return s.supplierRepo.DeleteForTenant(ctx, tenantID, supplierID)
}

func mergeScores(scores *partner.SupplierScores, onTime, quality, cost, responseHours *float64) {
	if onTime != nil {
		scores.OnTimeDeliveryRate = *onTime
	}
	if quality != nil {
		scores.QualityScore = *quality
	}
	if cost != nil {
		scores.CostScore = *cost
	}
	if responseHours != nil {
		scores.ResponseTimeHours = *responseHours
	}
}
