package importapp

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/partner"
	"github.com/stockpilot/backend/internal/domain/shared"
	csvimport "github.com/stockpilot/backend/internal/infrastructure/import"
)

// SupplierColumns is the header of supplier imports and exports
var SupplierColumns = []string{
	"name", "email", "phone", "contact_name", "website", "lead_time_days",
	"on_time_delivery_rate", "quality_score", "cost_score", "response_time_hours",
}

// SupplierImportService imports suppliers from CSV, matching existing ones by name
type SupplierImportService struct {
	importer
	supplierRepo partner.SupplierRepository
}

// NewSupplierImportService creates a new SupplierImportService
func NewSupplierImportService(
	supplierRepo partner.SupplierRepository,
	tx shared.Transactor,
	processor *csvimport.Processor,
) *SupplierImportService {
	return &SupplierImportService{
		importer:     importer{processor: processor, tx: tx},
		supplierRepo: supplierRepo,
	}
}

// GetValidationRules returns the validation rules for supplier import
func (s *SupplierImportService) GetValidationRules() []csvimport.FieldRule {
	return []csvimport.FieldRule{
		csvimport.Field("name").Required().MaxLength(200).Unique().Build(),
		csvimport.Field("email").Email().MaxLength(200).Build(),
		csvimport.Field("phone").MaxLength(50).Build(),
		csvimport.Field("contact_name").MaxLength(200).Build(),
		csvimport.Field("website").MaxLength(255).Build(),
		csvimport.Field("lead_time_days").Int().Min(0).Build(),
		csvimport.Field("on_time_delivery_rate").Decimal().Min(0).Max(100).Build(),
		csvimport.Field("quality_score").Decimal().Min(0).Max(100).Build(),
		csvimport.Field("cost_score").Decimal().Min(0).Max(100).Build(),
		csvimport.Field("response_time_hours").Decimal().Min(0).Build(),
	}
}

// Validate checks the file without writing anything
func (s *SupplierImportService) Validate(ctx context.Context, tenantID uuid.UUID, data []byte) (*csvimport.Result, error) {
	return s.validate(ctx, data, &supplierRows{svc: s, tenantID: tenantID})
}

// Import writes the valid rows of the file
func (s *SupplierImportService) Import(ctx context.Context, tenantID uuid.UUID, data []byte, mode ConflictMode) (*ImportResult, error) {
	return s.run(ctx, tenantID, data, mode, &supplierRows{svc: s, tenantID: tenantID})
}

type supplierRows struct {
	svc      *SupplierImportService
	tenantID uuid.UUID
}

func (r *supplierRows) entity() string { return "supplier" }

func (r *supplierRows) rules() []csvimport.FieldRule { return r.svc.GetValidationRules() }

func (r *supplierRows) exists(ctx context.Context, row *csvimport.Row) (bool, error) {
	return r.svc.supplierRepo.ExistsByName(ctx, r.tenantID, row.Get("name"))
}

func (r *supplierRows) create(ctx context.Context, row *csvimport.Row) error {
	supplier, err := partner.NewSupplier(r.tenantID, row.Get("name"))
	if err != nil {
		return err
	}
	if err := applySupplierRow(supplier, row); err != nil {
		return err
	}
	return r.svc.supplierRepo.Save(ctx, supplier)
}

func (r *supplierRows) update(ctx context.Context, row *csvimport.Row) error {
	supplier, err := r.svc.supplierRepo.FindByName(ctx, r.tenantID, row.Get("name"))
	if err != nil {
		return err
	}
	if err := applySupplierRow(supplier, row); err != nil {
		return err
	}
	return r.svc.supplierRepo.Save(ctx, supplier)
}

// applySupplierRow copies the non-empty cells of row onto supplier
func applySupplierRow(s *partner.Supplier, row *csvimport.Row) error {
	if err := s.SetContact(
		row.GetOrDefault("contact_name", s.ContactName),
		row.GetOrDefault("email", s.Email),
		row.GetOrDefault("phone", s.Phone),
		row.GetOrDefault("website", s.Website),
	); err != nil {
		return err
	}
	if v := row.Get("lead_time_days"); v != "" {
		if err := s.SetLeadTime(parseInt(v)); err != nil {
			return err
		}
	}

	scores := s.Scores()
	for column, target := range map[string]*float64{
		"on_time_delivery_rate": &scores.OnTimeDeliveryRate,
		"quality_score":         &scores.QualityScore,
		"cost_score":            &scores.CostScore,
		"response_time_hours":   &scores.ResponseTimeHours,
	} {
		if v := row.Get(column); v != "" {
			*target = parseFloat(v)
		}
	}
	return s.SetScores(scores)
}
