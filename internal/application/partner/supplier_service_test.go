package partner

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/partner"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSupplierRepository is a mock implementation of partner.SupplierRepository
type MockSupplierRepository struct {
	mock.Mock
}

func (m *MockSupplierRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*partner.Supplier, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*partner.Supplier, error) {
	args := m.Called(ctx, tenantID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter partner.SupplierFilter) ([]partner.Supplier, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]partner.Supplier), args.Get(1).(int64), args.Error(2)
}

func (m *MockSupplierRepository) Save(ctx context.Context, supplier *partner.Supplier) error {
	args := m.Called(ctx, supplier)
	return args.Error(0)
}

func (m *MockSupplierRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockSupplierRepository) ExistsByName(ctx context.Context, tenantID uuid.UUID, name string) (bool, error) {
	args := m.Called(ctx, tenantID, name)
	return args.Bool(0), args.Error(1)
}

func float(v float64) *float64 { return &v }

func TestSupplierService_Create(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	tests := []struct {
		name     string
		req      CreateSupplierRequest
		exists   bool
		wantCode string
	}{
		{
			name: "valid supplier",
			req: CreateSupplierRequest{
				Name: "Acme Textiles", Email: "orders@acme.test", LeadTimeDays: 14,
				OnTimeDeliveryRate: float(95), QualityScore: float(88), CostScore: float(70), ResponseTimeHours: float(4),
			},
		},
		{name: "duplicate name", req: CreateSupplierRequest{Name: "Acme Textiles"}, exists: true, wantCode: "ALREADY_EXISTS"},
		{name: "bad email", req: CreateSupplierRequest{Name: "Acme", Email: "not-an-email"}, wantCode: "INVALID_EMAIL"},
		{name: "score above 100", req: CreateSupplierRequest{Name: "Acme", QualityScore: float(120)}, wantCode: "INVALID_SCORE"},
		{name: "negative lead time", req: CreateSupplierRequest{Name: "Acme", LeadTimeDays: -1}, wantCode: "INVALID_LEAD_TIME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockSupplierRepository)
			svc := NewSupplierService(repo)
			repo.On("ExistsByName", ctx, tenantID, tt.req.Name).Return(tt.exists, nil)
			repo.On("Save", ctx, mock.AnythingOfType("*partner.Supplier")).Return(nil)

			resp, err := svc.Create(ctx, tenantID, tt.req)

			if tt.wantCode != "" {
				var domainErr *shared.DomainError
				require.ErrorAs(t, err, &domainErr)
				assert.Equal(t, tt.wantCode, domainErr.Code)
				repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Acme Textiles", resp.Name)
			assert.Equal(t, 95.0, resp.OnTimeDeliveryRate)
			assert.Equal(t, 14, resp.LeadTimeDays)
			assert.True(t, resp.Active)
		})
	}
}

func TestSupplierService_Update(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("partial update keeps other fields", func(t *testing.T) {
		repo := new(MockSupplierRepository)
		svc := NewSupplierService(repo)
		supplier, _ := partner.NewSupplier(tenantID, "Acme")
		require.NoError(t, supplier.SetContact("Ann", "ann@acme.test", "555", ""))
		require.NoError(t, supplier.SetScores(partner.SupplierScores{OnTimeDeliveryRate: 90, QualityScore: 80, CostScore: 70}))

		repo.On("FindByIDForTenant", ctx, tenantID, supplier.ID).Return(supplier, nil)
		repo.On("Save", ctx, supplier).Return(nil)

		active := false
		resp, err := svc.Update(ctx, tenantID, supplier.ID, UpdateSupplierRequest{CostScore: float(75), Active: &active})

		require.NoError(t, err)
		assert.Equal(t, "ann@acme.test", resp.Email)
		assert.Equal(t, 90.0, resp.OnTimeDeliveryRate)
		assert.Equal(t, 75.0, resp.CostScore)
		assert.False(t, resp.Active)
	})

	t.Run("rename to a taken name", func(t *testing.T) {
		repo := new(MockSupplierRepository)
		svc := NewSupplierService(repo)
		supplier, _ := partner.NewSupplier(tenantID, "Acme")
		repo.On("FindByIDForTenant", ctx, tenantID, supplier.ID).Return(supplier, nil)
		repo.On("ExistsByName", ctx, tenantID, "Globex").Return(true, nil)

		name := "Globex"
		_, err := svc.Update(ctx, tenantID, supplier.ID, UpdateSupplierRequest{Name: &name})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("case-only rename skips the uniqueness check", func(t *testing.T) {
		repo := new(MockSupplierRepository)
		svc := NewSupplierService(repo)
		supplier, _ := partner.NewSupplier(tenantID, "Acme")
		repo.On("FindByIDForTenant", ctx, tenantID, supplier.ID).Return(supplier, nil)
		repo.On("Save", ctx, supplier).Return(nil)

		name := "ACME"
		resp, err := svc.Update(ctx, tenantID, supplier.ID, UpdateSupplierRequest{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "ACME", resp.Name)
		repo.AssertNotCalled(t, "ExistsByName", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSupplierService_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := new(MockSupplierRepository)
	svc := NewSupplierService(repo)

	s1, _ := partner.NewSupplier(tenantID, "Acme")
	repo.On("FindAllForTenant", ctx, tenantID, mock.MatchedBy(func(f partner.SupplierFilter) bool {
		return f.ActiveOnly && f.Page == 1 && f.PageSize == shared.DefaultPageSize
	})).Return([]partner.Supplier{*s1}, int64(1), nil)

	page, err := svc.List(ctx, tenantID, SupplierListFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.TotalPages)

	missing := uuid.New()
	repo.On("DeleteForTenant", ctx, tenantID, missing).Return(shared.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, tenantID, missing), shared.ErrNotFound)
}
