package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/domain/trade"
)

// SalesOrderService serves the read side of synced and manual sales
type SalesOrderService struct {
	orderRepo trade.SalesOrderRepository
}

// NewSalesOrderService creates a new SalesOrderService
func NewSalesOrderService(orderRepo trade.SalesOrderRepository) *SalesOrderService {
	return &SalesOrderService{orderRepo: orderRepo}
}

// GetByID retrieves a sales order by ID
func (s *SalesOrderService) GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*SalesOrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	response := ToSalesOrderResponse(order)
	return &response, nil
}

// List retrieves a page of sales orders, newest first by default
func (s *SalesOrderService) List(ctx context.Context, tenantID uuid.UUID, filter SalesOrderListFilter) (shared.Paginated[SalesOrderResponse], error) {
	pageSize := filter.PageSize
	if pageSize == 0 {
		pageSize = filter.Limit
	}
	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "ordered_at"
	}

	domainFilter := trade.SalesOrderFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: pageSize,
			OrderBy:  orderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Query,
		}.Normalize(),
		Status:         trade.SalesOrderStatus(filter.Status),
		SourcePlatform: filter.SourcePlatform,
		From:           filter.From,
		To:             filter.To,
	}

	orders, total, err := s.orderRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return shared.Paginated[SalesOrderResponse]{}, err
	}
	items := make([]SalesOrderResponse, len(orders))
	for i := range orders {
		items[i] = ToSalesOrderResponse(&orders[i])
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}
