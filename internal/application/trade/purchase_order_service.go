package trade

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/partner"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/domain/trade"
	"github.com/stockpilot/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// PurchaseOrderService handles purchase order business operations
type PurchaseOrderService struct {
	orderRepo    trade.PurchaseOrderRepository
	supplierRepo partner.SupplierRepository
	variantRepo  catalog.VariantRepository
	tx           shared.Transactor
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(
	orderRepo trade.PurchaseOrderRepository,
	supplierRepo partner.SupplierRepository,
	variantRepo catalog.VariantRepository,
	tx shared.Transactor,
) *PurchaseOrderService {
	return &PurchaseOrderService{
		orderRepo:    orderRepo,
		supplierRepo: supplierRepo,
		variantRepo:  variantRepo,
		tx:           tx,
	}
}

// Create creates a draft purchase order for an active supplier
func (s *PurchaseOrderService) Create(ctx context.Context, tenantID uuid.UUID, req CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	supplier, err := s.supplierRepo.FindByIDForTenant(ctx, tenantID, req.SupplierID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier not found")
		}
		return nil, err
	}
	if !supplier.Active {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier is inactive")
	}

	number, err := s.orderRepo.NextNumber(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	order, err := trade.NewPurchaseOrder(tenantID, supplier.ID, number)
	if err != nil {
		return nil, err
	}
	order.ExpectedAt = req.ExpectedAt
	order.Notes = req.Notes

	if err := s.addItems(ctx, tenantID, order, req.Items); err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("purchase order created",
		zap.String("order_id", order.ID.String()),
		zap.String("number", order.Number))

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// GetByID retrieves a purchase order by ID
func (s *PurchaseOrderService) GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// List retrieves a page of purchase orders
func (s *PurchaseOrderService) List(ctx context.Context, tenantID uuid.UUID, filter PurchaseOrderListFilter) (shared.Paginated[PurchaseOrderResponse], error) {
	domainFilter := trade.PurchaseOrderFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		}.Normalize(),
		Status:     trade.PurchaseOrderStatus(filter.Status),
		SupplierID: filter.SupplierID,
	}

	orders, total, err := s.orderRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return shared.Paginated[PurchaseOrderResponse]{}, err
	}
	items := make([]PurchaseOrderResponse, len(orders))
	for i := range orders {
		items[i] = ToPurchaseOrderResponse(&orders[i])
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

// Update changes a draft purchase order
func (s *PurchaseOrderService) Update(ctx context.Context, tenantID, orderID uuid.UUID, req UpdatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != trade.PurchaseOrderStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Only draft orders can be edited")
	}

	if req.ExpectedAt != nil {
		order.ExpectedAt = req.ExpectedAt
	}
	if req.Notes != nil {
		order.Notes = *req.Notes
	}
	if req.Items != nil {
		for len(order.Items) > 0 {
			if err := order.RemoveItem(order.Items[0].ID); err != nil {
				return nil, err
			}
		}
		if err := s.addItems(ctx, tenantID, order, req.Items); err != nil {
			return nil, err
		}
	}
	order.Touch()

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// Delete removes a draft or cancelled purchase order
func (s *PurchaseOrderService) Delete(ctx context.Context, tenantID, orderID uuid.UUID) error {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return err
	}
	if order.Status != trade.PurchaseOrderStatusDraft && order.Status != trade.PurchaseOrderStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Only draft or cancelled orders can be deleted")
	}
	return s.orderRepo.DeleteForTenant(ctx, tenantID, orderID)
}

// Submit sends a draft order to the supplier
func (s *PurchaseOrderService) Submit(ctx context.Context, tenantID, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.transition(ctx, tenantID, orderID, (*trade.PurchaseOrder).Submit)
}

// Cancel cancels a draft or ordered purchase order
func (s *PurchaseOrderService) Cancel(ctx context.Context, tenantID, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.transition(ctx, tenantID, orderID, (*trade.PurchaseOrder).Cancel)
}

// Receive records received goods and adds them to variant stock.
// The order and every stock change commit together.
func (s *PurchaseOrderService) Receive(ctx context.Context, tenantID, orderID uuid.UUID, req ReceivePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	var order *trade.PurchaseOrder
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
		if err != nil {
			return err
		}

		lines := make([]trade.ReceiptLine, 0, len(req.Lines))
		for _, l := range req.Lines {
			lines = append(lines, trade.ReceiptLine{ItemID: l.ItemID, Quantity: l.Quantity})
		}
		if err := order.Receive(lines); err != nil {
			return err
		}

		for _, l := range req.Lines {
			item, _ := order.FindItem(l.ItemID)
			if _, err := s.variantRepo.AdjustInventory(ctx, tenantID, item.VariantID, l.Quantity); err != nil {
				return err
			}
		}
		return s.orderRepo.Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("purchase order received",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
		zap.Int("lines", len(req.Lines)))

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

func (s *PurchaseOrderService) transition(ctx context.Context, tenantID, orderID uuid.UUID, apply func(*trade.PurchaseOrder) error) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if err := apply(order); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

func (s *PurchaseOrderService) addItems(ctx context.Context, tenantID uuid.UUID, order *trade.PurchaseOrder, items []PurchaseOrderItemInput) error {
	for _, in := range items {
		variant, err := s.variantRepo.FindByIDForTenant(ctx, tenantID, in.VariantID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("INVALID_VARIANT", "Variant not found")
			}
			return err
		}
		unitCost := variant.Cost
		if in.UnitCost != nil {
			unitCost = *in.UnitCost
		}
		if _, err := order.AddItem(variant.ID, variant.SKU, in.Quantity, unitCost); err != nil {
			return err
		}
	}
	return nil
}
