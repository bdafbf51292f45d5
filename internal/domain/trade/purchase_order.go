package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockpilot/backend/internal/domain/shared"
)

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft             PurchaseOrderStatus = "draft"
	PurchaseOrderStatusOrdered           PurchaseOrderStatus = "ordered"
	PurchaseOrderStatusPartiallyReceived PurchaseOrderStatus = "partially_received"
	PurchaseOrderStatusReceived          PurchaseOrderStatus = "received"
	PurchaseOrderStatusCancelled         PurchaseOrderStatus = "cancelled"
)

// IsFinal returns true when no further transitions are possible
func (s PurchaseOrderStatus) IsFinal() bool {
	return s == PurchaseOrderStatusReceived || s == PurchaseOrderStatusCancelled
}

// PurchaseOrderItem is a line on a purchase order
type PurchaseOrderItem struct {
	ID               uuid.UUID
	VariantID        uuid.UUID
	SKU              string
	Quantity         int
	ReceivedQuantity int
	UnitCost         decimal.Decimal
}

// LineTotal is quantity times unit cost
func (i *PurchaseOrderItem) LineTotal() decimal.Decimal {
	return i.UnitCost.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Remaining is the quantity still expected from the supplier
func (i *PurchaseOrderItem) Remaining() int {
	return i.Quantity - i.ReceivedQuantity
}

// PurchaseOrder is an order placed with a supplier
type PurchaseOrder struct {
	shared.TenantEntity
	SupplierID uuid.UUID
	Number     string
	Status     PurchaseOrderStatus
	ExpectedAt *time.Time
	OrderedAt  *time.Time
	ReceivedAt *time.Time
	Notes      string
	Total      decimal.Decimal
	Items      []PurchaseOrderItem
}

// ReceiptLine is the quantity received for one item
type ReceiptLine struct {
	ItemID   uuid.UUID
	Quantity int
}

// NewPurchaseOrder creates a draft purchase order
func NewPurchaseOrder(tenantID, supplierID uuid.UUID, number string) (*PurchaseOrder, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(number) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	return &PurchaseOrder{
		TenantEntity: shared.NewTenantEntity(tenantID),
		SupplierID:   supplierID,
		Number:       number,
		Status:       PurchaseOrderStatusDraft,
		Total:        decimal.Zero,
	}, nil
}

// AddItem adds a line to a draft order
func (o *PurchaseOrder) AddItem(variantID uuid.UUID, sku string, quantity int, unitCost decimal.Decimal) (*PurchaseOrderItem, error) {
	if o.Status != PurchaseOrderStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to a non-draft order")
	}
	if variantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VARIANT", "Variant ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	for _, item := range o.Items {
		if item.VariantID == variantID {
			return nil, shared.NewDomainError("DUPLICATE_VARIANT", "Variant already exists in order, update quantity instead")
		}
	}
	o.Items = append(o.Items, PurchaseOrderItem{
		ID:        uuid.New(),
		VariantID: variantID,
		SKU:       sku,
		Quantity:  quantity,
		UnitCost:  unitCost,
	})
	o.recalculate()
	return &o.Items[len(o.Items)-1], nil
}

// RemoveItem removes a line from a draft order
func (o *PurchaseOrder) RemoveItem(itemID uuid.UUID) error {
	if o.Status != PurchaseOrderStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot remove items from a non-draft order")
	}
	for i, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			o.recalculate()
			return nil
		}
	}
	return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
}

// Submit sends the draft to the supplier
func (o *PurchaseOrder) Submit() error {
	if o.Status != PurchaseOrderStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft orders can be submitted")
	}
	if len(o.Items) == 0 {
		return shared.NewDomainError("EMPTY_ORDER", "Cannot submit an order without items")
	}
	now := time.Now()
	o.Status = PurchaseOrderStatusOrdered
	o.OrderedAt = &now
	o.Touch()
	return nil
}

// Receive records received quantities. The order becomes received once every line is complete.
func (o *PurchaseOrder) Receive(lines []ReceiptLine) error {
	if o.Status != PurchaseOrderStatusOrdered && o.Status != PurchaseOrderStatusPartiallyReceived {
		return shared.NewDomainError("INVALID_STATE", "Only ordered purchase orders can be received")
	}
	if len(lines) == 0 {
		return shared.NewDomainError("INVALID_RECEIPT", "Receipt must contain at least one line")
	}

	// validate everything before mutating
	index := make(map[uuid.UUID]int, len(o.Items))
	for i, item := range o.Items {
		index[item.ID] = i
	}
	pending := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		i, ok := index[line.ItemID]
		if !ok {
			return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
		}
		if line.Quantity <= 0 {
			return shared.NewDomainError("INVALID_QUANTITY", "Receive quantity must be positive")
		}
		pending[line.ItemID] += line.Quantity
		if pending[line.ItemID] > o.Items[i].Remaining() {
			return shared.NewDomainError("QUANTITY_EXCEEDED",
				fmt.Sprintf("Cannot receive %d of %s, only %d remaining", pending[line.ItemID], o.Items[i].SKU, o.Items[i].Remaining()))
		}
	}

	for id, qty := range pending {
		o.Items[index[id]].ReceivedQuantity += qty
	}

	if o.fullyReceived() {
		now := time.Now()
		o.Status = PurchaseOrderStatusReceived
		o.ReceivedAt = &now
	} else {
		o.Status = PurchaseOrderStatusPartiallyReceived
	}
	o.Touch()
	return nil
}

// Cancel cancels an order that has not been received
func (o *PurchaseOrder) Cancel() error {
	if o.Status != PurchaseOrderStatusDraft && o.Status != PurchaseOrderStatusOrdered {
		return shared.NewDomainError("INVALID_STATE", "Only draft or ordered purchase orders can be cancelled")
	}
	o.Status = PurchaseOrderStatusCancelled
	o.Touch()
	return nil
}

// FindItem returns the item with id
func (o *PurchaseOrder) FindItem(id uuid.UUID) (*PurchaseOrderItem, bool) {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i], true
		}
	}
	return nil, false
}

func (o *PurchaseOrder) fullyReceived() bool {
	for _, item := range o.Items {
		if item.Remaining() > 0 {
			return false
		}
	}
	return true
}

func (o *PurchaseOrder) recalculate() {
	total := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].LineTotal())
	}
	o.Total = total
	o.Touch()
}
