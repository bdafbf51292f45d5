package importapp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/partner"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/domain/trade"
	csvimport "github.com/stockpilot/backend/internal/infrastructure/import"
	"github.com/stockpilot/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Export entities
const (
	ExportProducts  = "products"
	ExportSuppliers = "suppliers"
	ExportOrders    = "orders"
)

// OrderColumns is the header of order exports; one line per order line
var OrderColumns = []string{
	"order_number", "source_platform", "status", "ordered_at", "currency", "customer_name",
	"customer_email", "order_total", "sku", "title", "quantity", "unit_price", "unit_cost",
}

// ErrUnknownExport is returned for an unsupported export entity
var ErrUnknownExport = shared.NewDomainError("UNKNOWN_EXPORT", "Export must be one of products, suppliers, orders")

// ErrArchiveDisabled is returned when archived exports are requested without object storage
var ErrArchiveDisabled = shared.NewDomainError("ARCHIVE_DISABLED", "Export archiving is not configured")

// ArchiveStore keeps exported files and hands out download links
type ArchiveStore interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
	DownloadURL(ctx context.Context, key string) (string, time.Time, error)
}

// ArchivedExport describes an export stored in object storage
type ArchivedExport struct {
	Entity    string    `json:"entity"`
	Key       string    `json:"key"`
	Rows      int       `json:"rows"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportService writes catalog data as CSV
type ExportService struct {
	productRepo  catalog.ProductRepository
	supplierRepo partner.SupplierRepository
	orderRepo    trade.SalesOrderRepository
	archive      ArchiveStore
	now          func() time.Time
}

// NewExportService creates a new ExportService. archive may be nil.
func NewExportService(
	productRepo catalog.ProductRepository,
	supplierRepo partner.SupplierRepository,
	orderRepo trade.SalesOrderRepository,
	archive ArchiveStore,
) *ExportService {
	return &ExportService{
		productRepo:  productRepo,
		supplierRepo: supplierRepo,
		orderRepo:    orderRepo,
		archive:      archive,
		now:          time.Now,
	}
}

// IsExportEntity reports whether entity can be exported
func IsExportEntity(entity string) bool {
	switch entity {
	case ExportProducts, ExportSuppliers, ExportOrders:
		return true
	}
	return false
}

// FileName is the suggested download name of an export
func (s *ExportService) FileName(entity string) string {
	return fmt.Sprintf("%s-%s.csv", entity, s.now().UTC().Format("20060102-150405"))
}

// Export streams entity as CSV to w and returns the number of data rows
func (s *ExportService) Export(ctx context.Context, tenantID uuid.UUID, entity string, w io.Writer) (int, error) {
	switch entity {
	case ExportProducts:
		return s.writeProducts(ctx, tenantID, w)
	case ExportSuppliers:
		return s.writeSuppliers(ctx, tenantID, w)
	case ExportOrders:
		return s.writeOrders(ctx, tenantID, w)
	}
	return 0, ErrUnknownExport
}

// Archive renders the export, uploads it and returns a presigned link
func (s *ExportService) Archive(ctx context.Context, tenantID uuid.UUID, entity string) (*ArchivedExport, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	if !IsExportEntity(entity) {
		return nil, ErrUnknownExport
	}

	var buf bytes.Buffer
	rows, err := s.Export(ctx, tenantID, entity, &buf)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("exports/%s/%s", tenantID, s.FileName(entity))
	if err := s.archive.Upload(ctx, key, buf.Bytes(), "text/csv"); err != nil {
		return nil, err
	}
	url, expires, err := s.archive.DownloadURL(ctx, key)
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("Export archived", zap.String("entity", entity), zap.String("key", key), zap.Int("rows", rows))
	return &ArchivedExport{Entity: entity, Key: key, Rows: rows, URL: url, ExpiresAt: expires}, nil
}

// eachPage walks a paged listing in creation order until it is exhausted
func eachPage(ctx context.Context, fetch func(f shared.Filter) (int, int64, error)) error {
	f := shared.Filter{Page: 1, PageSize: shared.MaxPageSize, OrderBy: "created_at", OrderDir: "asc"}.Normalize()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, total, err := fetch(f)
		if err != nil {
			return err
		}
		if n == 0 || int64(f.Offset()+n) >= total {
			return nil
		}
		f.Page++
	}
}

func (s *ExportService) writeProducts(ctx context.Context, tenantID uuid.UUID, w io.Writer) (int, error) {
	cw, err := csvimport.NewWriter(w, ProductColumns)
	if err != nil {
		return 0, err
	}
	err = eachPage(ctx, func(f shared.Filter) (int, int64, error) {
		products, total, err := s.productRepo.FindAllForTenant(ctx, tenantID, catalog.ProductFilter{Filter: f})
		if err != nil {
			return 0, 0, err
		}
		for i := range products {
			p := &products[i]
			for _, v := range p.Variants {
				if err := cw.Write([]string{
					p.Title, v.SKU, v.Price.String(), v.Cost.String(),
					strconv.Itoa(v.InventoryQuantity), strconv.Itoa(v.ReorderPoint), strconv.Itoa(v.ReorderQuantity),
					p.Vendor, p.ProductType, string(p.Status), v.Title,
				}); err != nil {
					return 0, 0, err
				}
			}
		}
		return len(products), total, nil
	})
	if err != nil {
		return 0, err
	}
	return cw.Rows(), cw.Close()
}

func (s *ExportService) writeSuppliers(ctx context.Context, tenantID uuid.UUID, w io.Writer) (int, error) {
	cw, err := csvimport.NewWriter(w, SupplierColumns)
	if err != nil {
		return 0, err
	}
	err = eachPage(ctx, func(f shared.Filter) (int, int64, error) {
		suppliers, total, err := s.supplierRepo.FindAllForTenant(ctx, tenantID, partner.SupplierFilter{Filter: f})
		if err != nil {
			return 0, 0, err
		}
		for i := range suppliers {
			sup := &suppliers[i]
			if err := cw.Write([]string{
				sup.Name, sup.Email, sup.Phone, sup.ContactName, sup.Website, strconv.Itoa(sup.LeadTimeDays),
				formatFloat(sup.OnTimeDeliveryRate), formatFloat(sup.QualityScore),
				formatFloat(sup.CostScore), formatFloat(sup.ResponseTimeHours),
			}); err != nil {
				return 0, 0, err
			}
		}
		return len(suppliers), total, nil
	})
	if err != nil {
		return 0, err
	}
	return cw.Rows(), cw.Close()
}

func (s *ExportService) writeOrders(ctx context.Context, tenantID uuid.UUID, w io.Writer) (int, error) {
	cw, err := csvimport.NewWriter(w, OrderColumns)
	if err != nil {
		return 0, err
	}
	err = eachPage(ctx, func(f shared.Filter) (int, int64, error) {
		f.OrderBy = "ordered_at"
		orders, total, err := s.orderRepo.FindAllForTenant(ctx, tenantID, trade.SalesOrderFilter{Filter: f})
		if err != nil {
			return 0, 0, err
		}
		for i := range orders {
			o := &orders[i]
			head := []string{
				o.OrderNumber, o.SourcePlatform, string(o.Status), o.OrderedAt.UTC().Format(time.RFC3339),
				o.Currency, o.CustomerName, o.CustomerEmail, o.Total.String(),
			}
			for _, l := range o.Lines {
				record := append(append([]string{}, head...),
					l.SKU, l.Title, strconv.Itoa(l.Quantity), l.UnitPrice.String(), l.UnitCost.String())
				if err := cw.Write(record); err != nil {
					return 0, 0, err
				}
			}
		}
		return len(orders), total, nil
	})
	if err != nil {
		return 0, err
	}
	return cw.Rows(), cw.Close()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
