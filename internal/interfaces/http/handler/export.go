package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	importapp "github.com/stockpilot/backend/internal/application/import"
	"github.com/stockpilot/backend/internal/infrastructure/logger"
)

// ExportService renders catalog data as CSV
type ExportService interface {
	FileName(entity string) string
	Export(ctx context.Context, tenantID uuid.UUID, entity string, w io.Writer) (int, error)
	Archive(ctx context.Context, tenantID uuid.UUID, entity string) (*importapp.ArchivedExport, error)
}

// ExportHandler handles CSV exports
type ExportHandler struct {
	BaseHandler
	exportService ExportService
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(exportService ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// Export godoc
// @Summary      Export as CSV
// @Description  Streams the CSV, or with archive=true stores it in object storage and returns a download link
// @Tags         exports
// @Produce      text/csv
// @Produce      json
// @Param        entity path string true "products, suppliers or orders"
// @Param        archive query bool false "Archive instead of streaming"
// @Success      200 {file} file
// @Success      201 {object} APIResponse[importapp.ArchivedExport]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /exports/{entity} [get]
func (h *ExportHandler) Export(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	entity := c.Param("entity")
	if !importapp.IsExportEntity(entity) {
		h.HandleError(c, importapp.ErrUnknownExport)
		return
	}

	if queryBool(c, "archive") {
		archived, err := h.exportService.Archive(c.Request.Context(), tenantID, entity)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Created(c, archived)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+h.exportService.FileName(entity)+`"`)
	c.Status(http.StatusOK)

	rows, err := h.exportService.Export(c.Request.Context(), tenantID, entity, c.Writer)
	if err != nil {
		// headers are gone once rows are written; an error before that still gets JSON
		if !c.Writer.Written() {
			c.Writer.Header().Del("Content-Type")
			c.Writer.Header().Del("Content-Disposition")
			h.HandleError(c, err)
			return
		}
		_ = c.Error(err)
		logger.FromContext(c.Request.Context()).Error("Export interrupted",
			zap.String("entity", entity), zap.Int("rows", rows), zap.Error(err))
	}
}
