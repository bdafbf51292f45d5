package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	importapp "github.com/stockpilot/backend/internal/application/import"
	csvimport "github.com/stockpilot/backend/internal/infrastructure/import"
	"github.com/stockpilot/backend/internal/interfaces/http/dto"
	"github.com/stockpilot/backend/internal/interfaces/http/middleware"
)

// MaxImportFileSize is read from an upload before the processor applies its own limit
const MaxImportFileSize = 10 << 20

// Importer validates and imports one entity type from CSV
type Importer interface {
	Validate(ctx context.Context, tenantID uuid.UUID, data []byte) (*csvimport.Result, error)
	Import(ctx context.Context, tenantID uuid.UUID, data []byte, mode importapp.ConflictMode) (*importapp.ImportResult, error)
}

// ImportHandler handles CSV uploads for products and suppliers
type ImportHandler struct {
	BaseHandler
	importers map[string]Importer
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(products, suppliers Importer) *ImportHandler {
	return &ImportHandler{importers: map[string]Importer{
		"products":  products,
		"suppliers": suppliers,
	}}
}

// Validate godoc
// @Summary      Dry-run a CSV import
// @Description  Checks every row and returns errors and a preview; nothing is written
// @Tags         imports
// @Accept       multipart/form-data
// @Produce      json
// @Param        entity path string true "products or suppliers"
// @Param        file formData file true "CSV file"
// @Success      200 {object} APIResponse[csvimport.Result]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /imports/{entity}/validate [post]
func (h *ImportHandler) Validate(c *gin.Context) {
	tenantID, importer, data, ok := h.upload(c)
	if !ok {
		return
	}

	res, err := importer.Validate(c.Request.Context(), tenantID, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// Import godoc
// @Summary      Import a CSV file
// @Description  In fail mode any bad row rejects the file with 422 and nothing is written
// @Tags         imports
// @Accept       multipart/form-data
// @Produce      json
// @Param        entity path string true "products or suppliers"
// @Param        file formData file true "CSV file"
// @Param        conflict_mode formData string false "skip, update or fail" default(skip)
// @Success      200 {object} APIResponse[importapp.ImportResult]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /imports/{entity} [post]
func (h *ImportHandler) Import(c *gin.Context) {
	mode, err := importapp.ParseConflictMode(c.PostForm("conflict_mode"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	tenantID, importer, data, ok := h.upload(c)
	if !ok {
		return
	}

	res, err := importer.Import(c.Request.Context(), tenantID, data, mode)
	if err != nil {
		var rejected *importapp.RejectedError
		if errors.As(err, &rejected) {
			c.JSON(http.StatusUnprocessableEntity, dto.NewErrorResponseWithData(
				dto.ErrCodeImportRejected, rejected.Error(), middleware.GetRequestID(c), rejected.Result))
			return
		}
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// upload resolves the tenant, the importer of the :entity path and the file contents
func (h *ImportHandler) upload(c *gin.Context) (uuid.UUID, Importer, []byte, bool) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return uuid.Nil, nil, nil, false
	}
	importer, found := h.importers[c.Param("entity")]
	if !found {
		h.NotFound(c, "Import must be one of products, suppliers")
		return uuid.Nil, nil, nil, false
	}

	fh, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "A CSV file is required in the 'file' field")
		return uuid.Nil, nil, nil, false
	}
	if fh.Size > MaxImportFileSize {
		h.HandleError(c, csvimport.ErrFileTooLarge)
		return uuid.Nil, nil, nil, false
	}
	f, err := fh.Open()
	if err != nil {
		h.BadRequest(c, "Failed to read uploaded file")
		return uuid.Nil, nil, nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImportFileSize+1))
	if err != nil {
		h.BadRequest(c, "Failed to read uploaded file")
		return uuid.Nil, nil, nil, false
	}
	return tenantID, importer, data, true
}
