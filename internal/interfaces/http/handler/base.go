// Package handler holds the gin handlers of the StockPilot API.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/domain/shared"
	csvimport "github.com/stockpilot/backend/internal/infrastructure/import"
	"github.com/stockpilot/backend/internal/infrastructure/logger"
	"github.com/stockpilot/backend/internal/infrastructure/scheduler"
	"github.com/stockpilot/backend/internal/interfaces/http/dto"
	"github.com/stockpilot/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// tenantID returns the authenticated tenant or writes a 401
func (h *BaseHandler) tenantID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.GetTenantID(c)
	if !ok {
		h.Unauthorized(c, "Tenant identification required")
	}
	return id, ok
}

// pathUUID parses a UUID path parameter or writes a 400
func (h *BaseHandler) pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON binds the body, writing the validation error response on failure
func (h *BaseHandler) bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// bindQuery binds the query string, writing the validation error response on failure
func (h *BaseHandler) bindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Paginated sends a page of items with pagination meta
func Paginated[T any](h *BaseHandler, c *gin.Context, page shared.Paginated[T]) {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	h.SuccessWithMeta(c, items, page.Total, page.Page, page.PageSize)
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 accepted response
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError maps an application error to a response. Domain errors carry
// their own code; known sentinels of the integration, scheduler and import
// layers are mapped below; anything else is a logged 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	if code, message, ok := classify(err); ok {
		h.ErrorWithCode(c, code, message)
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.DomainErrorStatus(code), code, domainErr.Message)
		return
	}

	_ = c.Error(err)
	logger.FromContext(c.Request.Context()).Error("Unhandled error",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	h.InternalError(c, "An unexpected error occurred")
}

type sentinel struct {
	err     error
	code    string
	message string
}

// sentinels is checked in order; the first errors.Is match wins. An empty
// message passes the error text through, which for file errors names the bad column or row.
var sentinels = []sentinel{
	{integration.ErrWebhookDeferred, dto.ErrCodeServiceUnavailable, "Webhook could not be applied, retry later"},
	{integration.ErrIntegrationNotFound, dto.ErrCodeNotFound, "Integration not found"},
	{integration.ErrIntegrationDisconnected, dto.ErrCodeInvalidState, "Integration is disconnected"},
	{integration.ErrSyncAlreadyInProgress, dto.ErrCodeSyncInProgress, "A sync is already running for this integration"},
	{integration.ErrInvalidPlatform, dto.ErrCodeInvalidInput, "Unsupported platform"},
	{integration.ErrPlatformNotSupported, dto.ErrCodeInvalidInput, "Platform is not supported"},
	{integration.ErrInvalidStoreURL, dto.ErrCodeInvalidInput, "Invalid store URL"},
	{integration.ErrCredentialsInvalid, dto.ErrCodeCredentialsInvalid, "Credentials are incomplete for this platform"},
	{integration.ErrPlatformAuthFailed, dto.ErrCodePlatformAuthFailed, "The platform rejected the stored credentials"},
	{integration.ErrCredentialsNotFound, dto.ErrCodePlatformAuthFailed, "No credentials are stored for this integration"},
	{integration.ErrPlatformRateLimited, dto.ErrCodePlatformUnavailable, "The platform is rate limiting requests"},
	{integration.ErrPlatformUnavailable, dto.ErrCodePlatformUnavailable, "The platform is temporarily unavailable"},
	{integration.ErrPlatformRequestFailed, dto.ErrCodePlatformUnavailable, "The platform request failed"},
	{integration.ErrPlatformInvalidResponse, dto.ErrCodePlatformUnavailable, "The platform returned an invalid response"},
	{integration.ErrInvalidSignature, dto.ErrCodeInvalidSignature, "Invalid webhook signature"},
	{integration.ErrWebhookExpired, dto.ErrCodeWebhookExpired, "Webhook timestamp outside the accepted window"},
	{integration.ErrWebhookMalformed, dto.ErrCodeWebhookMalformed, "Malformed webhook"},
	{scheduler.ErrJobQueueFull, dto.ErrCodeQueueFull, "Sync queue is full, try again later"},
	{scheduler.ErrDispatcherNotRunning, dto.ErrCodeServiceUnavailable, "Sync dispatcher is not running"},
	{csvimport.ErrFileTooLarge, dto.ErrCodePayloadTooLarge, ""},
	{csvimport.ErrTooManyRows, dto.ErrCodeInvalidFile, ""},
	{csvimport.ErrEmptyFile, dto.ErrCodeInvalidFile, ""},
	{csvimport.ErrInvalidEncoding, dto.ErrCodeInvalidFile, ""},
	{csvimport.ErrUnsupportedFileType, dto.ErrCodeInvalidFile, ""},
	{csvimport.ErrMissingHeader, dto.ErrCodeInvalidFile, ""},
	{csvimport.ErrInvalidHeader, dto.ErrCodeInvalidFile, ""},
	{csvimport.ErrMalformedCSV, dto.ErrCodeInvalidFile, ""},
	{csvimport.ErrNoDataRows, dto.ErrCodeInvalidFile, ""},
}

func classify(err error) (code, message string, ok bool) {
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			if s.message == "" {
				return s.code, err.Error(), true
			}
			return s.code, s.message, true
		}
	}
	return "", "", false
}

// queryBool reads a boolean query parameter, false when absent or malformed
func queryBool(c *gin.Context, name string) bool {
	v, err := strconv.ParseBool(c.Query(name))
	return err == nil && v
}
