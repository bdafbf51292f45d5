package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	integrationapp "github.com/stockpilot/backend/internal/application/integration"
	"github.com/stockpilot/backend/internal/domain/shared"
)

// IntegrationService manages platform connections and their syncs
type IntegrationService interface {
	Connect(ctx context.Context, tenantID uuid.UUID, req integrationapp.ConnectIntegrationRequest) (*integrationapp.IntegrationResponse, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*integrationapp.IntegrationResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter integrationapp.IntegrationListFilter) (shared.Paginated[integrationapp.IntegrationResponse], error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	TestConnection(ctx context.Context, tenantID, id uuid.UUID) (*integrationapp.ConnectionTestResponse, error)
	TriggerSync(ctx context.Context, tenantID, id uuid.UUID, req integrationapp.TriggerSyncRequest) (*integrationapp.SyncAcceptedResponse, error)
	ListRuns(ctx context.Context, tenantID, id uuid.UUID, filter integrationapp.SyncRunListFilter) (shared.Paginated[integrationapp.SyncRunResponse], error)
}

// IntegrationHandler handles platform integration endpoints
type IntegrationHandler struct {
	BaseHandler
	integrationService IntegrationService
}

// NewIntegrationHandler creates a new IntegrationHandler
func NewIntegrationHandler(integrationService IntegrationService) *IntegrationHandler {
	return &IntegrationHandler{integrationService: integrationService}
}

// Connect godoc
// @Summary      Connect a sales platform
// @Description  Verifies the credentials against the platform, stores them in the vault and queues an initial sync
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        request body integrationapp.ConnectIntegrationRequest true "Connection"
// @Success      201 {object} APIResponse[integrationapp.IntegrationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations [post]
func (h *IntegrationHandler) Connect(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req integrationapp.ConnectIntegrationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	in, err := h.integrationService.Connect(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, in)
}

// List godoc
// @Summary      List integrations
// @Tags         integrations
// @Produce      json
// @Param        platform query string false "Platform code"
// @Param        status query string false "Integration status"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]integrationapp.IntegrationResponse]
// @Security     BearerAuth
// @Router       /integrations [get]
func (h *IntegrationHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter integrationapp.IntegrationListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.integrationService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// GetByID godoc
// @Summary      Get an integration
// @Tags         integrations
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Success      200 {object} APIResponse[integrationapp.IntegrationResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/{id} [get]
func (h *IntegrationHandler) GetByID(c *gin.Context) {
	tenantID, id, ok := h.target(c)
	if !ok {
		return
	}

	in, err := h.integrationService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, in)
}

// Delete godoc
// @Summary      Disconnect an integration
// @Description  Removes the integration and its stored credentials. Imported data is kept.
// @Description  Refused with 409 while a sync for the integration is queued or running.
// @Tags         integrations
// @Param        id path string true "Integration ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/{id} [delete]
func (h *IntegrationHandler) Delete(c *gin.Context) {
	tenantID, id, ok := h.target(c)
	if !ok {
		return
	}

	if err := h.integrationService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// TestConnection godoc
// @Summary      Ping the platform with the stored credentials
// @Description  A rejected ping is reported with ok=false, not as an error
// @Tags         integrations
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Success      200 {object} APIResponse[integrationapp.ConnectionTestResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/{id}/test [post]
func (h *IntegrationHandler) TestConnection(c *gin.Context) {
	tenantID, id, ok := h.target(c)
	if !ok {
		return
	}

	res, err := h.integrationService.TestConnection(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// TriggerSync godoc
// @Summary      Queue a sync
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Param        request body integrationapp.TriggerSyncRequest false "Sync kind"
// @Success      202 {object} APIResponse[integrationapp.SyncAcceptedResponse]
// @Failure      409 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/{id}/sync [post]
func (h *IntegrationHandler) TriggerSync(c *gin.Context) {
	tenantID, id, ok := h.target(c)
	if !ok {
		return
	}
	// the body is optional
	var req integrationapp.TriggerSyncRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	res, err := h.integrationService.TriggerSync(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, res)
}

// ListRuns godoc
// @Summary      List sync runs of an integration
// @Tags         integrations
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]integrationapp.SyncRunResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/{id}/runs [get]
func (h *IntegrationHandler) ListRuns(c *gin.Context) {
	tenantID, id, ok := h.target(c)
	if !ok {
		return
	}
	var filter integrationapp.SyncRunListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.integrationService.ListRuns(c.Request.Context(), tenantID, id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

func (h *IntegrationHandler) target(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	id, ok := h.pathUUID(c, "id")
	return tenantID, id, ok
}
