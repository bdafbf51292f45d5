package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/domain/shared"
	csvimport "github.com/stockpilot/backend/internal/infrastructure/import"
	"github.com/stockpilot/backend/internal/infrastructure/scheduler"
	"github.com/stockpilot/backend/internal/interfaces/http/dto"
)

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantErrCode string
		wantMessage string
	}{
		{"domain not found", shared.NewDomainError("NOT_FOUND", "Product not found"), http.StatusNotFound, dto.ErrCodeNotFound, "Product not found"},
		{"unmapped domain rule", shared.NewDomainError("INVALID_PRICE", "Price cannot be negative"), http.StatusUnprocessableEntity, "ERR_INVALID_PRICE", "Price cannot be negative"},
		{"wrapped domain error", fmt.Errorf("save: %w", shared.NewDomainError("ALREADY_EXISTS", "dup")), http.StatusConflict, dto.ErrCodeAlreadyExists, "dup"},
		{"integration sentinel", fmt.Errorf("find: %w", integration.ErrIntegrationNotFound), http.StatusNotFound, dto.ErrCodeNotFound, "Integration not found"},
		{"platform outage", integration.ErrPlatformUnavailable, http.StatusBadGateway, dto.ErrCodePlatformUnavailable, "The platform is temporarily unavailable"},
		{"dispatcher stopped", scheduler.ErrDispatcherNotRunning, http.StatusServiceUnavailable, dto.ErrCodeServiceUnavailable, "Sync dispatcher is not running"},
		{"file error passes text", fmt.Errorf("%w: line 4", csvimport.ErrMalformedCSV), http.StatusBadRequest, dto.ErrCodeInvalidFile, ""},
		{"file too large", csvimport.ErrFileTooLarge, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, ""},
		{"anything else", errors.New("pq: deadlock detected"), http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			r := gin.New()
			r.GET("/x", func(c *gin.Context) { h.HandleError(c, tt.err) })

			w := doJSON(t, r, http.MethodGet, "/x", nil)

			assert.Equal(t, tt.wantCode, w.Code)
			env := decode(t, w)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantErrCode, env.Error.Code)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, env.Error.Message)
			} else {
				assert.Equal(t, tt.err.Error(), env.Error.Message)
			}
		})
	}
}

func TestBaseHandler_HandleErrorNilIsNoop(t *testing.T) {
	h := &BaseHandler{}
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		h.HandleError(c, nil)
		c.Status(http.StatusTeapot)
	})

	w := doJSON(t, r, http.MethodGet, "/x", nil)

	assert.Equal(t, http.StatusTeapot, w.Code)
}
