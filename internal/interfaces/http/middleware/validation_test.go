package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpilot/backend/internal/interfaces/http/dto"
)

type validationInput struct {
	Email    string `json:"email" binding:"required,email"`
	Age      int    `json:"age" binding:"required,min=18"`
	SKU      string `json:"sku" binding:"omitempty,sku"`
	Platform string `json:"platform" binding:"omitempty,platform_code"`
}

func newValidationRouter() *gin.Engine {
	RegisterValidators()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req validationInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleValidationError(t *testing.T) {
	router := newValidationRouter()

	tests := []struct {
		name       string
		body       string
		wantCode   int
		wantFields map[string]string
	}{
		{
			name:     "valid input",
			body:     `{"email":"a@b.io","age":30,"sku":"SKU-1","platform":"SHOPIFY"}`,
			wantCode: http.StatusOK,
		},
		{
			name:       "field errors use json names",
			body:       `{"email":"nope","age":10}`,
			wantCode:   http.StatusBadRequest,
			wantFields: map[string]string{"email": "email", "age": "min"},
		},
		{
			name:       "sku with whitespace",
			body:       `{"email":"a@b.io","age":30,"sku":"BAD SKU"}`,
			wantCode:   http.StatusBadRequest,
			wantFields: map[string]string{"sku": "sku"},
		},
		{
			name:       "unknown platform",
			body:       `{"email":"a@b.io","age":30,"platform":"ETSY"}`,
			wantCode:   http.StatusBadRequest,
			wantFields: map[string]string{"platform": "platform_code"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(router, tt.body)
			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantFields == nil {
				return
			}

			var resp dto.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)

			got := map[string]string{}
			for _, d := range resp.Error.Details {
				got[d.Field] = d.Tag
			}
			assert.Equal(t, tt.wantFields, got)
		})
	}
}

func TestHandleValidationError_MalformedJSON(t *testing.T) {
	rec := postJSON(newValidationRouter(), `{"email":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), dto.ErrCodeInvalidJSON)
}

func TestRegisterValidators_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		RegisterValidators()
		RegisterValidators()
	})
}
