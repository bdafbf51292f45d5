package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	importapp "github.com/stockpilot/backend/internal/application/import"
	csvimport "github.com/stockpilot/backend/internal/infrastructure/import"
	"github.com/stockpilot/backend/internal/interfaces/http/dto"
)

// MockImporter implements Importer for testing
type MockImporter struct {
	mock.Mock
}

func (m *MockImporter) Validate(ctx context.Context, tenantID uuid.UUID, data []byte) (*csvimport.Result, error) {
	args := m.Called(ctx, tenantID, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*csvimport.Result), args.Error(1)
}

func (m *MockImporter) Import(ctx context.Context, tenantID uuid.UUID, data []byte, mode importapp.ConflictMode) (*importapp.ImportResult, error) {
	args := m.Called(ctx, tenantID, data, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*importapp.ImportResult), args.Error(1)
}

const productCSV = "title,sku,price\nCanvas Tote,TOTE-NAT,25.00\n"

func importRouter(tenantID uuid.UUID, products, suppliers Importer) *gin.Engine {
	h := NewImportHandler(products, suppliers)
	r := tenantRouter(tenantID)
	r.POST("/imports/:entity/validate", h.Validate)
	r.POST("/imports/:entity", h.Import)
	return r
}

// upload posts a multipart form with an optional file and extra fields
func upload(t *testing.T, r http.Handler, path string, file []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if file != nil {
		fw, err := mw.CreateFormFile("file", "products.csv")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestImportHandler_Validate(t *testing.T) {
	tenantID := uuid.New()
	products := new(MockImporter)
	products.On("Validate", mock.Anything, tenantID, []byte(productCSV)).
		Return(&csvimport.Result{TotalRows: 1, ValidRows: 1, Errors: []csvimport.RowError{}}, nil)

	w := upload(t, importRouter(tenantID, products, new(MockImporter)), "/imports/products/validate", []byte(productCSV), nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decodeData[csvimport.Result](t, w)
	assert.Equal(t, 1, got.ValidRows)
	products.AssertExpectations(t)
}

func TestImportHandler_Import(t *testing.T) {
	tenantID := uuid.New()

	t.Run("defaults to skip", func(t *testing.T) {
		suppliers := new(MockImporter)
		suppliers.On("Import", mock.Anything, tenantID, mock.Anything, importapp.ConflictModeSkip).
			Return(&importapp.ImportResult{Mode: importapp.ConflictModeSkip, TotalRows: 2, ImportedRows: 2}, nil)

		w := upload(t, importRouter(tenantID, new(MockImporter), suppliers), "/imports/suppliers",
			[]byte("name\nNorthwind\nContoso\n"), nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, 2, decodeData[importapp.ImportResult](t, w).ImportedRows)
		suppliers.AssertExpectations(t)
	})

	t.Run("fail mode rejection carries row errors", func(t *testing.T) {
		products := new(MockImporter)
		rejected := &importapp.ImportResult{
			Mode:      importapp.ConflictModeFail,
			TotalRows: 2,
			ErrorRows: 1,
			Errors:    []csvimport.RowError{csvimport.NewRowError(3, "price", "ERR_REQUIRED", "price is required")},
		}
		products.On("Import", mock.Anything, tenantID, mock.Anything, importapp.ConflictModeFail).
			Return(nil, &importapp.RejectedError{Result: rejected})

		w := upload(t, importRouter(tenantID, products, new(MockImporter)), "/imports/products",
			[]byte(productCSV), map[string]string{"conflict_mode": "fail"})

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		env := decode(t, w)
		assert.Equal(t, dto.ErrCodeImportRejected, env.Error.Code)
		assert.Contains(t, string(env.Data), `"error_rows":1`)
	})

	t.Run("unknown conflict mode", func(t *testing.T) {
		products := new(MockImporter)

		w := upload(t, importRouter(tenantID, products, new(MockImporter)), "/imports/products",
			[]byte(productCSV), map[string]string{"conflict_mode": "merge"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidInput, errorCode(t, w))
		products.AssertNotCalled(t, "Import", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("file errors", func(t *testing.T) {
		products := new(MockImporter)
		products.On("Import", mock.Anything, tenantID, mock.Anything, importapp.ConflictModeSkip).
			Return(nil, csvimport.ErrMissingHeader)

		w := upload(t, importRouter(tenantID, products, new(MockImporter)), "/imports/products", []byte("x"), nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidFile, errorCode(t, w))
	})
}

func TestImportHandler_BadRequests(t *testing.T) {
	tenantID := uuid.New()
	r := importRouter(tenantID, new(MockImporter), new(MockImporter))

	w := upload(t, r, "/imports/orders", []byte(productCSV), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = upload(t, r, "/imports/products", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, errorCode(t, w))
}
