package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-exam-api/internal/listview"
	"github.com/noah-isme/uni-exam-api/internal/models"
	"github.com/noah-isme/uni-exam-api/internal/service"
	"github.com/noah-isme/uni-exam-api/pkg/export"
	"github.com/noah-isme/uni-exam-api/pkg/response"
)

type instituteServiceMock struct {
	page    listview.Page[models.Institute]
	dataset export.Dataset
	created *models.Institute
	err     error
}

func (m *instituteServiceMock) List(ctx context.Context, q listview.Query) (listview.Page[models.Institute], error) {
	return m.page, m.err
}

func (m *instituteServiceMock) ExportDataset(ctx context.Context, q listview.Query) (export.Dataset, error) {
	return m.dataset, m.err
}

func (m *instituteServiceMock) Get(ctx context.Context, id string) (*models.Institute, error) {
	return m.created, m.err
}

func (m *instituteServiceMock) Create(ctx context.Context, input service.InstituteInput) (*models.Institute, error) {
	return m.created, m.err
}

func (m *instituteServiceMock) Update(ctx context.Context, id string, input service.InstituteInput) (*models.Institute, error) {
	return m.created, m.err
}

func (m *instituteServiceMock) Delete(ctx context.Context, id string) error  { return m.err }
func (m *instituteServiceMock) Restore(ctx context.Context, id string) error { return m.err }

func (m *instituteServiceMock) BulkImport(ctx context.Context, r io.Reader) (*models.BulkOutcome, error) {
	return &models.BulkOutcome{}, m.err
}

func newInstituteTestContext(t *testing.T, method, target string, body io.Reader) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, target, body)
	require.NoError(t, err)
	c.Request = req
	return c, w
}

func TestInstituteHandlerListReturnsEnvelope(t *testing.T) {
	mock := &instituteServiceMock{
		page: listview.Page[models.Institute]{
			Items:      []models.Institute{{ID: "uuid-1", InstituteID: "INST-1", Name: "Science College"}},
			Pagination: models.Pagination{Page: 1, PageSize: 10, TotalCount: 1},
		},
	}
	handler := NewInstituteHandler(mock, service.NewMetricsService(), 1<<20)

	c, w := newInstituteTestContext(t, http.MethodGet, "/institutes?search=science&page=1", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 1, envelope.Pagination.TotalCount)
}

func TestInstituteHandlerListExportCSV(t *testing.T) {
	mock := &instituteServiceMock{
		dataset: export.Dataset{
			Headers: []string{"Institute ID", "Name"},
			Rows:    []map[string]string{{"Institute ID": "INST-1", "Name": "Science College"}},
		},
	}
	handler := NewInstituteHandler(mock, service.NewMetricsService(), 1<<20)

	c, w := newInstituteTestContext(t, http.MethodGet, "/institutes?export=csv", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), `institutes_export.csv`)
	assert.True(t, strings.HasPrefix(w.Body.String(), "Institute ID,Name"))
}

func TestInstituteHandlerListRejectsUnknownExportFormat(t *testing.T) {
	handler := NewInstituteHandler(&instituteServiceMock{}, service.NewMetricsService(), 1<<20)

	c, w := newInstituteTestContext(t, http.MethodGet, "/institutes?export=pdf", nil)
	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInstituteHandlerCreateInvalidBody(t *testing.T) {
	handler := NewInstituteHandler(&instituteServiceMock{}, service.NewMetricsService(), 1<<20)

	c, w := newInstituteTestContext(t, http.MethodPost, "/institutes", bytes.NewReader([]byte(`not json`)))
	c.Request.Header.Set("Content-Type", "application/json")
	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInstituteHandlerImportRequiresFile(t *testing.T) {
	handler := NewInstituteHandler(&instituteServiceMock{}, service.NewMetricsService(), 1<<20)

	c, w := newInstituteTestContext(t, http.MethodPost, "/imports/institutes", nil)
	handler.Import(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
