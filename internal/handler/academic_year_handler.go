package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-exam-api/internal/listview"
	"github.com/noah-isme/uni-exam-api/internal/models"
	"github.com/noah-isme/uni-exam-api/internal/service"
	appErrors "github.com/noah-isme/uni-exam-api/pkg/errors"
	"github.com/noah-isme/uni-exam-api/pkg/export"
	"github.com/noah-isme/uni-exam-api/pkg/response"
)

type academicYearService interface {
	List(ctx context.Context, q listview.Query) (listview.Page[models.AcademicYear], error)
	ExportDataset(ctx context.Context, q listview.Query) (export.Dataset, error)
	Get(ctx context.Context, id string) (*models.AcademicYear, error)
	Create(ctx context.Context, input service.AcademicYearInput) (*models.AcademicYear, error)
	Update(ctx context.Context, id string, input service.AcademicYearInput) (*models.AcademicYear, error)
	Delete(ctx context.Context, id string) error
	BulkImport(ctx context.Context, r io.Reader) (*models.BulkOutcome, error)
}

// AcademicYearHandler exposes academic year master data endpoints.
type AcademicYearHandler struct {
	service       academicYearService
	metrics       *service.MetricsService
	maxUploadSize int64
}

// NewAcademicYearHandler builds a new handler.
func NewAcademicYearHandler(svc academicYearService, metrics *service.MetricsService, maxUploadSize int64) *AcademicYearHandler {
	return &AcademicYearHandler{service: svc, metrics: metrics, maxUploadSize: maxUploadSize}
}

// List godoc
// @Summary List academic years
// @Tags AcademicYears
// @Produce json
// @Param search query string false "Free-text search"
// @Param export query string false "Inline export format (csv|xlsx)"
// @Success 200 {object} response.Envelope
// @Router /academic-years [get]
func (h *AcademicYearHandler) List(c *gin.Context) {
	format, err := exportFormat(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	q := listQuery(c)

	if format != "" {
		data, err := h.service.ExportDataset(c.Request.Context(), q)
		if err != nil {
			response.Error(c, err)
			return
		}
		h.metrics.ObserveExport("academic_years", format)
		serveDataset(c, data, "academic_years", format)
		return
	}

	page, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page.Items, &page.Pagination)
}

// Get godoc
// @Summary Get academic year by id
// @Tags AcademicYears
// @Produce json
// @Param id path string true "Academic year id"
// @Success 200 {object} response.Envelope
// @Router /academic-years/{id} [get]
func (h *AcademicYearHandler) Get(c *gin.Context) {
	year, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// Create godoc
// @Summary Create academic year
// @Tags AcademicYears
// @Accept json
// @Produce json
// @Param payload body service.AcademicYearInput true "Academic year payload"
// @Success 201 {object} response.Envelope
// @Router /academic-years [post]
func (h *AcademicYearHandler) Create(c *gin.Context) {
	var input service.AcademicYearInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid academic year payload"))
		return
	}
	year, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, year)
}

// Update godoc
// @Summary Update academic year
// @Tags AcademicYears
// @Accept json
// @Produce json
// @Param id path string true "Academic year id"
// @Param payload body service.AcademicYearInput true "Academic year payload"
// @Success 200 {object} response.Envelope
// @Router /academic-years/{id} [put]
func (h *AcademicYearHandler) Update(c *gin.Context) {
	var input service.AcademicYearInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid academic year payload"))
		return
	}
	year, err := h.service.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// Delete godoc
// @Summary Soft-delete academic year
// @Tags AcademicYears
// @Param id path string true "Academic year id"
// @Success 204
// @Router /academic-years/{id} [delete]
func (h *AcademicYearHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Import godoc
// @Summary Bulk import academic years from a workbook
// @Tags AcademicYears
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Workbook (.xlsx)"
// @Success 200 {object} response.Envelope
// @Router /imports/academic-years [post]
func (h *AcademicYearHandler) Import(c *gin.Context) {
	file, err := uploadedWorkbook(c, h.maxUploadSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	outcome, err := h.service.BulkImport(c.Request.Context(), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveImport("academic_years", outcome.Inserted, outcome.Updated, outcome.Failed)
	response.JSON(c, http.StatusOK, outcome, nil)
}
