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

type instituteService interface {
	List(ctx context.Context, q listview.Query) (listview.Page[models.Institute], error)
	ExportDataset(ctx context.Context, q listview.Query) (export.Dataset, error)
	Get(ctx context.Context, id string) (*models.Institute, error)
	Create(ctx context.Context, input service.InstituteInput) (*models.Institute, error)
	Update(ctx context.Context, id string, input service.InstituteInput) (*models.Institute, error)
	Delete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	BulkImport(ctx context.Context, r io.Reader) (*models.BulkOutcome, error)
}

// InstituteHandler exposes institute master data endpoints.
type InstituteHandler struct {
	service       instituteService
	metrics       *service.MetricsService
	maxUploadSize int64
}

// NewInstituteHandler builds a new handler.
func NewInstituteHandler(svc instituteService, metrics *service.MetricsService, maxUploadSize int64) *InstituteHandler {
	return &InstituteHandler{service: svc, metrics: metrics, maxUploadSize: maxUploadSize}
}

// List godoc
// @Summary List institutes
// @Tags Institutes
// @Produce json
// @Param search query string false "Free-text search"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param export query string false "Inline export format (csv|xlsx)"
// @Success 200 {object} response.Envelope
// @Router /institutes [get]
func (h *InstituteHandler) List(c *gin.Context) {
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
		h.metrics.ObserveExport("institutes", format)
		serveDataset(c, data, "institutes", format)
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
// @Summary Get institute by id
// @Tags Institutes
// @Produce json
// @Param id path string true "Institute id"
// @Success 200 {object} response.Envelope
// @Router /institutes/{id} [get]
func (h *InstituteHandler) Get(c *gin.Context) {
	institute, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, institute, nil)
}

// Create godoc
// @Summary Create institute
// @Tags Institutes
// @Accept json
// @Produce json
// @Param payload body service.InstituteInput true "Institute payload"
// @Success 201 {object} response.Envelope
// @Router /institutes [post]
func (h *InstituteHandler) Create(c *gin.Context) {
	var input service.InstituteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid institute payload"))
		return
	}
	institute, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, institute)
}

// Update godoc
// @Summary Update institute
// @Tags Institutes
// @Accept json
// @Produce json
// @Param id path string true "Institute id"
// @Param payload body service.InstituteInput true "Institute payload"
// @Success 200 {object} response.Envelope
// @Router /institutes/{id} [put]
func (h *InstituteHandler) Update(c *gin.Context) {
	var input service.InstituteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid institute payload"))
		return
	}
	institute, err := h.service.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, institute, nil)
}

// Delete godoc
// @Summary Soft-delete institute
// @Tags Institutes
// @Param id path string true "Institute id"
// @Success 204
// @Router /institutes/{id} [delete]
func (h *InstituteHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Restore godoc
// @Summary Restore a soft-deleted institute
// @Tags Institutes
// @Param id path string true "Institute id"
// @Success 204
// @Router /institutes/{id}/restore [post]
func (h *InstituteHandler) Restore(c *gin.Context) {
	if err := h.service.Restore(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Import godoc
// @Summary Bulk import institutes from a workbook
// @Tags Institutes
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Workbook (.xlsx)"
// @Success 200 {object} response.Envelope
// @Router /imports/institutes [post]
func (h *InstituteHandler) Import(c *gin.Context) {
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
	h.metrics.ObserveImport("institutes", outcome.Inserted, outcome.Updated, outcome.Failed)
	response.JSON(c, http.StatusOK, outcome, nil)
}
