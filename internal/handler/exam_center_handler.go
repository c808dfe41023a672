package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-exam-api/internal/listview"
	"github.com/noah-isme/uni-exam-api/internal/models"
	"github.com/noah-isme/uni-exam-api/internal/service"
	appErrors "github.com/noah-isme/uni-exam-api/pkg/errors"
	"github.com/noah-isme/uni-exam-api/pkg/export"
	"github.com/noah-isme/uni-exam-api/pkg/response"
)

type examCenterService interface {
	List(ctx context.Context, q listview.Query) (listview.Page[models.ExamCenter], error)
	ExportDataset(ctx context.Context, q listview.Query) (export.Dataset, error)
	Get(ctx context.Context, id string) (*models.ExamCenter, error)
	Create(ctx context.Context, input service.ExamCenterInput) (*models.ExamCenter, error)
	Update(ctx context.Context, id string, input service.ExamCenterInput) (*models.ExamCenter, error)
	Delete(ctx context.Context, id string) error
}

// ExamCenterHandler exposes exam center master data endpoints.
type ExamCenterHandler struct {
	service examCenterService
	metrics *service.MetricsService
}

// NewExamCenterHandler builds a new handler.
func NewExamCenterHandler(svc examCenterService, metrics *service.MetricsService) *ExamCenterHandler {
	return &ExamCenterHandler{service: svc, metrics: metrics}
}

// List godoc
// @Summary List exam centers
// @Tags ExamCenters
// @Produce json
// @Param search query string false "Free-text search"
// @Param export query string false "Inline export format (csv|xlsx)"
// @Success 200 {object} response.Envelope
// @Router /exam-centers [get]
func (h *ExamCenterHandler) List(c *gin.Context) {
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
		h.metrics.ObserveExport("exam_centers", format)
		serveDataset(c, data, "exam_centers", format)
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
// @Summary Get exam center by id
// @Tags ExamCenters
// @Produce json
// @Param id path string true "Exam center id"
// @Success 200 {object} response.Envelope
// @Router /exam-centers/{id} [get]
func (h *ExamCenterHandler) Get(c *gin.Context) {
	center, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, center, nil)
}

// Create godoc
// @Summary Create exam center
// @Tags ExamCenters
// @Accept json
// @Produce json
// @Param payload body service.ExamCenterInput true "Exam center payload"
// @Success 201 {object} response.Envelope
// @Router /exam-centers [post]
func (h *ExamCenterHandler) Create(c *gin.Context) {
	var input service.ExamCenterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid exam center payload"))
		return
	}
	center, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, center)
}

// Update godoc
// @Summary Update exam center
// @Tags ExamCenters
// @Accept json
// @Produce json
// @Param id path string true "Exam center id"
// @Param payload body service.ExamCenterInput true "Exam center payload"
// @Success 200 {object} response.Envelope
// @Router /exam-centers/{id} [put]
func (h *ExamCenterHandler) Update(c *gin.Context) {
	var input service.ExamCenterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid exam center payload"))
		return
	}
	center, err := h.service.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, center, nil)
}

// Delete godoc
// @Summary Soft-delete exam center
// @Tags ExamCenters
// @Param id path string true "Exam center id"
// @Success 204
// @Router /exam-centers/{id} [delete]
func (h *ExamCenterHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
