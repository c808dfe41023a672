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

type examFeeService interface {
	List(ctx context.Context, q listview.Query) (listview.Page[models.ExamFee], error)
	ExportDataset(ctx context.Context, q listview.Query) (export.Dataset, error)
	Get(ctx context.Context, id string) (*models.ExamFee, error)
	Create(ctx context.Context, input service.ExamFeeInput) (*models.ExamFee, error)
	Update(ctx context.Context, id string, input service.ExamFeeInput) (*models.ExamFee, error)
	Delete(ctx context.Context, id string) error
}

// ExamFeeHandler exposes exam fee configuration endpoints.
type ExamFeeHandler struct {
	service examFeeService
	metrics *service.MetricsService
}

// NewExamFeeHandler builds a new handler.
func NewExamFeeHandler(svc examFeeService, metrics *service.MetricsService) *ExamFeeHandler {
	return &ExamFeeHandler{service: svc, metrics: metrics}
}

// List godoc
// @Summary List exam fee structures
// @Tags ExamFees
// @Produce json
// @Param search query string false "Free-text search"
// @Param export query string false "Inline export format (csv|xlsx)"
// @Success 200 {object} response.Envelope
// @Router /exam-fees [get]
func (h *ExamFeeHandler) List(c *gin.Context) {
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
		h.metrics.ObserveExport("exam_fees", format)
		serveDataset(c, data, "exam_fees", format)
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
// @Summary Get exam fee structure by id
// @Tags ExamFees
// @Produce json
// @Param id path string true "Exam fee id"
// @Success 200 {object} response.Envelope
// @Router /exam-fees/{id} [get]
func (h *ExamFeeHandler) Get(c *gin.Context) {
	fee, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// Create godoc
// @Summary Create exam fee structure
// @Tags ExamFees
// @Accept json
// @Produce json
// @Param payload body service.ExamFeeInput true "Exam fee payload"
// @Success 201 {object} response.Envelope
// @Router /exam-fees [post]
func (h *ExamFeeHandler) Create(c *gin.Context) {
	var input service.ExamFeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid exam fee payload"))
		return
	}
	fee, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fee)
}

// Update godoc
// @Summary Update exam fee structure
// @Tags ExamFees
// @Accept json
// @Produce json
// @Param id path string true "Exam fee id"
// @Param payload body service.ExamFeeInput true "Exam fee payload"
// @Success 200 {object} response.Envelope
// @Router /exam-fees/{id} [put]
func (h *ExamFeeHandler) Update(c *gin.Context) {
	var input service.ExamFeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid exam fee payload"))
		return
	}
	fee, err := h.service.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// Delete godoc
// @Summary Soft-delete exam fee structure
// @Tags ExamFees
// @Param id path string true "Exam fee id"
// @Success 204
// @Router /exam-fees/{id} [delete]
func (h *ExamFeeHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
