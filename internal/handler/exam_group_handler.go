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

type examGroupService interface {
	List(ctx context.Context, q listview.Query) (listview.Page[models.ExamGroup], error)
	ExportDataset(ctx context.Context, q listview.Query) (export.Dataset, error)
	Get(ctx context.Context, id string) (*models.ExamGroup, error)
	Create(ctx context.Context, input service.ExamGroupInput) (*models.ExamGroup, error)
	Update(ctx context.Context, id string, input service.ExamGroupInput) (*models.ExamGroup, error)
	Delete(ctx context.Context, id string) error
}

// ExamGroupHandler exposes exam group configuration endpoints.
type ExamGroupHandler struct {
	service examGroupService
	metrics *service.MetricsService
}

// NewExamGroupHandler builds a new handler.
func NewExamGroupHandler(svc examGroupService, metrics *service.MetricsService) *ExamGroupHandler {
	return &ExamGroupHandler{service: svc, metrics: metrics}
}

// List godoc
// @Summary List exam groups
// @Tags ExamGroups
// @Produce json
// @Param search query string false "Free-text search"
// @Param export query string false "Inline export format (csv|xlsx)"
// @Success 200 {object} response.Envelope
// @Router /exam-groups [get]
func (h *ExamGroupHandler) List(c *gin.Context) {
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
		h.metrics.ObserveExport("exam_groups", format)
		serveDataset(c, data, "exam_groups", format)
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
// @Summary Get exam group by id
// @Tags ExamGroups
// @Produce json
// @Param id path string true "Exam group id"
// @Success 200 {object} response.Envelope
// @Router /exam-groups/{id} [get]
func (h *ExamGroupHandler) Get(c *gin.Context) {
	group, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Create godoc
// @Summary Create exam group with examiners and course list
// @Tags ExamGroups
// @Accept json
// @Produce json
// @Param payload body service.ExamGroupInput true "Exam group payload"
// @Success 201 {object} response.Envelope
// @Router /exam-groups [post]
func (h *ExamGroupHandler) Create(c *gin.Context) {
	var input service.ExamGroupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid exam group payload"))
		return
	}
	group, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// Update godoc
// @Summary Update exam group (nested lists are replaced wholesale)
// @Tags ExamGroups
// @Accept json
// @Produce json
// @Param id path string true "Exam group id"
// @Param payload body service.ExamGroupInput true "Exam group payload"
// @Success 200 {object} response.Envelope
// @Router /exam-groups/{id} [put]
func (h *ExamGroupHandler) Update(c *gin.Context) {
	var input service.ExamGroupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid exam group payload"))
		return
	}
	group, err := h.service.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Delete godoc
// @Summary Soft-delete exam group
// @Tags ExamGroups
// @Param id path string true "Exam group id"
// @Success 204
// @Router /exam-groups/{id} [delete]
func (h *ExamGroupHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
