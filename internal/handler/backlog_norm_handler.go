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

type backlogNormService interface {
	List(ctx context.Context, q listview.Query) (listview.Page[models.BacklogNorm], error)
	ExportDataset(ctx context.Context, q listview.Query) (export.Dataset, error)
	Get(ctx context.Context, id string) (*models.BacklogNorm, error)
	Create(ctx context.Context, input service.BacklogNormInput) (*models.BacklogNorm, error)
	Update(ctx context.Context, id string, input service.BacklogNormInput) (*models.BacklogNorm, error)
	Delete(ctx context.Context, id string) error
}

// BacklogNormHandler exposes backlog norm configuration endpoints.
type BacklogNormHandler struct {
	service backlogNormService
	metrics *service.MetricsService
}

// NewBacklogNormHandler builds a new handler.
func NewBacklogNormHandler(svc backlogNormService, metrics *service.MetricsService) *BacklogNormHandler {
	return &BacklogNormHandler{service: svc, metrics: metrics}
}

// List godoc
// @Summary List backlog norms
// @Tags BacklogNorms
// @Produce json
// @Param search query string false "Free-text search"
// @Param export query string false "Inline export format (csv|xlsx)"
// @Success 200 {object} response.Envelope
// @Router /backlog-norms [get]
func (h *BacklogNormHandler) List(c *gin.Context) {
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
		h.metrics.ObserveExport("backlog_norms", format)
		serveDataset(c, data, "backlog_norms", format)
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
// @Summary Get backlog norm by id
// @Tags BacklogNorms
// @Produce json
// @Param id path string true "Backlog norm id"
// @Success 200 {object} response.Envelope
// @Router /backlog-norms/{id} [get]
func (h *BacklogNormHandler) Get(c *gin.Context) {
	norm, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, norm, nil)
}

// Create godoc
// @Summary Create backlog norm
// @Tags BacklogNorms
// @Accept json
// @Produce json
// @Param payload body service.BacklogNormInput true "Backlog norm payload"
// @Success 201 {object} response.Envelope
// @Router /backlog-norms [post]
func (h *BacklogNormHandler) Create(c *gin.Context) {
	var input service.BacklogNormInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid backlog norm payload"))
		return
	}
	norm, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, norm)
}

// Update godoc
// @Summary Update backlog norm
// @Tags BacklogNorms
// @Accept json
// @Produce json
// @Param id path string true "Backlog norm id"
// @Param payload body service.BacklogNormInput true "Backlog norm payload"
// @Success 200 {object} response.Envelope
// @Router /backlog-norms/{id} [put]
func (h *BacklogNormHandler) Update(c *gin.Context) {
	var input service.BacklogNormInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid backlog norm payload"))
		return
	}
	norm, err := h.service.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, norm, nil)
}

// Delete godoc
// @Summary Delete backlog norm permanently
// @Tags BacklogNorms
// @Param id path string true "Backlog norm id"
// @Success 204
// @Router /backlog-norms/{id} [delete]
func (h *BacklogNormHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
