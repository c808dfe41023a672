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

type attendanceRuleService interface {
	List(ctx context.Context, q listview.Query) (listview.Page[models.AttendanceRule], error)
	ExportDataset(ctx context.Context, q listview.Query) (export.Dataset, error)
	Get(ctx context.Context, id string) (*models.AttendanceRule, error)
	Create(ctx context.Context, input service.AttendanceRuleInput) (*models.AttendanceRule, error)
	Update(ctx context.Context, id string, input service.AttendanceRuleInput) (*models.AttendanceRule, error)
	Delete(ctx context.Context, id string) error
}

// AttendanceRuleHandler exposes attendance rule configuration endpoints.
type AttendanceRuleHandler struct {
	service attendanceRuleService
	metrics *service.MetricsService
}

// NewAttendanceRuleHandler builds a new handler.
func NewAttendanceRuleHandler(svc attendanceRuleService, metrics *service.MetricsService) *AttendanceRuleHandler {
	return &AttendanceRuleHandler{service: svc, metrics: metrics}
}

// List godoc
// @Summary List attendance rules
// @Tags AttendanceRules
// @Produce json
// @Param search query string false "Free-text search"
// @Param export query string false "Inline export format (csv|xlsx)"
// @Success 200 {object} response.Envelope
// @Router /attendance-rules [get]
func (h *AttendanceRuleHandler) List(c *gin.Context) {
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
		h.metrics.ObserveExport("attendance_rules", format)
		serveDataset(c, data, "attendance_rules", format)
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
// @Summary Get attendance rule by id
// @Tags AttendanceRules
// @Produce json
// @Param id path string true "Attendance rule id"
// @Success 200 {object} response.Envelope
// @Router /attendance-rules/{id} [get]
func (h *AttendanceRuleHandler) Get(c *gin.Context) {
	rule, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// Create godoc
// @Summary Create attendance rule
// @Tags AttendanceRules
// @Accept json
// @Produce json
// @Param payload body service.AttendanceRuleInput true "Attendance rule payload"
// @Success 201 {object} response.Envelope
// @Router /attendance-rules [post]
func (h *AttendanceRuleHandler) Create(c *gin.Context) {
	var input service.AttendanceRuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance rule payload"))
		return
	}
	rule, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// Update godoc
// @Summary Update attendance rule
// @Tags AttendanceRules
// @Accept json
// @Produce json
// @Param id path string true "Attendance rule id"
// @Param payload body service.AttendanceRuleInput true "Attendance rule payload"
// @Success 200 {object} response.Envelope
// @Router /attendance-rules/{id} [put]
func (h *AttendanceRuleHandler) Update(c *gin.Context) {
	var input service.AttendanceRuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance rule payload"))
		return
	}
	rule, err := h.service.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// Delete godoc
// @Summary Soft-delete attendance rule
// @Tags AttendanceRules
// @Param id path string true "Attendance rule id"
// @Success 204
// @Router /attendance-rules/{id} [delete]
func (h *AttendanceRuleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
