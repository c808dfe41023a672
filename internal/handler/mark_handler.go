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

type markService interface {
	List(ctx context.Context, examGroupID string, q listview.Query) (listview.Page[models.Mark], error)
	ExportDataset(ctx context.Context, examGroupID string, q listview.Query) (export.Dataset, error)
	Enter(ctx context.Context, examGroupID string, input service.MarkInput) (*models.Mark, error)
	Delete(ctx context.Context, id string) error
	BulkImport(ctx context.Context, examGroupID string, r io.Reader) (*models.BulkOutcome, error)
}

// MarkHandler exposes mark entry endpoints scoped to an exam group.
type MarkHandler struct {
	service       markService
	metrics       *service.MetricsService
	maxUploadSize int64
}

// NewMarkHandler builds a new handler.
func NewMarkHandler(svc markService, metrics *service.MetricsService, maxUploadSize int64) *MarkHandler {
	return &MarkHandler{service: svc, metrics: metrics, maxUploadSize: maxUploadSize}
}

// List godoc
// @Summary List marks for an exam group
// @Tags Marks
// @Produce json
// @Param id path string true "Exam group id"
// @Param search query string false "Free-text search"
// @Param export query string false "Inline export format (csv|xlsx)"
// @Success 200 {object} response.Envelope
// @Router /exam-groups/{id}/marks [get]
func (h *MarkHandler) List(c *gin.Context) {
	format, err := exportFormat(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	groupID := c.Param("id")
	q := listQuery(c)

	if format != "" {
		data, err := h.service.ExportDataset(c.Request.Context(), groupID, q)
		if err != nil {
			response.Error(c, err)
			return
		}
		h.metrics.ObserveExport("marks", format)
		serveDataset(c, data, "marks", format)
		return
	}

	page, err := h.service.List(c.Request.Context(), groupID, q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page.Items, &page.Pagination)
}

// Enter godoc
// @Summary Enter or overwrite a mark (upsert on student and course)
// @Tags Marks
// @Accept json
// @Produce json
// @Param id path string true "Exam group id"
// @Param payload body service.MarkInput true "Mark payload"
// @Success 200 {object} response.Envelope
// @Router /exam-groups/{id}/marks [post]
func (h *MarkHandler) Enter(c *gin.Context) {
	var input service.MarkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mark payload"))
		return
	}
	mark, err := h.service.Enter(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mark, nil)
}

// Delete godoc
// @Summary Delete a mark (blocked once the result is declared)
// @Tags Marks
// @Param markId path string true "Mark id"
// @Success 204
// @Router /marks/{markId} [delete]
func (h *MarkHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("markId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Import godoc
// @Summary Bulk import marks for an exam group from a workbook
// @Tags Marks
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Exam group id"
// @Param file formData file true "Workbook (.xlsx)"
// @Success 200 {object} response.Envelope
// @Router /exam-groups/{id}/marks/upload [post]
func (h *MarkHandler) Import(c *gin.Context) {
	file, err := uploadedWorkbook(c, h.maxUploadSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	outcome, err := h.service.BulkImport(c.Request.Context(), c.Param("id"), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveImport("marks", outcome.Inserted, outcome.Updated, outcome.Failed)
	response.JSON(c, http.StatusOK, outcome, nil)
}
