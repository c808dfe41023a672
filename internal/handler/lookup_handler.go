package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-exam-api/internal/listview"
	"github.com/noah-isme/uni-exam-api/internal/models"
	"github.com/noah-isme/uni-exam-api/internal/service"
	appErrors "github.com/noah-isme/uni-exam-api/pkg/errors"
	"github.com/noah-isme/uni-exam-api/pkg/export"
	"github.com/noah-isme/uni-exam-api/pkg/response"
)

type lookupService interface {
	List(ctx context.Context, kind models.LookupKind, q listview.Query) (listview.Page[models.LookupItem], error)
	ExportDataset(ctx context.Context, kind models.LookupKind, q listview.Query) (export.Dataset, error)
	Get(ctx context.Context, kind models.LookupKind, id string) (*models.LookupItem, error)
	Create(ctx context.Context, kind models.LookupKind, input service.LookupInput) (*models.LookupItem, error)
	Update(ctx context.Context, kind models.LookupKind, id string, input service.LookupInput) (*models.LookupItem, error)
	Delete(ctx context.Context, kind models.LookupKind, id string) error
}

// LookupHandler serves one flat master data set (streams, degrees or
// categories); the kind is fixed at construction so each set mounts as its
// own resource.
type LookupHandler struct {
	service lookupService
	metrics *service.MetricsService
	kind    models.LookupKind
	slug    string
}

// NewLookupHandler builds a handler bound to one lookup kind.
func NewLookupHandler(svc lookupService, metrics *service.MetricsService, kind models.LookupKind) *LookupHandler {
	return &LookupHandler{service: svc, metrics: metrics, kind: kind, slug: strings.ToLower(string(kind)) + "s"}
}

// List godoc
// @Summary List lookup records (streams, degrees, categories)
// @Tags Lookups
// @Produce json
// @Param search query string false "Free-text search"
// @Param export query string false "Inline export format (csv|xlsx)"
// @Success 200 {object} response.Envelope
// @Router /streams [get]
func (h *LookupHandler) List(c *gin.Context) {
	format, err := exportFormat(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	q := listQuery(c)

	if format != "" {
		data, err := h.service.ExportDataset(c.Request.Context(), h.kind, q)
		if err != nil {
			response.Error(c, err)
			return
		}
		h.metrics.ObserveExport(h.slug, format)
		serveDataset(c, data, h.slug, format)
		return
	}

	page, err := h.service.List(c.Request.Context(), h.kind, q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page.Items, &page.Pagination)
}

// Get godoc
// @Summary Get lookup record by id
// @Tags Lookups
// @Produce json
// @Param id path string true "Record id"
// @Success 200 {object} response.Envelope
// @Router /streams/{id} [get]
func (h *LookupHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), h.kind, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create lookup record
// @Tags Lookups
// @Accept json
// @Produce json
// @Param payload body service.LookupInput true "Lookup payload"
// @Success 201 {object} response.Envelope
// @Router /streams [post]
func (h *LookupHandler) Create(c *gin.Context) {
	var input service.LookupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lookup payload"))
		return
	}
	item, err := h.service.Create(c.Request.Context(), h.kind, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update lookup record
// @Tags Lookups
// @Accept json
// @Produce json
// @Param id path string true "Record id"
// @Param payload body service.LookupInput true "Lookup payload"
// @Success 200 {object} response.Envelope
// @Router /streams/{id} [put]
func (h *LookupHandler) Update(c *gin.Context) {
	var input service.LookupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lookup payload"))
		return
	}
	item, err := h.service.Update(c.Request.Context(), h.kind, c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete lookup record (policy depends on the set)
// @Tags Lookups
// @Param id path string true "Record id"
// @Success 204
// @Router /streams/{id} [delete]
func (h *LookupHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), h.kind, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
