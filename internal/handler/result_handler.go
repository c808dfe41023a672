package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-exam-api/internal/models"
	"github.com/noah-isme/uni-exam-api/pkg/response"
)

type resultService interface {
	Get(ctx context.Context, examGroupID string) (*models.Result, error)
	Preview(ctx context.Context, examGroupID string) ([]models.ResultLine, error)
	Declare(ctx context.Context, examGroupID, declaredBy string) (*models.Result, error)
	SaveDraft(ctx context.Context, examGroupID string) (*models.Result, error)
}

// ResultHandler exposes result preview and declaration endpoints scoped to an
// exam group.
type ResultHandler struct {
	service resultService
}

// NewResultHandler builds a new handler.
func NewResultHandler(svc resultService) *ResultHandler {
	return &ResultHandler{service: svc}
}

// Get godoc
// @Summary Get the stored result for an exam group
// @Tags Results
// @Produce json
// @Param id path string true "Exam group id"
// @Success 200 {object} response.Envelope
// @Router /exam-groups/{id}/result [get]
func (h *ResultHandler) Get(c *gin.Context) {
	result, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Preview godoc
// @Summary Preview aggregated result lines without persisting
// @Tags Results
// @Produce json
// @Param id path string true "Exam group id"
// @Success 200 {object} response.Envelope
// @Router /exam-groups/{id}/result/preview [get]
func (h *ResultHandler) Preview(c *gin.Context) {
	lines, err := h.service.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lines, nil)
}

// SaveDraft godoc
// @Summary Save a draft result snapshot for an exam group
// @Tags Results
// @Produce json
// @Param id path string true "Exam group id"
// @Success 200 {object} response.Envelope
// @Router /exam-groups/{id}/result/draft [post]
func (h *ResultHandler) SaveDraft(c *gin.Context) {
	result, err := h.service.SaveDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Declare godoc
// @Summary Declare the result for an exam group (irreversible)
// @Tags Results
// @Produce json
// @Param id path string true "Exam group id"
// @Success 200 {object} response.Envelope
// @Router /exam-groups/{id}/result/declare [post]
func (h *ResultHandler) Declare(c *gin.Context) {
	declaredBy := ""
	if claims := claimsFromContext(c); claims != nil {
		declaredBy = claims.Email
	}
	result, err := h.service.Declare(c.Request.Context(), c.Param("id"), declaredBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
