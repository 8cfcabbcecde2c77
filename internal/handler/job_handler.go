package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/proceso-api/internal/dto"
	"github.com/noah-isme/proceso-api/pkg/response"
)

type jobService interface {
	Status(ctx context.Context, runID string) (*dto.JobRunResponse, error)
	Cancel(ctx context.Context, runID string) (*dto.JobRunResponse, error)
}

// JobHandler exposes background job runs.
type JobHandler struct {
	service jobService
}

// NewJobHandler constructs the handler.
func NewJobHandler(service jobService) *JobHandler {
	return &JobHandler{service: service}
}

// Status godoc
// @Summary Job run status
// @Tags Jobs
// @Produce json
// @Param runId path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /jobs/{runId} [get]
func (h *JobHandler) Status(c *gin.Context) {
	run, err := h.service.Status(c.Request.Context(), c.Param("runId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}

// Cancel godoc
// @Summary Cancel a job run
// @Tags Jobs
// @Produce json
// @Param runId path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /jobs/{runId}/cancel [post]
func (h *JobHandler) Cancel(c *gin.Context) {
	run, err := h.service.Cancel(c.Request.Context(), c.Param("runId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}
