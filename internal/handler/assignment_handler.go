package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/proceso-api/internal/dto"
	"github.com/noah-isme/proceso-api/internal/models"
	appErrors "github.com/noah-isme/proceso-api/pkg/errors"
	"github.com/noah-isme/proceso-api/pkg/response"
)

type assignmentService interface {
	Assign(ctx context.Context, activityID string, userIDs []string, referrerID string) (string, error)
	RSVP(ctx context.Context, activityID, userID string, accept bool) (*models.FacultyAssignment, error)
	Unassign(ctx context.Context, activityID string, userIDs []string) (string, error)
	Request(ctx context.Context, activityID, requesterID string) (string, error)
	ListFaculty(ctx context.Context, activityID string) ([]models.AssignedFaculty, error)
	SearchFaculty(ctx context.Context, term string, limit int) ([]models.User, error)
}

// AssignmentHandler exposes the faculty assignment workflow.
type AssignmentHandler struct {
	service assignmentService
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(service assignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: service}
}

// ListFaculty godoc
// @Summary List assigned faculty
// @Tags Assignments
// @Produce json
// @Param id path string true "Activity ID"
// @Success 200 {object} response.Envelope
// @Router /activities/{id}/faculty [get]
func (h *AssignmentHandler) ListFaculty(c *gin.Context) {
	rows, err := h.service.ListFaculty(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Assign godoc
// @Summary Nominate faculty
// @Description Assigns faculty and queues their nomination notice.
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param payload body dto.FacultyAssignmentRequest true "Faculty ids"
// @Success 202 {object} response.Envelope
// @Router /activities/{id}/faculty [post]
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req dto.FacultyAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	runID, err := h.service.Assign(c.Request.Context(), c.Param("id"), req.UserIDs, claimsFromContext(c).Principal())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.JobAcceptedResponse{RunID: runID})
}

// Unassign godoc
// @Summary Remove faculty
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param payload body dto.FacultyAssignmentRequest true "Faculty ids"
// @Success 202 {object} response.Envelope
// @Router /activities/{id}/faculty [delete]
func (h *AssignmentHandler) Unassign(c *gin.Context) {
	var req dto.FacultyAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	runID, err := h.service.Unassign(c.Request.Context(), c.Param("id"), req.UserIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.JobAcceptedResponse{RunID: runID})
}

// RSVP godoc
// @Summary Answer a nomination
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param payload body dto.RSVPRequest true "Answer"
// @Success 200 {object} response.Envelope
// @Router /activities/{id}/rsvp [post]
func (h *AssignmentHandler) RSVP(c *gin.Context) {
	var req dto.RSVPRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Accept == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "accept is required"))
		return
	}
	claims := claimsFromContext(c)
	if claims.Principal() == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	assignment, err := h.service.RSVP(c.Request.Context(), c.Param("id"), claims.Principal(), *req.Accept)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Request godoc
// @Summary Ask faculty to volunteer
// @Tags Assignments
// @Produce json
// @Param id path string true "Activity ID"
// @Success 202 {object} response.Envelope
// @Router /activities/{id}/request [post]
func (h *AssignmentHandler) Request(c *gin.Context) {
	runID, err := h.service.Request(c.Request.Context(), c.Param("id"), claimsFromContext(c).Principal())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.JobAcceptedResponse{RunID: runID})
}

// SearchFaculty godoc
// @Summary Search faculty
// @Tags Assignments
// @Produce json
// @Param q query string false "Name or email fragment"
// @Param limit query int false "Maximum results"
// @Success 200 {object} response.Envelope
// @Router /faculty [get]
func (h *AssignmentHandler) SearchFaculty(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	users, err := h.service.SearchFaculty(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, nil)
}
