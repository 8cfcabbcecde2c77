package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/proceso-api/internal/middleware"
	"github.com/noah-isme/proceso-api/internal/models"
	appErrors "github.com/noah-isme/proceso-api/pkg/errors"
)

type assignmentServiceMock struct {
	referrer string
	rsvpUser string
	accept   bool
	limit    int
}

func (m *assignmentServiceMock) Assign(ctx context.Context, activityID string, userIDs []string, referrerID string) (string, error) {
	m.referrer = referrerID
	return "run-1", nil
}

func (m *assignmentServiceMock) RSVP(ctx context.Context, activityID, userID string, accept bool) (*models.FacultyAssignment, error) {
	m.rsvpUser, m.accept = userID, accept
	return &models.FacultyAssignment{ActivityID: activityID, UserID: userID, RSVP: &accept}, nil
}

func (m *assignmentServiceMock) Unassign(ctx context.Context, activityID string, userIDs []string) (string, error) {
	return "", appErrors.Clone(appErrors.ErrNotFound, "no matching assignments")
}

func (m *assignmentServiceMock) Request(ctx context.Context, activityID, requesterID string) (string, error) {
	return "run-2", nil
}

func (m *assignmentServiceMock) ListFaculty(ctx context.Context, activityID string) ([]models.AssignedFaculty, error) {
	return []models.AssignedFaculty{}, nil
}

func (m *assignmentServiceMock) SearchFaculty(ctx context.Context, term string, limit int) ([]models.User, error) {
	m.limit = limit
	return []models.User{{ID: "fac-1", Name: "Dr. Reyes", Role: models.RoleFaculty}}, nil
}

func TestAssignmentHandlerAssignQueuesNomination(t *testing.T) {
	mock := &assignmentServiceMock{}
	h := NewAssignmentHandler(mock)
	c, w := jsonContext(http.MethodPost, "/api/activities/a1/faculty", map[string]interface{}{"userIds": []string{"fac-1"}})
	c.Params = append(c.Params, ginParam("id", "a1"))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff})

	h.Assign(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"data":{"runId":"run-1"}}`, w.Body.String())
	assert.Equal(t, "staff-1", mock.referrer)
}

func TestAssignmentHandlerRSVP(t *testing.T) {
	mock := &assignmentServiceMock{}
	h := NewAssignmentHandler(mock)

	c, w := jsonContext(http.MethodPost, "/api/activities/a1/rsvp", map[string]interface{}{})
	c.Params = append(c.Params, ginParam("id", "a1"))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "fac-1", Role: models.RoleFaculty})
	h.RSVP(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = jsonContext(http.MethodPost, "/api/activities/a1/rsvp", map[string]interface{}{"accept": false})
	c.Params = append(c.Params, ginParam("id", "a1"))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "fac-1", Role: models.RoleFaculty})
	h.RSVP(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fac-1", mock.rsvpUser)
	assert.False(t, mock.accept)
	assert.Contains(t, w.Body.String(), `"rsvp":false`)
}

func TestAssignmentHandlerUnassignNothingRemoved(t *testing.T) {
	h := NewAssignmentHandler(&assignmentServiceMock{})
	c, w := jsonContext(http.MethodDelete, "/api/activities/a1/faculty", map[string]interface{}{"userIds": []string{"fac-9"}})
	c.Params = append(c.Params, ginParam("id", "a1"))

	h.Unassign(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssignmentHandlerSearchDefaultsLimit(t *testing.T) {
	mock := &assignmentServiceMock{}
	h := NewAssignmentHandler(mock)
	c, w := newTestContext(http.MethodGet, "/api/faculty?q=rey")

	h.SearchFaculty(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20, mock.limit)
	assert.Contains(t, w.Body.String(), "Dr. Reyes")
}
