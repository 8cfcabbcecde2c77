package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/proceso-api/internal/dto"
	"github.com/noah-isme/proceso-api/internal/middleware"
	"github.com/noah-isme/proceso-api/internal/models"
	appErrors "github.com/noah-isme/proceso-api/pkg/errors"
)

func ginParam(key, value string) gin.Param {
	return gin.Param{Key: key, Value: value}
}

type activityServiceMock struct {
	role      *models.UserRole
	createdBy string
}

func (m *activityServiceMock) Get(ctx context.Context, id string, role *models.UserRole) (*models.Activity, error) {
	m.role = role
	if !models.CanAccessEvent(models.VisibilityInternal, role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "activity is not visible to this role")
	}
	return &models.Activity{ID: id, Title: "Staff Planning", Visibility: models.VisibilityInternal}, nil
}

func (m *activityServiceMock) Create(ctx context.Context, req dto.ActivityRequest, createdBy string) (*dto.ActivityCreatedResponse, error) {
	m.createdBy = createdBy
	return &dto.ActivityCreatedResponse{Activity: &models.Activity{ID: "a1", Title: req.Title}, RunID: "run-1"}, nil
}

func (m *activityServiceMock) Update(ctx context.Context, id string, req dto.ActivityRequest) (*models.Activity, error) {
	return &models.Activity{ID: id, Title: req.Title}, nil
}

func (m *activityServiceMock) Delete(ctx context.Context, id string) error {
	return nil
}

func TestActivityHandlerGetAppliesRole(t *testing.T) {
	mock := &activityServiceMock{}
	h := NewActivityHandler(mock)

	c, w := newTestContext(http.MethodGet, "/api/activities/a1")
	c.Params = append(c.Params, ginParam("id", "a1"))
	h.Get(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Nil(t, mock.role)

	c, w = newTestContext(http.MethodGet, "/api/activities/a1")
	c.Params = append(c.Params, ginParam("id", "a1"))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleStaff})
	h.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Staff Planning")
}

func TestActivityHandlerCreateUsesPrincipal(t *testing.T) {
	mock := &activityServiceMock{}
	h := NewActivityHandler(mock)
	start := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	c, w := jsonContext(http.MethodPost, "/api/activities", dto.ActivityRequest{
		Title: "Tree Planting", DateStarting: start, DateEnding: start.Add(time.Hour), Visibility: models.VisibilityEveryone,
	})
	claims := &models.JWTClaims{Role: models.RoleStaff}
	claims.Subject = "staff-7"
	c.Set(middleware.ContextUserKey, claims)

	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "staff-7", mock.createdBy)
	assert.Contains(t, w.Body.String(), `"runId":"run-1"`)
}

func TestActivityHandlerRejectsMalformedJSON(t *testing.T) {
	h := NewActivityHandler(&activityServiceMock{})
	c, w := jsonContext(http.MethodPut, "/api/activities/a1", "not an object")
	c.Params = append(c.Params, ginParam("id", "a1"))

	h.Update(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
