package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/proceso-api/internal/dto"
	"github.com/noah-isme/proceso-api/internal/models"
	appErrors "github.com/noah-isme/proceso-api/pkg/errors"
)

type stubActivityStore struct {
	stubActivities
	created *models.Activity
	updated *models.Activity
	deleted string
	err     error
}

func (s *stubActivityStore) Create(ctx context.Context, activity *models.Activity) error {
	if s.err != nil {
		return s.err
	}
	activity.ID = "act-new"
	s.created = activity
	return nil
}

func (s *stubActivityStore) Update(ctx context.Context, activity *models.Activity) error {
	s.updated = activity
	return s.err
}

func (s *stubActivityStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	s.deleted = id
	return nil
}

type stubFeedInvalidator struct {
	sources []models.ActivitySource
}

func (s *stubFeedInvalidator) Invalidate(ctx context.Context, source models.ActivitySource) {
	s.sources = append(s.sources, source)
}

func newActivityFixture() (*stubActivityStore, *stubRoleEmails, *stubFeedInvalidator, *stubQueue) {
	start := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	store := &stubActivityStore{stubActivities: stubActivities{items: map[string]*models.Activity{
		"open":     {ID: "open", Title: "Open House", DateStarting: start, DateEnding: start, Visibility: models.VisibilityEveryone, Status: models.ActivityOngoing},
		"internal": {ID: "internal", Title: "Staff Planning", DateStarting: start, DateEnding: start, Visibility: models.VisibilityInternal},
	}}}
	return store, &stubRoleEmails{emails: []string{"a@x.edu", "b@x.edu"}}, &stubFeedInvalidator{}, &stubQueue{}
}

func activityRequest() dto.ActivityRequest {
	start := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	return dto.ActivityRequest{
		Title:        "  Tree Planting ",
		Description:  `<p>Bring gloves</p><script>alert(1)</script>`,
		DateStarting: start,
		DateEnding:   start.Add(4 * time.Hour),
		Visibility:   models.VisibilityFaculty,
	}
}

func TestActivityServiceGetAppliesAccessGate(t *testing.T) {
	store, users, feed, queue := newActivityFixture()
	svc := NewActivityService(store, users, feed, queue, nil, nil)
	student := models.RoleStudent
	staff := models.RoleStaff

	_, err := svc.Get(context.Background(), "internal", &student)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Get(context.Background(), "internal", nil)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	activity, err := svc.Get(context.Background(), "internal", &staff)
	require.NoError(t, err)
	assert.Equal(t, "Staff Planning", activity.Title)

	_, err = svc.Get(context.Background(), "missing", &staff)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestActivityServiceCreateAnnouncesToPermittedRoles(t *testing.T) {
	store, users, feed, queue := newActivityFixture()
	svc := NewActivityService(store, users, feed, queue, nil, nil)

	resp, err := svc.Create(context.Background(), activityRequest(), "staff-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, "Tree Planting", resp.Activity.Title)
	assert.Equal(t, models.ActivityScheduled, resp.Activity.Status)
	assert.NotContains(t, resp.Activity.Description, "script")
	assert.Contains(t, resp.Activity.Description, "<p>Bring gloves</p>")
	require.NotNil(t, resp.Activity.CreatedBy)

	assert.Equal(t, []models.UserRole{models.RoleAdmin, models.RoleStaff, models.RoleFaculty}, users.roles)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobNotifyActivity, queue.jobs[0].Type)
	assert.Equal(t, "act-new", queue.jobs[0].Payload.(*NotificationJob).Activity.ID)
	assert.Equal(t, []models.ActivitySource{models.SourceActivities}, feed.sources)
}

func TestActivityServiceCreateSucceedsWhenAnnouncementCannotQueue(t *testing.T) {
	store, users, feed, queue := newActivityFixture()
	queue.err = fmt.Errorf("queue stopped")
	svc := NewActivityService(store, users, feed, queue, nil, nil)

	resp, err := svc.Create(context.Background(), activityRequest(), "")
	require.NoError(t, err)
	assert.Empty(t, resp.RunID)
	assert.NotNil(t, store.created)
}

func TestActivityServiceCreateValidates(t *testing.T) {
	store, users, feed, queue := newActivityFixture()
	svc := NewActivityService(store, users, feed, queue, nil, nil)

	req := activityRequest()
	req.DateEnding = req.DateStarting.Add(-time.Hour)
	_, err := svc.Create(context.Background(), req, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	req = activityRequest()
	req.Visibility = "Students"
	_, err = svc.Create(context.Background(), req, "")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Nil(t, store.created)

	store.err = fmt.Errorf("insert failed")
	_, err = svc.Create(context.Background(), activityRequest(), "")
	assert.True(t, errors.Is(err, appErrors.ErrQueryFailed))
}

func TestActivityServiceUpdateKeepsStatusAndInvalidatesFeed(t *testing.T) {
	store, users, feed, queue := newActivityFixture()
	svc := NewActivityService(store, users, feed, queue, nil, nil)

	updated, err := svc.Update(context.Background(), "open", activityRequest())
	require.NoError(t, err)
	assert.Equal(t, "open", updated.ID)
	assert.Equal(t, models.ActivityOngoing, updated.Status)
	assert.Len(t, feed.sources, 1)
	assert.Empty(t, queue.jobs)

	_, err = svc.Update(context.Background(), "missing", activityRequest())
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestActivityServiceDelete(t *testing.T) {
	store, users, feed, queue := newActivityFixture()
	svc := NewActivityService(store, users, feed, queue, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "open"))
	assert.Equal(t, "open", store.deleted)
	err := svc.Delete(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
