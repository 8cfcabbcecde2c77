package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/noah-isme/proceso-api/internal/dto"
	"github.com/noah-isme/proceso-api/internal/models"
	appErrors "github.com/noah-isme/proceso-api/pkg/errors"
)

type activityStore interface {
	GetByID(ctx context.Context, id string) (*models.Activity, error)
	Create(ctx context.Context, activity *models.Activity) error
	Update(ctx context.Context, activity *models.Activity) error
	Delete(ctx context.Context, id string) error
}

type roleEmailResolver interface {
	EmailsByRoles(ctx context.Context, roles []models.UserRole) ([]string, error)
}

type feedInvalidator interface {
	Invalidate(ctx context.Context, source models.ActivitySource)
}

// ActivityService manages activities and announces new ones.
type ActivityService struct {
	activities activityStore
	users      roleEmailResolver
	feed       feedInvalidator
	queue      jobEnqueuer
	validator  *validator.Validate
	policy     *bluemonday.Policy
	logger     *zap.Logger
}

// NewActivityService constructs an activity service.
func NewActivityService(activities activityStore, users roleEmailResolver, feed feedInvalidator, queue jobEnqueuer, validate *validator.Validate, logger *zap.Logger) *ActivityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		activities: activities,
		users:      users,
		feed:       feed,
		queue:      queue,
		validator:  validate,
		policy:     bluemonday.UGCPolicy(),
		logger:     logger,
	}
}

// Get returns an activity the caller may read. Hidden activities are
// reported as forbidden rather than missing.
func (s *ActivityService) Get(ctx context.Context, id string, role *models.UserRole) (*models.Activity, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to load activity")
	}
	if !models.CanAccessEvent(activity.Visibility, role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "activity is not visible to this role")
	}
	return activity, nil
}

// Create stores an activity and queues its announcement to every active
// user allowed to see it.
func (s *ActivityService) Create(ctx context.Context, req dto.ActivityRequest, createdBy string) (*dto.ActivityCreatedResponse, error) {
	activity, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	if createdBy != "" {
		activity.CreatedBy = &createdBy
	}
	if err := s.activities.Create(ctx, activity); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to create activity")
	}
	s.invalidate(ctx)

	resp := &dto.ActivityCreatedResponse{Activity: activity}
	emails, err := s.users.EmailsByRoles(ctx, models.RolesForVisibility(activity.Visibility))
	if err != nil {
		s.logger.Error("announcement recipients not resolved", zap.String("activity_id", activity.ID), zap.Error(err))
		return resp, nil
	}
	if len(emails) == 0 {
		return resp, nil
	}
	runID, err := enqueueNotice(s.queue, JobNotifyActivity, activityRef(activity), emails)
	if err != nil {
		s.logger.Error("announcement not queued", zap.String("activity_id", activity.ID), zap.Error(err))
		return resp, nil
	}
	resp.RunID = runID
	return resp, nil
}

// Update replaces an activity.
func (s *ActivityService) Update(ctx context.Context, id string, req dto.ActivityRequest) (*models.Activity, error) {
	existing, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to load activity")
	}
	activity, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	activity.ID = existing.ID
	activity.CreatedBy = existing.CreatedBy
	activity.CreatedAt = existing.CreatedAt
	if req.Status == "" {
		activity.Status = existing.Status
	}
	if err := s.activities.Update(ctx, activity); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to update activity")
	}
	s.invalidate(ctx)
	return activity, nil
}

// Delete removes an activity.
func (s *ActivityService) Delete(ctx context.Context, id string) error {
	if err := s.activities.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to delete activity")
	}
	s.invalidate(ctx)
	return nil
}

func (s *ActivityService) fromRequest(req dto.ActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}
	if req.DateEnding.Before(req.DateStarting) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date_ending must not be before date_starting")
	}
	status := req.Status
	if status == "" {
		status = models.ActivityScheduled
	}
	var series *string
	if req.Series != nil && strings.TrimSpace(*req.Series) != "" {
		trimmed := strings.TrimSpace(*req.Series)
		series = &trimmed
	}
	return &models.Activity{
		Title:        strings.TrimSpace(req.Title),
		Description:  s.policy.Sanitize(req.Description),
		DateStarting: req.DateStarting,
		DateEnding:   req.DateEnding,
		Visibility:   req.Visibility,
		SeriesID:     series,
		Status:       status,
	}, nil
}

func (s *ActivityService) invalidate(ctx context.Context) {
	if s.feed != nil {
		s.feed.Invalidate(ctx, models.SourceActivities)
	}
}

func activityRef(activity *models.Activity) dto.ActivityRef {
	start, end := activity.DateStarting, activity.DateEnding
	return dto.ActivityRef{ID: activity.ID, Title: activity.Title, DateStarting: &start, DateEnding: &end}
}
