package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/proceso-api/internal/dto"
	"github.com/noah-isme/proceso-api/internal/models"
	appErrors "github.com/noah-isme/proceso-api/pkg/errors"
	"github.com/noah-isme/proceso-api/pkg/jobs"
)

type assignmentStore interface {
	Assign(ctx context.Context, activityID string, userIDs []string, referrerID *string) error
	SetRSVP(ctx context.Context, activityID, userID string, accept bool) (*models.FacultyAssignment, error)
	Remove(ctx context.Context, activityID string, userIDs []string) (int64, error)
	ListByActivity(ctx context.Context, activityID string) ([]models.AssignedFaculty, error)
}

type activityReader interface {
	GetByID(ctx context.Context, id string) (*models.Activity, error)
}

type assignmentUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.User, error)
	EmailsByRoles(ctx context.Context, roles []models.UserRole) ([]string, error)
	SearchFaculty(ctx context.Context, term string, limit int) ([]models.User, error)
}

type directNotifier interface {
	NotifyAssignment(ctx context.Context, activity dto.ActivityRef, faculty dto.NotificationPerson) (*dto.DispatchResult, error)
	NotifyRejection(ctx context.Context, activity dto.ActivityRef, faculty, referrer dto.NotificationPerson) (*dto.DispatchResult, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) (string, error)
}

// AssignmentService runs the nominate, RSVP and unassign workflow.
type AssignmentService struct {
	assignments assignmentStore
	activities  activityReader
	users       assignmentUserRepository
	notifier    directNotifier
	queue       jobEnqueuer
	logger      *zap.Logger
}

// NewAssignmentService constructs the workflow service.
func NewAssignmentService(assignments assignmentStore, activities activityReader, users assignmentUserRepository, notifier directNotifier, queue jobEnqueuer, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		assignments: assignments,
		activities:  activities,
		users:       users,
		notifier:    notifier,
		queue:       queue,
		logger:      logger,
	}
}

// Assign nominates faculty members and queues their nomination notice.
func (s *AssignmentService) Assign(ctx context.Context, activityID string, userIDs []string, referrerID string) (string, error) {
	activity, err := s.loadActivity(ctx, activityID)
	if err != nil {
		return "", err
	}
	faculty, err := s.loadFaculty(ctx, userIDs)
	if err != nil {
		return "", err
	}

	var referrer *string
	if referrerID != "" {
		referrer = &referrerID
	}
	if err := s.assignments.Assign(ctx, activity.ID, idsOf(faculty), referrer); err != nil {
		return "", appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to assign faculty")
	}
	return s.enqueue(JobNotifyNomination, activity, emailsOf(faculty))
}

// RSVP records a faculty answer. Accepting notifies staff; declining
// notifies whoever made the nomination.
func (s *AssignmentService) RSVP(ctx context.Context, activityID, userID string, accept bool) (*models.FacultyAssignment, error) {
	activity, err := s.loadActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	assignment, err := s.assignments.SetRSVP(ctx, activity.ID, userID, accept)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to store rsvp")
	}

	faculty, err := s.loadPerson(ctx, userID)
	if err != nil {
		return nil, err
	}
	ref := activityRef(activity)
	if accept {
		if _, err := s.notifier.NotifyAssignment(ctx, ref, faculty); err != nil {
			return nil, err
		}
		return assignment, nil
	}

	if assignment.ReferrerID == nil || *assignment.ReferrerID == "" {
		s.logger.Sugar().Infow("declined assignment has no referrer to notify", "activity_id", activity.ID, "user_id", userID)
		return assignment, nil
	}
	referrer, err := s.loadPerson(ctx, *assignment.ReferrerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.notifier.NotifyRejection(ctx, ref, faculty, referrer); err != nil {
		return nil, err
	}
	return assignment, nil
}

// Unassign removes faculty members and queues their notice.
func (s *AssignmentService) Unassign(ctx context.Context, activityID string, userIDs []string) (string, error) {
	activity, err := s.loadActivity(ctx, activityID)
	if err != nil {
		return "", err
	}
	users, err := s.users.ListByIDs(ctx, userIDs)
	if err != nil {
		return "", appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to load faculty")
	}
	removed, err := s.assignments.Remove(ctx, activity.ID, userIDs)
	if err != nil {
		return "", appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to unassign faculty")
	}
	if removed == 0 {
		return "", appErrors.Clone(appErrors.ErrNotFound, "no matching assignments")
	}
	emails := emailsOf(users)
	if len(emails) == 0 {
		s.logger.Sugar().Warnw("unassigned faculty have no email on file", "activity_id", activity.ID)
		return "", nil
	}
	return s.enqueue(JobNotifyUnassigned, activity, emails)
}

// Request asks every active faculty member to volunteer.
func (s *AssignmentService) Request(ctx context.Context, activityID, requesterID string) (string, error) {
	activity, err := s.loadActivity(ctx, activityID)
	if err != nil {
		return "", err
	}
	emails, err := s.users.EmailsByRoles(ctx, []models.UserRole{models.RoleFaculty})
	if err != nil {
		return "", appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to resolve faculty recipients")
	}
	if len(emails) == 0 {
		return "", appErrors.Clone(appErrors.ErrNotFound, "no active faculty to notify")
	}
	s.logger.Sugar().Infow("faculty volunteers requested", "activity_id", activity.ID, "requested_by", requesterID, "recipients", len(emails))
	return s.enqueue(JobNotifyRequest, activity, emails)
}

// ListFaculty returns the faculty assigned to an activity.
func (s *AssignmentService) ListFaculty(ctx context.Context, activityID string) ([]models.AssignedFaculty, error) {
	if _, err := s.loadActivity(ctx, activityID); err != nil {
		return nil, err
	}
	rows, err := s.assignments.ListByActivity(ctx, activityID)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to list faculty")
	}
	return rows, nil
}

// SearchFaculty finds active faculty by partial name or email.
func (s *AssignmentService) SearchFaculty(ctx context.Context, term string, limit int) ([]models.User, error) {
	users, err := s.users.SearchFaculty(ctx, strings.TrimSpace(term), limit)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to search faculty")
	}
	return users, nil
}

func (s *AssignmentService) loadActivity(ctx context.Context, id string) (*models.Activity, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to load activity")
	}
	return activity, nil
}

// loadFaculty resolves ids to active faculty accounts. Unknown ids and
// other roles are rejected as a whole.
func (s *AssignmentService) loadFaculty(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one faculty member is required")
	}
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to load faculty")
	}
	found := make(map[string]models.User, len(users))
	for _, u := range users {
		found[u.ID] = u
	}
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		u, ok := found[id]
		if !ok || !u.Active {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("user %s not found", id))
		}
		if u.Role != models.RoleFaculty {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("user %s is not faculty", id))
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *AssignmentService) loadPerson(ctx context.Context, id string) (dto.NotificationPerson, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return dto.NotificationPerson{}, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return dto.NotificationPerson{}, appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to load user")
	}
	return dto.NotificationPerson{ID: user.ID, Name: user.Name, Email: user.Email}, nil
}

func (s *AssignmentService) enqueue(jobType string, activity *models.Activity, emails []string) (string, error) {
	return enqueueNotice(s.queue, jobType, activityRef(activity), emails)
}

func enqueueNotice(queue jobEnqueuer, jobType string, activity dto.ActivityRef, emails []string) (string, error) {
	runID, err := queue.Enqueue(jobs.Job{Type: jobType, Payload: &NotificationJob{Activity: activity, Emails: emails}})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue notification")
	}
	return runID, nil
}

func idsOf(users []models.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}

func emailsOf(users []models.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		if u.Email != "" {
			out = append(out, u.Email)
		}
	}
	return out
}
