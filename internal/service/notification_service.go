package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/proceso-api/internal/dto"
	"github.com/noah-isme/proceso-api/internal/models"
	"github.com/noah-isme/proceso-api/pkg/email"
	appErrors "github.com/noah-isme/proceso-api/pkg/errors"
	"github.com/noah-isme/proceso-api/pkg/events"
	"github.com/noah-isme/proceso-api/pkg/jobs"
)

type notificationUserRepository interface {
	EmailsByRoles(ctx context.Context, roles []models.UserRole) ([]string, error)
}

type runRetriever interface {
	Retrieve(ctx context.Context, id string) (*jobs.Run, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// DeliveryError lists the recipients a batch could not reach.
type DeliveryError struct {
	Failed []string
	Cause  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed for %d recipient(s): %v", len(e.Failed), e.Cause)
}

func (e *DeliveryError) Unwrap() error {
	return e.Cause
}

// runGate rejects job triggered work whose run is no longer executing.
type runGate struct {
	runs runRetriever
}

func (g runGate) check(ctx context.Context, runID string) error {
	if strings.TrimSpace(runID) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "runId is required")
	}
	if g.runs == nil {
		return appErrors.Clone(appErrors.ErrStaleJobRun, "job runs are not tracked")
	}
	run, err := g.runs.Retrieve(ctx, runID)
	if err != nil {
		if errors.Is(err, jobs.ErrRunNotFound) {
			return appErrors.Clone(appErrors.ErrStaleJobRun, fmt.Sprintf("job run %s not found", runID))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to retrieve job run")
	}
	if !run.IsExecuting() {
		return appErrors.Clone(appErrors.ErrStaleJobRun, fmt.Sprintf("job run %s is %s", runID, strings.ToLower(string(run.Status))))
	}
	return nil
}

// dispatchObserver counts and announces every dispatch.
type dispatchObserver struct {
	metrics   *MetricsService
	publisher eventPublisher
	logger    *zap.Logger
}

func (o dispatchObserver) observe(ctx context.Context, kind NotificationKind, runID string, activity dto.ActivityRef, sent, failed int, outcome string) {
	o.metrics.RecordNotification(string(kind), outcome)
	if o.publisher == nil {
		return
	}
	err := o.publisher.Publish(ctx, events.Event{
		Kind:    string(kind),
		Outcome: outcome,
		RunID:   runID,
		Payload: map[string]interface{}{
			"activity_id": activity.ID,
			"sent":        sent,
			"failed":      failed,
		},
	})
	if err != nil {
		o.logger.Sugar().Warnw("notification event not published", "kind", kind, "error", err)
	}
}

func batchOutcome(sent, failed int) string {
	switch {
	case failed == 0:
		return OutcomeSent
	case sent == 0:
		return OutcomeFailed
	default:
		return OutcomePartial
	}
}

// NotificationService sends the workflow notices of activities.
type NotificationService struct {
	users    notificationUserRepository
	gate     runGate
	sender   email.Sender
	observer dispatchObserver
	baseURL  string
	logger   *zap.Logger
}

// NewNotificationService constructs the dispatcher. publisher and metrics may be nil.
func NewNotificationService(users notificationUserRepository, runs runRetriever, sender email.Sender, publisher eventPublisher, metrics *MetricsService, baseURL string, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		users:    users,
		gate:     runGate{runs: runs},
		sender:   sender,
		observer: dispatchObserver{metrics: metrics, publisher: publisher, logger: logger},
		baseURL:  baseURL,
		logger:   logger,
	}
}

// NotifyAssignment tells every admin and staff member that faculty accepted
// an assignment.
func (s *NotificationService) NotifyAssignment(ctx context.Context, activity dto.ActivityRef, faculty dto.NotificationPerson) (*dto.DispatchResult, error) {
	recipients, err := s.users.EmailsByRoles(ctx, []models.UserRole{models.RoleAdmin, models.RoleStaff})
	if err != nil {
		s.observer.observe(ctx, KindAssignment, "", activity, 0, 0, OutcomeFailed)
		return nil, appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to resolve staff recipients")
	}
	if len(recipients) == 0 {
		s.logger.Sugar().Warnw("no staff recipients for assignment notice", "activity_id", activity.ID)
		return &dto.DispatchResult{}, nil
	}
	return s.sendEach(ctx, KindAssignment, "", normalizeEmails(recipients), noticeData{Activity: activity, Faculty: &faculty, Link: s.activityLink(activity.ID)})
}

// NotifyRejection tells the referrer that the nominated faculty declined.
func (s *NotificationService) NotifyRejection(ctx context.Context, activity dto.ActivityRef, faculty, referrer dto.NotificationPerson) (*dto.DispatchResult, error) {
	if strings.TrimSpace(referrer.Email) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "referrer email is required")
	}
	return s.sendOne(ctx, KindRejection, []string{referrer.Email}, noticeData{Activity: activity, Faculty: &faculty, Referrer: &referrer, Link: s.activityLink(activity.ID)})
}

// NotifyNomination tells nominated faculty about an activity.
func (s *NotificationService) NotifyNomination(ctx context.Context, runID string, activity dto.ActivityRef, emails []string) (*dto.DispatchResult, error) {
	return s.notifyGated(ctx, KindNomination, runID, activity, emails)
}

// NotifyRequest asks faculty to volunteer for an activity.
func (s *NotificationService) NotifyRequest(ctx context.Context, runID string, activity dto.ActivityRef, emails []string) (*dto.DispatchResult, error) {
	return s.notifyGated(ctx, KindRequest, runID, activity, emails)
}

// NotifyUnassigned tells faculty they were removed from an activity.
func (s *NotificationService) NotifyUnassigned(ctx context.Context, runID string, activity dto.ActivityRef, emails []string) (*dto.DispatchResult, error) {
	return s.notifyGated(ctx, KindUnassigned, runID, activity, emails)
}

// NotifyActivity announces a new activity.
func (s *NotificationService) NotifyActivity(ctx context.Context, runID string, activity dto.ActivityRef, emails []string) (*dto.DispatchResult, error) {
	return s.notifyGated(ctx, KindActivity, runID, activity, emails)
}

// Notify dispatches a gated notice by kind.
func (s *NotificationService) Notify(ctx context.Context, kind NotificationKind, runID string, activity dto.ActivityRef, emails []string) (*dto.DispatchResult, error) {
	switch kind {
	case KindNomination, KindRequest, KindUnassigned, KindActivity:
		return s.notifyGated(ctx, kind, runID, activity, emails)
	default:
		return nil, appErrors.Clone(appErrors.ErrBadRequest, fmt.Sprintf("notice %q is not job triggered", kind))
	}
}

// notifyGated resolves recipients, checks the run once, then sends one
// message per recipient concurrently.
func (s *NotificationService) notifyGated(ctx context.Context, kind NotificationKind, runID string, activity dto.ActivityRef, emails []string) (*dto.DispatchResult, error) {
	recipients := normalizeEmails(emails)
	if len(recipients) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one recipient email is required")
	}
	if err := s.gate.check(ctx, runID); err != nil {
		if errors.Is(err, appErrors.ErrStaleJobRun) {
			s.observer.observe(ctx, kind, runID, activity, 0, 0, OutcomeStale)
			s.logger.Sugar().Infow("skipping notice for stale job run", "kind", kind, "run_id", runID)
		}
		return nil, err
	}

	return s.sendEach(ctx, kind, runID, recipients, noticeData{Activity: activity, Link: s.activityLink(activity.ID)})
}

// sendEach renders the notice once and mails every recipient its own message
// so no address is disclosed to the others.
func (s *NotificationService) sendEach(ctx context.Context, kind NotificationKind, runID string, recipients []string, data noticeData) (*dto.DispatchResult, error) {
	subject, htmlBody, textBody, err := renderNotice(kind, data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render notice")
	}
	msgs := make([]email.Message, len(recipients))
	for i, addr := range recipients {
		msgs[i] = email.Message{To: []string{addr}, Subject: subject, HTML: htmlBody, Text: textBody}
	}

	result := s.sender.SendBatch(ctx, msgs)
	sent := len(msgs) - len(result.Errors)
	s.observer.observe(ctx, kind, runID, data.Activity, sent, len(result.Errors), batchOutcome(sent, len(result.Errors)))
	if result.Failed() {
		failed := make([]string, 0, len(result.Errors))
		for _, be := range result.Errors {
			failed = append(failed, be.To...)
		}
		cause := result.Errors[0].Err
		s.logger.Sugar().Warnw("notice batch incomplete", "kind", kind, "run_id", runID, "sent", sent, "failed", len(failed), "error", cause)
		return &dto.DispatchResult{Sent: sent}, appErrors.WrapAs(&DeliveryError{Failed: failed, Cause: cause}, appErrors.ErrEmailSendFailed, cause.Error())
	}
	return &dto.DispatchResult{Sent: sent}, nil
}

func (s *NotificationService) sendOne(ctx context.Context, kind NotificationKind, to []string, data noticeData) (*dto.DispatchResult, error) {
	subject, htmlBody, textBody, err := renderNotice(kind, data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render notice")
	}
	if err := s.sender.Send(ctx, email.Message{To: to, Subject: subject, HTML: htmlBody, Text: textBody}); err != nil {
		s.observer.observe(ctx, kind, "", data.Activity, 0, len(to), OutcomeFailed)
		s.logger.Sugar().Errorw("notice not sent", "kind", kind, "activity_id", data.Activity.ID, "error", err)
		return nil, appErrors.WrapAs(err, appErrors.ErrEmailSendFailed, err.Error())
	}
	s.observer.observe(ctx, kind, "", data.Activity, len(to), 0, OutcomeSent)
	return &dto.DispatchResult{Sent: len(to)}, nil
}

func (s *NotificationService) activityLink(id string) string {
	if s.baseURL == "" || id == "" {
		return ""
	}
	return s.baseURL + "/activities/" + id
}

// normalizeEmails trims, lowercases and de-duplicates addresses in order.
func normalizeEmails(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, addr := range emails {
		addr = strings.ToLower(strings.TrimSpace(addr))
		if addr == "" {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}
