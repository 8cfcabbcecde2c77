package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/proceso-api/internal/dto"
	appErrors "github.com/noah-isme/proceso-api/pkg/errors"
	"github.com/noah-isme/proceso-api/pkg/jobs"
)

type stubNotifier struct {
	kind   NotificationKind
	runID  string
	emails []string
	err    error
}

func (s *stubNotifier) Notify(ctx context.Context, kind NotificationKind, runID string, activity dto.ActivityRef, emails []string) (*dto.DispatchResult, error) {
	s.kind, s.runID, s.emails = kind, runID, emails
	if s.err != nil {
		return &dto.DispatchResult{}, s.err
	}
	return &dto.DispatchResult{Sent: len(emails)}, nil
}

type stubCertificateSender struct {
	result *dto.BatchResult
	err    error
	calls  int
}

func (s *stubCertificateSender) SendCertificates(ctx context.Context, runID string, activity dto.ActivityRef, recipients []dto.CertificateRecipient) (*dto.BatchResult, error) {
	s.calls++
	return s.result, s.err
}

func TestNotificationWorkerDispatchesByJobType(t *testing.T) {
	notifier := &stubNotifier{}
	worker := NewNotificationWorker(notifier, nil, nil, nil)

	err := worker.Handle(context.Background(), jobs.Job{
		ID:      "run-1",
		Type:    JobNotifyUnassigned,
		Payload: &NotificationJob{Activity: sampleRef(), Emails: []string{"a@x.edu"}},
	})
	require.NoError(t, err)
	assert.Equal(t, KindUnassigned, notifier.kind)
	assert.Equal(t, "run-1", notifier.runID)
}

func TestNotificationWorkerStaleRunIsNotRetried(t *testing.T) {
	worker := NewNotificationWorker(&stubNotifier{err: appErrors.Clone(appErrors.ErrStaleJobRun, "")}, nil, nil, nil)
	err := worker.Handle(context.Background(), jobs.Job{ID: "run-1", Type: JobNotifyActivity, Payload: &NotificationJob{Activity: sampleRef(), Emails: []string{"a@x.edu"}}})
	assert.NoError(t, err)
}

func TestNotificationWorkerNarrowsRetryToFailedRecipients(t *testing.T) {
	delivery := appErrors.WrapAs(&DeliveryError{Failed: []string{"b@x.edu"}, Cause: fmt.Errorf("bounce")}, appErrors.ErrEmailSendFailed, "bounce")
	worker := NewNotificationWorker(&stubNotifier{err: delivery}, nil, nil, nil)
	payload := &NotificationJob{Activity: sampleRef(), Emails: []string{"a@x.edu", "b@x.edu"}}

	err := worker.Handle(context.Background(), jobs.Job{ID: "run-1", Type: JobNotifyRequest, Payload: payload})
	require.Error(t, err)
	assert.Equal(t, []string{"b@x.edu"}, payload.Emails)
}

func TestNotificationWorkerCertificateRetryKeepsFailedRecipients(t *testing.T) {
	sender := &stubCertificateSender{result: &dto.BatchResult{Sent: 1, Failed: []dto.BatchFailure{{Email: "B@x.edu", Error: "rejected"}}}}
	worker := NewNotificationWorker(nil, sender, nil, nil)
	payload := &CertificateJob{Activity: sampleRef(), Recipients: []dto.CertificateRecipient{
		{Name: "A", Email: "a@x.edu"},
		{Name: "B", Email: "b@x.edu"},
	}}

	err := worker.Handle(context.Background(), jobs.Job{ID: "run-9", Type: JobSendCertificates, Payload: payload})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
	assert.Equal(t, []dto.CertificateRecipient{{Name: "B", Email: "b@x.edu"}}, payload.Recipients)
}

func TestNotificationWorkerRejectsUnknownJobs(t *testing.T) {
	worker := NewNotificationWorker(&stubNotifier{}, &stubCertificateSender{}, nil, nil)
	require.Error(t, worker.Handle(context.Background(), jobs.Job{Type: "report.generate"}))
	require.Error(t, worker.Handle(context.Background(), jobs.Job{Type: JobNotifyActivity, Payload: "oops"}))
}

func TestNotificationWorkerWithQueueCompletesRun(t *testing.T) {
	notifier := &stubNotifier{}
	worker := NewNotificationWorker(notifier, nil, nil, nil)
	queue := jobs.NewQueue("notifications", worker.Handle, jobs.QueueConfig{Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)
	defer queue.Stop()

	runID, err := queue.Enqueue(jobs.Job{Type: JobNotifyNomination, Payload: &NotificationJob{Activity: sampleRef(), Emails: []string{"a@x.edu"}}})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		run, err := queue.Runs().Retrieve(context.Background(), runID)
		return err == nil && run.Status == jobs.RunCompleted
	}, 2*time.Second, 10*time.Millisecond)
}
