package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/proceso-api/internal/dto"
	appErrors "github.com/noah-isme/proceso-api/pkg/errors"
	"github.com/noah-isme/proceso-api/pkg/jobs"
)

// Job types handled by NotificationWorker.
const (
	JobNotifyNomination = "notify.nomination"
	JobNotifyRequest    = "notify.request"
	JobNotifyUnassigned = "notify.unassigned"
	JobNotifyActivity   = "notify.activity"
	JobSendCertificates = "certificates.send"
)

var jobKinds = map[string]NotificationKind{
	JobNotifyNomination: KindNomination,
	JobNotifyRequest:    KindRequest,
	JobNotifyUnassigned: KindUnassigned,
	JobNotifyActivity:   KindActivity,
}

// NotificationJob is the payload of the notify.* jobs. The worker narrows
// Emails to the failed recipients before a retry.
type NotificationJob struct {
	Activity dto.ActivityRef
	Emails   []string
}

// CertificateJob is the payload of certificates.send.
type CertificateJob struct {
	Activity   dto.ActivityRef
	Recipients []dto.CertificateRecipient
}

type gatedNotifier interface {
	Notify(ctx context.Context, kind NotificationKind, runID string, activity dto.ActivityRef, emails []string) (*dto.DispatchResult, error)
}

type certificateSender interface {
	SendCertificates(ctx context.Context, runID string, activity dto.ActivityRef, recipients []dto.CertificateRecipient) (*dto.BatchResult, error)
}

// NotificationWorker executes queued notification jobs.
type NotificationWorker struct {
	notifier     gatedNotifier
	certificates certificateSender
	metrics      *MetricsService
	logger       *zap.Logger
}

// NewNotificationWorker wires the worker.
func NewNotificationWorker(notifier gatedNotifier, certificates certificateSender, metrics *MetricsService, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{notifier: notifier, certificates: certificates, metrics: metrics, logger: logger}
}

// Handle satisfies jobs.Handler. The job id is the run id checked by the
// dispatcher, so a run cancelled mid-flight stops at the gate.
func (w *NotificationWorker) Handle(ctx context.Context, job jobs.Job) error {
	err := w.handle(ctx, job)
	switch {
	case err == nil:
		w.metrics.RecordJob(job.Type, string(jobs.RunCompleted))
	case errors.Is(err, appErrors.ErrStaleJobRun):
		w.logger.Sugar().Infow("dropping job for stale run", "job_id", job.ID, "type", job.Type)
		w.metrics.RecordJob(job.Type, string(jobs.RunCancelled))
		return nil
	default:
		w.metrics.RecordJob(job.Type, string(jobs.RunFailed))
	}
	return err
}

func (w *NotificationWorker) handle(ctx context.Context, job jobs.Job) error {
	if job.Type == JobSendCertificates {
		payload, ok := job.Payload.(*CertificateJob)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type)
		}
		return w.sendCertificates(ctx, job.ID, payload)
	}

	kind, ok := jobKinds[job.Type]
	if !ok {
		return fmt.Errorf("unknown job type %q", job.Type)
	}
	payload, ok := job.Payload.(*NotificationJob)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type)
	}

	result, err := w.notifier.Notify(ctx, kind, job.ID, payload.Activity, payload.Emails)
	if err != nil {
		var delivery *DeliveryError
		if errors.As(err, &delivery) && len(delivery.Failed) > 0 {
			payload.Emails = delivery.Failed
		}
		return err
	}
	w.logger.Sugar().Infow("notice job delivered", "job_id", job.ID, "type", job.Type, "sent", result.Sent)
	return nil
}

func (w *NotificationWorker) sendCertificates(ctx context.Context, runID string, payload *CertificateJob) error {
	result, err := w.certificates.SendCertificates(ctx, runID, payload.Activity, payload.Recipients)
	if err != nil {
		return err
	}
	if len(result.Failed) == 0 {
		w.logger.Sugar().Infow("certificate job delivered", "job_id", runID, "sent", result.Sent)
		return nil
	}

	failed := make(map[string]struct{}, len(result.Failed))
	reasons := make([]string, 0, len(result.Failed))
	for _, f := range result.Failed {
		failed[strings.ToLower(f.Email)] = struct{}{}
		reasons = append(reasons, f.Email+": "+f.Error)
	}
	retry := make([]dto.CertificateRecipient, 0, len(result.Failed))
	for _, r := range payload.Recipients {
		if _, ok := failed[strings.ToLower(r.Email)]; ok {
			retry = append(retry, r)
		}
	}
	payload.Recipients = retry
	return fmt.Errorf("%d certificate email(s) failed: %s", len(reasons), strings.Join(reasons, "; "))
}
