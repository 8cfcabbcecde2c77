package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/noah-isme/proceso-api/internal/dto"
	"github.com/noah-isme/proceso-api/internal/models"
	"github.com/noah-isme/proceso-api/pkg/email"
	appErrors "github.com/noah-isme/proceso-api/pkg/errors"
	"github.com/noah-isme/proceso-api/pkg/export"
	"github.com/noah-isme/proceso-api/pkg/jobs"
	"github.com/noah-isme/proceso-api/pkg/storage"
)

const defaultCertificateIssuer = "ProCESO"

var certificateHashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

type certificateStore interface {
	Create(ctx context.Context, cert *models.Certificate) error
	FindByID(ctx context.Context, id string) (*models.Certificate, error)
	GetByHash(ctx context.Context, hash string) (*models.CertificateLookup, error)
	ListByActivity(ctx context.Context, activityID string) ([]models.Certificate, error)
}

type certificateFiles interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type certificateRenderer interface {
	Render(data export.CertificateData) ([]byte, error)
}

// CertificateServiceConfig groups the collaborators of CertificateService.
type CertificateServiceConfig struct {
	Certificates certificateStore
	Activities   activityReader
	Files        certificateFiles
	Renderer     certificateRenderer
	Signer       *storage.SignedURLSigner
	Sender       email.Sender
	Runs         runRetriever
	Queue        jobEnqueuer
	Publisher    eventPublisher
	Metrics      *MetricsService
	BaseURL      string
	Issuer       string
	Validator    *validator.Validate
	Logger       *zap.Logger
}

// CertificateService issues, mails and verifies certificates of participation.
type CertificateService struct {
	certs      certificateStore
	activities activityReader
	files      certificateFiles
	renderer   certificateRenderer
	signer     *storage.SignedURLSigner
	sender     email.Sender
	gate       runGate
	queue      jobEnqueuer
	observer   dispatchObserver
	csv        *export.CSVExporter
	baseURL    string
	issuer     string
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewCertificateService constructs the certificate service.
func NewCertificateService(cfg CertificateServiceConfig) *CertificateService {
	if cfg.Validator == nil {
		cfg.Validator = validator.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Issuer == "" {
		cfg.Issuer = defaultCertificateIssuer
	}
	if cfg.Renderer == nil {
		cfg.Renderer = export.NewCertificateRenderer()
	}
	return &CertificateService{
		certs:      cfg.Certificates,
		activities: cfg.Activities,
		files:      cfg.Files,
		renderer:   cfg.Renderer,
		signer:     cfg.Signer,
		sender:     cfg.Sender,
		gate:       runGate{runs: cfg.Runs},
		queue:      cfg.Queue,
		observer:   dispatchObserver{metrics: cfg.Metrics, publisher: cfg.Publisher, logger: cfg.Logger},
		csv:        export.NewCSVExporter(),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		issuer:     cfg.Issuer,
		validator:  cfg.Validator,
		logger:     cfg.Logger,
	}
}

// Issue renders, stores and records a certificate for every recipient. With
// Send set, the emails are queued and the run id returned.
func (s *CertificateService) Issue(ctx context.Context, activityID string, req dto.IssueCertificatesRequest) (*dto.IssueCertificatesResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid certificate payload")
	}
	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to load activity")
	}

	resp := &dto.IssueCertificatesResponse{Certificates: make([]dto.IssuedCertificate, 0, len(req.Recipients))}
	for _, recipient := range req.Recipients {
		cert, err := s.issueOne(ctx, activity, recipient)
		if err != nil {
			return nil, err
		}
		resp.Certificates = append(resp.Certificates, dto.IssuedCertificate{
			Name:  cert.RecipientName,
			Email: cert.RecipientEmail,
			Hash:  cert.Hash,
			URL:   cert.URL,
		})
	}

	if req.Send {
		runID, err := s.queue.Enqueue(jobs.Job{
			Type:    JobSendCertificates,
			Payload: &CertificateJob{Activity: activityRef(activity), Recipients: req.Recipients},
		})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue certificate emails")
		}
		resp.RunID = runID
	}
	return resp, nil
}

func (s *CertificateService) issueOne(ctx context.Context, activity *models.Activity, recipient dto.CertificateRecipient) (*models.Certificate, error) {
	hash, err := certificateHash(activity.ID, recipient.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to derive certificate hash")
	}
	issuedAt := time.Now().UTC()
	pdf, err := s.renderer.Render(export.CertificateData{
		RecipientName: recipient.Name,
		ActivityTitle: activity.Title,
		ActivityDate:  activity.DateStarting,
		IssuedAt:      issuedAt,
		Issuer:        s.issuer,
		Hash:          hash,
		VerifyURL:     s.verifyURL(hash),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}
	path, err := s.files.Save(fmt.Sprintf("%s/%s.pdf", activity.ID, hash), pdf)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store certificate")
	}

	cert := &models.Certificate{
		ActivityID:     activity.ID,
		RecipientName:  recipient.Name,
		RecipientEmail: strings.ToLower(strings.TrimSpace(recipient.Email)),
		Path:           path,
		Hash:           hash,
		CreatedAt:      issuedAt,
	}
	if s.signer != nil {
		cert.ID = uuid.NewString()
		token, _, err := s.signer.Generate(cert.ID, path)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign certificate url")
		}
		cert.URL = s.baseURL + "/certs/download/" + token
	}
	if err := s.certs.Create(ctx, cert); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to record certificate")
	}
	return cert, nil
}

// SendCertificates mails each recipient their certificate. Every recipient
// is attempted; the result lists exactly the ones the provider refused. A
// non-empty runID must belong to an executing run.
func (s *CertificateService) SendCertificates(ctx context.Context, runID string, activity dto.ActivityRef, recipients []dto.CertificateRecipient) (*dto.BatchResult, error) {
	if len(recipients) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one recipient is required")
	}
	if strings.TrimSpace(activity.Title) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "activity title is required")
	}
	if runID != "" {
		if err := s.gate.check(ctx, runID); err != nil {
			if errors.Is(err, appErrors.ErrStaleJobRun) {
				s.observer.observe(ctx, KindCertificate, runID, activity, 0, 0, OutcomeStale)
			}
			return nil, err
		}
	}

	issued := s.issuedByEmail(ctx, activity.ID)
	failures := make([]*dto.BatchFailure, len(recipients))
	var wg sync.WaitGroup
	for i, recipient := range recipients {
		wg.Add(1)
		go func(i int, recipient dto.CertificateRecipient) {
			defer wg.Done()
			if err := s.sendOne(ctx, activity, recipient, issued[strings.ToLower(strings.TrimSpace(recipient.Email))]); err != nil {
				failures[i] = &dto.BatchFailure{Email: recipient.Email, Error: err.Error()}
			}
		}(i, recipient)
	}
	wg.Wait()

	result := &dto.BatchResult{Failed: make([]dto.BatchFailure, 0)}
	for _, f := range failures {
		if f != nil {
			result.Failed = append(result.Failed, *f)
		}
	}
	result.Sent = len(recipients) - len(result.Failed)
	s.observer.observe(ctx, KindCertificate, runID, activity, result.Sent, len(result.Failed), batchOutcome(result.Sent, len(result.Failed)))
	if len(result.Failed) > 0 {
		s.logger.Sugar().Warnw("certificate batch incomplete", "activity_id", activity.ID, "run_id", runID, "sent", result.Sent, "failed", len(result.Failed))
	}
	return result, nil
}

func (s *CertificateService) sendOne(ctx context.Context, activity dto.ActivityRef, recipient dto.CertificateRecipient, cert *models.Certificate) error {
	data := export.CertificateData{
		RecipientName: recipient.Name,
		ActivityTitle: activity.Title,
		IssuedAt:      time.Now().UTC(),
		Issuer:        s.issuer,
	}
	if activity.DateStarting != nil {
		data.ActivityDate = *activity.DateStarting
	}
	if cert != nil {
		data.Hash = cert.Hash
		data.VerifyURL = s.verifyURL(cert.Hash)
		data.IssuedAt = cert.CreatedAt
	}
	pdf, err := s.renderer.Render(data)
	if err != nil {
		return fmt.Errorf("render certificate: %w", err)
	}
	subject, htmlBody, textBody, err := renderNotice(KindCertificate, noticeData{Activity: activity, Recipient: recipient.Name})
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, email.Message{
		To:      []string{recipient.Email},
		Subject: subject,
		HTML:    htmlBody,
		Text:    textBody,
		Attachments: []email.Attachment{{
			Filename:    certificateFilename(activity.Title),
			ContentType: "application/pdf",
			Content:     pdf,
		}},
	})
}

// issuedByEmail indexes the stored certificates of an activity so mailed
// copies carry the same verification hash.
func (s *CertificateService) issuedByEmail(ctx context.Context, activityID string) map[string]*models.Certificate {
	out := map[string]*models.Certificate{}
	if activityID == "" || s.certs == nil {
		return out
	}
	certs, err := s.certs.ListByActivity(ctx, activityID)
	if err != nil {
		s.logger.Sugar().Warnw("issued certificates not loaded", "activity_id", activityID, "error", err)
		return out
	}
	for i := range certs {
		out[strings.ToLower(certs[i].RecipientEmail)] = &certs[i]
	}
	return out
}

// Lookup returns the public verification view of a certificate.
func (s *CertificateService) Lookup(ctx context.Context, hash string) (*dto.CertificateLookupResponse, error) {
	hash = strings.ToLower(strings.TrimSpace(hash))
	if !certificateHashPattern.MatchString(hash) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
	}
	lookup, err := s.certs.GetByHash(ctx, hash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to look up certificate")
	}
	return &dto.CertificateLookupResponse{
		Name:          lookup.RecipientName,
		Email:         lookup.RecipientEmail,
		ActivityTitle: lookup.ActivityTitle,
		ActivityDate:  lookup.ActivityDate,
		Hash:          lookup.Hash,
		IssuedAt:      lookup.IssuedAt,
	}, nil
}

// Download opens the stored PDF a signed token points at. The caller closes
// the returned file.
func (s *CertificateService) Download(ctx context.Context, token string) (*os.File, string, error) {
	if s.signer == nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
	}
	parsed, err := s.signer.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, "", appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
	}
	cert, err := s.certs.FindByID(ctx, parsed.Subject)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
		}
		return nil, "", appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to load certificate")
	}
	if cert.Path != parsed.Path {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
	}
	file, err := s.files.Open(cert.Path)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "certificate file missing")
	}
	return file, fmt.Sprintf("certificate-%s.pdf", cert.Hash[:12]), nil
}

// ExportCSV renders the roster of certificates issued for an activity.
func (s *CertificateService) ExportCSV(ctx context.Context, activityID string) ([]byte, string, error) {
	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, "", appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to load activity")
	}
	certs, err := s.certs.ListByActivity(ctx, activity.ID)
	if err != nil {
		return nil, "", appErrors.WrapAs(err, appErrors.ErrQueryFailed, "failed to list certificates")
	}
	dataset := export.Dataset{Headers: []string{"Name", "Email", "Hash", "Verify URL", "Issued At"}}
	for _, cert := range certs {
		dataset.AddRow(cert.RecipientName, cert.RecipientEmail, cert.Hash, s.verifyURL(cert.Hash), cert.CreatedAt.Format(time.RFC3339))
	}
	out, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}
	return out, fmt.Sprintf("certificates-%s.csv", activity.ID), nil
}

func (s *CertificateService) verifyURL(hash string) string {
	return s.baseURL + "/certs/" + hash
}

// certificateHash derives the public verification key from random salt and
// the certificate's identity.
func certificateHash(activityID, recipientEmail string) (string, error) {
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	h.Write(salt)
	h.Write([]byte(activityID))
	h.Write([]byte(strings.ToLower(strings.TrimSpace(recipientEmail))))
	return hex.EncodeToString(h.Sum(nil)), nil
}

var filenameUnsafe = regexp.MustCompile(`[^A-Za-z0-9]+`)

func certificateFilename(title string) string {
	slug := strings.Trim(filenameUnsafe.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		slug = "activity"
	}
	return "certificate-" + slug + ".pdf"
}
