package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/proceso-api/internal/dto"
	"github.com/noah-isme/proceso-api/internal/service"
	appErrors "github.com/noah-isme/proceso-api/pkg/errors"
	"github.com/noah-isme/proceso-api/pkg/response"
)

type notificationService interface {
	Notify(ctx context.Context, kind service.NotificationKind, runID string, activity dto.ActivityRef, emails []string) (*dto.DispatchResult, error)
	NotifyAssignment(ctx context.Context, activity dto.ActivityRef, faculty dto.NotificationPerson) (*dto.DispatchResult, error)
	NotifyRejection(ctx context.Context, activity dto.ActivityRef, faculty, referrer dto.NotificationPerson) (*dto.DispatchResult, error)
}

type certificateMailer interface {
	SendCertificates(ctx context.Context, runID string, activity dto.ActivityRef, recipients []dto.CertificateRecipient) (*dto.BatchResult, error)
}

// NotificationHandler exposes the notification dispatcher to job runners
// and staff tools.
type NotificationHandler struct {
	notifications notificationService
	certificates  certificateMailer
	validator     *validator.Validate
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(notifications notificationService, certificates certificateMailer, validate *validator.Validate) *NotificationHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &NotificationHandler{notifications: notifications, certificates: certificates, validator: validate}
}

// Gated returns the handler of a job triggered notice kind.
//
// @Summary Send a job triggered notice
// @Description Sends one email per recipient while the referenced job run is executing.
// @Tags Notifications
// @Accept json
// @Produce json
// @Param kind path string true "nomination, request, unassigned or activity"
// @Param payload body dto.RunNotificationRequest true "Notice payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /notifications/{kind} [post]
func (h *NotificationHandler) Gated(kind service.NotificationKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.RunNotificationRequest
		if !h.bind(c, &req) {
			return
		}
		target := req.Target()
		if target == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "activity or event is required"))
			return
		}
		result, err := h.notifications.Notify(c.Request.Context(), kind, req.RunID, *target, req.Emails)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, result, nil)
	}
}

// Assignment godoc
// @Summary Notify staff of an accepted assignment
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body dto.AssignmentNoticeRequest true "Notice payload"
// @Success 200 {object} response.Envelope
// @Router /notifications/assignment [post]
func (h *NotificationHandler) Assignment(c *gin.Context) {
	var req dto.AssignmentNoticeRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.notifications.NotifyAssignment(c.Request.Context(), req.Activity, req.Faculty)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Rejection godoc
// @Summary Notify the referrer of a declined nomination
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body dto.RejectionNoticeRequest true "Notice payload"
// @Success 200 {object} response.Envelope
// @Router /notifications/rejection [post]
func (h *NotificationHandler) Rejection(c *gin.Context) {
	var req dto.RejectionNoticeRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.notifications.NotifyRejection(c.Request.Context(), req.Activity, req.Faculty, req.Referrer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Certificates godoc
// @Summary Email certificates
// @Description Partial failures still answer 200 and list the refused recipients.
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body dto.SendCertificatesRequest true "Recipients"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /certificates/send [post]
func (h *NotificationHandler) Certificates(c *gin.Context) {
	var req dto.SendCertificatesRequest
	if !h.bind(c, &req) {
		return
	}
	target := req.Target()
	if target == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "activity or event is required"))
		return
	}
	result, err := h.certificates.SendCertificates(c.Request.Context(), req.RunID, *target, req.Recipients)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func (h *NotificationHandler) bind(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notification payload"))
		return false
	}
	if err := h.validator.Struct(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error()))
		return false
	}
	return true
}
