package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/proceso-api/internal/dto"
	appErrors "github.com/noah-isme/proceso-api/pkg/errors"
	"github.com/noah-isme/proceso-api/pkg/response"
)

type certificateService interface {
	Issue(ctx context.Context, activityID string, req dto.IssueCertificatesRequest) (*dto.IssueCertificatesResponse, error)
	Lookup(ctx context.Context, hash string) (*dto.CertificateLookupResponse, error)
	Download(ctx context.Context, token string) (*os.File, string, error)
	ExportCSV(ctx context.Context, activityID string) ([]byte, string, error)
}

// CertificateHandler issues certificates and serves public verification.
type CertificateHandler struct {
	service certificateService
}

// NewCertificateHandler constructs the handler.
func NewCertificateHandler(service certificateService) *CertificateHandler {
	return &CertificateHandler{service: service}
}

// Issue godoc
// @Summary Issue certificates
// @Tags Certificates
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param payload body dto.IssueCertificatesRequest true "Recipients"
// @Success 201 {object} response.Envelope
// @Router /activities/{id}/certificates [post]
func (h *CertificateHandler) Issue(c *gin.Context) {
	var req dto.IssueCertificatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid certificate payload"))
		return
	}
	issued, err := h.service.Issue(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, issued)
}

// ExportCSV godoc
// @Summary Certificate roster
// @Tags Certificates
// @Produce text/csv
// @Param id path string true "Activity ID"
// @Success 200 {file} file
// @Router /activities/{id}/certificates.csv [get]
func (h *CertificateHandler) ExportCSV(c *gin.Context) {
	data, filename, err := h.service.ExportCSV(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// Lookup godoc
// @Summary Verify a certificate
// @Tags Certificates
// @Produce json
// @Param hash path string true "Certificate hash"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /certs/{hash} [get]
func (h *CertificateHandler) Lookup(c *gin.Context) {
	lookup, err := h.service.Lookup(c.Request.Context(), c.Param("hash"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lookup, nil)
}

// Download godoc
// @Summary Download a certificate
// @Tags Certificates
// @Produce application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /certs/download/{token} [get]
func (h *CertificateHandler) Download(c *gin.Context) {
	file, filename, err := h.service.Download(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read certificate"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	c.Header("Cache-Control", "private, max-age=300")
	c.DataFromReader(http.StatusOK, info.Size(), "application/pdf", file, nil)
}
