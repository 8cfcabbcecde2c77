package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/proceso-api/internal/dto"
	appErrors "github.com/noah-isme/proceso-api/pkg/errors"
)

type certificateServiceMock struct {
	file string
}

func (m *certificateServiceMock) Issue(ctx context.Context, activityID string, req dto.IssueCertificatesRequest) (*dto.IssueCertificatesResponse, error) {
	return &dto.IssueCertificatesResponse{Certificates: []dto.IssuedCertificate{{Name: "A", Email: "a@x.edu", Hash: "abc"}}}, nil
}

func (m *certificateServiceMock) Lookup(ctx context.Context, hash string) (*dto.CertificateLookupResponse, error) {
	if hash != "abc" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
	}
	return &dto.CertificateLookupResponse{Name: "A", Email: "a@x.edu", ActivityTitle: "Drive", Hash: "abc", IssuedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}, nil
}

func (m *certificateServiceMock) Download(ctx context.Context, token string) (*os.File, string, error) {
	if token != "ok" {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "download link expired")
	}
	f, err := os.Open(m.file)
	return f, "certificate-abc.pdf", err
}

func (m *certificateServiceMock) ExportCSV(ctx context.Context, activityID string) ([]byte, string, error) {
	return []byte("Name,Email\nA,a@x.edu\n"), "certificates-" + activityID + ".csv", nil
}

func TestCertificateHandlerLookupHidesInternalID(t *testing.T) {
	h := NewCertificateHandler(&certificateServiceMock{})
	c, w := newTestContext(http.MethodGet, "/certs/abc")
	c.Params = append(c.Params, ginParam("hash", "abc"))

	h.Lookup(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"activity_title":"Drive"`)
	assert.NotContains(t, w.Body.String(), `"id"`)

	c, w = newTestContext(http.MethodGet, "/certs/zzz")
	c.Params = append(c.Params, ginParam("hash", "zzz"))
	h.Lookup(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCertificateHandlerDownloadStreamsPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cert.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.3 test"), 0o644))
	h := NewCertificateHandler(&certificateServiceMock{file: path})

	c, w := newTestContext(http.MethodGet, "/certs/download/ok")
	c.Params = append(c.Params, ginParam("token", "ok"))
	h.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.3 test", w.Body.String())

	c, w = newTestContext(http.MethodGet, "/certs/download/old")
	c.Params = append(c.Params, ginParam("token", "old"))
	h.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCertificateHandlerExportCSV(t *testing.T) {
	h := NewCertificateHandler(&certificateServiceMock{})
	c, w := newTestContext(http.MethodGet, "/api/activities/a1/certificates.csv")
	c.Params = append(c.Params, ginParam("id", "a1"))

	h.ExportCSV(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "certificates-a1.csv")
	assert.Contains(t, w.Body.String(), "a@x.edu")
}
