package dto

import "time"

// CertificateRecipient is one person receiving a certificate.
type CertificateRecipient struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// SendCertificatesRequest triggers the certificate email batch. RunID is
// optional; when set the run must still be executing.
type SendCertificatesRequest struct {
	RunID      string                 `json:"runId,omitempty"`
	Activity   *ActivityRef           `json:"activity,omitempty" validate:"omitempty"`
	Event      *ActivityRef           `json:"event,omitempty" validate:"omitempty"`
	Recipients []CertificateRecipient `json:"recipients" validate:"required,min=1,dive"`
}

// Target returns the referenced activity, preferring the activity field.
func (r SendCertificatesRequest) Target() *ActivityRef {
	if r.Activity != nil {
		return r.Activity
	}
	return r.Event
}

// IssueCertificatesRequest asks for certificates to be generated for an
// activity. With Send set, the emails are queued as a background job.
type IssueCertificatesRequest struct {
	Recipients []CertificateRecipient `json:"recipients" validate:"required,min=1,dive"`
	Send       bool                   `json:"send"`
}

// IssuedCertificate describes one generated certificate.
type IssuedCertificate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Hash  string `json:"hash"`
	URL   string `json:"url"`
}

// IssueCertificatesResponse lists generated certificates and the send job.
type IssueCertificatesResponse struct {
	Certificates []IssuedCertificate `json:"certificates"`
	RunID        string              `json:"runId,omitempty"`
}

// BatchFailure is one recipient the provider did not accept.
type BatchFailure struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// BatchResult reports a best-effort batch: successes are counted, failures
// listed per recipient.
type BatchResult struct {
	Sent   int            `json:"sent"`
	Failed []BatchFailure `json:"failed"`
}

// CertificateLookupResponse is the public verification view. It never
// carries the internal certificate id.
type CertificateLookupResponse struct {
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	ActivityTitle string    `json:"activity_title"`
	ActivityDate  time.Time `json:"activity_date"`
	Hash          string    `json:"hash"`
	IssuedAt      time.Time `json:"issued_at"`
}
