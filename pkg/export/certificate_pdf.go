package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateData carries the values printed on a certificate of participation.
type CertificateData struct {
	RecipientName string
	ActivityTitle string
	ActivityDate  time.Time
	IssuedAt      time.Time
	Issuer        string
	Hash          string
	VerifyURL     string
}

// CertificateRenderer draws certificates as single page landscape PDFs.
type CertificateRenderer struct{}

// NewCertificateRenderer constructs a certificate renderer.
func NewCertificateRenderer() *CertificateRenderer {
	return &CertificateRenderer{}
}

// Render creates the certificate document.
func (r *CertificateRenderer) Render(data CertificateData) ([]byte, error) {
	if strings.TrimSpace(data.RecipientName) == "" {
		return nil, fmt.Errorf("certificate requires a recipient name")
	}
	if strings.TrimSpace(data.ActivityTitle) == "" {
		return nil, fmt.Errorf("certificate requires an activity title")
	}
	issuedAt := data.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now().UTC()
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Certificate of Participation", true)
	pdf.SetCreationDate(issuedAt)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	width, height := pdf.GetPageSize()
	pdf.SetDrawColor(46, 46, 46)
	pdf.SetLineWidth(1.2)
	pdf.Rect(10, 10, width-20, height-20, "D")
	pdf.SetLineWidth(0.3)
	pdf.Rect(14, 14, width-28, height-28, "D")

	pdf.SetY(38)
	pdf.SetFont("Helvetica", "B", 30)
	pdf.CellFormat(0, 14, "CERTIFICATE OF PARTICIPATION", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 8, "This certifies that", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 26)
	pdf.CellFormat(0, 14, tr(data.RecipientName), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 8, "has participated in", "", 1, "C", false, 0, "")
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 9, tr(data.ActivityTitle), "", "C", false)
	if !data.ActivityDate.IsZero() {
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(0, 8, "held on "+data.ActivityDate.Format("January 2, 2006"), "", 1, "C", false, 0, "")
	}

	pdf.SetY(height - 52)
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "Issued "+issuedAt.Format("January 2, 2006"), "", 1, "C", false, 0, "")
	if data.Issuer != "" {
		pdf.CellFormat(0, 6, tr(data.Issuer), "", 1, "C", false, 0, "")
	}

	pdf.SetY(height - 30)
	pdf.SetFont("Courier", "", 8)
	pdf.SetTextColor(90, 90, 90)
	if data.Hash != "" {
		pdf.CellFormat(0, 4, "Verification code: "+data.Hash, "", 1, "C", false, 0, "")
	}
	if data.VerifyURL != "" {
		pdf.CellFormat(0, 4, data.VerifyURL, "", 1, "C", false, 0, data.VerifyURL)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}
