package email

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const (
	defaultSendgridHost = "https://api.sendgrid.com"
	sendgridEndpoint    = "/v3/mail/send"
)

// SendgridConfig configures the SendGrid sender.
type SendgridConfig struct {
	APIKey        string
	Host          string
	FromAddress   string
	FromName      string
	SubjectPrefix string
}

// SendgridSender delivers messages through the SendGrid v3 mail API.
type SendgridSender struct {
	key        string
	host       string
	from       *sgmail.Email
	subjPrefix string
	logger     *zap.Logger
}

// NewSendgridSender constructs a SendGrid backed sender.
func NewSendgridSender(cfg SendgridConfig, logger *zap.Logger) (*SendgridSender, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("sendgrid api key is required")
	}
	if strings.TrimSpace(cfg.FromAddress) == "" {
		return nil, fmt.Errorf("sendgrid from address is required")
	}
	if cfg.Host == "" {
		cfg.Host = defaultSendgridHost
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendgridSender{
		key:        cfg.APIKey,
		host:       strings.TrimRight(cfg.Host, "/"),
		from:       sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		subjPrefix: cfg.SubjectPrefix,
		logger:     logger,
	}, nil
}

// Send delivers one message. Provider rejections are returned as errors
// carrying the provider's response body.
func (s *SendgridSender) Send(ctx context.Context, msg Message) error {
	to := msg.Recipients()
	if len(to) == 0 {
		return ErrNoRecipients
	}

	req := sendgrid.GetRequest(s.key, sendgridEndpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg, to))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		s.logger.Sugar().Warnw("sendgrid rejected message", "status", res.StatusCode, "subject", msg.Subject, "recipients", len(to))
		return fmt.Errorf("sendgrid status %d: %s", res.StatusCode, strings.TrimSpace(res.Body))
	}
	return nil
}

// SendBatch delivers every message concurrently and collects failures.
func (s *SendgridSender) SendBatch(ctx context.Context, msgs []Message) BatchResult {
	return sendAll(ctx, msgs, s.Send)
}

func (s *SendgridSender) prepare(msg Message, to []string) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	for _, addr := range to {
		p.AddTos(sgmail.NewEmail("", addr))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)

	// text/plain must precede text/html in the content list.
	if msg.Text != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	}
	if msg.HTML != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}

	for _, a := range msg.Attachments {
		m.AddAttachment(&sgmail.Attachment{
			Content:     base64.StdEncoding.EncodeToString(a.Content),
			Type:        a.ContentType,
			Filename:    a.Filename,
			Disposition: "attachment",
		})
	}
	return m
}
