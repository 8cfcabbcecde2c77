package service

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/noah-isme/proceso-api/internal/dto"
)

// NotificationKind names a notice type. Kinds double as metric labels and
// event subjects.
type NotificationKind string

const (
	KindAssignment  NotificationKind = "assignment"
	KindRejection   NotificationKind = "rejection"
	KindNomination  NotificationKind = "nomination"
	KindRequest     NotificationKind = "request"
	KindUnassigned  NotificationKind = "unassigned"
	KindActivity    NotificationKind = "activity"
	KindCertificate NotificationKind = "certificate"
)

type noticeData struct {
	Activity  dto.ActivityRef
	Faculty   *dto.NotificationPerson
	Referrer  *dto.NotificationPerson
	Recipient string
	Link      string
}

func (d noticeData) When() string {
	if d.Activity.DateStarting == nil {
		return ""
	}
	when := d.Activity.DateStarting.Format("Monday, January 2, 2006 3:04 PM")
	if d.Activity.DateEnding != nil && !d.Activity.DateEnding.Equal(*d.Activity.DateStarting) {
		when += " to " + d.Activity.DateEnding.Format("January 2, 2006 3:04 PM")
	}
	return when
}

var noticeSubjects = map[NotificationKind]string{
	KindAssignment:  "Faculty assignment accepted: %s",
	KindRejection:   "Faculty assignment declined: %s",
	KindNomination:  "You have been nominated for %s",
	KindRequest:     "Volunteers needed for %s",
	KindUnassigned:  "You have been unassigned from %s",
	KindActivity:    "New activity: %s",
	KindCertificate: "Your certificate for %s",
}

const noticeLayout = `{{define "layout"}}<!doctype html>
<html><body style="font-family:Arial,sans-serif;color:#2e2e2e">
{{template "body" .}}
{{if .Link}}<p><a href="{{.Link}}">View activity</a></p>{{end}}
<p style="font-size:12px;color:#777">This is an automated message from ProCESO.</p>
</body></html>{{end}}`

var noticeBodies = map[NotificationKind]string{
	KindAssignment: `<p>{{.Faculty.Name}} ({{.Faculty.Email}}) accepted the assignment to <strong>{{.Activity.Title}}</strong>.</p>
{{with .When}}<p>Schedule: {{.}}</p>{{end}}`,
	KindRejection: `<p>{{.Faculty.Name}} declined the nomination you made for <strong>{{.Activity.Title}}</strong>.</p>
<p>You may nominate another faculty member.</p>`,
	KindNomination: `<p>You have been nominated to take part in <strong>{{.Activity.Title}}</strong>.</p>
{{with .When}}<p>Schedule: {{.}}</p>{{end}}
<p>Please accept or decline the nomination.</p>`,
	KindRequest: `<p>Faculty volunteers are requested for <strong>{{.Activity.Title}}</strong>.</p>
{{with .When}}<p>Schedule: {{.}}</p>{{end}}`,
	KindUnassigned: `<p>You are no longer assigned to <strong>{{.Activity.Title}}</strong>.</p>`,
	KindActivity: `<p>A new activity has been scheduled: <strong>{{.Activity.Title}}</strong>.</p>
{{with .When}}<p>Schedule: {{.}}</p>{{end}}`,
	KindCertificate: `<p>Thank you for joining <strong>{{.Activity.Title}}</strong>.</p>
<p>Your certificate of participation is attached to this email.</p>`,
}

var noticeTemplates = parseNoticeTemplates()

func parseNoticeTemplates() map[NotificationKind]*template.Template {
	out := make(map[NotificationKind]*template.Template, len(noticeBodies))
	for kind, body := range noticeBodies {
		tmpl := template.Must(template.New(string(kind)).Parse(noticeLayout))
		out[kind] = template.Must(tmpl.New("body").Parse(body))
	}
	return out
}

// renderNotice returns subject, HTML and plain text bodies for a notice.
func renderNotice(kind NotificationKind, data noticeData) (string, string, string, error) {
	tmpl, ok := noticeTemplates[kind]
	if !ok {
		return "", "", "", fmt.Errorf("no template for notice %q", kind)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", "", "", fmt.Errorf("render %s notice: %w", kind, err)
	}
	htmlBody := buf.String()
	return fmt.Sprintf(noticeSubjects[kind], data.Activity.Title), htmlBody, PlainText(htmlBody), nil
}
