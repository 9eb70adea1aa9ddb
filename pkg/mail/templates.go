package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// CTA is a call-to-action button in an HTML email.
type CTA struct {
	Label string
	URL   string
}

// Line is one labelled row in the email body. Value is escaped by the
// template, so customer-supplied text is safe to pass through.
type Line struct {
	Label string
	Value string
}

// EmailData drives the shared HTML email layout.
type EmailData struct {
	Title     string
	Intro     string
	Lines     []Line
	Primary   *CTA
	Secondary *CTA
}

var emailTmpl = template.Must(template.New("email").Parse(`<!doctype html>
<html>
  <body style="margin:0;padding:0;background:#f6f7fb;font-family:system-ui,Arial;">
    <div style="max-width:640px;margin:0 auto;padding:22px;">
      <div style="background:#fff;border-radius:18px;box-shadow:0 12px 34px rgba(16,24,40,.08);padding:18px;border:1px solid rgba(16,24,40,.08);">
        <div style="font-weight:900;font-size:16px;color:#101828;margin-bottom:12px;">{{.Title}}</div>
        {{if .Intro}}<div style="margin:0 0 10px;line-height:1.5;color:#101828;">{{.Intro}}</div>{{end}}
        {{range .Lines}}<div style="margin:0 0 10px;line-height:1.5;color:#101828;"><strong>{{.Label}}:</strong> {{.Value}}</div>
        {{end}}
        <div style="margin-top:16px;">
          {{if .Primary}}<a href="{{.Primary.URL}}" style="display:inline-block;padding:12px 16px;border-radius:12px;text-decoration:none;font-weight:800;background:#2F7DF6;color:white;margin-right:10px;">{{.Primary.Label}}</a>{{end}}
          {{if .Secondary}}<a href="{{.Secondary.URL}}" style="display:inline-block;padding:12px 16px;border-radius:12px;text-decoration:none;font-weight:800;background:#FF4D4D;color:white;margin-right:10px;">{{.Secondary.Label}}</a>{{end}}
        </div>
        <div style="margin-top:14px;color:#667085;font-size:12px;">If buttons don't work, copy/paste the link.</div>
      </div>
    </div>
  </body>
</html>`))

// RenderHTML renders the shared email layout.
func RenderHTML(data EmailData) (string, error) {
	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email template: %w", err)
	}
	return buf.String(), nil
}

// RenderText renders the plain-text counterpart of the same content.
func RenderText(data EmailData) string {
	var sb strings.Builder

	if data.Intro != "" {
		sb.WriteString(data.Intro)
		sb.WriteString("\n\n")
	}
	for _, line := range data.Lines {
		sb.WriteString(fmt.Sprintf("%s: %s\n", line.Label, line.Value))
	}
	if data.Primary != nil {
		sb.WriteString(fmt.Sprintf("\n%s: %s\n", data.Primary.Label, data.Primary.URL))
	}
	if data.Secondary != nil {
		sb.WriteString(fmt.Sprintf("%s: %s\n", data.Secondary.Label, data.Secondary.URL))
	}

	return sb.String()
}
