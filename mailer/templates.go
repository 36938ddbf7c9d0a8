package mailer

import (
	"bytes"
	"html/template"
)

// Tone selects the banner colour of a templated mail.
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneNotice  Tone = "notice"
)

type templateData struct {
	Tone    Tone
	Email   string
	Subject string
	Message string
}

var layout = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background: #f4f4f4; padding: 24px;">
  <div style="max-width: 560px; margin: 0 auto; background: #ffffff; border-radius: 8px; overflow: hidden;">
    <div style="padding: 16px 24px; color: #ffffff; background: {{if eq .Tone "success"}}#2e7d32{{else}}#455a64{{end}};">
      <h2 style="margin: 0;">{{.Subject}}</h2>
    </div>
    <div style="padding: 24px;">
      <p>{{.Message}}</p>
      <p style="color: #888888; font-size: 12px;">This message was sent to {{.Email}}.</p>
    </div>
  </div>
</body>
</html>`))

// Render builds a templated message; text is HTML-escaped.
func Render(tone Tone, to, subject, banner, text string) (Message, error) {
	var buf bytes.Buffer
	if err := layout.Execute(&buf, templateData{Tone: tone, Email: to, Subject: banner, Message: text}); err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subject, HTML: buf.String()}, nil
}
