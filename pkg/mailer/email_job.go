package mailer

import (
	"errors"

	mailtpl "github.com/petlovers/petlovers-api/pkg/mailer/templates"
)

// EmailJob is a rendered-or-renderable email. Either Template and Data are
// set, or Subject with Text and/or HTML.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // e.g. "adoption_pending"
	Data     map[string]any `json:"data,omitempty"`
}

// Render returns the subject and bodies, rendering Template when present.
func (j EmailJob) Render() (subject, text, html string, err error) {
	if j.To == "" {
		return "", "", "", errors.New("email job has no recipient")
	}
	if j.Template == "" {
		return j.Subject, j.Text, j.HTML, nil
	}
	return mailtpl.Render(j.Template, j.Data)
}
