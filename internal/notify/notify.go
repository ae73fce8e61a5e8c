// Package notify sends submission confirmation emails.
package notify

import (
	"context"
	"fmt"

	"github.com/settlement-form/backend/internal/models"
)

// Message is one outbound confirmation email.
type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []models.Attachment
}

// Notifier delivers a message. Send blocks until the transport accepts or rejects it.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Template renders the confirmation email for a settlement.
type Template struct {
	Subject      string
	Organization string
}

// DefaultTemplate matches the confirmation wording used by the settlement form.
var DefaultTemplate = Template{
	Subject:      "Settlement Form Submission Confirmation",
	Organization: "Your Organization",
}

// Confirmation builds the message sent to the submitter with all attachments.
func (t Template) Confirmation(rec *models.Settlement, attachments []models.Attachment) Message {
	subject := t.Subject
	if subject == "" {
		subject = DefaultTemplate.Subject
	}
	org := t.Organization
	if org == "" {
		org = DefaultTemplate.Organization
	}

	return Message{
		To:      rec.Email,
		Subject: subject,
		Body: fmt.Sprintf("Dear %s,\n\nThank you for submitting your settlement form. "+
			"Please find the attached documents.\n\nBest regards,\n%s", rec.Name, org),
		Attachments: attachments,
	}
}
