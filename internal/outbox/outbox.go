// Package outbox defines the email outbox collaborator. The core only waits
// for successful enqueueing; delivery is owned by an external mailer.
package outbox

import "context"

// Email is one queued outbound message. Either TemplateName with
// TemplateData or a raw Body must be set. The recipient is an address or a
// user id; the mailer resolves ids, since user records live outside this
// service.
type Email struct {
	RecipientEmail string         `json:"recipient_email,omitempty"`
	RecipientID    string         `json:"recipient_id,omitempty"`
	Subject        string         `json:"subject"`
	TemplateName   string         `json:"template_name,omitempty"`
	TemplateData   map[string]any `json:"template_data,omitempty"`
	Body           string         `json:"body,omitempty"`
}

// EmailOutbox enqueues outbound emails and returns an opaque job id.
type EmailOutbox interface {
	Enqueue(ctx context.Context, email Email) (string, error)
}
