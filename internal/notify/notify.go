// Package notify delivers HTML email through Resend or plain SMTP.
package notify

import (
	"context"
	"fmt"
	"strings"
)

// Attachment is a file sent alongside a message.
type Attachment struct {
	FileName    string
	ContentType string
	Content     []byte
}

// Message is one outbound email.
type Message struct {
	From        string
	To          []string
	ReplyTo     string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Receipt identifies a delivered message.
type Receipt struct {
	ID string `json:"id"`
}

// Sender delivers a message. Implementations make one attempt and never retry.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}

// DeliveryError is a rejection reported by the mail provider. It marshals to
// the body returned to form clients.
type DeliveryError struct {
	Provider   string `json:"-"`
	StatusCode int    `json:"statusCode,omitempty"`
	Name       string `json:"name,omitempty"`
	Message    string `json:"message"`
}

func (e *DeliveryError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s: %s", e.Provider, e.Name, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func validate(msg Message) error {
	if strings.TrimSpace(msg.From) == "" {
		return fmt.Errorf("message has no sender")
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return fmt.Errorf("message has no subject")
	}
	return nil
}
