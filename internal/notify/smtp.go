package notify

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender delivers through an SMTP relay with gomail.
type SMTPSender struct {
	dialer dialer
	host   string
}

// NewSMTPSender returns a sender for the given relay.
func NewSMTPSender(host string, port int, username, password string) (*SMTPSender, error) {
	if strings.TrimSpace(host) == "" {
		return nil, fmt.Errorf("SMTP_HOST is required")
	}
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		host:   host,
	}, nil
}

// Send delivers msg. The receipt ID is the generated Message-ID since SMTP
// relays do not return one.
func (s *SMTPSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := validate(msg); err != nil {
		return Receipt{}, err
	}
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	id := uuid.NewString()
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", "<"+id+"@"+s.host+">")
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetBody("text/html", msg.HTML)
	for _, a := range msg.Attachments {
		content := a.Content
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		}
		if a.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}))
		}
		m.Attach(a.FileName, settings...)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return Receipt{}, &DeliveryError{Provider: "smtp", Message: err.Error()}
	}
	return Receipt{ID: id}, nil
}

var _ Sender = (*SMTPSender)(nil)
