package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// ResendSender delivers messages through the Resend API client.
type ResendSender struct {
	client *resend.Client
}

// NewResendSender returns a sender for apiKey.
func NewResendSender(apiKey string) (*ResendSender, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("RESEND_API_KEY is required")
	}
	httpClient := &http.Client{
		Timeout:   30 * time.Second,
		Transport: rejectionRecorder{next: http.DefaultTransport},
	}
	return &ResendSender{client: resend.NewCustomClient(httpClient, apiKey)}, nil
}

// Send delivers msg in one request.
func (s *ResendSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := validate(msg); err != nil {
		return Receipt{}, err
	}

	req := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
	for _, a := range msg.Attachments {
		req.Attachments = append(req.Attachments, &resend.Attachment{
			Filename:    a.FileName,
			Content:     a.Content,
			ContentType: a.ContentType,
		})
	}

	rejected := &DeliveryError{Provider: "resend"}
	sent, err := s.client.Emails.SendWithContext(context.WithValue(ctx, rejectionKey{}, rejected), req)
	if err != nil {
		if rejected.StatusCode != 0 {
			if rejected.Message == "" {
				rejected.Message = strings.TrimPrefix(err.Error(), "[ERROR]: ")
			}
			return Receipt{}, rejected
		}
		return Receipt{}, fmt.Errorf("resend request: %w", err)
	}
	return Receipt{ID: sent.Id}, nil
}

type rejectionKey struct{}

type resendRejection struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

// rejectionRecorder copies a Resend error body into the DeliveryError carried
// on the request context. The client itself only surfaces the message text.
type rejectionRecorder struct {
	next http.RoundTripper
}

func (r rejectionRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.next.RoundTrip(req)
	if err != nil || resp.StatusCode < http.StatusBadRequest {
		return resp, err
	}
	target, ok := req.Context().Value(rejectionKey{}).(*DeliveryError)
	if !ok {
		return resp, nil
	}

	raw, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(raw))
	if readErr != nil {
		return resp, nil
	}

	var body resendRejection
	_ = json.Unmarshal(raw, &body)
	target.StatusCode = resp.StatusCode
	if body.StatusCode != 0 {
		target.StatusCode = body.StatusCode
	}
	target.Name = body.Name
	target.Message = body.Message
	if target.Message == "" {
		target.Message = strings.TrimSpace(string(raw))
	}
	return resp, nil
}

var _ Sender = (*ResendSender)(nil)
