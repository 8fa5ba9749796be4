// Package forms handles the two lightweight website forms: quote requests and
// colour-confirmation sign-offs.
package forms

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"ascend-backend/internal/notify"
	"ascend-backend/internal/shared/metrics"
	"ascend-backend/internal/shared/telemetry"
	"ascend-backend/internal/shared/util"
)

//go:embed templates/*.html
var templateFiles embed.FS

var tmpl = template.Must(template.New("forms").
	Funcs(template.FuncMap{
		"esc": func(s string) template.HTML { return template.HTML(util.EscapeHTML(s)) },
	}).
	ParseFS(templateFiles, "templates/*.html"))

const notSelected = "Not selected"

// ErrInvalidSubmission rejects a colour confirmation without a customer name.
var ErrInvalidSubmission = errors.New("invalid submission")

// Service renders form emails and hands them to Sender. A nil Sender means
// email is not configured.
type Service struct {
	Sender notify.Sender
	From   string
	To     string
}

// Result reports a form submission. EmailError carries a provider rejection.
type Result struct {
	Simulated  bool
	Receipt    *notify.Receipt
	EmailError error
}

// QuoteRequest is the "get a quote" form.
type QuoteRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Service string `json:"service"`
	Message string `json:"message"`
}

// SubmitQuote logs the request and forwards it to the business inbox when a
// sender is configured. Forwarding failures are logged only.
func (s *Service) SubmitQuote(ctx context.Context, q QuoteRequest) Result {
	telemetry.Info("quote.received", map[string]any{
		"name":    q.Name,
		"phone":   q.Phone,
		"email":   q.Email,
		"service": q.Service,
		"message": q.Message,
	})
	if s.Sender == nil {
		metrics.IncSubmission("quote", "simulated")
		return Result{Simulated: true}
	}

	html, err := render("quote_email.html", q)
	if err != nil {
		telemetry.Error("quote.render_failed", map[string]any{"error": err.Error()})
		metrics.IncSubmission("quote", "failed")
		return Result{}
	}
	msg := notify.Message{
		From:    s.From,
		To:      []string{s.To},
		ReplyTo: strings.TrimSpace(q.Email),
		Subject: "New Quote Request: " + strings.TrimSpace(q.Name),
		HTML:    html,
	}
	receipt, err := s.Sender.Send(ctx, msg)
	if err != nil {
		telemetry.Error("quote.forward_failed", map[string]any{"error": err.Error()})
		metrics.IncSubmission("quote", "failed")
		return Result{EmailError: err}
	}
	metrics.IncSubmission("quote", "sent")
	return Result{Receipt: &receipt}
}

// ColourConfirmation is the customer's colour sign-off.
type ColourConfirmation struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	JobAddress   string `json:"jobAddress"`
	RoofColour   string `json:"roofColour"`
	GutterColour string `json:"gutterColour"`
	FasciaColour string `json:"fasciaColour"`
	Signature    string `json:"signature"`
}

var signatureImage = regexp.MustCompile(`^data:image/(png|jpeg|jpg|gif|webp);base64,[A-Za-z0-9+/]+=*$`)

type colourEmail struct {
	ColourConfirmation
	SignatureText  string
	SignatureImage template.URL
}

func (c ColourConfirmation) normalize() ColourConfirmation {
	for _, f := range []*string{&c.FirstName, &c.LastName, &c.JobAddress, &c.RoofColour, &c.GutterColour, &c.FasciaColour} {
		*f = strings.TrimSpace(*f)
	}
	for _, f := range []*string{&c.RoofColour, &c.GutterColour, &c.FasciaColour} {
		if *f == "" {
			*f = notSelected
		}
	}
	c.Signature = strings.TrimSpace(c.Signature)
	return c
}

// signature splits the signature into typed text or a drawn image. Only
// base64 image data URIs are embedded.
func (c ColourConfirmation) signature() (string, template.URL) {
	switch {
	case strings.HasPrefix(c.Signature, "Typed:"):
		return c.Signature, ""
	case signatureImage.MatchString(c.Signature):
		return "", template.URL(c.Signature)
	case c.Signature == "":
		return "[No signature provided]", ""
	default:
		return "[Drawn Signature - see image below]", ""
	}
}

func colourSubject(c ColourConfirmation) string {
	return fmt.Sprintf("Colour Confirmation: %s %s — %s", c.FirstName, c.LastName, c.JobAddress)
}

// SubmitColour emails the sign-off. Without a sender the submission is logged
// and reported as simulated.
func (s *Service) SubmitColour(ctx context.Context, in ColourConfirmation) (Result, error) {
	c := in.normalize()
	if c.FirstName == "" && c.LastName == "" {
		metrics.IncSubmission("colour", "rejected")
		return Result{}, ErrInvalidSubmission
	}

	if s.Sender == nil {
		telemetry.Warn("colour.email_unconfigured", map[string]any{
			"first_name":    c.FirstName,
			"last_name":     c.LastName,
			"job_address":   c.JobAddress,
			"roof_colour":   c.RoofColour,
			"gutter_colour": c.GutterColour,
			"fascia_colour": c.FasciaColour,
		})
		metrics.IncSubmission("colour", "simulated")
		return Result{Simulated: true}, nil
	}

	data := colourEmail{ColourConfirmation: c}
	data.SignatureText, data.SignatureImage = c.signature()
	html, err := render("colour_email.html", data)
	if err != nil {
		return Result{}, err
	}

	receipt, err := s.Sender.Send(ctx, notify.Message{
		From:    s.From,
		To:      []string{s.To},
		Subject: colourSubject(c),
		HTML:    html,
	})
	if err != nil {
		telemetry.Error("colour.send_failed", map[string]any{"error": err.Error()})
		metrics.IncSubmission("colour", "failed")
		return Result{EmailError: err}, nil
	}
	metrics.IncSubmission("colour", "sent")
	return Result{Receipt: &receipt}, nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
