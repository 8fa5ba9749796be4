// Package extraction reads structured insurance fields off an uploaded
// certificate using a vision-capable model.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ascend-backend/internal/dates"
	"ascend-backend/internal/llm"
	"ascend-backend/internal/shared/metrics"
	"ascend-backend/internal/shared/telemetry"
)

// DocumentType is the purpose an uploaded certificate was submitted for.
type DocumentType string

const (
	PublicLiability DocumentType = "public_liability"
	WorkersComp     DocumentType = "workers_comp"
	Other           DocumentType = "other"
)

// Label is the human-readable name used in emails.
func (t DocumentType) Label() string {
	switch t {
	case PublicLiability:
		return "Public Liability"
	case WorkersComp:
		return "Workers Compensation"
	case Other:
		return "Other Certificates"
	default:
		return string(t)
	}
}

// Valid reports whether t is one of the three stored document types.
func (t DocumentType) Valid() bool {
	return t == PublicLiability || t == WorkersComp || t == Other
}

// Outcome tags an extraction Result. Callers switch on it rather than
// checking fields for zero values.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeUnconfigured
	OutcomeParseError
	OutcomeServiceError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeUnconfigured:
		return "unconfigured"
	case OutcomeParseError:
		return "parse_error"
	case OutcomeServiceError:
		return "service_error"
	default:
		return "unknown"
	}
}

const (
	temperature       = 0.1
	maxOutputTokens   = 500
	defaultConfidence = 0.5
	msgUnconfigured   = "AI extraction not configured"
	msgInvalidReply   = "invalid AI response"
)

// Input is one uploaded file. DataURI is the browser's base64 data URI.
type Input struct {
	DataURI      string
	MimeType     string
	DocumentType DocumentType
}

// Fields are the values read off a certificate. Empty strings mean the model
// did not find the value.
type Fields struct {
	DocumentType string  `json:"document_type"`
	ExpiryDate   string  `json:"expiry_date,omitempty"`
	PolicyNumber string  `json:"policy_number,omitempty"`
	InsurerName  string  `json:"insurer_name,omitempty"`
	Confidence   float64 `json:"confidence"`
}

// Result is the tagged outcome of one extraction. Fields is only meaningful
// when Outcome is OutcomeOK; Message is set for every other outcome.
type Result struct {
	Outcome Outcome
	Fields  Fields
	Message string
	Raw     string
}

// OK reports whether fields were extracted.
func (r Result) OK() bool { return r.Outcome == OutcomeOK }

// Option configures an Adapter.
type Option func(*Adapter)

// WithPDFText sends the text layer of PDFs instead of the file itself, for
// providers whose vision input only takes images.
func WithPDFText() Option {
	return func(a *Adapter) { a.pdfAsText = true }
}

// Adapter wraps a vision client. A nil client leaves extraction unconfigured.
type Adapter struct {
	client    llm.VisionClient
	pdfAsText bool
}

// NewAdapter constructs an Adapter around client, which may be nil.
func NewAdapter(client llm.VisionClient, opts ...Option) *Adapter {
	a := &Adapter{client: client}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Configured reports whether Extract will call a model.
func (a *Adapter) Configured() bool {
	return a != nil && a.client != nil
}

// Extract makes exactly one model call for in and never panics.
func (a *Adapter) Extract(ctx context.Context, in Input) (res Result) {
	if !a.Configured() {
		return Result{Outcome: OutcomeUnconfigured, Message: msgUnconfigured}
	}

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			res = Result{Outcome: OutcomeServiceError, Message: fmt.Sprint(rec)}
		}
		metrics.ObserveExtraction(res.Outcome.String(), start)
	}()

	req := llm.VisionRequest{
		Prompt:      certificatePrompt,
		DataURI:     in.DataURI,
		MimeType:    in.MimeType,
		Temperature: temperature,
		MaxTokens:   maxOutputTokens,
	}
	if uriMime, data, err := DecodeDataURI(in.DataURI); err == nil {
		req.Data = data
		if req.MimeType == "" {
			req.MimeType = uriMime
		}
	}
	if a.pdfAsText && isPDF(req.MimeType) && len(req.Data) > 0 {
		text, err := pdfText(req.Data)
		switch {
		case err != nil:
			telemetry.Warn("extraction.pdf_text_failed", map[string]any{"document_type": string(in.DocumentType), "error": err})
		case text == "":
			telemetry.Warn("extraction.pdf_no_text", map[string]any{"document_type": string(in.DocumentType)})
		default:
			req.DocumentText = text
		}
	}

	raw, err := a.client.Describe(ctx, req)
	if err != nil {
		telemetry.Error("extraction.service_error", map[string]any{"document_type": string(in.DocumentType), "error": err})
		return Result{Outcome: OutcomeServiceError, Message: err.Error()}
	}

	fields, err := ParseResponse(raw, in.DocumentType)
	if err != nil {
		telemetry.Error("extraction.parse_error", map[string]any{
			"document_type": string(in.DocumentType),
			"error":         err,
			"raw":           truncate(raw, 500),
		})
		return Result{Outcome: OutcomeParseError, Message: msgInvalidReply, Raw: raw}
	}
	return Result{Outcome: OutcomeOK, Fields: fields, Raw: raw}
}

var fenceRe = regexp.MustCompile("```(?:json|JSON)?\\n?")

// ParseResponse turns a model reply into Fields. Markdown fences are
// stripped; anything that is not a JSON object of the expected shape is an
// error.
func ParseResponse(raw string, hint DocumentType) (Fields, error) {
	cleaned := strings.TrimSpace(fenceRe.ReplaceAllString(raw, ""))

	var generic any
	if err := json.Unmarshal([]byte(cleaned), &generic); err != nil {
		return Fields{}, fmt.Errorf("decode reply: %w", err)
	}
	sch, err := responseSchema()
	if err != nil {
		return Fields{}, err
	}
	if err := sch.Validate(generic); err != nil {
		return Fields{}, fmt.Errorf("reply does not match schema: %w", err)
	}

	var reply struct {
		DocumentType *string `json:"document_type"`
		ExpiryDate   *string `json:"expiry_date"`
		PolicyNumber any     `json:"policy_number"`
		InsurerName  *string `json:"insurer_name"`
		Confidence   any     `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil {
		return Fields{}, fmt.Errorf("decode reply: %w", err)
	}

	fields := Fields{
		DocumentType: strings.TrimSpace(deref(reply.DocumentType)),
		PolicyNumber: stringify(reply.PolicyNumber),
		InsurerName:  strings.TrimSpace(deref(reply.InsurerName)),
		Confidence:   confidence(reply.Confidence),
	}
	if fields.DocumentType == "" {
		fields.DocumentType = string(hint)
	}
	if expiry := deref(reply.ExpiryDate); expiry != "" {
		fields.ExpiryDate, _ = dates.Normalize(expiry)
	}
	return fields, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

// confidence reads the model's self-reported confidence, clamped to [0, 1].
// Missing or unreadable values fall back to 0.5.
func confidence(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return defaultConfidence
		}
		f = parsed
	default:
		return defaultConfidence
	}
	if math.IsNaN(f) {
		return defaultConfidence
	}
	return math.Max(0, math.Min(1, f))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
