package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"ascend-backend/internal/llm"
	"ascend-backend/internal/shared/telemetry"
)

const defaultModel = "gemini-2.5-flash"

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements llm.VisionClient on the Gemini API. Gemini reads PDFs
// natively, so documents are always sent as inline bytes.
type Client struct {
	models generator
	model  string
}

// NewClient constructs a Gemini client. An empty model uses gemini-2.5-flash.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{models: client.Models, model: model}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Describe sends the prompt and the document bytes in one user turn.
func (c *Client) Describe(ctx context.Context, in llm.VisionRequest) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(in.Prompt)}
	switch {
	case len(in.Data) > 0:
		parts = append(parts, genai.NewPartFromBytes(in.Data, in.MimeType))
	case strings.TrimSpace(in.DocumentText) != "":
		parts = append(parts, genai.NewPartFromText("Document text:\n"+in.DocumentText))
	default:
		return "", fmt.Errorf("gemini: no document supplied")
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(in.Temperature),
	}
	if in.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(in.MaxTokens)
	}

	resp, err := c.models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &llm.ProviderError{Provider: "gemini", Status: apiErr.Code, Message: apiErr.Message}
		}
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	if resp.UsageMetadata != nil {
		telemetry.Info("llm.response", map[string]any{
			"provider":          "gemini",
			"model":             c.model,
			"prompt_tokens":     resp.UsageMetadata.PromptTokenCount,
			"completion_tokens": resp.UsageMetadata.CandidatesTokenCount,
		})
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

var _ llm.VisionClient = (*Client)(nil)
