package llm

import (
	"context"
	"errors"
)

// VisionClient sends one prompt plus one document to a multimodal model and
// returns the model's raw text reply.
type VisionClient interface {
	Describe(ctx context.Context, req VisionRequest) (string, error)
}

// VisionRequest carries the prompt and the document to read. Data holds the
// decoded file bytes; DataURI is the same payload as sent by the browser.
// DocumentText, when set, replaces the binary part for providers that cannot
// read the file type directly.
type VisionRequest struct {
	Prompt       string
	DataURI      string
	MimeType     string
	Data         []byte
	DocumentText string
	Temperature  float32
	MaxTokens    int
}

// ErrEmptyResponse is returned when the provider answered without any text.
var ErrEmptyResponse = errors.New("empty model response")

// ProviderError is an error reported by the model API itself.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	return e.Provider + " error: " + e.Message
}
