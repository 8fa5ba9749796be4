package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ascend-backend/internal/llm"
)

func withServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	oldURL := apiURL
	apiURL = server.URL
	t.Cleanup(func() {
		apiURL = oldURL
		server.Close()
	})
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(" ", "gpt-4o")
	assert.Error(t, err)

	c, err := NewClient("key", "")
	require.NoError(t, err)
	assert.Equal(t, defaultModel, c.Model())
}

func TestDescribeSendsImageDataURI(t *testing.T) {
	var got map[string]any
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  {\"confidence\":0.9}  "}}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	})

	client, err := NewClient("test-key", "gpt-4o")
	require.NoError(t, err)

	out, err := client.Describe(context.Background(), llm.VisionRequest{
		Prompt:      "read this",
		DataURI:     "data:image/png;base64,AAAA",
		Temperature: 0.1,
		MaxTokens:   500,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"confidence":0.9}`, out)

	assert.Equal(t, "gpt-4o", got["model"])
	assert.EqualValues(t, 500, got["max_tokens"])
	assert.InDelta(t, 0.1, got["temperature"], 0.0001)
	messages := got["messages"].([]any)
	require.Len(t, messages, 1)
	content := messages[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	assert.Equal(t, "text", content[0].(map[string]any)["type"])
	image := content[1].(map[string]any)
	assert.Equal(t, "image_url", image["type"])
	assert.Equal(t, "data:image/png;base64,AAAA", image["image_url"].(map[string]any)["url"])
}

func TestDescribeSendsDocumentTextInsteadOfImage(t *testing.T) {
	var got map[string]any
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	})

	client, err := NewClient("test-key", "gpt-4o")
	require.NoError(t, err)
	_, err = client.Describe(context.Background(), llm.VisionRequest{
		Prompt:       "read this",
		DataURI:      "data:application/pdf;base64,AAAA",
		DocumentText: "Policy No: PL-123",
	})
	require.NoError(t, err)

	content := got["messages"].([]any)[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	second := content[1].(map[string]any)
	assert.Equal(t, "text", second["type"])
	assert.Contains(t, second["text"], "PL-123")
	assert.NotContains(t, second, "image_url")
}

func TestDescribeReturnsProviderError(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid image","type":"invalid_request_error"}}`))
	})

	client, err := NewClient("test-key", "gpt-4o")
	require.NoError(t, err)
	_, err = client.Describe(context.Background(), llm.VisionRequest{Prompt: "p", DataURI: "data:image/png;base64,AA"})

	var perr *llm.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusBadRequest, perr.Status)
	assert.Equal(t, "Invalid image", perr.Message)
}

func TestDescribeEmptyContent(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"   "}}]}`))
	})

	client, err := NewClient("test-key", "gpt-4o")
	require.NoError(t, err)
	_, err = client.Describe(context.Background(), llm.VisionRequest{Prompt: "p", DataURI: "d"})
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}
