package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResendSender(t *testing.T, handler http.HandlerFunc) *ResendSender {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sender, err := NewResendSender("re_test")
	require.NoError(t, err)
	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	sender.client.BaseURL = base
	return sender
}

func sampleMessage() Message {
	return Message{
		From:    "Ascend Website <onboarding@resend.dev>",
		To:      []string{"office@ascend.example"},
		ReplyTo: "jane@ridge.com.au",
		Subject: "Subcontractor Pack: Ridge Co",
		HTML:    "<h2>hi</h2>",
		Attachments: []Attachment{
			{FileName: "pl.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.4")},
		},
	}
}

func TestResendSendPostsMessage(t *testing.T) {
	var got map[string]any
	var path string
	sender := newTestResendSender(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"email_123"}`))
	})

	receipt, err := sender.Send(context.Background(), sampleMessage())
	require.NoError(t, err)
	assert.Equal(t, "email_123", receipt.ID)

	assert.Equal(t, "/emails", path)
	assert.Equal(t, "Subcontractor Pack: Ridge Co", got["subject"])
	assert.Equal(t, "<h2>hi</h2>", got["html"])
	assert.Equal(t, []any{"office@ascend.example"}, got["to"])
	assert.Equal(t, "jane@ridge.com.au", got["reply_to"])
	attachments, ok := got["attachments"].([]any)
	require.True(t, ok)
	require.Len(t, attachments, 1)
	first := attachments[0].(map[string]any)
	assert.Equal(t, "pl.pdf", first["filename"])
	assert.Equal(t, "application/pdf", first["content_type"])
	assert.NotEmpty(t, first["content"])
}

func TestResendSendReturnsDeliveryError(t *testing.T) {
	sender := newTestResendSender(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"Invalid from field"}`))
	})

	_, err := sender.Send(context.Background(), sampleMessage())

	var derr *DeliveryError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "resend", derr.Provider)
	assert.Equal(t, 422, derr.StatusCode)
	assert.Equal(t, "validation_error", derr.Name)
	assert.Equal(t, "Invalid from field", derr.Message)

	body, err := json.Marshal(derr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"statusCode":422,"name":"validation_error","message":"Invalid from field"}`, string(body))
}

func TestResendSendKeepsPlainTextRejection(t *testing.T) {
	sender := newTestResendSender(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream unavailable"))
	})

	_, err := sender.Send(context.Background(), sampleMessage())

	var derr *DeliveryError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, http.StatusInternalServerError, derr.StatusCode)
	assert.Empty(t, derr.Name)
	assert.Equal(t, "upstream unavailable", derr.Message)
}

func TestResendSendRejectsIncompleteMessage(t *testing.T) {
	calls := 0
	sender := newTestResendSender(t, func(w http.ResponseWriter, r *http.Request) { calls++ })

	msg := sampleMessage()
	msg.To = nil
	_, err := sender.Send(context.Background(), msg)
	assert.Error(t, err)
	assert.Zero(t, calls)
}

func TestNewResendSenderRequiresKey(t *testing.T) {
	_, err := NewResendSender("")
	assert.Error(t, err)
}
