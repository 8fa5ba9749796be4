package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ascend-backend/internal/shared/config"
)

func TestBuildDegradedMode(t *testing.T) {
	app, err := Build(config.Config{
		Env:              "dev",
		DataStore:        "memory",
		ObjectStoreType:  "none",
		LLMProvider:      "openai",
		EmailProvider:    "resend",
		FromEmail:        "Ascend <onboarding@resend.dev>",
		BusinessEmail:    "office@ascend.example",
		ReminderTimezone: "Australia/Sydney",
	})
	require.NoError(t, err)

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Repo)
	assert.Nil(t, app.Archive)
	assert.Nil(t, app.Sender)
	assert.False(t, app.Extractor.Configured())
	assert.Equal(t, "Australia/Sydney", app.Location.String())
	assert.NotNil(t, app.ReminderJob.Store)

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestBuildWithoutStore(t *testing.T) {
	app, err := Build(config.Config{ObjectStoreType: "none"})
	require.NoError(t, err)
	assert.Nil(t, app.Repo)
	assert.Nil(t, app.ReminderJob.Store)
}

func TestBuildLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, buildLocation("Mars/Olympus"))
}

func TestBuildSenderSelectsProvider(t *testing.T) {
	assert.NotNil(t, buildSender(config.Config{EmailProvider: "smtp", SMTPHost: "mail.example", SMTPPort: 587}))
	assert.NotNil(t, buildSender(config.Config{EmailProvider: "resend", ResendAPIKey: "re_test"}))
	assert.Nil(t, buildSender(config.Config{EmailProvider: "smtp"}))
}
