package subcontractors

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ascend-backend/internal/notify"
	"ascend-backend/internal/shared/server/respond"
)

func newTestRouter(svc *IntakeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoMethod(respond.MethodNotAllowed)
	NewHandler(svc, false).RegisterRoutes(r.Group("/api"))
	return r
}

func postJSON(t *testing.T, r http.Handler, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/submit-subby-pack", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	var decoded map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &decoded)
	return resp, decoded
}

func TestHandlerSubmitSuccess(t *testing.T) {
	r := newTestRouter(newTestService(&fakeExtractor{}, NewMemoryRepo(), &fakeSender{}))

	resp, body := postJSON(t, r, validSubmission())
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"id": "email-1"}, body["data"])
	assert.NotEmpty(t, body["subcontractorId"])
}

func TestHandlerSubmitSimulated(t *testing.T) {
	r := newTestRouter(newTestService(&fakeExtractor{}, nil, nil))

	resp, body := postJSON(t, r, validSubmission())
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Submission received (Simulation)", body["message"])
	assert.NotContains(t, body, "subcontractorId")
}

func TestHandlerSubmitMissingFields(t *testing.T) {
	r := newTestRouter(newTestService(&fakeExtractor{}, nil, &fakeSender{}))

	sub := validSubmission()
	sub.FirstName = ""
	resp, body := postJSON(t, r, sub)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Missing required fields", body["message"])

	sub = validSubmission()
	sub.Files.PublicLiability = nil
	resp, body = postJSON(t, r, sub)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Public Liability and Workers Comp insurance are required", body["message"])
}

func TestHandlerSubmitEmailError(t *testing.T) {
	sender := &fakeSender{err: &notify.DeliveryError{Provider: "resend", StatusCode: 403, Name: "validation_error", Message: "domain not verified"}}
	r := newTestRouter(newTestService(&fakeExtractor{}, nil, sender))

	resp, body := postJSON(t, r, validSubmission())
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, map[string]any{
		"statusCode": float64(403),
		"name":       "validation_error",
		"message":    "domain not verified",
	}, body["error"])
}

func TestHandlerRejectsBadJSON(t *testing.T) {
	r := newTestRouter(newTestService(&fakeExtractor{}, nil, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/submit-subby-pack", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHandlerMethodNotAllowed(t *testing.T) {
	r := newTestRouter(newTestService(&fakeExtractor{}, nil, nil))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/submit-subby-pack", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
	assert.JSONEq(t, `{"message":"Method Not Allowed"}`, resp.Body.String())
}
