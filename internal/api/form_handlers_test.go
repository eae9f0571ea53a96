package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalline/academy-server/internal/config"
	"github.com/goalline/academy-server/internal/forms"
	"github.com/goalline/academy-server/internal/mailer"
)

// fakeNotifier records SendLeg calls and fails a chosen leg.
type fakeNotifier struct {
	legs    []mailer.Leg
	failOn  mailer.Leg
	failErr error
}

func (f *fakeNotifier) SendLeg(ctx context.Context, leg mailer.Leg, sub forms.Submission) error {
	f.legs = append(f.legs, leg)
	if leg == f.failOn && f.failErr != nil {
		return f.failErr
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Mail: config.MailConfig{
			Host:     "smtp.gmail.com",
			Port:     587,
			User:     "academy@goalline.academy",
			Password: "app-password",
			To:       "admissions@goalline.academy",
		},
		Site: config.SiteConfig{
			BaseURL: "https://goalline.academy",
			Name:    "Goalline Academy",
		},
	}
}

func newTestRouter(cfg *config.Config, notifier Notifier) http.Handler {
	h := NewHandlers(cfg, nil, nil, notifier, nil, NewHealthChecker(nil, nil))
	return SetupRoutes(h, nil, nil, []string{"https://goalline.academy"})
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

const validApplicationBody = `{
	"firstName": "Leo",
	"lastName": "Mensah",
	"email": "leo@example.com",
	"phone": "+233201234567",
	"program": "residential",
	"applicationId": "APP-2026-0042"
}`

const validContactBody = `{
	"fullName": "Ama Owusu",
	"email": "ama@example.com",
	"subject": "Trial sessions",
	"message": "When is the next open trial?"
}`

func TestInvalidBodyRejectedBeforeAnySend(t *testing.T) {
	notifier := &fakeNotifier{}
	router := newTestRouter(testConfig(), notifier)

	rec := postJSON(t, router, "/api/application", "{not json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decodeBody(t, rec)["error"])
	assert.Empty(t, notifier.legs, "no transport call on invalid body")
}

func TestMissingFieldsListedInError(t *testing.T) {
	notifier := &fakeNotifier{}
	router := newTestRouter(testConfig(), notifier)

	rec := postJSON(t, router, "/api/application", `{"firstName":"Leo","email":"leo@example.com"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errMsg := decodeBody(t, rec)["error"].(string)
	assert.Contains(t, errMsg, "lastName")
	assert.Contains(t, errMsg, "phone")
	assert.Contains(t, errMsg, "program")
	assert.Contains(t, errMsg, "applicationId")
	assert.NotContains(t, errMsg, "firstName")
	assert.Empty(t, notifier.legs)
}

func TestInvalidEmailRejected(t *testing.T) {
	notifier := &fakeNotifier{}
	router := newTestRouter(testConfig(), notifier)

	body := strings.Replace(validApplicationBody, "leo@example.com", "not-an-email", 1)
	rec := postJSON(t, router, "/api/application", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid email address", decodeBody(t, rec)["error"])
	assert.Empty(t, notifier.legs)
}

func TestMissingConfigListsExactlyMissingVars(t *testing.T) {
	cfg := testConfig()
	cfg.Mail.User = ""
	cfg.Mail.To = ""
	notifier := &fakeNotifier{}
	router := newTestRouter(cfg, notifier)

	rec := postJSON(t, router, "/api/application", validApplicationBody)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Server configuration error", body["error"])

	details, ok := body["details"].([]interface{})
	require.True(t, ok, "details must list missing variables")
	require.Len(t, details, 2)
	assert.Equal(t, "EMAIL_USER", details[0])
	assert.Equal(t, "EMAIL_TO", details[1])
	assert.Empty(t, notifier.legs, "config failure precedes any send")
}

func TestContactConfigFailureStillNamesMissingVars(t *testing.T) {
	cfg := testConfig()
	cfg.Mail.Password = ""
	router := newTestRouter(cfg, &fakeNotifier{})

	rec := postJSON(t, router, "/api/contact", validContactBody)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Server configuration error", body["error"])

	// The diagnostic list is not subject to the contact endpoint's
	// details omission; that applies to generic send failures only.
	details, ok := body["details"].([]interface{})
	require.True(t, ok)
	require.Len(t, details, 1)
	assert.Equal(t, "EMAIL_PASS", details[0])
}

func TestContactOmitsDetailsOnGenericSendFailure(t *testing.T) {
	notifier := &fakeNotifier{failOn: mailer.LegAdmin, failErr: assert.AnError}
	router := newTestRouter(testConfig(), notifier)

	rec := postJSON(t, router, "/api/contact", validContactBody)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Failed to send email", body["error"])
	_, hasDetails := body["details"]
	assert.False(t, hasDetails)
}

func TestSuccessSendsBothLegsInOrder(t *testing.T) {
	notifier := &fakeNotifier{}
	router := newTestRouter(testConfig(), notifier)

	rec := postJSON(t, router, "/api/application", validApplicationBody)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Application submitted successfully", body["message"])

	require.Len(t, notifier.legs, 2, "exactly two transport calls")
	assert.Equal(t, mailer.LegAdmin, notifier.legs[0])
	assert.Equal(t, mailer.LegAck, notifier.legs[1])
}

func TestAuthFailureMapsTo401(t *testing.T) {
	notifier := &fakeNotifier{failOn: mailer.LegAdmin, failErr: mailer.ErrAuth}
	router := newTestRouter(testConfig(), notifier)

	rec := postJSON(t, router, "/api/application", validApplicationBody)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Email authentication failed", decodeBody(t, rec)["error"])
	assert.Len(t, notifier.legs, 1, "acknowledgment never attempted after admin failure")
}

func TestConnectionFailureOnAckMapsTo503(t *testing.T) {
	notifier := &fakeNotifier{failOn: mailer.LegAck, failErr: mailer.ErrConnection}
	router := newTestRouter(testConfig(), notifier)

	rec := postJSON(t, router, "/api/application", validApplicationBody)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Len(t, notifier.legs, 2, "admin leg already sent when ack fails")
}

func TestUnclassifiedFailureMapsTo500(t *testing.T) {
	notifier := &fakeNotifier{failOn: mailer.LegAdmin, failErr: assert.AnError}
	router := newTestRouter(testConfig(), notifier)

	rec := postJSON(t, router, "/api/partners", `{
		"organizationName": "Star FC",
		"contactName": "Kojo Asante",
		"email": "kojo@starfc.com",
		"phone": "+233501112233",
		"partnershipType": "scouting",
		"message": "Interested in a scouting partnership."
	}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Failed to send email", body["error"])
	// Sanitized detail, never the raw internal error
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestDuplicateSubmissionSendsTwoPairs(t *testing.T) {
	notifier := &fakeNotifier{}
	router := newTestRouter(testConfig(), notifier)

	first := postJSON(t, router, "/api/visits", `{
		"fullName": "Esi Boateng",
		"email": "esi@example.com",
		"phone": "+233241234567",
		"preferredDate": "2026-09-15"
	}`)
	second := postJSON(t, router, "/api/visits", `{
		"fullName": "Esi Boateng",
		"email": "esi@example.com",
		"phone": "+233241234567",
		"preferredDate": "2026-09-15"
	}`)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Len(t, notifier.legs, 4, "identical payloads are independent submissions")
}

func TestContactSuccessMessage(t *testing.T) {
	notifier := &fakeNotifier{}
	router := newTestRouter(testConfig(), notifier)

	rec := postJSON(t, router, "/api/contact", validContactBody)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Message sent successfully", decodeBody(t, rec)["message"])
}

func TestHealthEndpointOpen(t *testing.T) {
	router := newTestRouter(testConfig(), &fakeNotifier{})

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
