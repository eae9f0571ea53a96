package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalline/academy-server/internal/auth"
	"github.com/goalline/academy-server/internal/config"
	"github.com/goalline/academy-server/internal/forms"
)

func newAdminRouter(t *testing.T) (http.Handler, sqlmock.Sqlmock, *http.Cookie) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := testConfig()
	cfg.Auth = config.AuthConfig{
		CookieName:      "academy_session",
		AllowedDomain:   "goalline.academy",
		SessionTTLHours: 24,
	}

	sessions := auth.NewSessionStore()
	mgr := auth.NewManager(&cfg.Auth, cfg.Site.BaseURL, sessions)

	sessionID, err := sessions.Create(&auth.Session{
		Email:     "coach@goalline.academy",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	cookie := &http.Cookie{Name: "academy_session", Value: sessionID}

	h := NewHandlers(cfg, forms.NewStore(db), nil, &fakeNotifier{}, nil, NewHealthChecker(nil, nil))
	router := SetupRoutes(h, mgr, nil, []string{"https://goalline.academy"})
	return router, mock, cookie
}

func adminGet(router http.Handler, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAdminRequiresSession(t *testing.T) {
	router, _, _ := newAdminRouter(t)

	rec := adminGet(router, "/api/admin/submissions", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListSubmissions(t *testing.T) {
	router, mock, cookie := newAdminRouter(t)

	rows := sqlmock.NewRows([]string{"id", "form_type", "submitter_email", "summary", "payload", "created_at"}).
		AddRow(uuid.New(), "contact", "ama@example.com", "Ama Owusu — Trial sessions", []byte(`{}`), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM form_submissions").WillReturnRows(rows)

	rec := adminGet(router, "/api/admin/submissions?type=contact", cookie)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
}

func TestListSubmissionsRejectsUnknownType(t *testing.T) {
	router, _, cookie := newAdminRouter(t)

	rec := adminGet(router, "/api/admin/submissions?type=newsletter", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSubmissionNotFound(t *testing.T) {
	router, mock, cookie := newAdminRouter(t)

	id := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM form_submissions").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec := adminGet(router, "/api/admin/submissions/"+id.String(), cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSubmissionBadID(t *testing.T) {
	router, _, cookie := newAdminRouter(t)

	rec := adminGet(router, "/api/admin/submissions/not-a-uuid", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRLSCheckUnconfigured(t *testing.T) {
	router, _, cookie := newAdminRouter(t)

	rec := adminGet(router, "/api/admin/rls-check", cookie)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type stubRetrier struct {
	processed int
	called    bool
}

func (s *stubRetrier) ProcessOnce(ctx context.Context) int {
	s.called = true
	return s.processed
}

func TestOutboxRetryTriggersWorker(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := testConfig()
	cfg.Auth = config.AuthConfig{
		CookieName:      "academy_session",
		AllowedDomain:   "goalline.academy",
		SessionTTLHours: 24,
	}
	sessions := auth.NewSessionStore()
	mgr := auth.NewManager(&cfg.Auth, cfg.Site.BaseURL, sessions)
	sessionID, err := sessions.Create(&auth.Session{
		Email:     "coach@goalline.academy",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	h := NewHandlers(cfg, forms.NewStore(db), nil, &fakeNotifier{}, nil, NewHealthChecker(nil, nil))
	retrier := &stubRetrier{processed: 3}
	h.SetOutboxWorker(retrier)
	router := SetupRoutes(h, mgr, nil, nil)

	req := httptest.NewRequest("POST", "/api/admin/outbox/retry", nil)
	req.AddCookie(&http.Cookie{Name: "academy_session", Value: sessionID})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, retrier.called)
	assert.Equal(t, float64(3), decodeBody(t, rec)["processed"])
}
