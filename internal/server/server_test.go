package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/portfolio-site/internal/config"
	"github.com/jonathan/portfolio-site/internal/db"
	"github.com/jonathan/portfolio-site/internal/server/ratelimit"
	"github.com/jonathan/portfolio-site/internal/testutil"
	"github.com/jonathan/portfolio-site/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

type testServer struct {
	*Server
	store *db.SQLiteStore
}

type serverOption func(*Config)

func withJWT() serverOption {
	return func(c *Config) {
		c.JWT = &config.JWTConfig{Secret: testSecret, ExpirationHours: 1}
	}
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	store, err := db.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)

	cfg := Config{
		Store:     store,
		IPHashKey: "test-hash-key",
		RateLimit: &ratelimit.Config{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			EndpointConfigs: ratelimit.DefaultEndpointConfigs(),
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return &testServer{Server: s, store: store}
}

func (ts *testServer) do(t *testing.T, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	return w
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	msg, _ := body["detail"].(string)
	return msg
}

const validContact = `{"name":"Ann","email":"ann@example.com","company":"Initech","message":"Hello there, let's talk."}`

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestNew_RejectsLongHashKey(t *testing.T) {
	store, err := db.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, err = New(Config{Store: store, IPHashKey: strings.Repeat("k", 65)})
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"Portfolio API is running","status":"healthy"}`, w.Body.String())
}

func TestGetPortfolio(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/portfolio", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Portfolio data not found", detail(t, w))

	require.NoError(t, ts.store.UpsertPortfolio(context.Background(), testutil.SampleSnapshot()))

	w = ts.do(t, http.MethodGet, "/api/portfolio", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap types.PortfolioSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "Jordan Avery", snap.Personal.Name)
	assert.Len(t, snap.Projects, 2)
}

func TestSubmitContact_Success(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/api/contact", validContact, map[string]string{"User-Agent": "test-agent"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp types.ContactResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, msgContactReceived, resp.Message)
	assert.NotEmpty(t, resp.SubmissionID)

	subs, err := ts.store.ListContactSubmissions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	rec := subs[0]
	assert.Equal(t, resp.SubmissionID, rec.ID.String())
	assert.Equal(t, "Hello there, let's talk.", rec.Message)
	assert.Equal(t, types.ContactSourceWebsite, rec.Source)
	assert.Equal(t, types.ContactStatusNew, rec.Status)
	assert.Equal(t, "test-agent", rec.UserAgent)
	assert.Len(t, rec.ClientHash, 32)
	assert.NotContains(t, rec.ClientHash, "192.0.2.1")
}

func TestSubmitContact_StripsMarkup(t *testing.T) {
	ts := newTestServer(t)
	body := `{"name":"<b>Ann</b>","email":" ann@example.com ","message":"<script>alert(1)</script>Hello, this is long enough"}`
	w := ts.do(t, http.MethodPost, "/api/contact", body, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	subs, err := ts.store.ListContactSubmissions(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Ann", subs[0].Name)
	assert.Equal(t, "ann@example.com", subs[0].Email)
	assert.NotContains(t, subs[0].Message, "<script>")
	assert.Contains(t, subs[0].Message, "Hello, this is long enough")
}

func TestSubmitContact_Validation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantDetail string
	}{
		{
			name:       "invalid email",
			body:       `{"name":"Ann","email":"not-an-email","message":"Hello there, friend."}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantDetail: "email: must be a valid email address",
		},
		{
			name:       "short message",
			body:       `{"name":"Ann","email":"ann@example.com","message":"Hi"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantDetail: "message: must be at least 10 characters",
		},
		{
			name:       "missing name",
			body:       `{"email":"ann@example.com","message":"Hello there, friend."}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantDetail: "name: field is required",
		},
		{
			name:       "name only markup",
			body:       `{"name":"<i></i>","email":"ann@example.com","message":"Hello there, friend."}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantDetail: "name: field is required",
		},
		{
			name:       "long company",
			body:       `{"name":"Ann","email":"ann@example.com","company":"` + strings.Repeat("c", 101) + `","message":"Hello there, friend."}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantDetail: "company: must be at most 100 characters",
		},
		{
			name:       "malformed json",
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			w := ts.do(t, http.MethodPost, "/api/contact", tt.body, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantDetail, detail(t, w))

			subs, err := ts.store.ListContactSubmissions(context.Background(), 10)
			require.NoError(t, err)
			assert.Empty(t, subs)
		})
	}
}

func TestSubmitContact_RateLimited(t *testing.T) {
	ts := newTestServer(t)

	for i := 0; i < 3; i++ {
		w := ts.do(t, http.MethodPost, "/api/contact", validContact, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	}

	w := ts.do(t, http.MethodPost, "/api/contact", validContact, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, detail(t, w), "Rate limit exceeded")

	// Reads are not affected by the contact limit.
	w = ts.do(t, http.MethodGet, "/api/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminEndpoints_RequireToken(t *testing.T) {
	ts := newTestServer(t, withJWT())
	require.NotNil(t, ts.JWT())

	for _, path := range []string{"/api/contact/submissions", "/api/analytics/summary"} {
		w := ts.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, "Unauthorized", detail(t, w))

		w = ts.do(t, http.MethodGet, path, "", map[string]string{"Authorization": "Bearer nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	token, err := ts.JWT().GenerateToken()
	require.NoError(t, err)
	auth := map[string]string{"Authorization": "Bearer " + token}

	w := ts.do(t, http.MethodGet, "/api/contact/submissions", "", auth)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"submissions":[],"count":0}`, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/analytics/summary", "", auth)
	assert.Equal(t, http.StatusOK, w.Code)

	// Public endpoints stay open.
	w = ts.do(t, http.MethodPost, "/api/contact", validContact, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminEndpoints_OpenWithoutSecret(t *testing.T) {
	ts := newTestServer(t)
	assert.Nil(t, ts.JWT())

	w := ts.do(t, http.MethodGet, "/api/contact/submissions", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListSubmissions(t *testing.T) {
	ts := newTestServer(t)
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/contact", validContact, nil).Code)
	}

	w := ts.do(t, http.MethodGet, "/api/contact/submissions?limit=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list types.ContactSubmissionList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)
	assert.Len(t, list.Submissions, 2)

	for _, bad := range []string{"0", "-1", "abc", "501"} {
		w = ts.do(t, http.MethodGet, "/api/contact/submissions?limit="+bad, "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
		assert.Contains(t, detail(t, w), "limit")
	}
}

func TestUpdateSubmissionStatus(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/api/contact", validContact, nil)
	var resp types.ContactResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	path := "/api/contact/submissions/" + resp.SubmissionID
	w = ts.do(t, http.MethodPatch, path, `{"status":"read"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	subs, err := ts.store.ListContactSubmissions(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "read", subs[0].Status)

	w = ts.do(t, http.MethodPatch, path, `{"status":"deleted"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = ts.do(t, http.MethodPatch, "/api/contact/submissions/not-a-uuid", `{"status":"read"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPatch, "/api/contact/submissions/7f0c7c55-6a3a-4d8e-9a43-9d7c3c1f2a10", `{"status":"read"}`, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPageViewAndSummary(t *testing.T) {
	ts := newTestServer(t)

	for _, page := range []string{"hero", "hero", "about"} {
		w := ts.do(t, http.MethodPost, "/api/analytics/page-view", `{"page":"`+page+`","referrer":"https://example.com"}`, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"message":"Page view logged"}`, w.Body.String())
	}
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/contact", validContact, nil).Code)

	w := ts.do(t, http.MethodGet, "/api/analytics/summary?days=7", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary types.AnalyticsSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, int64(3), summary.TotalViews)
	assert.Equal(t, int64(1), summary.TotalContacts)
	assert.Equal(t, "Last 7 days", summary.Period)
	assert.Equal(t, []types.PageCount{{Page: "hero", Views: 2}, {Page: "about", Views: 1}}, summary.TopPages)

	w = ts.do(t, http.MethodGet, "/api/analytics/summary?days=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPageView_Invalid(t *testing.T) {
	ts := newTestServer(t)

	for _, body := range []string{`{"page":""}`, `{"page":"` + strings.Repeat("p", 201) + `"}`, `not json`} {
		w := ts.do(t, http.MethodPost, "/api/analytics/page-view", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.NotEmpty(t, detail(t, w))
	}
}

func TestCORSMiddleware_OPTIONS(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodOptions, "/api/contact", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJSONResponse(t *testing.T) {
	ts := newTestServer(t)
	w := httptest.NewRecorder()
	ts.errorResponse(w, http.StatusTeapot, "short and stout")

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.JSONEq(t, `{"detail":"short and stout"}`, w.Body.String())
}
