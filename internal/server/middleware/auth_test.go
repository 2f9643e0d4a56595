package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClaims struct {
	subject string
}

func (c testClaims) GetSubject() (string, error) {
	return c.subject, nil
}

// testTokenValidator accepts the tokens in its map.
type testTokenValidator map[string]string

func (v testTokenValidator) ValidateToken(token string) (SubjectGetter, error) {
	subject, ok := v[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return testClaims{subject: subject}, nil
}

func serve(t *testing.T, validator TokenValidator, header string) (*httptest.ResponseRecorder, string, bool) {
	t.Helper()
	var (
		called  bool
		subject string
	)
	handler := AuthMiddleware(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		subject, _ = GetSubject(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/contact/submissions", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w, subject, called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	validator := testTokenValidator{"good-token": "admin"}

	for _, header := range []string{"Bearer good-token", "bearer good-token", "BEARER  good-token"} {
		w, subject, called := serve(t, validator, header)
		assert.True(t, called, header)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "admin", subject)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	validator := testTokenValidator{"good-token": "admin", "anon-token": ""}

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic good-token"},
		{name: "no token", header: "Bearer"},
		{name: "extra parts", header: "Bearer good-token extra"},
		{name: "unknown token", header: "Bearer bad-token"},
		{name: "empty subject", header: "Bearer anon-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _, called := serve(t, validator, tt.header)
			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			assert.JSONEq(t, `{"detail":"Unauthorized"}`, w.Body.String())
		})
	}
}

func TestAuthMiddleware_NilValidatorIsOpen(t *testing.T) {
	w, _, called := serve(t, nil, "")
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetSubject_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := GetSubject(req)
	require.Error(t, err)
}
