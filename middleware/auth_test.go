package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wizzAPI/internal/logger"
)

type stubVerifier struct {
	uid string
	err error
}

func (v stubVerifier) VerifyIDToken(context.Context, string) (string, error) { return v.uid, v.err }

type stubAppCheck struct{ err error }

func (v stubAppCheck) VerifyAppCheckToken(context.Context, string) error { return v.err }

func serveAuth(a *CallableAuth, header map[string]string) (*httptest.ResponseRecorder, string) {
	var seen string
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodPost, "/getFriends", nil)
	for k, v := range header {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w, seen
}

func TestCallableAuth(t *testing.T) {
	log := logger.Component(logger.Discard(), "auth")
	bearer := map[string]string{"Authorization": "Bearer token"}
	withAppCheck := map[string]string{"Authorization": "Bearer token", AppCheckHeader: "attest"}

	tests := []struct {
		name       string
		auth       *CallableAuth
		header     map[string]string
		wantCode   int
		wantStatus string
		wantUser   string
	}{
		{
			name:     "valid identity without app check",
			auth:     NewCallableAuth(stubAppCheck{}, stubVerifier{uid: "alice"}, false, log),
			header:   bearer,
			wantCode: http.StatusOK,
			wantUser: "alice",
		},
		{
			name:     "valid identity and app check",
			auth:     NewCallableAuth(stubAppCheck{}, stubVerifier{uid: "alice"}, true, log),
			header:   withAppCheck,
			wantCode: http.StatusOK,
			wantUser: "alice",
		},
		{
			name:       "invalid app check",
			auth:       NewCallableAuth(stubAppCheck{err: errors.New("bad")}, stubVerifier{uid: "alice"}, false, log),
			header:     withAppCheck,
			wantCode:   http.StatusUnauthorized,
			wantStatus: "UNAUTHENTICATED",
		},
		{
			name:       "missing app check when enforced",
			auth:       NewCallableAuth(stubAppCheck{}, stubVerifier{uid: "alice"}, true, log),
			header:     bearer,
			wantCode:   http.StatusUnauthorized,
			wantStatus: "UNAUTHENTICATED",
		},
		{
			name:       "no authorization header",
			auth:       NewCallableAuth(stubAppCheck{}, stubVerifier{uid: "alice"}, false, log),
			header:     map[string]string{},
			wantCode:   http.StatusBadRequest,
			wantStatus: "FAILED_PRECONDITION",
		},
		{
			name:       "not a bearer token",
			auth:       NewCallableAuth(stubAppCheck{}, stubVerifier{uid: "alice"}, false, log),
			header:     map[string]string{"Authorization": "Basic abc"},
			wantCode:   http.StatusBadRequest,
			wantStatus: "FAILED_PRECONDITION",
		},
		{
			name:       "rejected token",
			auth:       NewCallableAuth(stubAppCheck{}, stubVerifier{err: errors.New("expired")}, false, log),
			header:     bearer,
			wantCode:   http.StatusUnauthorized,
			wantStatus: "UNAUTHENTICATED",
		},
		{
			name:       "token without subject",
			auth:       NewCallableAuth(nil, stubVerifier{}, false, log),
			header:     bearer,
			wantCode:   http.StatusUnauthorized,
			wantStatus: "UNAUTHENTICATED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, user := serveAuth(tt.auth, tt.header)
			require.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantUser, user)
			if tt.wantStatus != "" {
				assert.Contains(t, w.Body.String(), `"status":"`+tt.wantStatus+`"`)
			}
		})
	}
}

func TestGetUserID(t *testing.T) {
	_, ok := GetUserID(context.Background())
	assert.False(t, ok)

	id, ok := GetUserID(WithUserID(context.Background(), "bob"))
	assert.True(t, ok)
	assert.Equal(t, "bob", id)
}
