package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/videotube/internal/apperror"
	"github.com/sakif/videotube/internal/model"
)

// fakeUsers is an in-memory UserLookup.
type fakeUsers struct {
	users map[string]*model.User
	err   error
	calls int
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return u, nil
}

func newFakeUsers() *fakeUsers {
	u := *testUser
	u.PasswordHash = "$2a$04$hash"
	u.RefreshToken = "stored-refresh"
	return &fakeUsers{users: map[string]*model.User{u.ID: &u}}
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// echoUser writes the context user's ID, or "anonymous".
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		_, _ = io.WriteString(w, "anonymous")
		return
	}
	if u.PasswordHash != "" || u.RefreshToken != "" {
		http.Error(w, "context user is not sanitized", http.StatusTeapot)
		return
	}
	_, _ = io.WriteString(w, u.ID)
})

func TestRequireAuth(t *testing.T) {
	ts := newTestTokenService(t)
	access, err := ts.IssueAccess(testUser)
	require.NoError(t, err)
	refresh, err := ts.IssueRefresh(testUser)
	require.NoError(t, err)
	orphan, err := ts.IssueAccess(&model.User{ID: "cv37pbdbgk1g0ps0zzzz"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		prepare    func(r *http.Request)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "cookie",
			prepare:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: access}) },
			wantStatus: http.StatusOK,
			wantBody:   testUser.ID,
		},
		{
			name:       "bearer header",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+access) },
			wantStatus: http.StatusOK,
			wantBody:   testUser.ID,
		},
		{
			name:       "lowercase bearer scheme",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "bearer "+access) },
			wantStatus: http.StatusOK,
			wantBody:   testUser.ID,
		},
		{
			name:       "no token",
			prepare:    func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage token",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "refresh token used as access token",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+refresh) },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "user no longer exists",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+orphan) },
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newFakeUsers()
			h := RequireAuth(ts, users, discardLogger)(echoUser)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), `"error":"unauthorized"`)
			}
		})
	}
}

func TestRequireAuth_StorageFailureIs500(t *testing.T) {
	ts := newTestTokenService(t)
	access, _ := ts.IssueAccess(testUser)

	users := newFakeUsers()
	users.err = errors.New("disk on fire")
	h := RequireAuth(ts, users, discardLogger)(echoUser)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: access})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}

func TestRequireAuth_NeverMutatesUser(t *testing.T) {
	ts := newTestTokenService(t)
	access, _ := ts.IssueAccess(testUser)
	users := newFakeUsers()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: access})
	RequireAuth(ts, users, discardLogger)(echoUser).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "stored-refresh", users.users[testUser.ID].RefreshToken)
	assert.Equal(t, "$2a$04$hash", users.users[testUser.ID].PasswordHash)
}

func TestOptionalAuth(t *testing.T) {
	ts := newTestTokenService(t)
	access, _ := ts.IssueAccess(testUser)

	tests := []struct {
		name     string
		token    string
		wantBody string
	}{
		{name: "valid token", token: access, wantBody: testUser.ID},
		{name: "no token", token: "", wantBody: "anonymous"},
		{name: "invalid token", token: "garbage", wantBody: "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := OptionalAuth(ts, newFakeUsers())(echoUser)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestUserIDFromContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithUser(context.Background(), testUser)
	id, ok := UserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, testUser.ID, id)
}

func TestTokenFromRequest_CookieWins(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "from-cookie"})
	req.Header.Set("Authorization", "Bearer from-header")

	assert.Equal(t, "from-cookie", TokenFromRequest(req))
}
