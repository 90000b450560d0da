package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/newsaggr/internal/user"
)

type usersStub map[string]*user.User

func (u usersStub) GetUserByID(ctx context.Context, userID string) (*user.User, bool) {
	usr, ok := u[userID]
	return usr, ok
}

var secret = []byte("test-secret")

func newAuth() *Auth {
	return New(usersStub{"u1": {ID: "u1"}}, "news_auth", secret, time.Hour)
}

func TestIssueAndParse(t *testing.T) {
	a := newAuth()

	token, expiresAt, err := a.IssueToken("u1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	userID, err := a.UserIDFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestRejectsBadTokens(t *testing.T) {
	a := newAuth()

	expired := newAuth()
	expired.clock = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, _, err := expired.IssueToken("u1")
	require.NoError(t, err)

	foreign := New(usersStub{}, "news_auth", []byte("other"), time.Hour)
	foreignToken, _, err := foreign.IssueToken("u1")
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":    "",
		"garbage":  "not.a.token",
		"expired":  expiredToken,
		"foreign":  foreignToken,
		"alg none": noneToken,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := a.UserIDFromToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestAuthenticateUser(t *testing.T) {
	a := newAuth()
	token, expiresAt, err := a.IssueToken("u1")
	require.NoError(t, err)
	ghostToken, _, err := a.IssueToken("ghost")
	require.NoError(t, err)

	var seenUserID string
	handler := a.AuthenticateUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	testCases := []struct {
		name    string
		prepare func(r *http.Request)
		code    int
		userID  string
	}{
		{
			name:    "bearer header",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			code:    http.StatusNoContent,
			userID:  "u1",
		},
		{
			name:    "raw header",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", token) },
			code:    http.StatusNoContent,
			userID:  "u1",
		},
		{
			name: "cookie",
			prepare: func(r *http.Request) {
				rec := httptest.NewRecorder()
				a.SetAuthCookie(rec, token, expiresAt)
				for _, c := range rec.Result().Cookies() {
					r.AddCookie(c)
				}
			},
			code:   http.StatusNoContent,
			userID: "u1",
		},
		{
			name:    "missing token",
			prepare: func(r *http.Request) {},
			code:    http.StatusUnauthorized,
		},
		{
			name:    "unknown user",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+ghostToken) },
			code:    http.StatusUnauthorized,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			seenUserID = ""
			req := httptest.NewRequest(http.MethodGet, "/news", nil)
			testCase.prepare(req)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, testCase.code, rec.Code)
			assert.Equal(t, testCase.userID, seenUserID)
		})
	}
}

func TestUserIDFromContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	userID, ok := UserIDFromContext(context.WithValue(context.Background(), UserIDKey, "u1"))
	assert.True(t, ok)
	assert.Equal(t, "u1", userID)
}
