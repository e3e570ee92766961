package auth_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuciuSVN/webcompat.com/internal/apperror"
	"github.com/LuciuSVN/webcompat.com/internal/auth"
	"github.com/LuciuSVN/webcompat.com/internal/model"
)

type memSessions struct {
	saved map[string]*model.Session
}

func newMemSessions() *memSessions {
	return &memSessions{saved: map[string]*model.Session{}}
}

func (m *memSessions) Get(ctx context.Context, token string) (*model.Session, error) {
	s, ok := m.saved[token]
	if !ok {
		return nil, apperror.NotFound("session", token)
	}
	return s, nil
}

func (m *memSessions) Create(ctx context.Context, sess *model.Session) error {
	m.saved[sess.Token] = sess
	return nil
}

func (m *memSessions) Save(ctx context.Context, sess *model.Session) error {
	m.saved[sess.Token] = sess
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// echoSession records the session the middleware put in the context.
func echoSession(captured **model.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := auth.SessionFromContext(r.Context())
		if ok {
			*captured = sess
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestLoadSession_CreatesFreshSessionWithoutCookie(t *testing.T) {
	sessions := newMemSessions()
	tokens, err := auth.NewTokenService("a-long-enough-test-secret")
	require.NoError(t, err)

	var captured *model.Session
	mw := auth.LoadSession(sessions, tokens, testLogger())(echoSession(&captured))

	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, captured)
	assert.NotEmpty(t, captured.Token)
	assert.False(t, captured.Authenticated())

	// A signed cookie was issued and the session was persisted.
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.SessionCookie, cookies[0].Name)
	assert.Contains(t, sessions.saved, captured.Token)
}

func TestLoadSession_ReusesExistingSession(t *testing.T) {
	sessions := newMemSessions()
	tokens, err := auth.NewTokenService("a-long-enough-test-secret")
	require.NoError(t, err)

	existing := &model.Session{Token: "known-token", UserID: "u1"}
	require.NoError(t, sessions.Create(context.Background(), existing))

	signed, err := tokens.Sign("known-token")
	require.NoError(t, err)

	var captured *model.Session
	mw := auth.LoadSession(sessions, tokens, testLogger())(echoSession(&captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: signed})
	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, req)

	require.NotNil(t, captured)
	assert.Equal(t, "known-token", captured.Token)
	assert.True(t, captured.Authenticated())
	// No replacement cookie when the existing one is fine.
	assert.Empty(t, rr.Result().Cookies())
}

func TestLoadSession_InvalidCookieStartsOver(t *testing.T) {
	sessions := newMemSessions()
	tokens, err := auth.NewTokenService("a-long-enough-test-secret")
	require.NoError(t, err)

	var captured *model.Session
	mw := auth.LoadSession(sessions, tokens, testLogger())(echoSession(&captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "forged-nonsense"})
	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, req)

	require.NotNil(t, captured)
	assert.NotEqual(t, "forged-nonsense", captured.Token)
	assert.False(t, captured.Authenticated())
	assert.Len(t, rr.Result().Cookies(), 1, "a fresh cookie replaces the bad one")
}

func TestLoadSession_UnknownTokenStartsOver(t *testing.T) {
	sessions := newMemSessions()
	tokens, err := auth.NewTokenService("a-long-enough-test-secret")
	require.NoError(t, err)

	// Validly signed, but the server-side row is gone (expired/pruned).
	signed, err := tokens.Sign("vanished-token")
	require.NoError(t, err)

	var captured *model.Session
	mw := auth.LoadSession(sessions, tokens, testLogger())(echoSession(&captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: signed})
	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, req)

	require.NotNil(t, captured)
	assert.NotEqual(t, "vanished-token", captured.Token)
}
