package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/LuciuSVN/webcompat.com/internal/model"
	"github.com/LuciuSVN/webcompat.com/internal/repository"
)

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the session value.
type contextKey string

const sessionKey contextKey = "session"

// LoadSession is a middleware that attaches a session to every request.
//
// It reads the signed session cookie, loads the matching server-side row, and
// stores the *model.Session in the request context. A missing, invalid, or
// expired cookie, or an unknown token, starts a fresh anonymous session and
// sets a new cookie. Handlers therefore always have a session to work with;
// there is no ambient global, the session travels explicitly in the context.
func LoadSession(sessions repository.SessionRepository, tokens *TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := loadExisting(r, sessions, tokens)

			if sess == nil {
				sess = &model.Session{Token: xid.New().String()}
				if err := sessions.Create(r.Context(), sess); err != nil {
					logger.Error("creating session", slog.String("error", err.Error()))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}

				signed, err := tokens.Sign(sess.Token)
				if err != nil {
					logger.Error("signing session cookie", slog.String("error", err.Error()))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				SetCookie(w, signed)
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// loadExisting returns the session named by the request's cookie, or nil if
// there isn't a usable one. Invalid cookies are not errors; the visitor just
// becomes anonymous again.
func loadExisting(r *http.Request, sessions repository.SessionRepository, tokens *TokenService) *model.Session {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}

	token, err := tokens.Verify(cookie.Value)
	if err != nil {
		return nil
	}

	sess, err := sessions.Get(r.Context(), token)
	if err != nil {
		return nil
	}
	return sess
}

// SessionFromContext retrieves the request's session.
//
// On any route behind LoadSession this always returns (sess, true); the bool
// guards tests or handlers wired without the middleware.
func SessionFromContext(ctx context.Context) (*model.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*model.Session)
	return sess, ok && sess != nil
}

// WithSession returns a context carrying the given session. Exported for
// handler tests that bypass LoadSession.
func WithSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}
