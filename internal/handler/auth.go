package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/LuciuSVN/webcompat.com/internal/auth"
	"github.com/LuciuSVN/webcompat.com/internal/model"
	"github.com/LuciuSVN/webcompat.com/internal/workflow"
)

// AuthHandler manages the GitHub OAuth handshake routes.
//
//   - HandleLogin    → redirect the browser to GitHub's authorization page
//   - HandleCallback → receive the code, exchange it, bind the user, resume
//   - HandleLogout   → clear the session's user and stash
type AuthHandler struct {
	github   *auth.GitHubProvider
	flow     *workflow.Workflow
	renderer *Renderer
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(
	github *auth.GitHubProvider,
	flow *workflow.Workflow,
	renderer *Renderer,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		github:   github,
		flow:     flow,
		renderer: renderer,
		logger:   logger,
	}
}

// HandleLogin starts the OAuth handshake.
//
// HTTP: GET /login
//
// A visitor who is already logged in gets a short-circuit response instead of
// another round-trip to GitHub. For everyone else we generate a random state,
// pin it in a short-lived cookie for the CSRF check on callback, and redirect.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if ok && sess.Authenticated() {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Already logged in"))
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // long enough to approve on GitHub, short enough to limit replay
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback completes the OAuth handshake.
//
// HTTP: GET /callback?code=xxx&state=yyy (provider-driven, not user-navigable)
//
// Any failure on this route, whether a state mismatch, the visitor denying access, or a
// broken code exchange, lands on the same recovery path: drop the session's
// user binding, flash a message, and bounce to the entry page. The provider's
// errors never reach the visitor as a raw failure, and no User record is
// created or mutated on a failed callback.
//
// On success the resolved user is bound to the session and the browser is
// sent to /file to resume the stashed submission.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		h.renderer.InternalError(w)
		return
	}

	if !h.checkState(w, r) {
		h.failLogin(w, r, sess, "Something went wrong trying to sign into GitHub. :(")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" || r.URL.Query().Get("error") != "" {
		h.logger.Warn("callback arrived without a usable code",
			slog.String("providerError", r.URL.Query().Get("error")),
		)
		h.failLogin(w, r, sess, "Something went wrong trying to sign into GitHub. :(")
		return
	}

	accessToken, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("OAuth exchange failed", slog.String("error", err.Error()))
		h.failLogin(w, r, sess, "Something bad happened. Please try again?")
		return
	}

	if err := h.flow.CompleteLogin(r.Context(), sess, accessToken); err != nil {
		h.logger.Error("completing login failed", slog.String("error", err.Error()))
		h.renderer.InternalError(w)
		return
	}

	http.Redirect(w, r, "/file", http.StatusSeeOther)
}

// HandleLogout clears the session's user binding and stashed report.
//
// HTTP: GET /logout
//
// Idempotent: logging out twice is safe, the second call is a no-op plus a
// fresh confirmation flash.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	sess.Flash(model.FlashInfo, "You were successfully logged out.")
	if err := h.flow.Logout(r.Context(), sess); err != nil {
		h.logger.Error("logout failed", slog.String("error", err.Error()))
		h.renderer.InternalError(w)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// checkState verifies and consumes the single-use state cookie.
func (h *AuthHandler) checkState(w http.ResponseWriter, r *http.Request) bool {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("callback missing state cookie")
		return false
	}

	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("callback state mismatch")
		return false
	}
	return true
}

// failLogin is the shared recovery path for a failed callback: drop the user
// binding, queue the flash, return to the entry route.
func (h *AuthHandler) failLogin(w http.ResponseWriter, r *http.Request, sess *model.Session, message string) {
	sess.Flash(model.FlashError, message)
	if err := h.flow.FailLogin(r.Context(), sess); err != nil {
		h.logger.Error("clearing session after failed login", slog.String("error", err.Error()))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
