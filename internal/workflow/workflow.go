// Package workflow orchestrates the authentication-gated submission flow.
//
// It is the business-logic layer between the HTTP handlers and the
// repositories/clients:
//
//	handlers (HTTP) → Workflow (sequencing rules) → UserRepository (DB)
//	                                              ↘ issues.Submitter (GitHub)
//
// One visitor's attempt to file a report moves through a small state machine:
// the form is displayed, submitted, and then either filed immediately (proxy
// mode, or authenticated mode with a user already bound to the session) or
// stashed in the session for exactly one OAuth round-trip and filed by the
// resume route after the callback binds a user.
//
// The handlers never decide any of this; they hand the session and report in
// and act on the outcome. Keeping the sequencing here means the ordering
// guarantees (stash-then-redirect, clear-before-file) live in one tested
// place.
package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LuciuSVN/webcompat.com/internal/apperror"
	"github.com/LuciuSVN/webcompat.com/internal/issues"
	"github.com/LuciuSVN/webcompat.com/internal/model"
	"github.com/LuciuSVN/webcompat.com/internal/repository"
)

// Outcome is the result of submitting a valid report. It is a closed set:
// either the issue was filed now, or the visitor must authenticate first.
// The sealed interface makes "forgot to handle a branch" a compile error in
// the handler's type switch rather than a silent fallthrough.
type Outcome interface {
	isOutcome()
}

// Filed means the issue exists; Number is the tracker's issue number.
type Filed struct {
	Number int
}

// AuthRequired means the report was stashed into the session and the browser
// must be sent through the OAuth handshake before filing can continue.
type AuthRequired struct{}

func (Filed) isOutcome()        {}
func (AuthRequired) isOutcome() {}

// Workflow carries the dependencies for the submission flow.
type Workflow struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	client   issues.Submitter
	logger   *slog.Logger
}

// New creates a Workflow. All dependencies are injected; the workflow holds
// no HTTP state and is safe to share across requests.
func New(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	client issues.Submitter,
	logger *slog.Logger,
) *Workflow {
	return &Workflow{
		users:    users,
		sessions: sessions,
		client:   client,
		logger:   logger,
	}
}

// Submit handles a validated report for the given session.
//
// Branching, in order:
//   - proxy mode → file immediately under the service identity, whatever the
//     auth state.
//   - authenticated mode with a user bound → file immediately as that user.
//   - authenticated mode, anonymous → stash the report (overwriting any stale
//     snapshot, at most one per session) and return AuthRequired.
func (wf *Workflow) Submit(ctx context.Context, sess *model.Session, report *model.Report) (Outcome, error) {
	switch report.Kind {
	case model.ProxyReport:
		number, err := wf.client.SubmitAnonymous(ctx, report)
		if err != nil {
			return nil, fmt.Errorf("workflow: proxy submission: %w", err)
		}
		wf.logger.Info("issue filed via proxy", slog.Int("number", number))
		return Filed{Number: number}, nil

	case model.AuthReport:
		if sess.Authenticated() {
			number, err := wf.fileAsSessionUser(ctx, sess, report)
			if err != nil {
				return nil, err
			}
			return Filed{Number: number}, nil
		}

		sess.Stash(report)
		if err := wf.sessions.Save(ctx, sess); err != nil {
			return nil, fmt.Errorf("workflow: stashing report: %w", err)
		}
		wf.logger.Info("report stashed pending auth", slog.String("session", sess.Token))
		return AuthRequired{}, nil

	default:
		// The form model rejects unknown kinds; reaching this is a bug.
		return nil, fmt.Errorf("workflow: unknown report kind %q", report.Kind)
	}
}

// CompleteLogin finishes a successful OAuth callback: it resolves a User from
// the access token (creating one on first sight, overwriting the stored token
// otherwise) and binds the user into the session.
func (wf *Workflow) CompleteLogin(ctx context.Context, sess *model.Session, accessToken string) error {
	user, err := wf.users.LookupOrCreateByToken(ctx, accessToken)
	if err != nil {
		return fmt.Errorf("workflow: resolving user from token: %w", err)
	}

	sess.UserID = user.ID
	if err := wf.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("workflow: binding user to session: %w", err)
	}

	wf.logger.Info("user authenticated",
		slog.String("userID", user.ID),
		slog.String("session", sess.Token),
	)
	return nil
}

// FailLogin handles a callback that arrived without a usable credential: the
// session's user binding is dropped and no User record is touched. The stash,
// if any, stays; the visitor may retry logging in.
func (wf *Workflow) FailLogin(ctx context.Context, sess *model.Session) error {
	sess.UserID = ""
	if err := wf.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("workflow: clearing user after failed login: %w", err)
	}
	return nil
}

// ResumeAndFile files the report stashed before the OAuth round-trip, as the
// user now bound to the session.
//
// The stash is taken, and persisted as cleared, BEFORE the upstream call.
// A failed submission therefore cannot be replayed; the visitor re-enters the
// form. A missing stash (direct navigation to the resume route, or a session
// that expired mid-handshake) fails closed with apperror.ErrNoPending rather
// than filing a report with absent data.
func (wf *Workflow) ResumeAndFile(ctx context.Context, sess *model.Session) (int, error) {
	report, ok := sess.TakePending()
	if !ok {
		return 0, apperror.NoPending()
	}

	if err := wf.sessions.Save(ctx, sess); err != nil {
		return 0, fmt.Errorf("workflow: clearing stash: %w", err)
	}

	if !sess.Authenticated() {
		return 0, apperror.NoPending()
	}

	return wf.fileAsSessionUser(ctx, sess, report)
}

// Logout clears the session's user binding and any stashed report,
// unconditionally and idempotently.
func (wf *Workflow) Logout(ctx context.Context, sess *model.Session) error {
	sess.Reset()
	if err := wf.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("workflow: logging out: %w", err)
	}
	return nil
}

// fileAsSessionUser submits the report with the stored credential of the
// session's user.
func (wf *Workflow) fileAsSessionUser(ctx context.Context, sess *model.Session, report *model.Report) (int, error) {
	user, err := wf.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return 0, fmt.Errorf("workflow: loading session user %s: %w", sess.UserID, err)
	}

	number, err := wf.client.SubmitAsUser(ctx, user.AccessToken, report)
	if err != nil {
		return 0, fmt.Errorf("workflow: authenticated submission: %w", err)
	}

	wf.logger.Info("issue filed as user",
		slog.String("userID", user.ID),
		slog.Int("number", number),
	)
	return number, nil
}
