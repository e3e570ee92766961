package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/LuciuSVN/webcompat.com/internal/auth"
	"github.com/LuciuSVN/webcompat.com/internal/form"
	"github.com/LuciuSVN/webcompat.com/internal/model"
	"github.com/LuciuSVN/webcompat.com/internal/repository"
	"github.com/LuciuSVN/webcompat.com/internal/workflow"
)

// shareText prefixes the pre-encoded share fragment on the thanks page.
const shareText = "I just filed a bug on the internet: "

// ReportHandler serves the report form, submissions, the post-auth resume
// route, and the confirmation pages.
type ReportHandler struct {
	flow     *workflow.Workflow
	sessions repository.SessionRepository
	renderer *Renderer
	repo     string // "owner/name" of the tracker repository
	logger   *slog.Logger
}

// NewReportHandler creates a ReportHandler. repo identifies the external
// tracker repository ("owner/name") used for confirmation deep links.
func NewReportHandler(
	flow *workflow.Workflow,
	sessions repository.SessionRepository,
	renderer *Renderer,
	repo string,
	logger *slog.Logger,
) *ReportHandler {
	return &ReportHandler{
		flow:     flow,
		sessions: sessions,
		renderer: renderer,
		repo:     repo,
		logger:   logger,
	}
}

// indexData feeds the report form template.
type indexData struct {
	Title    string
	Form     *model.Report
	Errors   form.Errors
	Flashes  []model.Flash
	LoggedIn bool
}

// HandleIndex serves the report form.
//
// HTTP: GET /
//
// The browser and version fields are pre-populated from the request's
// User-Agent header; the visitor can correct them. Queued flash messages are
// consumed here: rendering the entry page is what "delivers" them.
func (h *ReportHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	browser, version := form.SniffBrowser(r.UserAgent())
	data := indexData{
		Title:    "Report a site compatibility bug",
		Form:     &model.Report{Browser: browser, Version: version},
		Errors:   form.Errors{},
		LoggedIn: sess != nil && sess.Authenticated(),
	}

	if sess != nil {
		if flashes := sess.TakeFlashes(); len(flashes) > 0 {
			data.Flashes = flashes
			if err := h.sessions.Save(r.Context(), sess); err != nil {
				h.logger.Error("persisting consumed flashes", slog.String("error", err.Error()))
			}
		}
	}

	h.renderer.Render(w, http.StatusOK, "index.html", data)
}

// HandleSubmit validates a submission and runs the workflow.
//
// HTTP: POST /
//
// Validation failure re-renders the form with field errors and the visitor's
// input intact. No submission is attempted, no session state changes beyond
// that. A valid submission either files immediately (redirect to the thanks
// page) or stashes and redirects into the OAuth handshake.
func (h *ReportHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		h.renderer.InternalError(w)
		return
	}

	report, errs := form.Parse(r)
	if len(errs) > 0 {
		h.renderer.Render(w, http.StatusOK, "index.html", indexData{
			Title:    "Report a site compatibility bug",
			Form:     report,
			Errors:   errs,
			LoggedIn: sess.Authenticated(),
		})
		return
	}

	outcome, err := h.flow.Submit(r.Context(), sess, report)
	if err != nil {
		h.logger.Error("submission failed", slog.String("error", err.Error()))
		h.renderer.WorkflowError(w, err)
		return
	}

	switch o := outcome.(type) {
	case workflow.Filed:
		http.Redirect(w, r, fmt.Sprintf("/thanks/%d", o.Number), http.StatusSeeOther)
	case workflow.AuthRequired:
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	default:
		h.renderer.InternalError(w)
	}
}

// HandleFilePending files the report stashed before the OAuth round-trip.
//
// HTTP: GET /file
//
// This route is never viewed by a human; it is the continuation the callback
// redirects into. Reaching it with no stashed report (direct navigation,
// expired session) fails closed with a client error.
func (h *ReportHandler) HandleFilePending(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		h.renderer.InternalError(w)
		return
	}

	number, err := h.flow.ResumeAndFile(r.Context(), sess)
	if err != nil {
		h.logger.Error("resumed filing failed", slog.String("error", err.Error()))
		h.renderer.WorkflowError(w, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/thanks/%d", number), http.StatusSeeOther)
}

// HandleIssuesIndex bounces /issues back to the report form.
//
// HTTP: GET /issues. A 307 keeps the method and body intact.
func (h *ReportHandler) HandleIssuesIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// HandleShowIssue redirects to the issue's page on the external tracker.
//
// HTTP: GET /issues/{number}
//
// We could render the issue locally some day; for now it is a 307 to GitHub.
func (h *ReportHandler) HandleShowIssue(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	uri := fmt.Sprintf("https://github.com/%s/issues/%s", h.repo, number)
	http.Redirect(w, r, uri, http.StatusTemporaryRedirect)
}

// thanksData feeds the confirmation template.
type thanksData struct {
	Number       string
	IssueURL     string
	EncodedIssue string
	EncodedText  string
}

// HandleThanks renders the confirmation page for a filed issue.
//
// HTTP: GET /thanks/{number}
//
// The number must be purely numeric; anything else is a hard 404, not a
// redirect. The page links to the tracker issue and offers a pre-encoded
// share-text fragment.
func (h *ReportHandler) HandleThanks(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if !isDigits(number) {
		h.renderer.NotFound(w)
		return
	}

	issueURL := fmt.Sprintf("https://github.com/%s/issues/%s", h.repo, number)
	h.renderer.Render(w, http.StatusOK, "thanks.html", thanksData{
		Number:       number,
		IssueURL:     issueURL,
		EncodedIssue: url.QueryEscape(issueURL),
		EncodedText:  url.QueryEscape(shareText),
	})
}

// HandleAbout renders the static about page.
//
// HTTP: GET /about
func (h *ReportHandler) HandleAbout(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "about.html", nil)
}

// isDigits reports whether s is non-empty and entirely ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
