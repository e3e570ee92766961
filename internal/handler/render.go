// Package handler contains the HTTP request handlers.
//
// Handlers are glue: they read the request, call the workflow, and render a
// template or redirect. The sequencing rules live in internal/workflow; the
// error taxonomy lives in internal/apperror and is mapped to user-facing HTML
// pages here.
package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/LuciuSVN/webcompat.com/internal/apperror"
	"github.com/LuciuSVN/webcompat.com/web"
)

// Renderer holds the parsed templates so they are compiled once at startup
// and reused on every request.
type Renderer struct {
	templates *template.Template
	logger    *slog.Logger
}

// NewRenderer parses the embedded templates.
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	tmpl, err := template.ParseFS(web.Templates, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl, logger: logger}, nil
}

// Render writes an HTML page with the given status code.
func (re *Renderer) Render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := re.templates.ExecuteTemplate(w, name, data); err != nil {
		// Headers are already sent; all we can do is log.
		re.logger.Error("failed to render template",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
	}
}

// errorPage is the data for the generic error template.
type errorPage struct {
	Code    int
	Message string
}

// ErrorPage renders the generic error page with a numeric code and message.
// Every error response is a user-facing HTML page; there is no structured
// error format on this surface.
func (re *Renderer) ErrorPage(w http.ResponseWriter, code int, message string) {
	re.Render(w, code, "error.html", errorPage{Code: code, Message: message})
}

// NotFound renders the standard 404 page.
func (re *Renderer) NotFound(w http.ResponseWriter) {
	re.ErrorPage(w, http.StatusNotFound, "We can't find what you are looking for.")
}

// InternalError renders the standard 500 page.
func (re *Renderer) InternalError(w http.ResponseWriter) {
	re.ErrorPage(w, http.StatusInternalServerError, "Internal Server Error")
}

// WorkflowError maps a workflow failure to the right error page.
//
// Upstream submission failures have no recovery path (by the time they
// happen the stash is already cleared), so they surface as the generic 500.
// A missing pending report on the resume route fails closed as a client
// error instead.
func (re *Renderer) WorkflowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperror.ErrNoPending):
		re.ErrorPage(w, http.StatusBadRequest, "There is no report waiting to be filed.")
	case errors.Is(err, apperror.ErrNotFound):
		re.NotFound(w)
	default:
		re.InternalError(w)
	}
}
