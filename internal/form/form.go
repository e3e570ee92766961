// Package form turns a raw POSTed field set into a validated Report.
//
// Validation failures here are local and recoverable: the handler re-renders
// the form with field-level messages and nothing else happens. Malformed or
// unknown shapes never make it past this boundary.
package form

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/LuciuSVN/webcompat.com/internal/model"
)

var validate = validator.New()

// Errors maps form field name → human-readable message.
// Empty map means the submission is valid.
type Errors map[string]string

// fieldMessages are the user-facing texts for each field/tag combination we
// actually emit. Anything not listed falls back to a generic message.
var fieldMessages = map[string]string{
	"url/required":         "Please provide the address of the broken site.",
	"url/url":              "That doesn't look like a valid URL.",
	"description/required": "Please describe what went wrong.",
	"description/max":      "Please keep the description under 1000 characters.",
	"kind/required":        "Please choose how to report the bug.",
	"kind/oneof":           "Please choose how to report the bug.",
	"browser/max":          "Browser name is too long.",
	"version/max":          "Browser version is too long.",
}

// Parse reads the submitted fields from r, normalizes them, and validates the
// resulting Report. Browser and version come from the posted fields when
// present (the form pre-populates them from the User-Agent header, but the
// visitor may correct them).
//
// Returns the report and a non-empty Errors map when validation fails; the
// report is still returned so the handler can re-render with the visitor's
// input intact.
func Parse(r *http.Request) (*model.Report, Errors) {
	report := &model.Report{
		URL:         strings.TrimSpace(r.PostFormValue("url")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
		Browser:     strings.TrimSpace(r.PostFormValue("browser")),
		Version:     strings.TrimSpace(r.PostFormValue("version")),
		Kind:        model.ReportKind(r.PostFormValue("submit-type")),
	}

	// A bare domain is still a usable report; give it a scheme so the
	// url validator (and the eventual issue body) get a real URL.
	if report.URL != "" && !strings.Contains(report.URL, "://") {
		report.URL = "http://" + report.URL
	}

	return report, check(report)
}

// check runs struct validation and flattens the result into field messages.
func check(report *model.Report) Errors {
	err := validate.Struct(report)
	if err == nil {
		return Errors{}
	}

	errs := Errors{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			field := fieldName(fe.Field())
			if msg, ok := fieldMessages[field+"/"+fe.Tag()]; ok {
				errs[field] = msg
			} else {
				errs[field] = "This field is invalid."
			}
		}
		return errs
	}

	errs["form"] = "The submission could not be read."
	return errs
}

// fieldName lowercases the struct field to match the form input names.
// Report.Kind is posted as "submit-type"; everything else matches 1:1.
func fieldName(structField string) string {
	if structField == "Kind" {
		return "kind"
	}
	return strings.ToLower(structField)
}
