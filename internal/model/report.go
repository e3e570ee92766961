package model

// ReportKind is the submission-mode discriminator on the bug report form.
// Exactly one of the two values is legal; the form model rejects anything else
// at the boundary.
type ReportKind string

const (
	// AuthReport files the issue as the visitor's own GitHub identity,
	// triggering the OAuth handshake if they are not logged in yet.
	AuthReport ReportKind = "github-auth-report"

	// ProxyReport files the issue under the shared service identity, for
	// visitors who decline to authenticate.
	ProxyReport ReportKind = "github-proxy-report"
)

// Report is one validated bug report submission.
//
// It is a request-scoped value object: it lives for the duration of a single
// POST, except when an unauthenticated visitor picks the authenticated path;
// then it is stashed into the session for exactly one OAuth round-trip and
// cleared the moment it is taken back out (see Session.TakePending).
type Report struct {
	URL         string     `json:"url"         validate:"required,url"`
	Description string     `json:"description" validate:"required,max=1000"`
	Browser     string     `json:"browser"     validate:"max=100"` // sniffed from User-Agent, may be empty
	Version     string     `json:"version"     validate:"max=50"`
	Kind        ReportKind `json:"kind"        validate:"required,oneof=github-auth-report github-proxy-report"`
}
