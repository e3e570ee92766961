// Package issues files bug reports on the external GitHub issue tracker.
//
// Both paths are synchronous, single-attempt calls: non-success status or a
// malformed response surfaces as apperror.ErrUpstream and nobody retries.
// By the time a submission fails the form stash has already been cleared, so
// the visitor's only recourse is to re-enter the form. That is deliberate,
// it guarantees a report is filed at most once.
package issues

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/LuciuSVN/webcompat.com/internal/apperror"
	"github.com/LuciuSVN/webcompat.com/internal/model"
)

// Submitter is the interface the workflow depends on; *Client is the real
// implementation, tests substitute a capture mock.
type Submitter interface {
	// SubmitAsUser files the report authenticated as the visitor.
	SubmitAsUser(ctx context.Context, accessToken string, report *model.Report) (int, error)

	// SubmitAnonymous files the report under the service identity, so the
	// tracker never sees who the visitor is.
	SubmitAnonymous(ctx context.Context, report *model.Report) (int, error)
}

// Config identifies the target tracker.
type Config struct {
	// APIBase is the GitHub API root, overridable for tests.
	// Defaults to https://api.github.com.
	APIBase string

	// Repo is the "owner/name" of the repository issues are filed against,
	// e.g. "webcompat/web-bugs".
	Repo string

	// ServiceToken is the fixed service-level credential used for proxy
	// (anonymous) reports.
	ServiceToken string
}

// Client talks to the GitHub issues API.
type Client struct {
	config Config
	// base is the unauthenticated client; per-request token sources wrap it.
	// Its timeout is the only bound on the outbound call.
	base *http.Client
}

// NewClient creates a Client. A zero APIBase falls back to the public GitHub
// API.
func NewClient(cfg Config) *Client {
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.github.com"
	}
	return &Client{
		config: cfg,
		base:   &http.Client{Timeout: 10 * time.Second},
	}
}

var _ Submitter = (*Client)(nil)

// SubmitAsUser files the issue with the visitor's own access token.
func (c *Client) SubmitAsUser(ctx context.Context, accessToken string, report *model.Report) (int, error) {
	return c.create(ctx, accessToken, report)
}

// SubmitAnonymous files the issue with the service credential. The issue body
// still carries the report contents, but the tracker records the service
// identity as the author.
func (c *Client) SubmitAnonymous(ctx context.Context, report *model.Report) (int, error) {
	return c.create(ctx, c.config.ServiceToken, report)
}

// issueRequest is the GitHub "create issue" payload.
type issueRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// issueResponse is the part of GitHub's response we care about.
type issueResponse struct {
	Number int `json:"number"`
}

func (c *Client) create(ctx context.Context, token string, report *model.Report) (int, error) {
	payload, err := json.Marshal(issueRequest{
		Title: Title(report),
		Body:  Body(report),
	})
	if err != nil {
		return 0, fmt.Errorf("issues: encoding request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/repos/%s/issues", c.config.APIBase, c.config.Repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("issues: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github+json")

	// oauth2.NewClient wraps our base client so the Authorization header is
	// attached the same way the rest of the OAuth plumbing does it.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.base)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))

	resp, err := client.Do(req)
	if err != nil {
		return 0, apperror.Upstream(fmt.Sprintf("issue tracker unreachable: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return 0, apperror.Upstream(fmt.Sprintf("issue tracker returned status %d", resp.StatusCode))
	}

	var ir issueResponse
	if err := json.NewDecoder(resp.Body).Decode(&ir); err != nil {
		return 0, apperror.Upstream(fmt.Sprintf("decoding issue tracker response: %v", err))
	}
	if ir.Number <= 0 {
		return 0, apperror.Upstream("issue tracker returned no issue number")
	}

	return ir.Number, nil
}

// Title builds the issue title: the broken site's host plus a trimmed slice
// of the description, e.g. "example.com - video won't play".
func Title(report *model.Report) string {
	host := report.URL
	if u, err := url.Parse(report.URL); err == nil && u.Host != "" {
		host = u.Host
	}

	summary := report.Description
	if len(summary) > 60 {
		summary = summary[:60] + "…"
	}
	summary = strings.ReplaceAll(summary, "\n", " ")

	return fmt.Sprintf("%s - %s", host, summary)
}

// Body builds the markdown issue body from the report fields.
func Body(report *model.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**URL**: %s\n", report.URL)
	if report.Browser != "" {
		fmt.Fprintf(&b, "**Browser / Version**: %s %s\n", report.Browser, report.Version)
	}
	fmt.Fprintf(&b, "\n%s\n", report.Description)
	return b.String()
}
