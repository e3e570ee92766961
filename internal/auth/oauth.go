// Package auth provides the GitHub OAuth handshake, the signed session
// cookie, and the middleware that loads a session into the request context.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. A visitor submits the report form in "file as me" mode while anonymous.
//  2. The workflow stashes the form into the session and sends the browser to
//     /login, which redirects to GitHub's authorization page.
//  3. GitHub calls back /callback with a short-lived code.
//  4. The server exchanges the code for an access token (server-to-server,
//     the token never touches the browser), resolves a User by it, and binds
//     the user into the session.
//  5. /file resumes the stashed submission as that user.
package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization Code
// flow. We request the single "public_repo" scope, the minimum needed to
// file an issue on a public repository as the visitor.
type GitHubProvider struct {
	config *oauth2.Config
}

// NewGitHubProvider creates a provider from an OAuth App's credentials.
// callbackURL must exactly match the "Authorization callback URL" configured
// in the GitHub OAuth App settings.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"public_repo"},
			Endpoint:     github.Endpoint,
		},
	}
}

// AuthURL returns the GitHub authorization URL to redirect the browser to.
// state is a random single-use value checked on callback (CSRF protection).
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for the access token.
//
// The token is the visitor's credential for filing issues and is the only
// thing we keep. No profile call, no scopes beyond public_repo. The
// code-for-token exchange happens server-to-server using our ClientSecret.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (string, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("auth: provider returned an empty access token")
	}
	return tok.AccessToken, nil
}
