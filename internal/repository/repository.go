// Package repository defines the storage interfaces the rest of the app
// depends on. Concrete implementations live in subpackages (sqlite).
package repository

import (
	"context"

	"github.com/LuciuSVN/webcompat.com/internal/model"
)

// UserRepository persists the minimal identity records.
type UserRepository interface {
	// LookupOrCreateByToken resolves the user owning the given access token,
	// creating one on first sight. The stored token is overwritten on every
	// call so a rotated token sticks. Exactly one user row exists per
	// distinct token value.
	LookupOrCreateByToken(ctx context.Context, accessToken string) (*model.User, error)

	// GetByID returns the user with the given internal ID, or
	// apperror.ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// SessionRepository persists server-side sessions keyed by their opaque token.
type SessionRepository interface {
	// Get returns the session for the token, or apperror.ErrNotFound.
	Get(ctx context.Context, token string) (*model.Session, error)

	// Create inserts a brand-new session. The token must already be set.
	Create(ctx context.Context, sess *model.Session) error

	// Save writes the session's current state back (user binding, pending
	// report, flashes).
	Save(ctx context.Context, sess *model.Session) error
}
