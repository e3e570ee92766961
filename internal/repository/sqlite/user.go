package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/LuciuSVN/webcompat.com/internal/apperror"
	"github.com/LuciuSVN/webcompat.com/internal/model"
	"github.com/LuciuSVN/webcompat.com/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// LookupOrCreateByToken resolves a user from an OAuth access token, creating
// the row on first sight.
//
// The obvious read-then-insert has a race: two callbacks landing at once with
// the same never-seen token would both see "no row" and both insert. Instead
// we INSERT with ON CONFLICT DO UPDATE against the UNIQUE(access_token)
// constraint: whichever request loses the insert race degrades into the
// update arm, and both resolve to the same row. The trailing SELECT returns
// the canonical record either way.
//
// updated_at is touched even when nothing else changed; it doubles as a
// "last login" marker.
func (db *DB) LookupOrCreateByToken(ctx context.Context, accessToken string) (*model.User, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("sqlite: access token must not be empty")
	}

	now := time.Now().UTC()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, access_token, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(access_token) DO UPDATE SET updated_at = excluded.updated_at`,
		xid.New().String(), accessToken, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: upserting user by token: %w", err)
	}

	var u model.User
	err = db.conn.QueryRowContext(ctx,
		`SELECT id, access_token, created_at, updated_at
		 FROM users WHERE access_token = ?`,
		accessToken,
	).Scan(&u.ID, &u.AccessToken, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading back user by token: %w", err)
	}

	return &u, nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, access_token, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(&u.ID, &u.AccessToken, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}
