package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LuciuSVN/webcompat.com/internal/apperror"
	"github.com/LuciuSVN/webcompat.com/internal/model"
	"github.com/LuciuSVN/webcompat.com/internal/repository"
)

// compile-time check that *DB implements repository.SessionRepository
var _ repository.SessionRepository = (*DB)(nil)

// Get loads a session by its opaque token.
// Returns apperror.ErrNotFound for unknown tokens, which the session loader
// treats as "start a fresh session" rather than an error.
func (db *DB) Get(ctx context.Context, token string) (*model.Session, error) {
	var (
		s       model.Session
		userID  sql.NullString
		pending sql.NullString
		flashes string
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT token, user_id, pending_report, flashes, created_at, updated_at
		 FROM sessions WHERE token = ?`,
		token,
	).Scan(&s.Token, &userID, &pending, &flashes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("session", token)
		}
		return nil, fmt.Errorf("sqlite: getting session: %w", err)
	}

	s.UserID = userID.String

	if pending.Valid && pending.String != "" {
		var r model.Report
		if err := json.Unmarshal([]byte(pending.String), &r); err != nil {
			return nil, fmt.Errorf("sqlite: decoding pending report: %w", err)
		}
		s.Pending = &r
	}

	if err := json.Unmarshal([]byte(flashes), &s.Flashes); err != nil {
		return nil, fmt.Errorf("sqlite: decoding flashes: %w", err)
	}

	return &s, nil
}

// Create inserts a brand-new session row.
func (db *DB) Create(ctx context.Context, sess *model.Session) error {
	if sess.Token == "" {
		return fmt.Errorf("sqlite: session token must not be empty")
	}

	now := time.Now().UTC()
	sess.CreatedAt = now
	sess.UpdatedAt = now

	pending, flashes, err := encodeSessionBlobs(sess)
	if err != nil {
		return err
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, pending_report, flashes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sess.Token, nullable(sess.UserID), pending, flashes, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting session: %w", err)
	}

	return nil
}

// Save writes the session's mutable state (user binding, stash, flashes) back.
func (db *DB) Save(ctx context.Context, sess *model.Session) error {
	sess.UpdatedAt = time.Now().UTC()

	pending, flashes, err := encodeSessionBlobs(sess)
	if err != nil {
		return err
	}

	res, err := db.conn.ExecContext(ctx,
		`UPDATE sessions SET user_id = ?, pending_report = ?, flashes = ?, updated_at = ?
		 WHERE token = ?`,
		nullable(sess.UserID), pending, flashes, sess.UpdatedAt, sess.Token,
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("session", sess.Token)
	}

	return nil
}

func encodeSessionBlobs(sess *model.Session) (pending sql.NullString, flashes string, err error) {
	if sess.Pending != nil {
		b, err := json.Marshal(sess.Pending)
		if err != nil {
			return pending, "", fmt.Errorf("sqlite: encoding pending report: %w", err)
		}
		pending = sql.NullString{String: string(b), Valid: true}
	}

	fb, err := json.Marshal(sess.Flashes)
	if err != nil {
		return pending, "", fmt.Errorf("sqlite: encoding flashes: %w", err)
	}
	if sess.Flashes == nil {
		fb = []byte("[]")
	}

	return pending, string(fb), nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
