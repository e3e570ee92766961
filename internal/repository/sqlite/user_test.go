package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/LuciuSVN/webcompat.com/internal/apperror"
)

// newTestDB returns a DB backed by an in-memory SQLite database, with the
// schema migrated. Each test gets its own database.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLookupOrCreateByToken_CreatesOnFirstSight(t *testing.T) {
	db := newTestDB(t)

	user, err := db.LookupOrCreateByToken(context.Background(), "tok-new")
	if err != nil {
		t.Fatalf("LookupOrCreateByToken() error = %v", err)
	}

	if user.ID == "" {
		t.Error("LookupOrCreateByToken() did not set user.ID")
	}
	if user.AccessToken != "tok-new" {
		t.Errorf("AccessToken = %q, want %q", user.AccessToken, "tok-new")
	}
	if user.CreatedAt.IsZero() {
		t.Error("LookupOrCreateByToken() did not set CreatedAt")
	}
}

func TestLookupOrCreateByToken_SameTokenSameUser(t *testing.T) {
	db := newTestDB(t)

	first, err := db.LookupOrCreateByToken(context.Background(), "tok-stable")
	if err != nil {
		t.Fatalf("first lookup error = %v", err)
	}

	second, err := db.LookupOrCreateByToken(context.Background(), "tok-stable")
	if err != nil {
		t.Fatalf("second lookup error = %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("same token resolved to different users: %s vs %s", first.ID, second.ID)
	}

	// Exactly one row exists for the token.
	var count int
	err = db.conn.QueryRow(`SELECT COUNT(*) FROM users WHERE access_token = ?`, "tok-stable").Scan(&count)
	if err != nil {
		t.Fatalf("counting users: %v", err)
	}
	if count != 1 {
		t.Errorf("user count = %d, want 1", count)
	}
}

func TestLookupOrCreateByToken_DistinctTokensDistinctUsers(t *testing.T) {
	db := newTestDB(t)

	a, err := db.LookupOrCreateByToken(context.Background(), "tok-a")
	if err != nil {
		t.Fatalf("LookupOrCreateByToken() error = %v", err)
	}
	b, err := db.LookupOrCreateByToken(context.Background(), "tok-b")
	if err != nil {
		t.Fatalf("LookupOrCreateByToken() error = %v", err)
	}

	if a.ID == b.ID {
		t.Error("distinct tokens resolved to the same user")
	}
}

func TestLookupOrCreateByToken_EmptyToken(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.LookupOrCreateByToken(context.Background(), ""); err == nil {
		t.Fatal("expected an error for an empty token")
	}
}

func TestGetByID(t *testing.T) {
	db := newTestDB(t)

	created, err := db.LookupOrCreateByToken(context.Background(), "tok-get")
	if err != nil {
		t.Fatalf("LookupOrCreateByToken() error = %v", err)
	}

	got, err := db.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.AccessToken != "tok-get" {
		t.Errorf("AccessToken = %q, want %q", got.AccessToken, "tok-get")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), "nope")
	if err == nil {
		t.Fatal("expected an error for an unknown ID")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
