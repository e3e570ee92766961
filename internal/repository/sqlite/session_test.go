package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/LuciuSVN/webcompat.com/internal/apperror"
	"github.com/LuciuSVN/webcompat.com/internal/model"
)

func TestSessionCreateAndGet(t *testing.T) {
	db := newTestDB(t)

	sess := &model.Session{Token: "s1"}
	if err := db.Create(context.Background(), sess); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := db.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Token != "s1" {
		t.Errorf("Token = %q, want %q", got.Token, "s1")
	}
	if got.UserID != "" {
		t.Errorf("UserID = %q, want empty", got.UserID)
	}
	if got.Pending != nil {
		t.Error("fresh session should have no pending report")
	}
}

func TestSessionGet_Unknown(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Get(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSessionSave_RoundTripsPendingReport(t *testing.T) {
	db := newTestDB(t)

	sess := &model.Session{Token: "s1"}
	if err := db.Create(context.Background(), sess); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	report := &model.Report{
		URL:         "http://example.com",
		Description: "text is invisible",
		Browser:     "Firefox",
		Version:     "128.0",
		Kind:        model.AuthReport,
	}
	sess.Stash(report)
	if err := db.Save(context.Background(), sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := db.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Pending == nil {
		t.Fatal("pending report did not survive the round trip")
	}
	if *got.Pending != *report {
		t.Errorf("Pending = %+v, want %+v", got.Pending, report)
	}

	// Clearing also round-trips.
	got.TakePending()
	if err := db.Save(context.Background(), got); err != nil {
		t.Fatalf("Save() after TakePending error = %v", err)
	}
	again, err := db.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if again.Pending != nil {
		t.Error("cleared pending report came back")
	}
}

func TestSessionSave_BindsUser(t *testing.T) {
	db := newTestDB(t)

	user, err := db.LookupOrCreateByToken(context.Background(), "tok")
	if err != nil {
		t.Fatalf("LookupOrCreateByToken() error = %v", err)
	}

	sess := &model.Session{Token: "s1"}
	if err := db.Create(context.Background(), sess); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	sess.UserID = user.ID
	if err := db.Save(context.Background(), sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := db.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.UserID != user.ID {
		t.Errorf("UserID = %q, want %q", got.UserID, user.ID)
	}
}

func TestSessionSave_RoundTripsFlashes(t *testing.T) {
	db := newTestDB(t)

	sess := &model.Session{Token: "s1"}
	if err := db.Create(context.Background(), sess); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	sess.Flash(model.FlashInfo, "You were successfully logged out.")
	if err := db.Save(context.Background(), sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := db.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.Flashes) != 1 || got.Flashes[0].Message != "You were successfully logged out." {
		t.Errorf("Flashes = %+v, want one logout message", got.Flashes)
	}
}

func TestSessionSave_UnknownToken(t *testing.T) {
	db := newTestDB(t)

	err := db.Save(context.Background(), &model.Session{Token: "ghost"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
