package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Olawill/church-transport-application-sub001/internal/persistence"
	"github.com/Olawill/church-transport-application-sub001/internal/testfixtures"
)

func seedSessionUser(t *testing.T, h *testfixtures.SQLiteHarness) {
	t.Helper()
	if err := h.Users.CreateUser(context.Background(), testfixtures.NewUser("user-1")); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewSQLiteHarness(t)
	seedSessionUser(t, h)
	ctx := context.Background()

	session := persistence.Session{
		ID:        "sess-1",
		UserID:    "user-1",
		Token:     "tok-1",
		ExpiresAt: testfixtures.ReferenceTime().Add(time.Hour),
		CreatedAt: testfixtures.ReferenceTime(),
	}
	if err := h.Sessions.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}

	got, err := h.Sessions.GetSession(ctx, "tok-1")
	if err != nil {
		t.Fatalf("GetSession returned error: %v", err)
	}
	if got.UserID != "user-1" || got.RevokedAt != nil {
		t.Fatalf("unexpected session: %+v", got)
	}

	if err := h.Sessions.RevokeSession(ctx, "tok-1", testfixtures.ReferenceTime()); err != nil {
		t.Fatalf("RevokeSession returned error: %v", err)
	}
	got, err = h.Sessions.GetSession(ctx, "tok-1")
	if err != nil {
		t.Fatalf("GetSession returned error: %v", err)
	}
	if got.RevokedAt == nil {
		t.Fatalf("revocation timestamp missing")
	}

	// Revoking twice finds no active row.
	if err := h.Sessions.RevokeSession(ctx, "tok-1", testfixtures.ReferenceTime()); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double revoke, got %v", err)
	}
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewSQLiteHarness(t)
	seedSessionUser(t, h)
	ctx := context.Background()

	stale := persistence.Session{
		ID:        "sess-1",
		UserID:    "user-1",
		Token:     "tok-old",
		ExpiresAt: testfixtures.ReferenceTime().Add(-time.Hour),
		CreatedAt: testfixtures.ReferenceTime().Add(-2 * time.Hour),
	}
	fresh := persistence.Session{
		ID:        "sess-2",
		UserID:    "user-1",
		Token:     "tok-new",
		ExpiresAt: testfixtures.ReferenceTime().Add(time.Hour),
		CreatedAt: testfixtures.ReferenceTime(),
	}
	for _, session := range []persistence.Session{stale, fresh} {
		if err := h.Sessions.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession returned error: %v", err)
		}
	}

	if err := h.Sessions.DeleteExpiredSessions(ctx, testfixtures.ReferenceTime()); err != nil {
		t.Fatalf("DeleteExpiredSessions returned error: %v", err)
	}

	if _, err := h.Sessions.GetSession(ctx, "tok-old"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("stale session should be gone, got %v", err)
	}
	if _, err := h.Sessions.GetSession(ctx, "tok-new"); err != nil {
		t.Fatalf("fresh session must survive: %v", err)
	}
}
