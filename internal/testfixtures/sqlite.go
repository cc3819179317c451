package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Olawill/church-transport-application-sub001/internal/persistence"
	"github.com/Olawill/church-transport-application-sub001/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Users     persistence.UserRepository
	Addresses persistence.AddressRepository
	Services  persistence.ServiceRepository
	Requests  persistence.RequestRepository
	Sessions  persistence.SessionRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a harness over a migrated temporary database.
// Cleanup is registered with the provided testing.TB automatically.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "transport.db")
	pool, err := sqlite.NewConnectionPool("file:" + path)
	if err != nil {
		tb.Fatalf("failed to open database: %v", err)
	}
	if err := pool.Migrate(context.Background()); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate database: %v", err)
	}

	harness := &SQLiteHarness{
		Users:     sqlite.NewUserRepository(pool),
		Addresses: sqlite.NewAddressRepository(pool),
		Services:  sqlite.NewServiceRepository(pool),
		Requests:  sqlite.NewRequestRepository(pool),
		Sessions:  sqlite.NewSessionRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
