package testutil

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/shortmark/shortmark/internal/db"
)

// NewTestDB opens a fresh SQLite database in a per-test temp directory and
// runs all goose migrations. It is a file rather than :memory: so every pooled
// connection sees the same data. _txlock=immediate makes each transaction take
// the write lock up front; contending writers then wait on busy_timeout.
func NewTestDB(t testing.TB) *sqlx.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "shortmark.db") +
		"?_txlock=immediate"
	conn, err := db.New("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := db.Migrate(conn, "sqlite3"); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return conn
}
