// Package dbtest opens migrated SQLite databases for tests.
package dbtest

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/robalobadob/wordle/apps/game-session/assets"
	"github.com/robalobadob/wordle/apps/game-session/internal/database"
)

// Open returns a migrated database in a temp dir, closed on cleanup.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(db, assets.Migrations()); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
