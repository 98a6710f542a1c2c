package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/robalobadob/wordle/apps/game-session/assets"
)

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "nested", "app.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := Migrate(db, assets.Migrations()); err != nil {
			t.Fatalf("Migrate #%d: %v", i+1, err)
		}
	}
	for _, table := range []string{"users", "games", "daily_results", "sessions", "word_games"} {
		var name string
		if err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name); err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
}

func TestMigrateStopsOnBadScript(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	fsys := fstest.MapFS{
		"001_ok.sql":  {Data: []byte(`CREATE TABLE a (x INTEGER);`)},
		"002_bad.sql": {Data: []byte(`CREATE TABLE nope (`)},
	}
	if err := Migrate(db, fsys); err == nil {
		t.Fatal("want error from bad script")
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&n); err != nil || n != 1 {
		t.Fatalf("applied = %d, %v; want 1", n, err)
	}
}
