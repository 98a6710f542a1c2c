// apps/game-session/internal/store/sqlite.go
//
// SQLite implementations of SessionStore and GameStore.
// Session records are stored as JSON (the status variant carries its own
// payload); guesses are a JSON array. Writes are upserts keyed by player.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/wordle/apps/game-session/internal/actor"
	"github.com/robalobadob/wordle/apps/game-session/internal/game"
	"github.com/robalobadob/wordle/apps/game-session/internal/session"
)

type sqliteSessions struct{ db *sql.DB }

// NewSQLiteSessions stores ledger records in the sessions table.
func NewSQLiteSessions(db *sql.DB) SessionStore { return &sqliteSessions{db: db} }

func (s *sqliteSessions) SaveSession(ctx context.Context, player actor.Address, rec session.Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (player, record, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(player) DO UPDATE SET record=excluded.record, updated_at=excluded.updated_at`,
		string(player), string(b), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (s *sqliteSessions) LoadSessions(ctx context.Context) ([]session.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT player, record FROM sessions ORDER BY player`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []session.Entry
	for rows.Next() {
		var player, raw string
		if err := rows.Scan(&player, &raw); err != nil {
			return nil, err
		}
		var rec session.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode session %s: %w", player, err)
		}
		out = append(out, session.Entry{Player: actor.Address(player), Record: rec})
	}
	return out, rows.Err()
}

type sqliteGames struct{ db *sql.DB }

// NewSQLiteGames stores word-service games in the word_games table.
func NewSQLiteGames(db *sql.DB) GameStore { return &sqliteGames{db: db} }

func (s *sqliteGames) Save(ctx context.Context, g *game.Game) error {
	guesses, err := json.Marshal(g.Guesses)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO word_games (player, answer, guesses, started_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(player) DO UPDATE SET answer=excluded.answer, guesses=excluded.guesses, started_at=excluded.started_at`,
		g.Player, g.Answer, string(guesses), g.StartedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *sqliteGames) Get(ctx context.Context, player string) (*game.Game, error) {
	var (
		g       = game.Game{Player: player}
		guesses string
		started string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT answer, guesses, started_at FROM word_games WHERE player=?`, player,
	).Scan(&g.Answer, &guesses, &started)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(guesses), &g.Guesses); err != nil {
		return nil, fmt.Errorf("decode guesses for %s: %w", player, err)
	}
	g.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	return &g, nil
}
