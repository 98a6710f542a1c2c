// apps/game-session/internal/history/recorder.go
//
// Game history and user stats.
// Responsibilities:
//   - Record every finished game (one games row per GameOver).
//   - Bump games played / wins / streak for authenticated players.
//   - Insert a daily result when a user wins a word-of-the-day game.
//   - List a user's recent games and claim anonymous games after login.
//
// Recorder implements session.Observer. Finished runs on the coordinator's
// dispatcher, so writes are bounded by a short timeout and failures are only
// logged: history never blocks or fails a game.

package history

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/game-session/internal/actor"
	"github.com/robalobadob/wordle/apps/game-session/internal/daily"
	"github.com/robalobadob/wordle/apps/game-session/internal/protocol"
	"github.com/robalobadob/wordle/apps/game-session/internal/session"
)

const writeTimeout = 3 * time.Second

// DailySource reports the word-of-the-day index, if games use one.
type DailySource interface {
	DailyIndex(t time.Time) (int, bool)
}

// Recorder persists finished games.
type Recorder struct {
	db    *sql.DB
	daily *daily.Store
	src   DailySource
}

// NewRecorder writes to db. src may be nil when secrets are not daily.
func NewRecorder(db *sql.DB, src DailySource) *Recorder {
	return &Recorder{db: db, daily: daily.NewStore(db), src: src}
}

func (r *Recorder) Transition(actor.Address, session.StatusKind, session.StatusKind) {}

func (r *Recorder) Discarded(actor.Address, string) {}

// Finished implements session.Observer.
func (r *Recorder) Finished(f session.Finished) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.Record(ctx, f); err != nil {
		log.Warn().Err(err).Str("player", f.Player.String()).Msg("record finished game")
	}
}

// Record stores f and updates the player's stats in one transaction.
func (r *Recorder) Record(ctx context.Context, f session.Finished) error {
	userID, isUser := protocol.UserID(f.Player)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var userArg, anonArg any
	if isUser {
		userArg = userID
	} else {
		anonArg = f.Player.String()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO games (id, user_id, anonymous_id, result, tries, forced, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		genID(), userArg, anonArg, f.Result.String(), int(f.Tries), boolInt(f.Forced),
		f.StartedAt.UTC().Format(time.RFC3339), f.EndedAt.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	if isUser {
		if err := bumpStats(ctx, tx, userID, f.Result == protocol.Win); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if isUser && f.Result == protocol.Win && r.src != nil {
		if idx, ok := r.src.DailyIndex(f.StartedAt); ok {
			return r.daily.InsertResult(ctx, daily.Result{
				UserID:    userID,
				Date:      daily.DateKey(f.StartedAt),
				WordIndex: idx,
				Guesses:   int(f.Tries),
				ElapsedMs: int(f.EndedAt.Sub(f.StartedAt).Milliseconds()),
			})
		}
	}
	return nil
}

// bumpStats increments games played; updates wins and streak based on result (within tx).
func bumpStats(ctx context.Context, tx *sql.Tx, userID string, won bool) error {
	var gp, wins, streak int
	row := tx.QueryRowContext(ctx, `SELECT games_played, wins, streak FROM users WHERE id=?`, userID)
	if err := row.Scan(&gp, &wins, &streak); err != nil {
		return err
	}
	gp++
	if won {
		wins++
		streak++
	} else {
		streak = 0
	}
	_, err := tx.ExecContext(ctx, `UPDATE users SET games_played=?, wins=?, streak=? WHERE id=?`, gp, wins, streak, userID)
	return err
}

// Game is one row of a player's history.
type Game struct {
	ID         string `json:"id"`
	Result     string `json:"result"`
	Tries      int    `json:"tries"`
	Forced     bool   `json:"forced,omitempty"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt"`
}

// Mine lists a user's most recent games, newest first.
func (r *Recorder) Mine(ctx context.Context, userID string, limit int) ([]Game, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, result, tries, forced, started_at, finished_at
		FROM games WHERE user_id=? ORDER BY finished_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Game{}
	for rows.Next() {
		var g Game
		var forced int
		if err := rows.Scan(&g.ID, &g.Result, &g.Tries, &forced, &g.StartedAt, &g.FinishedAt); err != nil {
			return nil, err
		}
		g.Forced = forced != 0
		out = append(out, g)
	}
	return out, rows.Err()
}

// ClaimAnon moves an anonymous player's games to a user account.
func (r *Recorder) ClaimAnon(ctx context.Context, anon actor.Address, userID string) error {
	if anon.IsZero() || userID == "" {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE games SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anon.String())
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// genID creates a 22-char URL-safe, crypto-random identifier (no padding).
func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
