// Package store persists coordinator sessions and word-service games.
// Implementations are backed by memory or SQLite.
package store

import (
	"context"
	"errors"

	"github.com/robalobadob/wordle/apps/game-session/internal/game"
	"github.com/robalobadob/wordle/apps/game-session/internal/session"
)

// ErrNotFound is returned when no game exists for a player.
var ErrNotFound = errors.New("not found")

// SessionStore keeps the coordinator ledger across restarts.
type SessionStore interface {
	session.Persister
	// LoadSessions returns every saved record, ordered by player.
	LoadSessions(ctx context.Context) ([]session.Entry, error)
}

// GameStore keeps the secret of each player's current game.
type GameStore interface {
	// Save persists or replaces the player's game.
	Save(ctx context.Context, g *game.Game) error
	// Get retrieves the player's game, or ErrNotFound.
	Get(ctx context.Context, player string) (*game.Game, error)
}
