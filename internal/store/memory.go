// apps/game-session/internal/store/memory.go
//
// In-memory implementations of SessionStore and GameStore.
// Used in development/testing, or when durability is not required.
//
// Characteristics:
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Values are copied in and out, so callers never share state with the map.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/robalobadob/wordle/apps/game-session/internal/actor"
	"github.com/robalobadob/wordle/apps/game-session/internal/game"
	"github.com/robalobadob/wordle/apps/game-session/internal/session"
)

type memorySessions struct {
	mu       sync.RWMutex
	sessions map[actor.Address]session.Record
}

// NewMemorySessions constructs an in-memory SessionStore.
func NewMemorySessions() SessionStore {
	return &memorySessions{sessions: make(map[actor.Address]session.Record)}
}

func (m *memorySessions) SaveSession(ctx context.Context, player actor.Address, rec session.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[player] = rec
	return nil
}

func (m *memorySessions) LoadSessions(ctx context.Context) ([]session.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]session.Entry, 0, len(m.sessions))
	for p, r := range m.sessions {
		out = append(out, session.Entry{Player: p, Record: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Player < out[j].Player })
	return out, nil
}

type memoryGames struct {
	mu    sync.RWMutex
	games map[string]game.Game
}

// NewMemoryGames constructs an in-memory GameStore.
func NewMemoryGames() GameStore {
	return &memoryGames{games: make(map[string]game.Game)}
}

func (m *memoryGames) Save(ctx context.Context, g *game.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *g
	cp.Guesses = append([]string(nil), g.Guesses...)
	m.games[g.Player] = cp
	return nil
}

func (m *memoryGames) Get(ctx context.Context, player string) (*game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[player]
	if !ok {
		return nil, ErrNotFound
	}
	g.Guesses = append([]string(nil), g.Guesses...)
	return &g, nil
}
