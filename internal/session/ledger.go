package session

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/robalobadob/wordle/apps/game-session/internal/actor"
	"github.com/robalobadob/wordle/apps/game-session/internal/protocol"
)

// Record is one player's session.
type Record struct {
	SessionID actor.MessageID `json:"sessionId"`        // start request that owns the deadline
	OriginID  actor.MessageID `json:"originId"`         // request currently parked
	PendingID actor.MessageID `json:"pendingRequestId"` // outstanding request to the service
	Tries     uint8           `json:"tries"`
	Status    Status          `json:"status"`
	StartedAt time.Time       `json:"startedAt,omitempty"`
}

// Entry pairs a player with its record.
type Entry struct {
	Player actor.Address `json:"player"`
	Record Record        `json:"record"`
}

// State is the read-only snapshot returned to QueryState.
type State struct {
	ServiceAddress actor.Address `json:"serviceAddress"`
	Sessions       []Entry       `json:"sessions"`
}

// Persister saves records before the ledger accepts them.
type Persister interface {
	SaveSession(ctx context.Context, player actor.Address, rec Record) error
}

// Ledger maps players to their records. It has no logic of its own and is
// only touched from the coordinator's dispatcher goroutine.
type Ledger struct {
	service  actor.Address
	sessions map[actor.Address]Record
	persist  Persister
}

// NewLedger returns an empty ledger bound to the service address.
func NewLedger(service actor.Address, p Persister) *Ledger {
	return &Ledger{service: service, sessions: make(map[actor.Address]Record), persist: p}
}

// ServiceAddress is the word-checking service the ledger was created for.
func (l *Ledger) ServiceAddress() actor.Address { return l.service }

// GetOrDefault returns the player's record, or a fresh Init record. The
// fresh record is not stored until Put.
func (l *Ledger) GetOrDefault(player actor.Address) Record {
	if r, ok := l.sessions[player]; ok {
		return r
	}
	return Record{Status: Init()}
}

// Get returns the player's record if one exists.
func (l *Ledger) Get(player actor.Address) (Record, bool) {
	r, ok := l.sessions[player]
	return r, ok
}

// Put stores rec. With a persister, a failed save leaves the ledger unchanged.
func (l *Ledger) Put(ctx context.Context, player actor.Address, rec Record) error {
	if l.persist != nil {
		if err := l.persist.SaveSession(ctx, player, rec); err != nil {
			return fmt.Errorf("persist session %s: %w", player, err)
		}
	}
	l.sessions[player] = rec
	return nil
}

// Restore loads records without persisting them again. A record that was
// waiting on the service lost its parked request with the old process, so it
// is loaded as lost and returned with its previous record for reporting.
func (l *Ledger) Restore(entries []Entry) (expired []Expired) {
	for _, e := range entries {
		rec := e.Record
		if rec.Status.AwaitingReply() {
			prev := rec
			rec.Status = GameOver(protocol.Lose)
			rec.PendingID, rec.OriginID = "", ""
			expired = append(expired, Expired{Player: e.Player, Prev: prev, Next: rec})
		}
		l.sessions[e.Player] = rec
	}
	return expired
}

// Expired is a record Restore turned into a loss.
type Expired struct {
	Player     actor.Address
	Prev, Next Record
}

// Live lists the sessions with a game in progress, ordered by player.
func (l *Ledger) Live() []Entry {
	var out []Entry
	for _, e := range l.Snapshot().Sessions {
		if k := e.Record.Status.Kind(); k != StatusInit && k != StatusGameOver {
			out = append(out, e)
		}
	}
	return out
}

// Len is the number of players with a record.
func (l *Ledger) Len() int { return len(l.sessions) }

// Snapshot copies the ledger, ordered by player.
func (l *Ledger) Snapshot() State {
	out := State{ServiceAddress: l.service, Sessions: make([]Entry, 0, len(l.sessions))}
	for p, r := range l.sessions {
		out.Sessions = append(out.Sessions, Entry{Player: p, Record: r})
	}
	sort.Slice(out.Sessions, func(i, j int) bool { return out.Sessions[i].Player < out.Sessions[j].Player })
	return out
}
