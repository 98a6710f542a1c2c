package session

import (
	"time"

	"github.com/robalobadob/wordle/apps/game-session/internal/actor"
	"github.com/robalobadob/wordle/apps/game-session/internal/protocol"
)

// Discard reasons reported to observers.
const (
	DiscardNoSession     = "no_session"
	DiscardStale         = "stale"
	DiscardNotAwaiting   = "not_awaiting"
	DiscardUnknownReply  = "unknown_reply"
	DiscardForgedSender  = "forged_sender"
	DiscardDeadlineStale = "deadline_stale"
)

// Finished describes a game that reached GameOver.
type Finished struct {
	Player    actor.Address
	Result    protocol.GameResult
	Tries     uint8
	Forced    bool // ended by the deadline
	StartedAt time.Time
	EndedAt   time.Time
}

// Observer is told about committed transitions. Implementations must not
// block for long; they run on the coordinator's dispatcher goroutine.
type Observer interface {
	Transition(player actor.Address, from, to StatusKind)
	Finished(f Finished)
	Discarded(player actor.Address, reason string)
}

// Observers fans out to every element.
type Observers []Observer

func (o Observers) Transition(player actor.Address, from, to StatusKind) {
	for _, x := range o {
		x.Transition(player, from, to)
	}
}

func (o Observers) Finished(f Finished) {
	for _, x := range o {
		x.Finished(f)
	}
}

func (o Observers) Discarded(player actor.Address, reason string) {
	for _, x := range o {
		x.Discarded(player, reason)
	}
}
