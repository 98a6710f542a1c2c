package session

import (
	"context"
	"fmt"
	"time"

	"github.com/robalobadob/wordle/apps/game-session/internal/actor"
	"github.com/robalobadob/wordle/apps/game-session/internal/protocol"
)

// Outbox dispatches messages on behalf of the handler currently running.
type Outbox interface {
	Self() actor.Address
	Send(dest actor.Address, payload any) (actor.MessageID, error)
	SendDelayed(dest actor.Address, payload any, delay time.Duration) (actor.MessageID, error)
	Reply(payload any) error
}

// Scheduler parks the running handler and resumes parked ones.
type Scheduler interface {
	Suspend()
	Wake(id actor.MessageID) error
}

// Authorizer decides whether a source may deliver privileged messages.
type Authorizer interface {
	IsSelf(addr actor.Address) bool
}

// Effects is everything a handler invocation may do to the outside world.
// *actor.Context satisfies it.
type Effects interface {
	Context() context.Context
	Outbox
	Scheduler
	Authorizer
}

// gateway formats outbound requests. It owns no state.
type gateway struct {
	fx      Outbox
	service actor.Address
}

func (g gateway) sendToService(req any) (actor.MessageID, error) {
	id, err := g.fx.Send(g.service, req)
	if err != nil {
		return "", fmt.Errorf("send to wordle service: %w", err)
	}
	return id, nil
}

func (g gateway) scheduleDeadline(player actor.Address, sessionID actor.MessageID, delay time.Duration) error {
	_, err := g.fx.SendDelayed(g.fx.Self(), protocol.CheckGameStatus{Player: player, SessionID: sessionID}, delay)
	if err != nil {
		return fmt.Errorf("schedule deadline: %w", err)
	}
	return nil
}

func (g gateway) notify(player actor.Address, ev protocol.Event) error {
	if _, err := g.fx.Send(player, ev); err != nil {
		return fmt.Errorf("notify %s: %w", player, err)
	}
	return nil
}
