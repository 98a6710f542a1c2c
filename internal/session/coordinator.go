// apps/game-session/internal/session/coordinator.go
//
// Session state machine for the game-session coordinator.
// Responsibilities:
//   - Accept StartGame / CheckWord from players and relay them to the
//     word-checking service, parking the request until the reply arrives.
//   - Consume service replies, matching them against the request each
//     session is waiting on, and wake the parked request.
//   - Force a loss when the self-scheduled deadline fires on a live game.
//   - Track tries and the win/lose outcome per player.
//
// Every handler validates before it mutates; the ledger write is the last
// step, so a failed handler leaves the ledger as it was. Sends are buffered by
// the runtime and dropped along with the failed handler.

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/game-session/internal/actor"
	"github.com/robalobadob/wordle/apps/game-session/internal/protocol"
)

const (
	// TriesLimit is the number of guesses per game.
	TriesLimit = 5
	// DefaultDeadline bounds how long a started game may run.
	DefaultDeadline = 10 * time.Minute
)

// Coordinator is the session state machine. It implements actor.Handler.
type Coordinator struct {
	ledger   *Ledger
	deadline time.Duration
	clock    clock.Clock
	observer Observer
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDeadline sets the delay of the deadline scheduled on start.
func WithDeadline(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.deadline = d
		}
	}
}

// WithClock sets the clock used for StartedAt and finish times.
func WithClock(cl clock.Clock) Option { return func(c *Coordinator) { c.clock = cl } }

// WithObserver installs a transition observer.
func WithObserver(o Observer) Option { return func(c *Coordinator) { c.observer = o } }

// WithPersister makes the ledger save every record before accepting it.
func WithPersister(p Persister) Option { return func(c *Coordinator) { c.ledger.persist = p } }

// New builds a coordinator for the given word-checking service.
func New(service actor.Address, opts ...Option) (*Coordinator, error) {
	if service.IsZero() {
		return nil, ErrInvalidServiceAddress
	}
	c := &Coordinator{
		ledger:   NewLedger(service, nil),
		deadline: DefaultDeadline,
		clock:    clock.New(),
		observer: Observers(nil),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Ledger exposes the ledger for tests and snapshots. Do not touch it once
// the coordinator is spawned.
func (c *Coordinator) Ledger() *Ledger { return c.ledger }

// Restore loads persisted records before the coordinator is spawned. Games
// that were waiting on the service are saved as forced losses and reported
// to the observer. Send ResumeDeadlines from the coordinator's own address
// once it is spawned so the remaining live games still end on time.
func (c *Coordinator) Restore(ctx context.Context, entries []Entry) (expired int, err error) {
	for _, e := range c.ledger.Restore(entries) {
		if err := c.write(ctx, e.Player, e.Prev, e.Next, true); err != nil {
			return expired, fmt.Errorf("expire %s: %w", e.Player, err)
		}
		log.Info().Str("player", e.Player.String()).Str("was", e.Prev.Status.String()).Msg("restored game lost its pending request")
		expired++
	}
	return expired, nil
}

// resumeDeadlines schedules each live game's deadline for the time it has
// left since StartedAt. Overdue games get a deadline with no delay.
func (c *Coordinator) resumeDeadlines(fx Effects, msg actor.Message) error {
	if !fx.IsSelf(msg.Source) {
		log.Warn().Str("source", msg.Source.String()).Msg("resume deadlines from foreign sender ignored")
		c.observer.Discarded(msg.Source, DiscardForgedSender)
		return nil
	}
	gw := c.gateway(fx)
	now := c.clock.Now()
	for _, e := range c.ledger.Live() {
		left := c.deadline - now.Sub(e.Record.StartedAt)
		if left < 0 {
			left = 0
		}
		if err := gw.scheduleDeadline(e.Player, e.Record.SessionID, left); err != nil {
			return err
		}
	}
	return nil
}

// Handle implements actor.Handler.
func (c *Coordinator) Handle(ctx *actor.Context) error { return c.HandleMessage(ctx, ctx.Message()) }

// HandleReply implements actor.Handler.
func (c *Coordinator) HandleReply(ctx *actor.Context) error { return c.HandleServiceReply(ctx, ctx.Message()) }

// HandleMessage runs the state machine for a player action or a deadline.
func (c *Coordinator) HandleMessage(fx Effects, msg actor.Message) error {
	if c == nil || c.ledger == nil {
		return ErrUninitialized
	}
	switch a := msg.Payload.(type) {
	case protocol.StartGame:
		return c.startGame(fx, msg)
	case protocol.CheckWord:
		return c.checkWord(fx, msg, a.Word)
	case protocol.CheckGameStatus:
		return c.checkGameStatus(fx, msg, a)
	case protocol.QueryState:
		return fx.Reply(c.ledger.Snapshot())
	case protocol.ResumeDeadlines:
		return c.resumeDeadlines(fx, msg)
	}
	return fmt.Errorf("%w: %T", ErrUnknownAction, msg.Payload)
}

func (c *Coordinator) gateway(fx Effects) gateway {
	return gateway{fx: fx, service: c.ledger.ServiceAddress()}
}

func (c *Coordinator) startGame(fx Effects, msg actor.Message) error {
	player := msg.Source
	rec := c.ledger.GetOrDefault(player)

	switch rec.Status.Kind() {
	case StatusReplyReceived:
		reply, _ := rec.Status.Reply()
		if err := fx.Reply(protocol.EventFromReply(reply)); err != nil {
			return err
		}
		next := rec
		next.Status = AwaitingUserInput()
		return c.commit(fx, player, rec, next)

	case StatusInit, StatusGameOver, StatusAwaitingStartReply:
		gw := c.gateway(fx)
		pending, err := gw.sendToService(protocol.StartRequest{Player: player})
		if err != nil {
			return err
		}
		if err := gw.scheduleDeadline(player, msg.ID, c.deadline); err != nil {
			return err
		}
		next := Record{
			SessionID: msg.ID,
			OriginID:  msg.ID,
			PendingID: pending,
			Tries:     0,
			Status:    AwaitingStartReply(),
			StartedAt: c.clock.Now().UTC(),
		}
		if err := c.commit(fx, player, rec, next); err != nil {
			return err
		}
		fx.Suspend()
		return nil

	case StatusAwaitingUserInput, StatusAwaitingCheckReply:
		return ErrAlreadyPlaying
	}
	return fmt.Errorf("start game: unexpected status %s", rec.Status)
}

func (c *Coordinator) checkWord(fx Effects, msg actor.Message, word string) error {
	if !ValidWord(word) {
		return fmt.Errorf("%w: %q", ErrInvalidWord, word)
	}
	player := msg.Source
	rec := c.ledger.GetOrDefault(player)

	switch rec.Status.Kind() {
	case StatusReplyReceived:
		reply, _ := rec.Status.Reply()
		checked, ok := reply.(protocol.WordChecked)
		if !ok {
			return ErrStartPending
		}
		next := rec
		next.Tries++
		var ev protocol.Event
		switch {
		case checked.HasGuessed():
			next.Status = GameOver(protocol.Win)
			ev = protocol.GameOver{Result: protocol.Win}
		case next.Tries >= TriesLimit:
			next.Status = GameOver(protocol.Lose)
			ev = protocol.GameOver{Result: protocol.Lose}
		default:
			next.Status = AwaitingUserInput()
			ev = protocol.EventFromReply(checked)
		}
		if err := fx.Reply(ev); err != nil {
			return err
		}
		return c.commit(fx, player, rec, next)

	case StatusAwaitingUserInput, StatusAwaitingCheckReply:
		pending, err := c.gateway(fx).sendToService(protocol.CheckRequest{Player: player, Word: word})
		if err != nil {
			return err
		}
		next := rec
		next.OriginID = msg.ID
		next.PendingID = pending
		next.Status = AwaitingCheckReply()
		if err := c.commit(fx, player, rec, next); err != nil {
			return err
		}
		fx.Suspend()
		return nil

	case StatusInit, StatusAwaitingStartReply, StatusGameOver:
		return ErrNotPlaying
	}
	return fmt.Errorf("check word: unexpected status %s", rec.Status)
}

func (c *Coordinator) checkGameStatus(fx Effects, msg actor.Message, a protocol.CheckGameStatus) error {
	if !fx.IsSelf(msg.Source) {
		log.Warn().Str("source", msg.Source.String()).Str("player", a.Player.String()).Msg("deadline from foreign sender ignored")
		c.observer.Discarded(a.Player, DiscardForgedSender)
		return nil
	}
	rec, ok := c.ledger.Get(a.Player)
	if !ok {
		return nil
	}
	if rec.SessionID != a.SessionID || rec.Status.Kind() == StatusGameOver {
		c.observer.Discarded(a.Player, DiscardDeadlineStale)
		return nil
	}
	if err := c.gateway(fx).notify(a.Player, protocol.GameOver{Result: protocol.Lose}); err != nil {
		return err
	}
	next := rec
	next.Status = GameOver(protocol.Lose)
	log.Info().Str("player", a.Player.String()).Str("was", rec.Status.String()).Msg("deadline reached, game lost")
	return c.commitForced(fx, a.Player, rec, next)
}

// HandleServiceReply accepts a reply from the word-checking service if it
// answers the request the player's session is waiting on.
func (c *Coordinator) HandleServiceReply(fx Effects, msg actor.Message) error {
	if c == nil || c.ledger == nil {
		return ErrUninitialized
	}
	reply, ok := msg.Payload.(protocol.ServiceReply)
	if !ok {
		log.Warn().Str("msg", msg.ID.String()).Msgf("unexpected reply payload %T", msg.Payload)
		c.observer.Discarded(msg.Source, DiscardUnknownReply)
		return nil
	}
	player := reply.User()
	rec, ok := c.ledger.Get(player)
	if !ok {
		c.observer.Discarded(player, DiscardNoSession)
		return nil
	}
	if msg.ReplyTo != rec.PendingID {
		log.Debug().Str("player", player.String()).Str("replyTo", msg.ReplyTo.String()).Msg("stale reply discarded")
		c.observer.Discarded(player, DiscardStale)
		return nil
	}
	if !rec.Status.AwaitingReply() {
		log.Debug().Str("player", player.String()).Str("status", rec.Status.String()).Msg("reply outside awaiting state discarded")
		c.observer.Discarded(player, DiscardNotAwaiting)
		return nil
	}
	next := rec
	next.Status = ReplyReceived(reply)
	if err := c.commit(fx, player, rec, next); err != nil {
		return err
	}
	return fx.Wake(rec.OriginID)
}

// commit writes next and reports the transition.
func (c *Coordinator) commit(fx Effects, player actor.Address, prev, next Record) error {
	return c.write(fx.Context(), player, prev, next, false)
}

// commitForced is commit for a game ended by its deadline.
func (c *Coordinator) commitForced(fx Effects, player actor.Address, prev, next Record) error {
	return c.write(fx.Context(), player, prev, next, true)
}

func (c *Coordinator) write(ctx context.Context, player actor.Address, prev, next Record, forced bool) error {
	if err := c.ledger.Put(ctx, player, next); err != nil {
		return err
	}
	from, to := prev.Status.Kind(), next.Status.Kind()
	c.observer.Transition(player, from, to)
	if from != StatusGameOver && to == StatusGameOver {
		result, _ := next.Status.Result()
		c.observer.Finished(Finished{
			Player:    player,
			Result:    result,
			Tries:     next.Tries,
			Forced:    forced,
			StartedAt: next.StartedAt,
			EndedAt:   c.clock.Now().UTC(),
		})
	}
	return nil
}

// ValidWord reports whether w is exactly five lowercase ASCII letters.
func ValidWord(w string) bool {
	if len(w) != protocol.WordLength {
		return false
	}
	for i := 0; i < len(w); i++ {
		if w[i] < 'a' || w[i] > 'z' {
			return false
		}
	}
	return true
}
