// apps/game-session/internal/actor/system.go
//
// In-process message-passing runtime.
// Responsibilities:
//   - Host named actors, each with its own FIFO mailbox and a single
//     dispatcher goroutine (one delivery at a time per actor).
//   - Commit or discard the effects a handler buffered on its Context.
//   - Park suspended messages and re-run them when woken.
//   - Deliver delayed messages on the injected clock.
//   - Route replies: to the calling actor's HandleReply, or back to an
//     external Call.
//   - Keep a bounded notification inbox for non-actor addresses (players).
//
// Notes:
//   - Actors share no memory with each other; all state a handler touches is
//     owned by its actor and only mutated on the dispatcher goroutine.

package actor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/eapache/queue"
	"github.com/rs/zerolog/log"
)

var (
	// ErrUnknownActor is returned by Call/Spawn lookups for unregistered addresses.
	ErrUnknownActor = errors.New("actor: unknown actor")
	// ErrDuplicateActor is returned when spawning on an address already in use.
	ErrDuplicateActor = errors.New("actor: address already in use")
	// ErrStopped is returned once the system has been stopped.
	ErrStopped = errors.New("actor: system stopped")
)

// Handler processes messages delivered to one actor.
type Handler interface {
	// Handle processes a regular message.
	Handle(ctx *Context) error
	// HandleReply processes a reply to a message this actor sent.
	HandleReply(ctx *Context) error
}

// Result is what an external caller receives for a message it sent.
type Result struct {
	Payload any
	Err     error
}

// envelope is a queued delivery. done is non-nil for external calls.
// abandoned is set, under the owning actor's mu, once the caller stops
// waiting.
type envelope struct {
	msg       Message
	done      chan Result
	abandoned bool
}

// System hosts actors.
type System struct {
	clock      clock.Clock
	inboxLimit int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	actors  map[Address]*actorRef
	inboxes map[Address]*Inbox
	timers  map[*clock.Timer]struct{}
	stopped bool
}

// Option configures a System.
type Option func(*System)

// WithClock replaces the wall clock used for delayed sends.
func WithClock(c clock.Clock) Option { return func(s *System) { s.clock = c } }

// WithInboxLimit bounds each notification inbox (oldest entries dropped).
func WithInboxLimit(n int) Option {
	return func(s *System) {
		if n > 0 {
			s.inboxLimit = n
		}
	}
}

// NewSystem constructs a running System.
func NewSystem(opts ...Option) *System {
	ctx, cancel := context.WithCancel(context.Background())
	s := &System{
		clock:      clock.New(),
		inboxLimit: 32,
		ctx:        ctx,
		cancel:     cancel,
		actors:     make(map[Address]*actorRef),
		inboxes:    make(map[Address]*Inbox),
		timers:     make(map[*clock.Timer]struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Clock returns the clock driving delayed delivery.
func (s *System) Clock() clock.Clock { return s.clock }

// Spawn registers h at addr and starts its dispatcher.
func (s *System) Spawn(addr Address, h Handler) error {
	if addr.IsZero() {
		return ErrInvalidAddress
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	if _, ok := s.actors[addr]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateActor, addr)
	}
	ref := &actorRef{
		sys:     s,
		addr:    addr,
		handler: h,
		mailbox: queue.New(),
		signal:  make(chan struct{}, 1),
		parked:  make(map[MessageID]*envelope),
	}
	s.actors[addr] = ref
	s.wg.Add(1)
	go ref.run()
	return nil
}

// Stop cancels all dispatchers and pending timers and waits for them to exit.
func (s *System) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}

// Call sends payload from an external address and waits for the reply.
// The returned payload is nil when the handler completed without replying.
// If ctx ends first the message is abandoned: it is skipped if not yet
// processed and never parked, so a later wake is a no-op.
func (s *System) Call(ctx context.Context, from, to Address, payload any) (any, error) {
	ref, err := s.lookup(to)
	if err != nil {
		return nil, err
	}
	env := &envelope{
		msg:  Message{ID: NewMessageID(), Source: from, Dest: to, Payload: payload},
		done: make(chan Result, 1),
	}
	ref.enqueue(env)
	select {
	case res := <-env.done:
		return res.Payload, res.Err
	case <-ctx.Done():
		ref.forget(env)
		return nil, ctx.Err()
	case <-s.ctx.Done():
		return nil, ErrStopped
	}
}

// Tell sends payload from an external address without waiting.
func (s *System) Tell(from, to Address, payload any) (MessageID, error) {
	if to.IsZero() {
		return "", ErrInvalidAddress
	}
	msg := Message{ID: NewMessageID(), Source: from, Dest: to, Payload: payload}
	if err := s.deliver(msg); err != nil {
		return "", err
	}
	return msg.ID, nil
}

// Drain empties and returns the notification inbox of addr.
func (s *System) Drain(addr Address) []Message {
	s.mu.RLock()
	in := s.inboxes[addr]
	s.mu.RUnlock()
	if in == nil {
		return nil
	}
	return in.Drain()
}

func (s *System) lookup(addr Address) (*actorRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return nil, ErrStopped
	}
	ref, ok := s.actors[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownActor, addr)
	}
	return ref, nil
}

// deliver routes msg to an actor mailbox or, for non-actor addresses, to
// that address's notification inbox.
func (s *System) deliver(msg Message) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	ref, ok := s.actors[msg.Dest]
	if ok {
		s.mu.Unlock()
		ref.enqueue(&envelope{msg: msg})
		return nil
	}
	in := s.inboxes[msg.Dest]
	if in == nil {
		in = newInbox(s.inboxLimit)
		s.inboxes[msg.Dest] = in
	}
	s.mu.Unlock()
	in.Push(msg)
	return nil
}

// schedule delivers msg after delay on the system clock.
func (s *System) schedule(msg Message, delay time.Duration) {
	if delay <= 0 {
		if err := s.deliver(msg); err != nil {
			log.Debug().Err(err).Str("msg", msg.ID.String()).Msg("drop message")
		}
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	var t *clock.Timer
	t = s.clock.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.timers != nil {
			delete(s.timers, t)
		}
		s.mu.Unlock()
		if err := s.deliver(msg); err != nil {
			log.Debug().Err(err).Str("msg", msg.ID.String()).Msg("drop delayed message")
		}
	})
	s.timers[t] = struct{}{}
}

// actorRef is the runtime side of one actor.
type actorRef struct {
	sys     *System
	addr    Address
	handler Handler

	mu      sync.Mutex
	mailbox *queue.Queue // of *envelope
	signal  chan struct{}
	parked  map[MessageID]*envelope
}

func (a *actorRef) enqueue(env *envelope) {
	a.mu.Lock()
	a.mailbox.Add(env)
	a.mu.Unlock()
	select {
	case a.signal <- struct{}{}:
	default:
	}
}

func (a *actorRef) next() *envelope {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mailbox.Length() == 0 {
		return nil
	}
	return a.mailbox.Remove().(*envelope)
}

func (a *actorRef) run() {
	defer a.sys.wg.Done()
	for {
		select {
		case <-a.sys.ctx.Done():
			return
		case <-a.signal:
		}
		for env := a.next(); env != nil; env = a.next() {
			if a.isAbandoned(env) {
				log.Debug().Str("actor", a.addr.String()).Str("msg", env.msg.ID.String()).Msg("caller gone; message skipped")
				continue
			}
			a.process(env)
			if a.sys.ctx.Err() != nil {
				return
			}
		}
	}
}

// park stores env until woken. An abandoned envelope is dropped instead.
func (a *actorRef) park(env *envelope) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if env.abandoned {
		return
	}
	a.parked[env.msg.ID] = env
}

// wake moves a parked envelope back into the mailbox. Unknown ids are ignored.
func (a *actorRef) wake(id MessageID) bool {
	a.mu.Lock()
	env, ok := a.parked[id]
	if ok {
		delete(a.parked, id)
	}
	a.mu.Unlock()
	if ok {
		a.enqueue(env)
	}
	return ok
}

// forget marks env abandoned and drops it if it is parked.
func (a *actorRef) forget(env *envelope) {
	a.mu.Lock()
	env.abandoned = true
	delete(a.parked, env.msg.ID)
	a.mu.Unlock()
}

func (a *actorRef) isAbandoned(env *envelope) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return env.abandoned
}

func (a *actorRef) process(env *envelope) {
	c := &Context{ctx: a.sys.ctx, self: a.addr, msg: env.msg}

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("actor %s: panic: %v", a.addr, r)
			}
		}()
		if env.msg.IsReply() {
			err = a.handler.HandleReply(c)
		} else {
			err = a.handler.Handle(c)
		}
	}()
	if err == nil && c.replied && c.suspended {
		err = ErrReplyAndSuspend
	}
	if err != nil {
		log.Debug().Err(err).
			Str("actor", a.addr.String()).
			Str("msg", env.msg.ID.String()).
			Str("source", env.msg.Source.String()).
			Msg("handler failed; effects discarded")
		if env.done != nil {
			env.done <- Result{Err: err}
		}
		return
	}

	// commit
	for _, o := range c.out {
		a.sys.schedule(o.msg, o.delay)
	}
	for _, id := range c.wakes {
		if !a.wake(id) {
			log.Debug().Str("actor", a.addr.String()).Str("msg", id.String()).Msg("wake: nothing parked")
		}
	}
	if c.suspended {
		a.park(env)
		return
	}
	switch {
	case env.done != nil:
		env.done <- Result{Payload: c.reply}
	case c.replied && !env.msg.IsReply():
		reply := Message{
			ID:      NewMessageID(),
			Source:  a.addr,
			Dest:    env.msg.Source,
			ReplyTo: env.msg.ID,
			Payload: c.reply,
		}
		if err := a.sys.deliver(reply); err != nil {
			log.Debug().Err(err).Str("msg", reply.ID.String()).Msg("drop reply")
		}
	}
}
