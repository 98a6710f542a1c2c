package actor

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidAddress is returned when sending to the zero address.
	ErrInvalidAddress = errors.New("actor: invalid destination address")
	// ErrAlreadyReplied is returned by a second Reply within one delivery.
	ErrAlreadyReplied = errors.New("actor: reply already set")
	// ErrReplyAndSuspend is returned when a handler both replies and suspends.
	ErrReplyAndSuspend = errors.New("actor: cannot reply and suspend in one delivery")
)

// outgoing is a send buffered until the handler commits.
type outgoing struct {
	msg   Message
	delay time.Duration
}

// Context is handed to a Handler for one delivery. Every effect requested
// through it is buffered and only takes place if the handler returns nil.
type Context struct {
	ctx  context.Context
	self Address
	msg  Message

	out       []outgoing
	wakes     []MessageID
	reply     any
	replied   bool
	suspended bool
}

// Context returns the runtime's base context. It is cancelled on Stop.
func (c *Context) Context() context.Context { return c.ctx }

// Self is the address of the actor handling the message.
func (c *Context) Self() Address { return c.self }

// Message is the message being handled.
func (c *Context) Message() Message { return c.msg }

// IsSelf reports whether addr is this actor's own address. Messages an actor
// sends to itself carry its address as Source, and no external caller can
// claim it.
func (c *Context) IsSelf(addr Address) bool { return addr == c.self }

// Send queues payload for dest and returns the id it will carry.
func (c *Context) Send(dest Address, payload any) (MessageID, error) {
	return c.SendDelayed(dest, payload, 0)
}

// SendDelayed queues payload for dest, delivered after delay on the
// runtime clock.
func (c *Context) SendDelayed(dest Address, payload any, delay time.Duration) (MessageID, error) {
	if dest.IsZero() {
		return "", ErrInvalidAddress
	}
	id := NewMessageID()
	c.out = append(c.out, outgoing{
		msg:   Message{ID: id, Source: c.self, Dest: dest, Payload: payload},
		delay: delay,
	})
	return id, nil
}

// Reply answers the message being handled.
func (c *Context) Reply(payload any) error {
	if c.replied {
		return ErrAlreadyReplied
	}
	if c.suspended {
		return ErrReplyAndSuspend
	}
	c.reply, c.replied = payload, true
	return nil
}

// Suspend parks the current message once the handler returns. It is run
// again from the start, with the same id, when someone wakes it.
func (c *Context) Suspend() { c.suspended = true }

// Wake resumes the message parked under id. Ids that are not parked are
// ignored.
func (c *Context) Wake(id MessageID) error {
	if id.IsZero() {
		return nil
	}
	c.wakes = append(c.wakes, id)
	return nil
}
