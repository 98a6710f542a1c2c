// apps/game-session/internal/actor/message.go
//
// Addressing and message envelope for the in-process actor runtime.
// Defines:
//   - Address:   opaque destination (an actor, or an external party such as a player).
//   - MessageID: unique id assigned to every message when it is sent.
//   - Message:   what a handler sees for each delivery.

package actor

import (
	"crypto/rand"
	"encoding/hex"
)

// Address identifies a message destination. The zero value is never valid.
type Address string

// IsZero reports whether a is the empty address.
func (a Address) IsZero() bool { return a == "" }

func (a Address) String() string { return string(a) }

// MessageID identifies one message. Replies reference the id they answer.
type MessageID string

// IsZero reports whether id is unset.
func (id MessageID) IsZero() bool { return id == "" }

func (id MessageID) String() string { return string(id) }

// NewMessageID returns a fresh 32-hex-char identifier.
func NewMessageID() MessageID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return MessageID(hex.EncodeToString(b[:]))
}

// Message is a single delivery.
type Message struct {
	ID      MessageID // assigned by the runtime on send
	Source  Address   // sender
	Dest    Address   // receiver
	ReplyTo MessageID // set only on replies: the id of the message being answered
	Payload any
}

// IsReply reports whether m answers an earlier message.
func (m Message) IsReply() bool { return !m.ReplyTo.IsZero() }
