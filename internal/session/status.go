// apps/game-session/internal/session/status.go
//
// Session status: a tagged variant. Only ReplyReceived carries a service
// reply and only GameOver carries a result; the fields are unexported so no
// other combination can be built.

package session

import (
	"encoding/json"
	"fmt"

	"github.com/robalobadob/wordle/apps/game-session/internal/protocol"
)

// StatusKind discriminates Status.
type StatusKind uint8

const (
	StatusInit StatusKind = iota
	StatusAwaitingStartReply
	StatusAwaitingCheckReply
	StatusReplyReceived
	StatusAwaitingUserInput
	StatusGameOver
)

var kindNames = map[StatusKind]string{
	StatusInit:               "init",
	StatusAwaitingStartReply: "awaiting_start_reply",
	StatusAwaitingCheckReply: "awaiting_check_reply",
	StatusReplyReceived:      "reply_received",
	StatusAwaitingUserInput:  "awaiting_user_input",
	StatusGameOver:           "game_over",
}

func (k StatusKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("status(%d)", uint8(k))
}

func parseKind(s string) (StatusKind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Status is the state of one player's session. The zero value is Init.
type Status struct {
	kind   StatusKind
	reply  protocol.ServiceReply
	result protocol.GameResult
}

func Init() Status               { return Status{kind: StatusInit} }
func AwaitingStartReply() Status { return Status{kind: StatusAwaitingStartReply} }
func AwaitingCheckReply() Status { return Status{kind: StatusAwaitingCheckReply} }
func AwaitingUserInput() Status  { return Status{kind: StatusAwaitingUserInput} }

// ReplyReceived holds a service reply until the parked request picks it up.
func ReplyReceived(r protocol.ServiceReply) Status {
	return Status{kind: StatusReplyReceived, reply: r}
}

// GameOver is terminal until the next start.
func GameOver(r protocol.GameResult) Status {
	return Status{kind: StatusGameOver, result: r}
}

// Kind returns the discriminant.
func (s Status) Kind() StatusKind { return s.kind }

// Reply returns the buffered reply of a ReplyReceived status.
func (s Status) Reply() (protocol.ServiceReply, bool) {
	return s.reply, s.kind == StatusReplyReceived
}

// Result returns the result of a GameOver status.
func (s Status) Result() (protocol.GameResult, bool) {
	return s.result, s.kind == StatusGameOver
}

// AwaitingReply reports whether a service reply is expected.
func (s Status) AwaitingReply() bool {
	return s.kind == StatusAwaitingStartReply || s.kind == StatusAwaitingCheckReply
}

func (s Status) String() string {
	switch s.kind {
	case StatusGameOver:
		return fmt.Sprintf("%s(%s)", s.kind, s.result)
	case StatusReplyReceived:
		return fmt.Sprintf("%s(%T)", s.kind, s.reply)
	}
	return s.kind.String()
}

type statusJSON struct {
	Kind   string          `json:"kind"`
	Result string          `json:"result,omitempty"`
	Reply  json.RawMessage `json:"reply,omitempty"`
}

// MarshalJSON encodes the variant with its payload.
func (s Status) MarshalJSON() ([]byte, error) {
	v := statusJSON{Kind: s.kind.String()}
	switch s.kind {
	case StatusGameOver:
		v.Result = s.result.String()
	case StatusReplyReceived:
		raw, err := protocol.MarshalReply(s.reply)
		if err != nil {
			return nil, err
		}
		v.Reply = raw
	}
	return json.Marshal(v)
}

// UnmarshalJSON rejects payloads that do not fit the kind.
func (s *Status) UnmarshalJSON(b []byte) error {
	var v statusJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	kind, ok := parseKind(v.Kind)
	if !ok {
		return fmt.Errorf("session: unknown status %q", v.Kind)
	}
	switch kind {
	case StatusGameOver:
		r, ok := protocol.ParseGameResult(v.Result)
		if !ok {
			return fmt.Errorf("session: game over without result")
		}
		*s = GameOver(r)
	case StatusReplyReceived:
		if len(v.Reply) == 0 {
			return fmt.Errorf("session: reply received without reply")
		}
		r, err := protocol.UnmarshalReply(v.Reply)
		if err != nil {
			return err
		}
		*s = ReplyReceived(r)
	default:
		*s = Status{kind: kind}
	}
	return nil
}
