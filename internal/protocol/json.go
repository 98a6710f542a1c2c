package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/robalobadob/wordle/apps/game-session/internal/actor"
)

// EventView is the JSON shape of an Event.
type EventView struct {
	Type             string `json:"type"` // start_success | check_result | game_over
	CorrectPositions []int  `json:"correctPositions,omitempty"`
	ContainedInWord  []int  `json:"containedInWord,omitempty"`
	Result           string `json:"result,omitempty"` // win | lose
}

// ViewOf converts ev for JSON output.
func ViewOf(ev Event) EventView {
	switch ev := ev.(type) {
	case StartSuccess:
		return EventView{Type: "start_success"}
	case CheckWordResult:
		return EventView{
			Type:             "check_result",
			CorrectPositions: toInts(ev.CorrectPositions),
			ContainedInWord:  toInts(ev.ContainedInWord),
		}
	case GameOver:
		return EventView{Type: "game_over", Result: ev.Result.String()}
	}
	return EventView{Type: "unknown"}
}

// replyView is the JSON shape of a ServiceReply.
type replyView struct {
	Type             string        `json:"type"` // game_started | word_checked
	Player           actor.Address `json:"player"`
	CorrectPositions []int         `json:"correctPositions,omitempty"`
	ContainedInWord  []int         `json:"containedInWord,omitempty"`
}

// MarshalReply encodes a ServiceReply with a type tag.
func MarshalReply(r ServiceReply) ([]byte, error) {
	switch r := r.(type) {
	case GameStarted:
		return json.Marshal(replyView{Type: "game_started", Player: r.Player})
	case WordChecked:
		return json.Marshal(replyView{
			Type:             "word_checked",
			Player:           r.Player,
			CorrectPositions: toInts(r.CorrectPositions),
			ContainedInWord:  toInts(r.ContainedInWord),
		})
	}
	return nil, fmt.Errorf("protocol: unknown reply %T", r)
}

// UnmarshalReply decodes what MarshalReply produced.
func UnmarshalReply(b []byte) (ServiceReply, error) {
	var v replyView
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("protocol: decode reply: %w", err)
	}
	switch v.Type {
	case "game_started":
		return GameStarted{Player: v.Player}, nil
	case "word_checked":
		return WordChecked{
			Player:           v.Player,
			CorrectPositions: toBytes(v.CorrectPositions),
			ContainedInWord:  toBytes(v.ContainedInWord),
		}, nil
	}
	return nil, fmt.Errorf("protocol: unknown reply type %q", v.Type)
}

// uint8 slices would be base64 encoded by encoding/json.
func toInts(b []uint8) []int {
	if b == nil {
		return nil
	}
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

func toBytes(v []int) []uint8 {
	if v == nil {
		return nil
	}
	out := make([]uint8, len(v))
	for i, n := range v {
		out[i] = uint8(n)
	}
	return out
}

// ---------------------------------------------------------------------------
// Player addresses

const (
	userPrefix = "user:"
	anonPrefix = "anon:"
)

// UserAddress is the player address of a registered user.
func UserAddress(userID string) actor.Address { return actor.Address(userPrefix + userID) }

// AnonAddress is the player address of a guest identified by cookie.
func AnonAddress(anonID string) actor.Address { return actor.Address(anonPrefix + anonID) }

// UserID returns the user id behind a registered player's address.
func UserID(a actor.Address) (string, bool) {
	s := string(a)
	if !strings.HasPrefix(s, userPrefix) {
		return "", false
	}
	return strings.TrimPrefix(s, userPrefix), true
}
