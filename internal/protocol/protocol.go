// apps/game-session/internal/protocol/protocol.go
//
// Message types exchanged between players, the session coordinator and the
// word-checking service.
//
//   player      → coordinator : StartGame, CheckWord, QueryState
//   coordinator → coordinator : CheckGameStatus (delayed, self-addressed)
//   coordinator → service     : StartRequest, CheckRequest
//   service     → coordinator : GameStarted, WordChecked (as replies)
//   coordinator → player      : StartSuccess, CheckWordResult, GameOver

package protocol

import (
	"github.com/robalobadob/wordle/apps/game-session/internal/actor"
)

// WordLength is the number of letters in every secret and guess.
const WordLength = 5

// GameResult is the outcome of a finished game.
type GameResult uint8

const (
	Win GameResult = iota + 1
	Lose
)

func (r GameResult) String() string {
	switch r {
	case Win:
		return "win"
	case Lose:
		return "lose"
	}
	return "unknown"
}

// ParseGameResult is the inverse of GameResult.String.
func ParseGameResult(s string) (GameResult, bool) {
	switch s {
	case "win":
		return Win, true
	case "lose":
		return Lose, true
	}
	return 0, false
}

// ---------------------------------------------------------------------------
// Player → coordinator

// StartGame asks the coordinator to begin (or pick up) a game.
type StartGame struct{}

// CheckWord submits a guess.
type CheckWord struct {
	Word string `json:"word"`
}

// QueryState asks for a read-only snapshot of every session.
type QueryState struct{}

// CheckGameStatus is the deadline the coordinator schedules for itself when a
// game starts. It is only honoured when it comes from the coordinator.
type CheckGameStatus struct {
	Player    actor.Address
	SessionID actor.MessageID
}

// ResumeDeadlines re-arms the deadline of every live game after the ledger
// was restored. Like CheckGameStatus it is only honoured from the coordinator.
type ResumeDeadlines struct{}

// ---------------------------------------------------------------------------
// Coordinator → service

// StartRequest asks the service to pick a secret word for Player.
type StartRequest struct {
	Player actor.Address
}

// CheckRequest asks the service to compare Word with Player's secret.
type CheckRequest struct {
	Player actor.Address
	Word   string
}

// ---------------------------------------------------------------------------
// Service → coordinator

// ServiceReply is a reply from the word-checking service.
type ServiceReply interface {
	// User is the player the reply concerns.
	User() actor.Address
	isServiceReply()
}

// GameStarted confirms a secret has been chosen.
type GameStarted struct {
	Player actor.Address
}

func (r GameStarted) User() actor.Address { return r.Player }
func (GameStarted) isServiceReply()       {}

// WordChecked reports which guessed letters are in place and which occur
// elsewhere in the secret, both as 0-based positions in the guess.
type WordChecked struct {
	Player           actor.Address
	CorrectPositions []uint8
	ContainedInWord  []uint8
}

func (r WordChecked) User() actor.Address { return r.Player }
func (WordChecked) isServiceReply()       {}

// HasGuessed reports whether every position is correct.
func (r WordChecked) HasGuessed() bool {
	if len(r.CorrectPositions) != WordLength {
		return false
	}
	for i, p := range r.CorrectPositions {
		if int(p) != i {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Coordinator → player

// Event is something a player is told.
type Event interface {
	isEvent()
}

// StartSuccess tells the player the game is ready for guesses.
type StartSuccess struct{}

// CheckWordResult carries the service's verdict on a guess.
type CheckWordResult struct {
	CorrectPositions []uint8
	ContainedInWord  []uint8
}

// GameOver ends the game.
type GameOver struct {
	Result GameResult
}

func (StartSuccess) isEvent()    {}
func (CheckWordResult) isEvent() {}
func (GameOver) isEvent()        {}

// EventFromReply translates a service reply into the event the player sees.
func EventFromReply(r ServiceReply) Event {
	switch r := r.(type) {
	case GameStarted:
		return StartSuccess{}
	case WordChecked:
		return CheckWordResult{
			CorrectPositions: append([]uint8(nil), r.CorrectPositions...),
			ContainedInWord:  append([]uint8(nil), r.ContainedInWord...),
		}
	}
	return nil
}
