// apps/game-session/internal/game/types.go
//
// Core type definitions for the word-checking engine.
// Defines:
//   - Mark: per-letter result of a guess (hit/present/miss).
//   - Game: the secret and guesses of one player's current game.

package game

import "time"

// Mark represents the evaluation result for a single letter in a guess.
// Possible values:
//   - "hit":     letter is correct and in the correct position.
//   - "present": letter exists in the answer but in a different position.
//   - "miss":    letter does not exist in the answer at all.
type Mark string

const (
	MarkHit     Mark = "hit"
	MarkPresent Mark = "present"
	MarkMiss    Mark = "miss"
)

// Game holds the secret of a single player's game.
type Game struct {
	Player    string    `json:"player"`    // player address
	Answer    string    `json:"answer"`    // the solution word (always lowercase)
	Guesses   []string  `json:"guesses"`   // guesses checked so far (lowercased)
	StartedAt time.Time `json:"startedAt"` // when the secret was picked
}
