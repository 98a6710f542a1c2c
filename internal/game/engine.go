// apps/game-session/internal/game/engine.go
//
// Scoring engine for the word-checking service.
// Responsibilities:
//   - Create games around a chosen secret.
//   - Score guesses using the classic two-pass Wordle algorithm.
//   - Report hits and presents as position lists.
//
// The engine keeps no win/lose state: tries and outcomes are owned by the
// session coordinator.
package game

import (
	"errors"
	"strings"
	"time"
)

// Length is the number of letters in every word.
const Length = 5

// ErrInvalidGuess rejects guesses that are not Length letters a–z.
var ErrInvalidGuess = errors.New("invalid guess")

// New constructs a game for player with the given secret.
func New(player, answer string, now time.Time) *Game {
	return &Game{
		Player:    player,
		Answer:    strings.ToLower(answer),
		Guesses:   []string{},
		StartedAt: now.UTC(),
	}
}

// Check scores guess against the answer and records it.
// correct holds the positions marked hit, contained those marked present.
func (g *Game) Check(guess string) (correct, contained []uint8, err error) {
	guess = strings.ToLower(strings.TrimSpace(guess))
	if len(guess) != Length || !isAlpha(guess) {
		return nil, nil, ErrInvalidGuess
	}
	marks := Score(g.Answer, guess)
	g.Guesses = append(g.Guesses, guess)

	correct, contained = []uint8{}, []uint8{}
	for i, m := range marks {
		switch m {
		case MarkHit:
			correct = append(correct, uint8(i))
		case MarkPresent:
			contained = append(contained, uint8(i))
		}
	}
	return correct, contained, nil
}

// Score implements the standard Wordle two-pass scoring algorithm.
//
// Pass 1:
//   - Mark exact matches as Hit.
//   - Count remaining (non-hit) answer letters by letter index.
//
// Pass 2:
//   - For each non-hit guess letter: if there is remaining count for that letter,
//     mark Present and decrement the count; otherwise mark Miss.
//
// This keeps repeated letters in both answer and guess honest.
func Score(answer, guess string) []Mark {
	n := len(guess)
	res := make([]Mark, n)
	if len(answer) != n {
		for i := range res {
			res[i] = MarkMiss
		}
		return res
	}

	var counts [26]int

	for i := 0; i < n; i++ {
		if guess[i] == answer[i] {
			res[i] = MarkHit
		} else if j := idx(answer[i]); j >= 0 && j < 26 {
			counts[j]++
		}
	}

	for i := 0; i < n; i++ {
		if res[i] == MarkHit {
			continue
		}
		j := idx(guess[i])
		if j >= 0 && j < 26 && counts[j] > 0 {
			res[i] = MarkPresent
			counts[j]--
		} else {
			res[i] = MarkMiss
		}
	}
	return res
}

// idx maps a lowercase ASCII letter to 0..25.
func idx(b byte) int { return int(b) - 'a' }

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
