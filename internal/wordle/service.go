// apps/game-session/internal/wordle/service.go
//
// Word-checking service actor.
// Responsibilities:
//   - StartRequest: pick a secret (random, word of the day, or fixed), store a
//     fresh game for the player and reply GameStarted.
//   - CheckRequest: score the word against the player's secret and reply
//     WordChecked with the hit and present positions.
//
// The service knows nothing about tries, deadlines or outcomes; the session
// coordinator owns those. A request it cannot serve fails the handler, so no
// reply is sent.

package wordle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/game-session/internal/actor"
	"github.com/robalobadob/wordle/apps/game-session/internal/daily"
	"github.com/robalobadob/wordle/apps/game-session/internal/game"
	"github.com/robalobadob/wordle/apps/game-session/internal/protocol"
	"github.com/robalobadob/wordle/apps/game-session/internal/store"
	"github.com/robalobadob/wordle/apps/game-session/internal/words"
)

// Mode selects how secrets are picked.
type Mode string

const (
	ModeRandom Mode = "random"
	ModeDaily  Mode = "daily"
	ModeFixed  Mode = "fixed"
)

// ParseMode accepts random, daily or fixed (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeRandom, ModeDaily, ModeFixed:
		return m, nil
	case "":
		return ModeRandom, nil
	}
	return "", fmt.Errorf("wordle: unknown secret mode %q", s)
}

var (
	// ErrNoGame is returned for a check from a player that never started.
	ErrNoGame = errors.New("wordle: no game for player")
	// ErrBadFixedAnswer rejects a fixed secret that is not a valid word.
	ErrBadFixedAnswer = errors.New("wordle: fixed answer must be five letters a-z")
)

// Service implements actor.Handler.
type Service struct {
	words *words.Lists
	games store.GameStore
	clock clock.Clock
	mode  Mode
	salt  string
	fixed string
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for game start times and the daily word.
func WithClock(c clock.Clock) Option { return func(s *Service) { s.clock = c } }

// WithDaily picks the word of the day, keyed by salt.
func WithDaily(salt string) Option {
	return func(s *Service) { s.mode, s.salt = ModeDaily, salt }
}

// WithFixed always uses answer as the secret.
func WithFixed(answer string) Option {
	return func(s *Service) { s.mode, s.fixed = ModeFixed, strings.ToLower(strings.TrimSpace(answer)) }
}

// New builds a service over the given lists and game store.
func New(lists *words.Lists, games store.GameStore, opts ...Option) (*Service, error) {
	s := &Service{words: lists, games: games, clock: clock.New(), mode: ModeRandom}
	for _, o := range opts {
		o(s)
	}
	if s.mode == ModeFixed && (len(s.fixed) != game.Length || strings.Trim(s.fixed, "abcdefghijklmnopqrstuvwxyz") != "") {
		return nil, ErrBadFixedAnswer
	}
	return s, nil
}

// Mode reports how secrets are picked.
func (s *Service) Mode() Mode { return s.mode }

// DailyIndex returns the word-of-the-day index for t. ok is false unless the
// service runs in daily mode.
func (s *Service) DailyIndex(t time.Time) (idx int, ok bool) {
	if s.mode != ModeDaily {
		return 0, false
	}
	return daily.WordIndex(t, s.salt, s.words.Len()), true
}

func (s *Service) secret(now time.Time) string {
	switch s.mode {
	case ModeFixed:
		return s.fixed
	case ModeDaily:
		idx, _ := s.DailyIndex(now)
		return s.words.At(idx)
	}
	return s.words.Random()
}

// Handle implements actor.Handler.
func (s *Service) Handle(ctx *actor.Context) error {
	switch req := ctx.Message().Payload.(type) {
	case protocol.StartRequest:
		now := s.clock.Now()
		g := game.New(req.Player.String(), s.secret(now), now)
		if err := s.games.Save(ctx.Context(), g); err != nil {
			return fmt.Errorf("save game for %s: %w", req.Player, err)
		}
		log.Debug().Str("player", req.Player.String()).Str("mode", string(s.mode)).Msg("game started")
		return ctx.Reply(protocol.GameStarted{Player: req.Player})

	case protocol.CheckRequest:
		g, err := s.games.Get(ctx.Context(), req.Player.String())
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNoGame, req.Player)
		}
		if err != nil {
			return err
		}
		correct, contained, err := g.Check(req.Word)
		if err != nil {
			return fmt.Errorf("check %q: %w", req.Word, err)
		}
		if err := s.games.Save(ctx.Context(), g); err != nil {
			return fmt.Errorf("save game for %s: %w", req.Player, err)
		}
		return ctx.Reply(protocol.WordChecked{
			Player:           req.Player,
			CorrectPositions: correct,
			ContainedInWord:  contained,
		})
	}
	return fmt.Errorf("wordle: unexpected request %T", ctx.Message().Payload)
}

// HandleReply implements actor.Handler. The service sends no requests.
func (s *Service) HandleReply(*actor.Context) error { return nil }
