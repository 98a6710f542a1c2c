package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/game-session/internal/actor"
	"github.com/robalobadob/wordle/apps/game-session/internal/protocol"
	"github.com/robalobadob/wordle/apps/game-session/internal/session"
)

const maxBody = 4 << 10

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	return dec.Decode(v)
}

// call sends action from the requesting player to the coordinator and waits
// for the resulting event.
func (s *Server) call(r *http.Request, action any) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()
	return s.sys.Call(ctx, playerFrom(r), s.coord, action)
}

// writeCallError maps coordinator and runtime errors to HTTP responses.
func writeCallError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidWord):
		writeError(w, http.StatusBadRequest, "invalid_word")
	case errors.Is(err, session.ErrStartPending):
		writeError(w, http.StatusConflict, "start_pending")
	case errors.Is(err, session.ErrAlreadyPlaying):
		writeError(w, http.StatusConflict, "already_playing")
	case errors.Is(err, session.ErrNotPlaying):
		writeError(w, http.StatusConflict, "not_playing")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout")
	case errors.Is(err, actor.ErrStopped):
		writeError(w, http.StatusServiceUnavailable, "shutting_down")
	default:
		log.Error().Err(err).Str("player", playerFrom(r).String()).Msg("game request failed")
		writeError(w, http.StatusInternalServerError, "internal")
	}
}

func (s *Server) writeEvent(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		writeCallError(w, r, err)
		return
	}
	ev, ok := v.(protocol.Event)
	if !ok {
		writeCallError(w, r, fmt.Errorf("unexpected reply %T", v))
		return
	}
	writeJSON(w, http.StatusOK, protocol.ViewOf(ev))
}

// handleStart asks the coordinator to start (or resume) the player's game.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	v, err := s.call(r, protocol.StartGame{})
	s.writeEvent(w, r, v, err)
}

type checkReq struct {
	Word string `json:"word"`
}

// handleCheck submits a guess. Surrounding space is trimmed; case is not
// folded, so uppercase guesses are rejected by the coordinator.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	word := strings.TrimSpace(req.Word)
	if s.cfg.StrictWords && session.ValidWord(word) && !s.words.IsAllowed(word) {
		writeError(w, http.StatusBadRequest, "not_in_word_list")
		return
	}
	v, err := s.call(r, protocol.CheckWord{Word: word})
	s.writeEvent(w, r, v, err)
}

// handleEvents drains notifications pushed to the player, such as a loss
// forced by the deadline.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	out := []protocol.EventView{}
	for _, m := range s.sys.Drain(playerFrom(r)) {
		if ev, ok := m.Payload.(protocol.Event); ok {
			out = append(out, protocol.ViewOf(ev))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type stateView struct {
	Status    string `json:"status"`
	Result    string `json:"result,omitempty"`
	Tries     uint8  `json:"tries"`
	TriesLeft int    `json:"triesLeft"`
	StartedAt string `json:"startedAt,omitempty"`
}

// handleState reports the player's own session from a coordinator snapshot.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	v, err := s.call(r, protocol.QueryState{})
	if err != nil {
		writeCallError(w, r, err)
		return
	}
	st, ok := v.(session.State)
	if !ok {
		writeCallError(w, r, fmt.Errorf("unexpected reply %T", v))
		return
	}
	me := playerFrom(r)
	view := stateView{Status: session.StatusInit.String(), TriesLeft: session.TriesLimit}
	for _, e := range st.Sessions {
		if e.Player != me {
			continue
		}
		view.Status = e.Record.Status.Kind().String()
		if res, ok := e.Record.Status.Result(); ok {
			view.Result = res.String()
		}
		view.Tries = e.Record.Tries
		view.TriesLeft = session.TriesLimit - int(e.Record.Tries)
		if !e.Record.StartedAt.IsZero() {
			view.StartedAt = e.Record.StartedAt.UTC().Format(time.RFC3339)
		}
	}
	writeJSON(w, http.StatusOK, view)
}
