package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/game-session/internal/daily"
)

// lbRes is returned by the leaderboard endpoints.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// mountLeaderboard registers GET /leaderboard and its /daily alias.
func (s *Server) mountLeaderboard() {
	s.r.Get("/leaderboard", s.handleLeaderboard)
	s.r.Route("/daily", func(r chi.Router) {
		r.Get("/leaderboard", s.handleLeaderboard)
	})
}

// handleLeaderboard returns the day's best wins (default today, UTC).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(s.now())
	}
	limit := 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	rows, err := s.daily.Leaderboard(r.Context(), date, limit)
	if err != nil {
		log.Error().Err(err).Str("date", date).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
