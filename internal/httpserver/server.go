// apps/game-session/internal/httpserver/server.go
//
// HTTP server wiring for the game-session coordinator.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     access log).
//   - Public endpoints: "/", "/health", "/metrics", "/leaderboard".
//   - Game endpoints (optional auth, per-player rate limit): /game/*.
//   - Auth + profile/stat endpoints (require auth): /auth/*, /stats/me, /games/mine.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Every game request is a message from the player's address to the
//     coordinator actor; the HTTP handler waits for the reply.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/game-session/internal/actor"
	"github.com/robalobadob/wordle/apps/game-session/internal/config"
	"github.com/robalobadob/wordle/apps/game-session/internal/daily"
	"github.com/robalobadob/wordle/apps/game-session/internal/history"
	"github.com/robalobadob/wordle/apps/game-session/internal/ratelimit"
	"github.com/robalobadob/wordle/apps/game-session/internal/users"
	"github.com/robalobadob/wordle/apps/game-session/internal/words"
)

// Deps are the collaborators the server needs. History, Limiter and Metrics
// may be nil.
type Deps struct {
	Config      config.Config
	System      *actor.System
	Coordinator actor.Address
	DB          *sql.DB
	Words       *words.Lists
	History     *history.Recorder
	Limiter     *ratelimit.MapLimiter
	Metrics     http.Handler
}

// Server bundles the router and its collaborators.
type Server struct {
	r       *chi.Mux
	cfg     config.Config
	sys     *actor.System
	coord   actor.Address
	users   *users.Store
	words   *words.Lists
	history *history.Recorder
	daily   *daily.Store
	limiter *ratelimit.MapLimiter
	now     func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	s := &Server{
		r:       chi.NewRouter(),
		cfg:     d.Config,
		sys:     d.System,
		coord:   d.Coordinator,
		users:   users.NewStore(d.DB),
		words:   d.Words,
		history: d.History,
		daily:   daily.NewStore(d.DB),
		limiter: d.Limiter,
		now:     time.Now,
	}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(accessLog)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(s.cfg.RequestTimeout + 2*time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(s.cors)

	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service": "game-session",
			"endpoints": []string{
				"/health", "POST /game/start", "POST /game/check", "GET /game/events",
				"GET /game/state", "GET /leaderboard", "/auth/*",
			},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	if d.Metrics != nil {
		s.r.Handle("/metrics", d.Metrics)
	}

	s.r.Route("/game", func(r chi.Router) {
		r.Use(s.withOptionalAuth(), s.withPlayer, s.rateLimit)
		r.Post("/start", s.handleStart)
		r.Post("/check", s.handleCheck)
		r.Get("/events", s.handleEvents)
		r.Get("/state", s.handleState)
	})

	s.mountLeaderboard()
	s.mountAuthRoutes()

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	s.r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
		a, g := s.words.Stats()
		writeJSON(w, http.StatusOK, map[string]int{"answers": a, "allowed": g})
	})

	return s
}

// Handler exposes the router (useful for tests and http.Server).
func (s *Server) Handler() http.Handler { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accessLog writes one zerolog event per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			ev := log.Info()
			if ww.Status() >= http.StatusInternalServerError {
				ev = log.Warn()
			}
			ev.Str("req_id", chimw.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		}()
		next.ServeHTTP(ww, r)
	})
}

// rateLimit throttles /game requests per player.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(playerFrom(r).String(), s.now()) {
			writeError(w, http.StatusTooManyRequests, "rate_limited")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
