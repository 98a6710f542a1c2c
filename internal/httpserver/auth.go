package httpserver

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/game-session/internal/actor"
	"github.com/robalobadob/wordle/apps/game-session/internal/protocol"
	"github.com/robalobadob/wordle/apps/game-session/internal/users"
)

const (
	anonCookieName = "wordle_anon"
	anonCookieTTL  = 180 * 24 * time.Hour
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// authUser is the signed-in account carried in the request context.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// tokenClaims is the session token payload.
type tokenClaims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type (
	ctxUserKey   struct{}
	ctxPlayerKey struct{}
)

var errNoToken = errors.New("no token")

func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		s.setCookie(w, s.cfg.CookieName, "", time.Time{})
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	s.r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, currentUser(r))
		})
		r.Get("/stats/me", s.handleStats)
		r.Get("/games/mine", s.handleMyGames)
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.users.Create(r.Context(), in.Username, in.Password)
	var invalid *users.InvalidError
	switch {
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, invalid.Reason)
		return
	case errors.Is(err, users.ErrTaken):
		writeError(w, http.StatusConflict, "Username taken")
		return
	case err != nil:
		log.Error().Err(err).Msg("signup")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if s.signIn(w, r, u) {
		writeJSON(w, http.StatusOK, u)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.users.Authenticate(r.Context(), in.Username, in.Password)
	if errors.Is(err, users.ErrBadCredentials) {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("login")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if s.signIn(w, r, u) {
		writeJSON(w, http.StatusOK, authUser{ID: u.ID, Username: u.Username})
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.ByID(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":          u.ID,
		"gamesPlayed": u.GamesPlayed,
		"wins":        u.Wins,
		"streak":      u.Streak,
	})
}

func (s *Server) handleMyGames(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	games, err := s.history.Mine(r.Context(), currentUser(r).ID, 50)
	if err != nil {
		log.Error().Err(err).Msg("list games")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// signIn sets the session cookie and moves the guest's finished games onto
// the account. On failure it writes the response itself and returns false.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, u *users.User) bool {
	now := time.Now()
	exp := now.Add(s.tokenTTL())
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		UserID:   u.ID,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return false
	}
	s.setCookie(w, s.cfg.CookieName, tok, exp)

	if s.history == nil {
		return true
	}
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		if err := s.history.ClaimAnon(r.Context(), protocol.AnonAddress(c.Value), u.ID); err != nil {
			log.Warn().Err(err).Msg("claim anon games")
		}
	}
	return true
}

func (s *Server) tokenTTL() time.Duration {
	days := s.cfg.JWTExpiresDays
	if days <= 0 {
		days = 14
	}
	return time.Duration(days) * 24 * time.Hour
}

// setCookie writes an HttpOnly cookie. A zero exp deletes it.
func (s *Server) setCookie(w http.ResponseWriter, name, value string, exp time.Time) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Production(),
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	}
	if s.cfg.Production() {
		// cross-site frontends need None, which browsers only accept with Secure
		c.SameSite = http.SameSiteNoneMode
	}
	if exp.IsZero() {
		c.MaxAge = -1
	}
	http.SetCookie(w, c)
}

// withOptionalAuth attaches the account when the request carries a valid
// token. Guests pass through.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u, err := s.authenticate(r); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := s.authenticate(r)
		if errors.Is(err, errNoToken) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u)))
	})
}

// authenticate reads the bearer header, falling back to the auth cookie, and
// checks that the account still exists.
func (s *Server) authenticate(r *http.Request) (*authUser, error) {
	raw := ""
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		raw = strings.TrimSpace(h[7:])
	} else if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		raw = c.Value
	}
	if raw == "" {
		return nil, errNoToken
	}
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	u, err := s.users.ByID(r.Context(), claims.UserID)
	if err != nil {
		return nil, err
	}
	return &authUser{ID: u.ID, Username: u.Username}, nil
}

func currentUser(r *http.Request) *authUser {
	u, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	return u
}

// withPlayer resolves the player address: the signed-in user, else a guest
// id kept in a long-lived cookie.
func (s *Server) withPlayer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p actor.Address
		if u := currentUser(r); u != nil {
			p = protocol.UserAddress(u.ID)
		} else if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
			p = protocol.AnonAddress(c.Value)
		} else {
			id := guestID()
			s.setCookie(w, anonCookieName, id, time.Now().Add(anonCookieTTL))
			p = protocol.AnonAddress(id)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxPlayerKey{}, p)))
	})
}

func playerFrom(r *http.Request) actor.Address {
	p, _ := r.Context().Value(ctxPlayerKey{}).(actor.Address)
	return p
}

func guestID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
