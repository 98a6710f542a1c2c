package httpserver_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robalobadob/wordle/apps/game-session/internal/actor"
	"github.com/robalobadob/wordle/apps/game-session/internal/config"
	"github.com/robalobadob/wordle/apps/game-session/internal/database/dbtest"
	"github.com/robalobadob/wordle/apps/game-session/internal/history"
	"github.com/robalobadob/wordle/apps/game-session/internal/httpserver"
	"github.com/robalobadob/wordle/apps/game-session/internal/metrics"
	"github.com/robalobadob/wordle/apps/game-session/internal/ratelimit"
	"github.com/robalobadob/wordle/apps/game-session/internal/session"
	"github.com/robalobadob/wordle/apps/game-session/internal/store"
	"github.com/robalobadob/wordle/apps/game-session/internal/wordle"
	"github.com/robalobadob/wordle/apps/game-session/internal/words"
)

const (
	coordAddr actor.Address = "game-session"
	wordAddr  actor.Address = "wordle"
)

type env struct {
	t     *testing.T
	srv   *httptest.Server
	clock *clock.Mock
}

type envOpts struct {
	limiter *ratelimit.MapLimiter
	daily   bool
}

func newEnv(t *testing.T, o envOpts) *env {
	t.Helper()
	mock := clock.NewMock()
	db := dbtest.Open(t)

	lists, err := words.New([]string{"horse"}, []string{"house", "hello", "shore"})
	if err != nil {
		t.Fatal(err)
	}
	mode := wordle.WithFixed("horse")
	if o.daily {
		mode = wordle.WithDaily("test_salt")
	}
	svc, err := wordle.New(lists, store.NewSQLiteGames(db), mode, wordle.WithClock(mock))
	if err != nil {
		t.Fatal(err)
	}

	reg := prometheus.NewRegistry()
	collector, err := metrics.New(reg)
	if err != nil {
		t.Fatal(err)
	}
	rec := history.NewRecorder(db, svc)
	coord, err := session.New(wordAddr,
		session.WithDeadline(30*time.Second),
		session.WithClock(mock),
		session.WithObserver(session.Observers{collector, rec}),
		session.WithPersister(store.NewSQLiteSessions(db)),
	)
	if err != nil {
		t.Fatal(err)
	}

	sys := actor.NewSystem(actor.WithClock(mock))
	t.Cleanup(sys.Stop)
	if err := sys.Spawn(wordAddr, svc); err != nil {
		t.Fatal(err)
	}
	if err := sys.Spawn(coordAddr, coord); err != nil {
		t.Fatal(err)
	}

	cfg := config.Config{
		AppEnv:         "test",
		JWTSecret:      "test_secret",
		JWTExpiresDays: 1,
		CookieName:     "wordle_token",
		ClientOrigin:   "http://localhost:5173",
		RequestTimeout: 2 * time.Second,
		StrictWords:    true,
	}
	s := httpserver.New(httpserver.Deps{
		Config:      cfg,
		System:      sys,
		Coordinator: coordAddr,
		DB:          db,
		Words:       lists,
		History:     rec,
		Limiter:     o.limiter,
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &env{t: t, srv: srv, clock: mock}
}

// client returns an HTTP client with its own cookie jar, i.e. a new visitor.
func (e *env) client() *http.Client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		e.t.Fatal(err)
	}
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func (e *env) do(c *http.Client, method, path string, body any) (int, map[string]any) {
	e.t.Helper()
	code, raw := e.doRaw(c, method, path, body)
	var out map[string]any
	if len(bytes.TrimSpace(raw)) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &out); err != nil {
			e.t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return code, out
}

func (e *env) doRaw(c *http.Client, method, path string, body any) (int, []byte) {
	e.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			e.t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	if err != nil {
		e.t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.Do(req)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		e.t.Fatal(err)
	}
	return res.StatusCode, raw
}

func guess(w string) map[string]string { return map[string]string{"word": w} }

func TestHealth(t *testing.T) {
	e := newEnv(t, envOpts{})
	code, body := e.do(e.client(), http.MethodGet, "/health", nil)
	if code != http.StatusOK || body["ok"] != true {
		t.Fatalf("health = %d %v", code, body)
	}
}

func TestAnonymousGameToWin(t *testing.T) {
	e := newEnv(t, envOpts{})
	c := e.client()

	code, body := e.do(c, http.MethodPost, "/game/start", nil)
	if code != http.StatusOK || body["type"] != "start_success" {
		t.Fatalf("start = %d %v", code, body)
	}

	code, body = e.do(c, http.MethodPost, "/game/check", guess("house"))
	if code != http.StatusOK || body["type"] != "check_result" {
		t.Fatalf("check house = %d %v", code, body)
	}
	correct, _ := body["correctPositions"].([]any)
	if len(correct) != 4 || correct[0] != float64(0) || correct[3] != float64(4) {
		t.Fatalf("correctPositions = %v", body["correctPositions"])
	}
	if _, ok := body["containedInWord"]; ok {
		t.Fatalf("containedInWord = %v, want omitted", body["containedInWord"])
	}

	code, body = e.do(c, http.MethodPost, "/game/check", guess(" horse "))
	if code != http.StatusOK || body["type"] != "game_over" || body["result"] != "win" {
		t.Fatalf("check horse = %d %v", code, body)
	}

	code, body = e.do(c, http.MethodPost, "/game/check", guess("house"))
	if code != http.StatusConflict || body["error"] != "not_playing" {
		t.Fatalf("after win = %d %v", code, body)
	}

	code, body = e.do(c, http.MethodGet, "/game/state", nil)
	if code != http.StatusOK {
		t.Fatalf("state = %d %v", code, body)
	}
	if body["status"] != "game_over" || body["result"] != "win" || body["tries"] != float64(2) {
		t.Fatalf("state = %v", body)
	}
}

func TestGuessValidation(t *testing.T) {
	e := newEnv(t, envOpts{})
	c := e.client()
	if code, _ := e.do(c, http.MethodPost, "/game/start", nil); code != http.StatusOK {
		t.Fatalf("start = %d", code)
	}

	tests := []struct {
		name string
		word string
		want string
	}{
		{"too short", "hors", "invalid_word"},
		{"digits", "h0rse", "invalid_word"},
		{"uppercase", "HOUSE", "invalid_word"},
		{"mixed case", "House", "invalid_word"},
		{"not in list", "zzzzz", "not_in_word_list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := e.do(c, http.MethodPost, "/game/check", guess(tt.word))
			if code != http.StatusBadRequest || body["error"] != tt.want {
				t.Fatalf("check %q = %d %v", tt.word, code, body)
			}
		})
	}

	// rejected guesses do not use up tries
	_, body := e.do(c, http.MethodGet, "/game/state", nil)
	if body["tries"] != float64(0) || body["status"] != "awaiting_user_input" {
		t.Fatalf("state = %v", body)
	}

	code, _ := e.doRaw(c, http.MethodPost, "/game/check", nil)
	if code != http.StatusBadRequest {
		t.Fatalf("empty body = %d", code)
	}
}

func TestConflicts(t *testing.T) {
	e := newEnv(t, envOpts{})
	c := e.client()

	code, body := e.do(c, http.MethodPost, "/game/check", guess("house"))
	if code != http.StatusConflict || body["error"] != "not_playing" {
		t.Fatalf("check before start = %d %v", code, body)
	}
	if code, _ := e.do(c, http.MethodPost, "/game/start", nil); code != http.StatusOK {
		t.Fatalf("start = %d", code)
	}
	code, body = e.do(c, http.MethodPost, "/game/start", nil)
	if code != http.StatusConflict || body["error"] != "already_playing" {
		t.Fatalf("second start = %d %v", code, body)
	}

	// a different visitor has their own session
	if code, _ := e.do(e.client(), http.MethodPost, "/game/start", nil); code != http.StatusOK {
		t.Fatalf("other visitor start = %d", code)
	}
}

func TestStateBeforeAnyGame(t *testing.T) {
	e := newEnv(t, envOpts{})
	code, body := e.do(e.client(), http.MethodGet, "/game/state", nil)
	if code != http.StatusOK || body["status"] != "init" || body["triesLeft"] != float64(session.TriesLimit) {
		t.Fatalf("state = %d %v", code, body)
	}
}

func TestDeadlineNotifiesThroughEvents(t *testing.T) {
	e := newEnv(t, envOpts{})
	c := e.client()
	if code, _ := e.do(c, http.MethodPost, "/game/start", nil); code != http.StatusOK {
		t.Fatalf("start = %d", code)
	}

	code, raw := e.doRaw(c, http.MethodGet, "/game/events", nil)
	if code != http.StatusOK || strings.TrimSpace(string(raw)) != "[]" {
		t.Fatalf("events before deadline = %d %s", code, raw)
	}

	e.clock.Add(30 * time.Second)

	var events []map[string]any
	deadline := time.Now().Add(2 * time.Second)
	for len(events) == 0 && time.Now().Before(deadline) {
		_, raw = e.doRaw(c, http.MethodGet, "/game/events", nil)
		var batch []map[string]any
		if err := json.Unmarshal(raw, &batch); err != nil {
			t.Fatalf("decode events %s: %v", raw, err)
		}
		events = append(events, batch...)
		if len(events) == 0 {
			time.Sleep(10 * time.Millisecond)
		}
	}
	if len(events) != 1 || events[0]["type"] != "game_over" || events[0]["result"] != "lose" {
		t.Fatalf("events = %v", events)
	}

	code, body := e.do(c, http.MethodPost, "/game/check", guess("horse"))
	if code != http.StatusConflict || body["error"] != "not_playing" {
		t.Fatalf("check after deadline = %d %v", code, body)
	}
}

func TestAuthFlowAndStats(t *testing.T) {
	e := newEnv(t, envOpts{})
	c := e.client()

	// play one game as a guest first; signup claims it
	e.do(c, http.MethodPost, "/game/start", nil)
	if code, body := e.do(c, http.MethodPost, "/game/check", guess("horse")); body["result"] != "win" {
		t.Fatalf("guest win = %d %v", code, body)
	}

	creds := map[string]string{"username": "alice_1", "password": "correct horse"}
	code, body := e.do(c, http.MethodPost, "/auth/signup", creds)
	if code != http.StatusOK || body["username"] != "alice_1" {
		t.Fatalf("signup = %d %v", code, body)
	}
	if code, body := e.do(e.client(), http.MethodPost, "/auth/signup", creds); code != http.StatusConflict {
		t.Fatalf("duplicate signup = %d %v", code, body)
	}

	code, body = e.do(c, http.MethodGet, "/auth/me", nil)
	if code != http.StatusOK || body["username"] != "alice_1" {
		t.Fatalf("me = %d %v", code, body)
	}

	// signed in, the player is the user address: a fresh session
	if code, body := e.do(c, http.MethodPost, "/game/start", nil); code != http.StatusOK {
		t.Fatalf("user start = %d %v", code, body)
	}
	e.do(c, http.MethodPost, "/game/check", guess("shore"))
	if _, body := e.do(c, http.MethodPost, "/game/check", guess("horse")); body["result"] != "win" {
		t.Fatalf("user win = %v", body)
	}

	code, body = e.do(c, http.MethodGet, "/stats/me", nil)
	if code != http.StatusOK || body["gamesPlayed"] != float64(1) || body["wins"] != float64(1) {
		t.Fatalf("stats = %d %v", code, body)
	}

	code, raw := e.doRaw(c, http.MethodGet, "/games/mine", nil)
	var games []history.Game
	if err := json.Unmarshal(raw, &games); code != http.StatusOK || err != nil {
		t.Fatalf("games/mine = %d %s %v", code, raw, err)
	}
	if len(games) != 2 {
		t.Fatalf("games = %+v, want claimed guest game plus user game", games)
	}

	if code, _ := e.do(c, http.MethodPost, "/auth/logout", nil); code != http.StatusOK {
		t.Fatalf("logout = %d", code)
	}
	if code, _ := e.do(c, http.MethodGet, "/auth/me", nil); code != http.StatusUnauthorized {
		t.Fatalf("me after logout = %d", code)
	}
}

func TestLoginFailures(t *testing.T) {
	e := newEnv(t, envOpts{})
	c := e.client()
	creds := map[string]string{"username": "bob", "password": "password123"}
	if code, body := e.do(c, http.MethodPost, "/auth/signup", creds); code != http.StatusOK {
		t.Fatalf("signup = %d %v", code, body)
	}

	bad := map[string]string{"username": "bob", "password": "wrong-password"}
	if code, _ := e.do(e.client(), http.MethodPost, "/auth/login", bad); code != http.StatusUnauthorized {
		t.Fatalf("bad password = %d", code)
	}
	if code, _ := e.do(e.client(), http.MethodPost, "/auth/login", creds); code != http.StatusOK {
		t.Fatalf("login = %d", code)
	}
	short := map[string]string{"username": "ab", "password": "password123"}
	if code, _ := e.do(e.client(), http.MethodPost, "/auth/signup", short); code != http.StatusBadRequest {
		t.Fatalf("short username = %d", code)
	}
	if code, _ := e.do(e.client(), http.MethodGet, "/stats/me", nil); code != http.StatusUnauthorized {
		t.Fatalf("stats without auth = %d", code)
	}
}

func TestRateLimit(t *testing.T) {
	e := newEnv(t, envOpts{limiter: ratelimit.New(0.001, 2, time.Minute)})
	c := e.client()
	for i := 0; i < 2; i++ {
		if code, _ := e.do(c, http.MethodGet, "/game/state", nil); code != http.StatusOK {
			t.Fatalf("request %d = %d", i, code)
		}
	}
	code, body := e.do(c, http.MethodGet, "/game/state", nil)
	if code != http.StatusTooManyRequests || body["error"] != "rate_limited" {
		t.Fatalf("third request = %d %v", code, body)
	}
	// limits are per player
	if code, _ := e.do(e.client(), http.MethodGet, "/game/state", nil); code != http.StatusOK {
		t.Fatalf("other visitor = %d", code)
	}
}

func TestMetricsExposeTransitions(t *testing.T) {
	e := newEnv(t, envOpts{})
	c := e.client()
	e.do(c, http.MethodPost, "/game/start", nil)
	e.do(c, http.MethodPost, "/game/check", guess("horse"))

	code, raw := e.doRaw(c, http.MethodGet, "/metrics", nil)
	if code != http.StatusOK {
		t.Fatalf("metrics = %d", code)
	}
	for _, want := range []string{
		`game_session_transitions_total{from="init",to="awaiting_start_reply"} 1`,
		`game_session_games_finished_total{forced="false",result="win"} 1`,
	} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("metrics missing %q:\n%s", want, raw)
		}
	}
}

func TestDailyLeaderboard(t *testing.T) {
	e := newEnv(t, envOpts{daily: true})
	c := e.client()
	creds := map[string]string{"username": "carol", "password": "password123"}
	if code, body := e.do(c, http.MethodPost, "/auth/signup", creds); code != http.StatusOK {
		t.Fatalf("signup = %d %v", code, body)
	}
	e.do(c, http.MethodPost, "/game/start", nil)
	e.do(c, http.MethodPost, "/game/check", guess("house"))
	if _, body := e.do(c, http.MethodPost, "/game/check", guess("horse")); body["result"] != "win" {
		t.Fatalf("win = %v", body)
	}

	// the mock clock starts at the Unix epoch
	for _, path := range []string{"/leaderboard?date=1970-01-01", "/daily/leaderboard?date=1970-01-01"} {
		code, body := e.do(c, http.MethodGet, path, nil)
		top, _ := body["top"].([]any)
		if code != http.StatusOK || len(top) != 1 {
			t.Fatalf("%s = %d %v", path, code, body)
		}
		row := top[0].(map[string]any)
		if row["guesses"] != float64(2) {
			t.Fatalf("row = %v", row)
		}
	}

	_, body := e.do(c, http.MethodGet, "/leaderboard?date=2000-01-01", nil)
	if top, ok := body["top"].([]any); !ok || len(top) != 0 {
		t.Fatalf("empty day = %v", body)
	}
}
