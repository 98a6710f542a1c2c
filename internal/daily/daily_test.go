package daily

import (
	"context"
	"testing"
	"time"

	"github.com/robalobadob/wordle/apps/game-session/internal/database/dbtest"
)

func TestWordIndexIsStablePerDay(t *testing.T) {
	morning := time.Date(2026, 5, 4, 1, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 5, 4, 23, 0, 0, 0, time.UTC)
	if a, b := WordIndex(morning, "salt", 79), WordIndex(evening, "salt", 79); a != b {
		t.Fatalf("same day gave %d and %d", a, b)
	}
	for i := 0; i < 30; i++ {
		d := morning.AddDate(0, 0, i)
		if n := WordIndex(d, "salt", 79); n < 0 || n >= 79 {
			t.Fatalf("index %d out of range", n)
		}
	}
	if WordIndex(morning, "salt", 0) != 0 {
		t.Fatal("empty list should give 0")
	}
	if DateKey(time.Date(2026, 5, 4, 23, 30, 0, 0, time.FixedZone("x", -3*3600))) != "2026-05-05" {
		t.Fatal("DateKey must use UTC")
	}
}

func TestLeaderboardOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.Open(t))
	results := []Result{
		{UserID: "slow", Date: "2026-05-04", Guesses: 3, ElapsedMs: 9000},
		{UserID: "fast", Date: "2026-05-04", Guesses: 3, ElapsedMs: 1000},
		{UserID: "lucky", Date: "2026-05-04", Guesses: 1, ElapsedMs: 20000},
		{UserID: "other-day", Date: "2026-05-03", Guesses: 1, ElapsedMs: 1},
		{UserID: "fast", Date: "2026-05-04", Guesses: 1, ElapsedMs: 1},
	}
	for _, r := range results {
		if err := s.InsertResult(ctx, r); err != nil {
			t.Fatalf("insert %+v: %v", r, err)
		}
	}

	rows, err := s.Leaderboard(ctx, "2026-05-04", 0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	var got []string
	for _, r := range rows {
		got = append(got, r.UserID)
	}
	if len(got) != 3 || got[0] != "lucky" || got[1] != "fast" || got[2] != "slow" {
		t.Fatalf("order = %v", got)
	}
	if rows[1].ElapsedMs != 1000 {
		t.Fatalf("duplicate result replaced the first: %+v", rows[1])
	}

	played, err := s.AlreadyPlayed(ctx, "fast", "2026-05-04")
	if err != nil || !played {
		t.Fatalf("played = %v, %v", played, err)
	}
	if played, _ := s.AlreadyPlayed(ctx, "fast", "2026-05-05"); played {
		t.Fatal("played on a day without results")
	}
}
