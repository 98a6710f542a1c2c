package game

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestScore(t *testing.T) {
	tests := []struct {
		answer, guess string
		want          []Mark
	}{
		{"horse", "horse", []Mark{MarkHit, MarkHit, MarkHit, MarkHit, MarkHit}},
		{"horse", "house", []Mark{MarkHit, MarkHit, MarkMiss, MarkHit, MarkHit}},
		{"crane", "nacre", []Mark{MarkPresent, MarkPresent, MarkPresent, MarkPresent, MarkHit}},
		// one spare l in the answer, so only one of the guess's ls is present
		{"lemon", "hello", []Mark{MarkMiss, MarkHit, MarkPresent, MarkMiss, MarkPresent}},
		{"abbey", "bobby", []Mark{MarkPresent, MarkMiss, MarkHit, MarkMiss, MarkHit}},
	}
	for _, tc := range tests {
		if got := Score(tc.answer, tc.guess); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Score(%q, %q) = %v, want %v", tc.answer, tc.guess, got, tc.want)
		}
	}
}

func TestCheckReportsPositions(t *testing.T) {
	g := New("anon:a", "HORSE", time.Unix(0, 0))
	if g.Answer != "horse" {
		t.Fatalf("answer = %q", g.Answer)
	}

	correct, contained, err := g.Check("house")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !reflect.DeepEqual(correct, []uint8{0, 1, 3, 4}) || len(contained) != 0 {
		t.Fatalf("house: %v %v", correct, contained)
	}

	correct, contained, err = g.Check("shore")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !reflect.DeepEqual(correct, []uint8{4}) || !reflect.DeepEqual(contained, []uint8{0, 1, 2, 3}) {
		t.Fatalf("shore: %v %v", correct, contained)
	}
	if !reflect.DeepEqual(g.Guesses, []string{"house", "shore"}) {
		t.Fatalf("guesses = %v", g.Guesses)
	}
}

func TestCheckRejectsMalformed(t *testing.T) {
	g := New("anon:a", "horse", time.Now())
	for _, w := range []string{"", "hors", "horses", "h0rse"} {
		if _, _, err := g.Check(w); !errors.Is(err, ErrInvalidGuess) {
			t.Errorf("Check(%q) err = %v", w, err)
		}
	}
	if len(g.Guesses) != 0 {
		t.Fatalf("malformed guesses recorded: %v", g.Guesses)
	}
}
