package users

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/wordle/apps/game-session/internal/database/dbtest"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		ok       bool
	}{
		{"valid", "alice_01", "password1", true},
		{"short username", "al", "password1", false},
		{"long username", "abcdefghijklmnopqrstuvwxy", "password1", false},
		{"bad char", "ali ce", "password1", false},
		{"short password", "alice", "short", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.username, tt.password)
			if tt.ok && err != nil {
				t.Fatalf("Validate = %v, want nil", err)
			}
			var invalid *InvalidError
			if !tt.ok && !errors.As(err, &invalid) {
				t.Fatalf("Validate = %v, want InvalidError", err)
			}
		})
	}
}

func TestCreateAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.Open(t)).WithCost(bcrypt.MinCost)

	u, err := s.Create(ctx, " Alice ", "password1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Username != "Alice" || u.ID == "" {
		t.Fatalf("created %+v", u)
	}
	if _, err := s.Create(ctx, "alice", "password2"); !errors.Is(err, ErrTaken) {
		t.Fatalf("duplicate in other case = %v, want ErrTaken", err)
	}

	got, err := s.Authenticate(ctx, "ALICE", "password1")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("authenticated %q, want %q", got.ID, u.ID)
	}
	for _, c := range [][2]string{{"alice", "wrong-pass"}, {"nobody", "password1"}} {
		if _, err := s.Authenticate(ctx, c[0], c[1]); !errors.Is(err, ErrBadCredentials) {
			t.Fatalf("Authenticate(%q) = %v, want ErrBadCredentials", c[0], err)
		}
	}

	byID, err := s.ByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if byID.GamesPlayed != 0 || byID.Wins != 0 || byID.Streak != 0 || byID.CreatedAt.IsZero() {
		t.Fatalf("fresh account = %+v", byID)
	}
	if _, err := s.ByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ByID(missing) = %v, want ErrNotFound", err)
	}
}
