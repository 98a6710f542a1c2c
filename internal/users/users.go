// Package users stores accounts and checks credentials.
package users

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrTaken          = errors.New("username taken")
	ErrNotFound       = errors.New("user not found")
	ErrBadCredentials = errors.New("invalid username or password")
)

// InvalidError is a signup rejected for its input. The message is safe to
// show to the client.
type InvalidError struct{ Reason string }

func (e *InvalidError) Error() string { return e.Reason }

// User is an account with its game counters.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	CreatedAt   time.Time `json:"createdAt"`
	GamesPlayed int       `json:"gamesPlayed"`
	Wins        int       `json:"wins"`
	Streak      int       `json:"streak"`
}

type Store struct {
	db   *sql.DB
	cost int
}

// NewStore uses bcrypt.DefaultCost; tests may lower it with WithCost.
func NewStore(db *sql.DB) *Store { return &Store{db: db, cost: bcrypt.DefaultCost} }

// WithCost returns a copy hashing with cost.
func (s *Store) WithCost(cost int) *Store {
	cp := *s
	cp.cost = cost
	return &cp
}

// Validate checks signup input.
func Validate(username, password string) error {
	if n := len(username); n < 3 || n > 24 {
		return &InvalidError{"username must be 3-24 chars"}
	}
	for _, r := range username {
		if r != '_' && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return &InvalidError{"username: letters, numbers, underscore only"}
		}
	}
	if n := len(password); n < 8 || n > 100 {
		return &InvalidError{"password must be 8-100 chars"}
	}
	return nil
}

// Create registers a new account. Usernames are unique regardless of case.
func (s *Store) Create(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if err := Validate(username, password); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{ID: newID(), Username: username, CreatedAt: time.Now().UTC().Truncate(time.Second)}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Username, string(hash), u.CreatedAt.Format(time.RFC3339))
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
		return nil, ErrTaken
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// Authenticate returns the account if password matches.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, hash, err := s.scan(s.db.QueryRowContext(ctx, selectUser+` WHERE username = ?`, strings.TrimSpace(username)))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// ByID loads an account.
func (s *Store) ByID(ctx context.Context, id string) (*User, error) {
	u, _, err := s.scan(s.db.QueryRowContext(ctx, selectUser+` WHERE id = ?`, id))
	return u, err
}

const selectUser = `SELECT id, username, password_hash, created_at, games_played, wins, streak FROM users`

func (s *Store) scan(row *sql.Row) (*User, string, error) {
	var (
		u       User
		hash    string
		created string
	)
	err := row.Scan(&u.ID, &u.Username, &hash, &created, &u.GamesPlayed, &u.Wins, &u.Streak)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, hash, nil
}

// newID is 16 random bytes, URL-safe base64 without padding.
func newID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
