// Package config loads process configuration from the environment.
//
// A .env file in the working directory is read first (missing is fine), then
// the typed Config is parsed with caarlos0/env. Variables already set in the
// environment win over .env.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is everything the server reads from the environment.
type Config struct {
	Port     string `env:"PORT" envDefault:"5175"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`

	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/app.db"`

	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string `env:"COOKIE_NAME" envDefault:"wordle_token"`
	ClientOrigin   string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`

	SessionDeadline time.Duration `env:"SESSION_DEADLINE" envDefault:"10m"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	InboxLimit      int           `env:"INBOX_LIMIT" envDefault:"32"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`

	SecretMode  string `env:"SECRET_MODE" envDefault:"random"`
	FixedAnswer string `env:"FIXED_ANSWER"`
	DailySalt   string `env:"DAILY_SALT" envDefault:"local_dev_salt"`
	StrictWords bool   `env:"STRICT_WORDS" envDefault:"true"`

	WordsAnswersFile string `env:"WORDS_ANSWERS_FILE"`
	WordsAllowedFile string `env:"WORDS_ALLOWED_FILE"`

	CoordinatorAddress string `env:"COORDINATOR_ADDRESS" envDefault:"game-session"`
	WordleAddress      string `env:"WORDLE_ADDRESS" envDefault:"wordle"`
}

// Production reports whether cookies should be Secure.
func (c Config) Production() bool { return c.AppEnv == "production" }

// Load reads .env (if present) and parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the environment only.
func Parse() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.SessionDeadline <= 0 {
		errs = append(errs, errors.New("SESSION_DEADLINE must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.CoordinatorAddress == "" || c.WordleAddress == "" {
		errs = append(errs, errors.New("COORDINATOR_ADDRESS and WORDLE_ADDRESS must be set"))
	}
	if c.CoordinatorAddress == c.WordleAddress {
		errs = append(errs, errors.New("COORDINATOR_ADDRESS and WORDLE_ADDRESS must differ"))
	}
	if c.Production() && c.JWTSecret == "dev_secret_change_me" {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	return errors.Join(errs...)
}
