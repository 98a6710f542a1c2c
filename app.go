package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/game-session/assets"
	"github.com/robalobadob/wordle/apps/game-session/internal/actor"
	"github.com/robalobadob/wordle/apps/game-session/internal/config"
	"github.com/robalobadob/wordle/apps/game-session/internal/database"
	"github.com/robalobadob/wordle/apps/game-session/internal/history"
	"github.com/robalobadob/wordle/apps/game-session/internal/httpserver"
	"github.com/robalobadob/wordle/apps/game-session/internal/metrics"
	"github.com/robalobadob/wordle/apps/game-session/internal/protocol"
	"github.com/robalobadob/wordle/apps/game-session/internal/ratelimit"
	"github.com/robalobadob/wordle/apps/game-session/internal/session"
	"github.com/robalobadob/wordle/apps/game-session/internal/store"
	"github.com/robalobadob/wordle/apps/game-session/internal/wordle"
	"github.com/robalobadob/wordle/apps/game-session/internal/words"
)

// app is the wired process: database, actors and HTTP handler.
type app struct {
	db      *sql.DB
	sys     *actor.System
	handler http.Handler
	mode    string
}

func (a *app) close() {
	a.sys.Stop()
	if err := a.db.Close(); err != nil {
		log.Warn().Err(err).Msg("close database")
	}
}

func build(ctx context.Context, cfg config.Config) (*app, error) {
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	a := &app{db: db}
	ok := false
	defer func() {
		if !ok {
			_ = db.Close()
		}
	}()

	if err := database.Migrate(db, assets.Migrations()); err != nil {
		return nil, err
	}

	lists, err := words.Load(cfg.WordsAnswersFile, cfg.WordsAllowedFile)
	if err != nil {
		return nil, fmt.Errorf("load word lists: %w", err)
	}
	ans, allowed := lists.Stats()
	log.Info().Int("answers", ans).Int("allowed", allowed).Msg("word lists loaded")

	mode, err := wordle.ParseMode(cfg.SecretMode)
	if err != nil {
		return nil, err
	}
	var opts []wordle.Option
	switch mode {
	case wordle.ModeDaily:
		opts = append(opts, wordle.WithDaily(cfg.DailySalt))
	case wordle.ModeFixed:
		opts = append(opts, wordle.WithFixed(cfg.FixedAnswer))
	}
	svc, err := wordle.New(lists, store.NewSQLiteGames(db), opts...)
	if err != nil {
		return nil, err
	}
	a.mode = string(mode)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := metrics.New(reg)
	if err != nil {
		return nil, err
	}
	rec := history.NewRecorder(db, svc)

	sessions := store.NewSQLiteSessions(db)
	coord, err := session.New(actor.Address(cfg.WordleAddress),
		session.WithDeadline(cfg.SessionDeadline),
		session.WithObserver(session.Observers{collector, rec}),
		session.WithPersister(sessions),
	)
	if err != nil {
		return nil, err
	}
	entries, err := sessions.LoadSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore sessions: %w", err)
	}
	expired, err := coord.Restore(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("restore sessions: %w", err)
	}
	log.Info().Int("sessions", len(entries)).Int("expired", expired).Msg("session ledger restored")

	a.sys = actor.NewSystem(actor.WithInboxLimit(cfg.InboxLimit))
	if err := a.sys.Spawn(actor.Address(cfg.WordleAddress), svc); err != nil {
		a.sys.Stop()
		return nil, err
	}
	if err := a.sys.Spawn(actor.Address(cfg.CoordinatorAddress), coord); err != nil {
		a.sys.Stop()
		return nil, err
	}
	self := actor.Address(cfg.CoordinatorAddress)
	if _, err := a.sys.Tell(self, self, protocol.ResumeDeadlines{}); err != nil {
		a.sys.Stop()
		return nil, err
	}

	a.handler = httpserver.New(httpserver.Deps{
		Config:      cfg,
		System:      a.sys,
		Coordinator: actor.Address(cfg.CoordinatorAddress),
		DB:          db,
		Words:       lists,
		History:     rec,
		Limiter:     ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute),
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}).Handler()

	ok = true
	return a, nil
}
