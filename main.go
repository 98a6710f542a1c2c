package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/wordle/apps/game-session/assets"
	"github.com/robalobadob/wordle/apps/game-session/internal/config"
	"github.com/robalobadob/wordle/apps/game-session/internal/database"
	"github.com/robalobadob/wordle/apps/game-session/internal/store"
)

var rootCmd = &cobra.Command{
	Use:           "game-session",
	Short:         "Wordle game-session coordinator",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply SQL migrations and exit",
	RunE:  runMigrate,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print the persisted session ledger as JSON",
	RunE:  runSnapshot,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, snapshotCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("game-session failed")
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies the log level.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := build(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("mode", a.mode).Msg("starting game-session")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server exited: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(db, assets.Migrations()); err != nil {
		return err
	}
	log.Info().Str("path", cfg.DatabasePath).Msg("migrations applied")
	return nil
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(db, assets.Migrations()); err != nil {
		return err
	}
	entries, err := store.NewSQLiteSessions(db).LoadSessions(cmd.Context())
	if err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
