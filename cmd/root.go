package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/smashcc/startgg-metrics/internal/config"
	"github.com/smashcc/startgg-metrics/internal/pipeline"
	"github.com/smashcc/startgg-metrics/internal/startgg"
	"github.com/smashcc/startgg-metrics/internal/storage"
)

var (
	dbPath string
	log    zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "smashmetrics",
	Short: "start.gg player metrics tool",
	Long:  "Fetch regional Smash tournament results from start.gg and compute per-player performance metrics.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cfg := config.Load()
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(cfg.LogLevel).
		With().Timestamp().Logger()

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", cfg.DBPath, "path to SQLite cache database")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(dropCmd)
}

// openStore opens the cache database, creating its directory if needed.
func openStore() (*storage.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return db, nil
}

// newPipeline wires the store to an authenticated start.gg client.
func newPipeline(db *storage.DB) (*pipeline.Pipeline, error) {
	token, err := config.APIToken()
	if err != nil {
		return nil, err
	}
	client := startgg.NewClient(token, log)
	return pipeline.New(db, client, log), nil
}
