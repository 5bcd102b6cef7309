package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joao-fontenele/bookstore-api/internal/config"
)

var (
	cfg    config.Config
	logger *slog.Logger

	postgresURL    string
	migrationsPath string
)

var rootCmd = &cobra.Command{
	Use:           "bookstorectl",
	Short:         "Operate the bookstore database",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(""); err != nil {
			return err
		}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
		if postgresURL == "" {
			postgresURL = cfg.PostgresURL
		}
		if migrationsPath == "" {
			migrationsPath = cfg.MigrationsPath
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&postgresURL, "db", "", "Postgres URL (defaults to POSTGRES_URL)")
	rootCmd.PersistentFlags().StringVar(&migrationsPath, "migrations", "", "Migration source (defaults to MIGRATIONS_PATH or file://migrations)")
}

func main() {
	start := time.Now()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}
}
