package main

import (
	"errors"
	"os"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/joao-fontenele/bookstore-api/internal/auth"
	"github.com/joao-fontenele/bookstore-api/internal/catalog"
	"github.com/joao-fontenele/bookstore-api/internal/seed"
	"github.com/joao-fontenele/bookstore-api/internal/telemetry"
)

var adminPassword string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert sample categories, books and an admin account",
	Long: `Insert the sample catalog and an admin account (admin@bookstore.com).

Existing rows with the same slug, isbn or email are skipped, so the command
can be run repeatedly. The admin password comes from --admin-password or
SEED_ADMIN_PASSWORD and is only needed the first time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if postgresURL == "" {
			return errors.New("POSTGRES_URL is required")
		}
		if adminPassword == "" {
			adminPassword = os.Getenv("SEED_ADMIN_PASSWORD")
		}

		ctx := cmd.Context()
		db, err := telemetry.OpenPostgres(ctx, postgresURL)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		seeder := seed.NewSeeder(
			catalog.NewBookRepository(db),
			catalog.NewCategoryRepository(db),
			auth.NewUserRepository(db),
			logger,
		)
		_, err = seeder.Run(ctx, adminPassword)
		return err
	},
}

func init() {
	seedCmd.Flags().StringVar(&adminPassword, "admin-password", "", "Password for the seeded admin account")
	rootCmd.AddCommand(seedCmd)
}
