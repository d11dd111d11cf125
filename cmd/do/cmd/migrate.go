package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/templui/secondbrain/internal/config"
	"github.com/templui/secondbrain/internal/db"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	cmd.AddCommand(
		migrateSubCmd("up", "Apply all pending migrations", func(database *sqlx.DB, driver string) error {
			return db.RunMigrations(database.DB, driver)
		}),
		migrateSubCmd("down", "Roll back the latest migration", func(database *sqlx.DB, driver string) error {
			return db.MigrateDown(database.DB, driver)
		}),
		migrateSubCmd("status", "Show the state of every migration", func(database *sqlx.DB, driver string) error {
			return db.MigrationStatus(database.DB, driver)
		}),
	)
	return cmd
}

func migrateSubCmd(use, short string, fn func(*sqlx.DB, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = db.Close(database) }()

			return fn(database, cfg.DBDriver)
		},
	}
}
