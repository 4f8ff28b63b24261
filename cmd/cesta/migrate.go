package main

import (
	"fmt"
	"log/slog"

	"github.com/dukerupert/cesta/internal/database"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  `Create or upgrade the database schema and seed the starter item library.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := database.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			defer db.Close()

			v, err := database.Version(db)
			if err != nil {
				return err
			}
			slog.Info("database up to date", "path", cfg.DBPath, "version", v)
			return nil
		},
	}
}
