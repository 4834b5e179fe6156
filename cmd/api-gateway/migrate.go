package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kosterror/time-flow-api/pkg/config"
	"github.com/kosterror/time-flow-api/pkg/database"
	"github.com/kosterror/time-flow-api/pkg/logger"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logr, err := logger.New(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logr.Sync() //nolint:errcheck

			db, err := database.NewPostgres(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			return database.RunMigrations(db.DB, logr)
		},
	}
}
