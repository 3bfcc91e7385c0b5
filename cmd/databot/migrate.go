package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kitbuilder587/databot/internal/repository/postgres"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the conversation tables in DATABASE_URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if cfg.Database.URL == "" {
				return errors.New("DATABASE_URL is not set")
			}

			db, err := postgres.New(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("connect to postgres: %w", err)
			}
			defer db.Close()

			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}
			logger.Info("schema is up to date")
			return nil
		},
	}
}
