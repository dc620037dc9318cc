package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/congo-pay/gemwallet/internal/config"
	"github.com/congo-pay/gemwallet/internal/infra"
	"github.com/congo-pay/gemwallet/internal/logging"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL must be set to migrate")
			}
			logger := logging.New(cfg.LogLevel, cfg.AppName, cfg.AppEnv)

			db, err := infra.NewPostgresPool(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()
			return runMigrations(cmd.Context(), db, logger)
		},
	}
}
