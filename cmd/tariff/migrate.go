package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradewind/tariffflow/internal/cli"
	"github.com/tradewind/tariffflow/internal/common"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd.Context())
			defer cancel()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			defer closeStorage(store)

			common.LogInfo("database migrations applied", common.Fields{
				"path": cfg.Database.Path,
			})
			fmt.Println(cli.FormatSuccess("Database schema is up to date")) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}
