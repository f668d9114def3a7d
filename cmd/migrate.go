package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rdti-cli/internal/compliance"
	"github.com/sells-group/rdti-cli/internal/db"
)

var migrateDomain bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the check store schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initCompliance(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		// initCompliance already migrated the check store; optionally
		// create the domain tables for local development databases.
		if migrateDomain && cfg.Store.Driver == "postgres" {
			pool, err := db.Connect(ctx, cfg.Store.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := compliance.NewPostgresData(pool).Migrate(ctx); err != nil {
				return err
			}
		}

		zap.L().Info("migrations complete", zap.String("driver", cfg.Store.Driver))
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDomain, "domain", false, "also create the domain tables (local development)")
	rootCmd.AddCommand(migrateCmd)
}
