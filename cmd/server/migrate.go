package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hongminglow/reward-auth/internal/config"
	"github.com/hongminglow/reward-auth/internal/storage/postgres"
)

func runMigrate(cmd *cobra.Command, flags *pflag.FlagSet) error {
	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}
	if cfg.Store != config.StorePostgres {
		return oops.Code("CONFIG_INVALID").With("store", cfg.Store).Errorf("migrate requires the postgres store")
	}

	ctx := cmd.Context()
	cmd.Println("Connecting to database...")
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	cmd.Println("Running migrations...")
	if err := postgres.Migrate(ctx, pool); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
