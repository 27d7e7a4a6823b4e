package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hongminglow/reward-auth/internal/config"
)

// newRootCmd builds the CLI. Running it without a subcommand serves HTTP.
func newRootCmd() *cobra.Command {
	flags := config.Flags()
	cmd := &cobra.Command{
		Use:          "reward-auth",
		Short:        "Authentication gateway for the event reward service",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
	cmd.PersistentFlags().AddFlagSet(flags)

	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newMigrateCmd(flags))
	return cmd
}

func newServeCmd(flags *pflag.FlagSet) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
}

func newMigrateCmd(flags *pflag.FlagSet) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, flags)
		},
	}
}
