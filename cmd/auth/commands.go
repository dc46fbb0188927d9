package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chefstream/auth/internal/auth/app"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "auth",
		Short: "ChefStream authentication service",
		Long: `auth serves password and Google sign-in, TOTP two-factor and session
management for ChefStream. Configuration comes from the environment and an
optional .env file in the working directory.

Running auth without a subcommand is the same as "auth serve".`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Apply migrations and serve HTTP until interrupted",
			Args:  cobra.NoArgs,
			RunE:  runServe,
		},
		newMigrateCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the build version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), app.BuildVersion)
			},
		},
	)
	return root
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}

	application, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run(cmd.Context())
}

func newMigrateCmd() *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	migrate.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withStore(cmd, func(s migrator) error { return s.ApplyMigrations() }, "migrations applied")
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withStore(cmd, func(s migrator) error { return s.RollbackMigration() }, "migration rolled back")
			},
		},
	)
	return migrate
}

type migrator interface {
	ApplyMigrations() error
	RollbackMigration() error
}

func withStore(cmd *cobra.Command, fn func(migrator) error, done string) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg)

	st, err := app.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := fn(st); err != nil {
		return err
	}
	logger.Info(done, "driver", cfg.DatabaseDriver)
	return nil
}
