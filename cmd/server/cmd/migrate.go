package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/royalhouse/server/internal/config"
	"github.com/royalhouse/server/internal/storage/postgres"
)

func newMigrateCmd() *cobra.Command {
	var migrationsPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
		Long: `Apply or roll back database schema migrations.

Migrations are compiled into the binary. Use --path to run them from a
directory instead. DATABASE_URL selects the database.`,
	}
	cmd.PersistentFlags().StringVar(&migrationsPath, "path", "", "migrations directory (default: embedded migrations)")

	databaseSettings := func() (config.DatabaseConfig, error) {
		db, err := config.LoadDatabase()
		if err != nil {
			return config.DatabaseConfig{}, err
		}
		if migrationsPath != "" {
			db.MigrationsPath = migrationsPath
		}
		return db, nil
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := databaseSettings()
			if err != nil {
				return err
			}
			if err := postgres.MigrateUp(db.URL, db.MigrationsPath); err != nil {
				return err
			}
			return printVersion(cmd, db)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := databaseSettings()
			if err != nil {
				return err
			}
			if err := postgres.MigrateDown(db.URL, db.MigrationsPath, steps); err != nil {
				return err
			}
			return printVersion(cmd, db)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := databaseSettings()
			if err != nil {
				return err
			}
			return printVersion(cmd, db)
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func printVersion(cmd *cobra.Command, db config.DatabaseConfig) error {
	version, dirty, err := postgres.MigrationVersion(db.URL, db.MigrationsPath)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if dirty {
		fmt.Fprintf(out, "schema version %d (dirty)\n", version)
		return nil
	}
	fmt.Fprintf(out, "schema version %d\n", version)
	return nil
}
