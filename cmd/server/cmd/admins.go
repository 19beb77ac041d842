package cmd

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/royalhouse/server/internal/config"
	"github.com/royalhouse/server/internal/domain/admins"
	"github.com/royalhouse/server/internal/storage/postgres"
)

const adminCommandTimeout = 30 * time.Second

func newAdminsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admins",
		Short: "Manage the admin email allow-list",
		Long: `List, add and remove the email addresses allowed to sign in to the dashboard.

Examples:
  server admins list
  server admins add regent@example.com
  server admins remove 3`,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List allow-listed admins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdminService(cmd.Context(), func(ctx context.Context, svc *admins.Service) error {
				items, err := svc.List(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tEMAIL\tADDED")
				for _, a := range items {
					fmt.Fprintf(w, "%d\t%s\t%s\n", a.ID, a.Email, a.CreatedAt.UTC().Format(time.RFC3339))
				}
				return w.Flush()
			})
		},
	}

	add := &cobra.Command{
		Use:   "add <email>",
		Short: "Allow an email address to sign in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdminService(cmd.Context(), func(ctx context.Context, svc *admins.Service) error {
				admin, err := svc.Add(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added admin %d (%s)\n", admin.ID, admin.Email)
				return nil
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an admin from the allow-list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid admin id %q", args[0])
			}
			return withAdminService(cmd.Context(), func(ctx context.Context, svc *admins.Service) error {
				if err := svc.Remove(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed admin %d\n", id)
				return nil
			})
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}

func withAdminService(ctx context.Context, fn func(context.Context, *admins.Service) error) error {
	db, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, adminCommandTimeout)
	defer cancel()

	pool, err := openPool(ctx, db)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return err
	}

	level := "warn"
	if logLevel != "" {
		level = logLevel
	}
	logger := config.NewLogger(config.LoggingConfig{Level: level, Format: "console"})
	return fn(ctx, admins.NewService(repo.Admins(), logger))
}
