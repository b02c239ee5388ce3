package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/champtrack/champtrack-hub/internal/infrastructure/persistence/postgres"
)

var (
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL document schema",
	}

	migrateUpCmd = &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m *postgres.Migrator) error {
			n, err := m.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
			return nil
		}),
	}

	migrateStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m *postgres.Migrator) error {
			list, err := m.Status(cmd.Context())
			if err != nil {
				return err
			}
			for _, mg := range list {
				state := "pending"
				if mg.IsApplied {
					state = "applied " + mg.AppliedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%3d  %-28s %s\n", mg.Version, mg.Name, state)
			}
			return nil
		}),
	}

	migrateRollbackCmd = &cobra.Command{
		Use:   "rollback",
		Short: "Revert the latest applied migration",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m *postgres.Migrator) error {
			if err := m.Rollback(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "rolled back")
			return nil
		}),
	}
)

func withMigrator(fn func(*cobra.Command, *postgres.Migrator) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if cfg.Database.URL == "" {
			return errors.New("migrations need DATABASE_URL")
		}
		conn, err := postgres.NewConnection(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer conn.Close()
		return fn(cmd, postgres.NewMigrator(conn))
	}
}
