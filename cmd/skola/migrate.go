package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/vytor/skola/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

func init() {
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrations(func(cmd *cobra.Command, mm *db.MigrationManager, _ []string) error {
			return mm.Up()
		}),
	})
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrations(func(cmd *cobra.Command, mm *db.MigrationManager, _ []string) error {
			return mm.Down()
		}),
	})
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: withMigrations(func(cmd *cobra.Command, mm *db.MigrationManager, _ []string) error {
			version, dirty, err := mm.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d", version)
			if dirty {
				fmt.Fprint(cmd.OutOrStdout(), " (dirty)")
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		}),
	})
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: withMigrations(func(cmd *cobra.Command, mm *db.MigrationManager, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			return mm.Force(version)
		}),
	})
}

func withMigrations(fn func(*cobra.Command, *db.MigrationManager, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		conn, err := db.Connect(cfg.DBPath)
		if err != nil {
			return err
		}
		defer conn.Close()

		mm, err := db.NewMigrationManager(conn.DB)
		if err != nil {
			return err
		}
		return fn(cmd, mm, args)
	}
}
