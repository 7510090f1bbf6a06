package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"vbudget/internal/config"
	"vbudget/internal/storage"
)

func migrateCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the SQLite schema of the rules backend",
		Long:  `Apply or roll back the migrations of the SQLite store used when RULES_BACKEND=sqlite.`,
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: SQLITE_DB_PATH)")

	resolve := func() string {
		if dbPath != "" {
			return dbPath
		}
		return config.Load().SQLiteDBPath
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := resolve()
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("create db directory: %w", err)
			}
			version, err := storage.RunMigrations(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s at schema version %d\n", path, version)
			return nil
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := resolve()
			version, err := storage.RollbackMigrations(path, steps)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s at schema version %d\n", path, version)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	return cmd
}
