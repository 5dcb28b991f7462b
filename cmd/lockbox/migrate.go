package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/lockbox/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or check the backing table, bucket or directory",
	Long: `Connect to the configured store and create whatever it needs to hold
items: the items table for SQL stores, the bucket for bolt and S3, the
directory for the filesystem store. Running it again is harmless.

With --check nothing is created; the command fails if the store is not
ready.`,
	RunE: runMigrate,
}

var migrateCheck bool

func init() {
	migrateCmd.Flags().BoolVar(&migrateCheck, "check", false, "only validate, do not create anything")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	db, err := openStore(cmd.Context(), cfg, !migrateCheck)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	slog.Info("store ready", "type", cfg.Store.Type, "items", cfg.Store.Tables.Items)
	return nil
}
