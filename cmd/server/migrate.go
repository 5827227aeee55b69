package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/warmersun/warmersun-api/internal/config"
	"github.com/warmersun/warmersun-api/internal/database"
	"github.com/warmersun/warmersun-api/internal/output"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables and indexes",
	Long: `Create every table and index that does not exist yet.  Existing tables
are left untouched, so the command is safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		db, err := database.Open(cfg)
		if err != nil {
			output.Error("connect %s: %v", cfg.DBDriver, err)
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		if err := database.Migrate(ctx, db); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("schema up to date (%s, %d statements)", db.Dialect, len(database.Statements(db.Dialect)))
		return nil
	},
}
