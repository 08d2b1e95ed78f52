package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"belajar-todo/internal/repository"
	"belajar-todo/pkg/logger"
)

func newMigrateCmd() *cobra.Command {
	var drop bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the database tables",
		Long: `Creates users, todos, categories and todo_categories if they do not exist.

With --drop every table is removed first. All data is lost.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			_, db, cleanup, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if drop {
				if err := repository.DeleteAllTable(ctx, db); err != nil {
					return err
				}
				logger.AuditLogger.Warn("All tables dropped")
				fmt.Fprintln(cmd.OutOrStdout(), "Tables dropped.")
			}
			if err := repository.CreateTableIfNotExists(ctx, db); err != nil {
				logger.ErrorLogger.Error("Migration failed", zap.Error(err))
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Tables are ready.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&drop, "drop", false, "Drop all tables before creating them")
	return cmd
}
