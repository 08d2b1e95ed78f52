package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"belajar-todo/configs"
	"belajar-todo/pkg/database"
	"belajar-todo/pkg/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "todo-api",
		Short: "Multi-user todo REST API",
		Long: `HTTP API for per-user todos and categories with JWT bearer auth.

Without a subcommand the server is started, same as "todo-api serve".`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newUserCmd())
	return root
}

// bootstrap memuat config, logger, dan koneksi database untuk semua command.
// cleanup harus dipanggil oleh caller.
func bootstrap(ctx context.Context) (configs.Config, *sqlx.DB, func(), error) {
	cfg, err := configs.LoadConfig()
	if err != nil {
		return configs.Config{}, nil, nil, err
	}
	if err := logger.InitLoggers(cfg.LogDir); err != nil {
		return configs.Config{}, nil, nil, fmt.Errorf("init loggers: %w", err)
	}

	db, err := database.ConnectDB(ctx, cfg)
	if err != nil {
		logger.ErrorLogger.Error("Database connection failed", zap.Error(err))
		logger.SyncLoggers()
		return configs.Config{}, nil, nil, err
	}
	logger.SystemLogger.Info("Database Connected")

	cleanup := func() {
		db.Close()
		logger.SyncLoggers()
	}
	return cfg, db, cleanup, nil
}
