package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"belajar-todo/configs"
	v1 "belajar-todo/internal/api/v1"
	"belajar-todo/internal/config"
	"belajar-todo/internal/middleware"
	"belajar-todo/internal/repository"
	"belajar-todo/pkg/database"
	"belajar-todo/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, db, cleanup, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	logger.SystemLogger.Info("Starting application", zap.String("time", time.Now().Format(time.RFC3339)))

	// Buat tabel jika belum ada
	if err := repository.CreateTableIfNotExists(ctx, db); err != nil {
		logger.ErrorLogger.Error("Create tables failed", zap.Error(err))
		return err
	}

	rdb, err := database.ConnectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		logger.SystemLogger.Info("Redis Connected", zap.String("addr", cfg.RedisAddr()))
	}

	deps, err := config.FromConfig(cfg, db, rdb)
	if err != nil {
		return err
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go deps.Hub.Run(hubCtx)

	app := newApp(cfg, deps)

	errCh := make(chan error, 1)
	go func() {
		logger.SystemLogger.Info("Application ready", zap.String("addr", cfg.ListenAddr()))
		errCh <- app.Listen(cfg.ListenAddr())
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.ErrorLogger.Error("Application failed to start", zap.Error(err))
		}
		return err
	case <-ctx.Done():
	}

	logger.SystemLogger.Info("Shutting down")
	stopHub()
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.ErrorLogger.Error("Shutdown failed", zap.Error(err))
		return err
	}
	return nil
}

// newApp memasang middleware global lalu semua route di bawah /api.
func newApp(cfg configs.Config, deps *config.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "todo-api",
		ErrorHandler: jsonErrorHandler,
	})

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(middleware.ErrorHandler())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	limiterCfg := limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
		LimitReached: func(c *fiber.Ctx) error {
			logger.SecurityLogger.Warn("Rate limit reached", zap.String("ip", c.IP()))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"message": "too many requests"})
		},
	}
	if deps.Redis != nil {
		limiterCfg.Storage = database.NewRedisStorage(deps.Redis, "todo:limiter:")
	}
	app.Use(limiter.New(limiterCfg))

	// Daftarkan route API
	v1.RegisterRoutes(app.Group("/api"), deps)
	return app
}

// jsonErrorHandler menjaga bentuk {"message": ...} untuk error dari Fiber
// sendiri, misalnya route tidak ditemukan.
func jsonErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		logger.ErrorLogger.Error("Unhandled error", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(code).JSON(fiber.Map{"message": msg})
}
