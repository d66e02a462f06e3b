package app

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"dashboard-cache/internal/common/logging"
	"dashboard-cache/internal/config"
	"dashboard-cache/internal/server"
)

// Run is the main entry point for the application
func Run() error {
	// Load environment variables
	_ = godotenv.Load()

	// Load configuration before logging so LOG_LEVEL and LOG_FILE apply
	cfg := config.Load()

	closeLog, err := logging.InitGlobalLogger(cfg.LogLevel, cfg.LogFile, cfg.LogJSON)
	if err != nil {
		return err
	}
	defer func() {
		logging.MustSync()
		_ = closeLog()
	}()

	logging.Info("Starting dashboard cache",
		logging.Int("cpus", runtime.NumCPU()),
		logging.String("store", cfg.StoreType),
	)

	if err := cfg.Validate(); err != nil {
		logging.Error("Configuration validation failed", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		logging.Error("Failed to initialize application", err)
		return err
	}
	defer app.Cleanup()

	handler, err := app.Handler()
	if err != nil {
		logging.Error("Failed to build routes", err)
		return err
	}
	srv := server.New(handler, cfg.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Info("Server starting", logging.String("addr", srv.Addr()))
		return srv.Run(gctx)
	})
	g.Go(func() error {
		return app.Scheduler.Start(gctx)
	})

	if err := g.Wait(); err != nil {
		logging.Error("Server stopped with error", err)
		return err
	}

	logging.Info("Server exited")
	return nil
}
