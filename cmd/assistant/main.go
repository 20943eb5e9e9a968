// Package main contains the entrypoint for the assistant API service.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"assistant-api/internal/ai"
	"assistant-api/internal/analytics"
	"assistant-api/internal/config"
	"assistant-api/internal/database"
	"assistant-api/internal/logger"
	"assistant-api/internal/memory"
	"assistant-api/internal/profile"
	"assistant-api/internal/scheduler"
	"assistant-api/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes all application components (config, logger, db, ai client,
// http server, scheduler), handles graceful shutdown, and returns an exit
// code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	// .env is optional; it carries API keys in local development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info("Logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	client, err := ai.New(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize completion client", "provider", cfg.AI.Provider, "error", err)
		return 1
	}

	mem := memory.NewService(store, cfg.Memory, log)
	profiles := profile.NewService(store, log)
	analyticsSvc := analytics.NewService(store, log)

	srv := server.New(cfg, log, store, mem, profiles, analyticsSvc, client)

	tasks := scheduler.RegisterAllTasks(scheduler.TaskDeps{
		Logger: log,
		Store:  store,
		AI:     client,
		Config: cfg,
	})
	schedules := map[string]string{
		scheduler.TaskDBMaintenance: cfg.Scheduler.MaintenanceCron,
	}
	sched, err := scheduler.New(log, schedules, tasks)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(gctx)
	})

	g.Go(func() error {
		if err := sched.Start(); err != nil {
			return err
		}
		<-gctx.Done()
		return sched.Stop()
	})

	log.Info("Assistant service started", "addr", cfg.Server.Addr, "provider", cfg.AI.Provider)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Service stopped due to error", "error", err)
		return 1
	}

	log.Info("Service stopped gracefully.")
	return 0
}
