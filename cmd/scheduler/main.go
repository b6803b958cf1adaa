package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"leadsync_backend/internal/bootstrap"
	"leadsync_backend/internal/scheduler"
	"leadsync_backend/platform/config"
	"leadsync_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env, cfg.LogLevel)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := bootstrap.New(ctx, cfg, log, bootstrap.Options{})
	if err != nil {
		log.Error("failed to initialize application", "error", err)
		panic(err.Error())
	}
	defer components.Close()

	worker, err := scheduler.NewWorker(cfg, components.Sync, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}
