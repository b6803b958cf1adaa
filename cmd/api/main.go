package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadsync_backend/internal/bootstrap"
	apphttp "leadsync_backend/internal/http"
	"leadsync_backend/internal/http/router"
	"leadsync_backend/internal/scheduler"
	"leadsync_backend/internal/webhook"
	"leadsync_backend/platform/config"
	"leadsync_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env, cfg.LogLevel)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure + Domain Modules
	// ========================================================================

	components, err := bootstrap.New(ctx, cfg, log, bootstrap.Options{Migrate: true})
	if err != nil {
		log.Error("failed to initialize application", "error", err)
		panic(err.Error())
	}
	defer components.Close()

	enqueuer, closeScheduler := initSubmissionQueue(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	webhookModule := webhook.NewModule(cfg, components.Sync, enqueuer, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: components.Pool,
		Modules: []apphttp.Module{
			webhookModule,
			components.Mapping,
			components.Settings,
			components.Nutshell,
			components.Annotations,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initSubmissionQueue returns nil when Redis is absent; the webhook then
// processes submissions inline.
func initSubmissionQueue(cfg config.SchedulerConfig, log *logger.Logger) (webhook.Enqueuer, func()) {
	if !cfg.IsSchedulerEnabled() {
		log.Warn("REDIS_URL not configured; submissions are processed inline")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client; processing inline", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}
