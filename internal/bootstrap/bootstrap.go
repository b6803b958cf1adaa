// Package bootstrap is the shared composition root for the api, scheduler
// and operator binaries.
package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leadsync_backend/internal/adapters/storage"
	"leadsync_backend/internal/annotations"
	"leadsync_backend/internal/events"
	"leadsync_backend/internal/leadsync"
	"leadsync_backend/internal/mapping"
	"leadsync_backend/internal/nutshell"
	"leadsync_backend/internal/settings"
	"leadsync_backend/platform/cache"
	"leadsync_backend/platform/config"
	"leadsync_backend/platform/db"
	"leadsync_backend/platform/logger"
	"leadsync_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	retryAttempts  = 5
	retryBaseDelay = 2 * time.Second
	cacheKeyPrefix = "leadsync:"
)

// Options selects the optional startup steps.
type Options struct {
	// Migrate applies pending migrations before connecting.
	Migrate bool
}

// Components is everything a binary needs to sync submissions.
type Components struct {
	Config      *config.Config
	Pool        *pgxpool.Pool
	Bus         *events.InMemoryBus
	Validator   *validator.Validator
	Cache       *cache.Loader
	Nutshell    *nutshell.Module
	Settings    *settings.Module
	Mapping     *mapping.Module
	Annotations *annotations.Module
	Archive     *storage.SubmissionArchive
	Sync        *leadsync.Service

	closers []func()
}

// New connects the infrastructure and wires the modules.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, opts Options) (*Components, error) {
	c := &Components{Config: cfg, Validator: validator.New()}

	if opts.Migrate {
		if err := WithRetry(ctx, log, "database migrations", retryAttempts, retryBaseDelay, func() error {
			return db.RunMigrations(ctx, cfg)
		}); err != nil {
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		log.Info("database migrations complete")
	}

	if err := WithRetry(ctx, log, "database connection", retryAttempts, retryBaseDelay, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		c.Pool = p
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.closers = append(c.closers, c.Pool.Close)
	log.Info("database connection established")

	store, err := newCacheStore(cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		c.closers = append(c.closers, func() { _ = closer.Close() })
	}
	c.Cache = cache.NewLoader(store, log)
	log.Info("cache initialized", "backend", cfg.GetCacheBackend())

	c.Bus = events.NewInMemoryBus(log)
	c.closers = append(c.closers, c.Bus.Wait)

	if !cfg.IsNutshellConfigured() {
		log.Warn("nutshell credentials not configured; CRM calls will fail")
	}
	c.Nutshell = nutshell.NewModule(nutshell.OptionsFromConfig(cfg, cfg.GetUsersCacheTTL()), c.Cache, log)
	c.Settings = settings.NewModule(c.Pool, c.Validator, log)
	c.Mapping = mapping.NewModule(c.Pool, c.Cache, cfg.GetMappingCacheTTL(), c.Settings.Service(), c.Validator, log)
	c.Annotations = annotations.NewModule(c.Pool, log)
	c.Annotations.RegisterHandlers(c.Bus)

	var archive leadsync.Archiver
	if cfg.IsArchiveEnabled() {
		objects, err := storage.NewMinIOService(cfg)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize storage service: %w", err)
		}
		if err := WithRetry(ctx, log, "ensure archive bucket", retryAttempts, retryBaseDelay, func() error {
			return objects.EnsureBucketExists(ctx, cfg.GetArchiveBucket())
		}); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to ensure storage bucket exists: %w", err)
		}
		c.Archive = storage.NewSubmissionArchive(objects, cfg.GetArchiveBucket(), c.Bus, log)
		archive = c.Archive
		log.Info("submission archive initialized", "bucket", cfg.GetArchiveBucket())
	}

	crm := c.Nutshell.Client()
	orchestrator := leadsync.NewOrchestrator(
		crm,
		leadsync.NewOwnerPolicy(crm, c.Validator, log),
		leadsync.NewPipelinePolicy(crm, cfg.GetStagesetFallbackID(), log),
		cfg.GetLeadURLBase(),
		log,
	)
	c.Sync = leadsync.NewService(
		c.Mapping.Store(),
		c.Settings.Service(),
		orchestrator,
		leadsync.NewBusAnnotationSink(c.Bus, log),
		archive,
		log,
	)

	return c, nil
}

// Close releases resources in reverse order of acquisition.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func newCacheStore(cfg config.CacheConfig) (cache.Store, error) {
	if strings.EqualFold(cfg.GetCacheBackend(), "redis") {
		store, err := cache.NewRedisStoreFromURL(cfg.GetRedisURL(), cacheKeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis cache: %w", err)
		}
		return store, nil
	}
	store, err := cache.NewMemoryStore(cfg.GetCacheSize(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory cache: %w", err)
	}
	return store, nil
}
