package setup

import (
	"context"
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"meld/internal/blueprint"
	"meld/internal/cache"
	"meld/internal/database"
	"meld/internal/logging"
	"meld/internal/manager"
	"meld/internal/metrics"
	"meld/internal/srvenv"
)

type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

type CacheConfigProvider interface {
	CacheConfig() *cache.Config
}

type ManagerConfigProvider interface {
	ManagerConfig() *manager.Config
}

func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	var serverEnvOpts []srvenv.Option
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	var (
		db        *database.DB
		predCache *cache.Cache
	)
	if dbConfigProvider, ok := config.(DatabaseConfigProvider); ok {
		logger.Info("Configuring db")
		if err := envconfig.Process("", dbConfigProvider); err != nil {
			return nil, fmt.Errorf("dont process db env: %w", err)
		}
		dbFromEnv, err := database.NewFromEnv(ctx, dbConfigProvider.DatabaseConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %v", err)
		}
		db = dbFromEnv
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDatabase(db))
	}

	if cacheConfigProvider, ok := config.(CacheConfigProvider); ok {
		cfg := cacheConfigProvider.CacheConfig()
		if err := envconfig.Process("", cfg); err != nil {
			return nil, fmt.Errorf("dont process cache env: %w", err)
		}
		if cfg.Addr != "" {
			logger.Info("Configuring prediction cache")
			cacheFromEnv, err := cache.NewFromEnv(ctx, cfg)
			if err != nil {
				return nil, fmt.Errorf("unable to connect to cache: %v", err)
			}
			predCache = cacheFromEnv
			serverEnvOpts = append(serverEnvOpts, srvenv.WithCache(predCache))
		}
	}

	if err := metrics.RegisterViews(); err != nil {
		return nil, fmt.Errorf("metrics.RegisterViews: %w", err)
	}
	exporter, err := metrics.NewExporter()
	if err != nil {
		return nil, fmt.Errorf("metrics.NewExporter: %w", err)
	}
	serverEnvOpts = append(serverEnvOpts, srvenv.WithExporter(exporter))

	if managerConfigProvider, ok := config.(ManagerConfigProvider); ok {
		logger.Info("Configuring stack manager")
		provideFn, defs, err := ProvideManagerFor(managerConfigProvider, db, predCache)
		if err != nil {
			return nil, fmt.Errorf("unable create manager provide function: %v", err)
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithManager(provideFn), srvenv.WithBlueprints(defs))
	}

	return srvenv.New(serverEnvOpts...), nil
}

func ProvideManagerFor(
	provider ManagerConfigProvider,
	db *database.DB,
	predCache *cache.Cache,
) (manager.ProvideFn, map[string]*blueprint.Definition, error) {
	cfg := provider.ManagerConfig()
	if err := envconfig.Process("", cfg); err != nil {
		return nil, nil, fmt.Errorf("dont process manager env: %w", err)
	}
	defs, err := blueprint.LoadDir(cfg.BlueprintDir)
	if err != nil {
		return nil, nil, fmt.Errorf("unable load blueprints: %w", err)
	}
	return func(shutdownCh chan<- error) (manager.Manager, error) {
		opts := []manager.Option{manager.WithQueueSize(cfg.QueueSize)}
		if predCache != nil {
			opts = append(opts, manager.WithCache(predCache))
		}
		return manager.New(db, defs, shutdownCh, opts...)
	}, defs, nil
}
