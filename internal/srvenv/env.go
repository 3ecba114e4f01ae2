package srvenv

import (
	"context"

	"contrib.go.opencensus.io/exporter/prometheus"

	"meld/internal/blueprint"
	"meld/internal/cache"
	"meld/internal/database"
	"meld/internal/manager"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

type SrvEnv struct {
	database   *database.DB
	cache      *cache.Cache
	exporter   *prometheus.Exporter
	blueprints map[string]*blueprint.Definition
	manager    manager.ProvideFn
}

func (s *SrvEnv) ProvideManager() manager.ProvideFn {
	return s.manager
}

func (s *SrvEnv) Database() *database.DB {
	return s.database
}

func (s *SrvEnv) Cache() *cache.Cache {
	return s.cache
}

func (s *SrvEnv) Exporter() *prometheus.Exporter {
	return s.exporter
}

func (s *SrvEnv) Blueprints() map[string]*blueprint.Definition {
	return s.blueprints
}

func WithManager(fn manager.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.manager = fn
		return s
	}
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

func WithCache(c *cache.Cache) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.cache = c
		return s
	}
}

func WithExporter(e *prometheus.Exporter) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.exporter = e
		return s
	}
}

func WithBlueprints(defs map[string]*blueprint.Definition) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.blueprints = defs
		return s
	}
}

func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	if s.cache != nil {
		_ = s.cache.Close()
	}
	if s.database != nil {
		return s.database.Close(ctx)
	}
	return nil
}
