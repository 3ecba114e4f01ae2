package meld

import (
	"meld/internal/cache"
	"meld/internal/database"
	"meld/internal/fit"
	"meld/internal/manager"
	"meld/internal/predict"
	"meld/internal/setup"
)

var (
	_ setup.DatabaseConfigProvider = (*Config)(nil)
	_ setup.CacheConfigProvider    = (*Config)(nil)
	_ setup.ManagerConfigProvider  = (*Config)(nil)
)

type Config struct {
	SrvAddr  string `envconfig:"MELD_ADDR" default:":8787"`
	MaxConns int    `envconfig:"MELD_MAX_CONNS" default:"256"`
	Database database.Config
	Cache    cache.Config
	Manager  manager.Config
	Predict  predict.Config
	Fit      fit.Config
}

func (c Config) DatabaseConfig() *database.Config {
	return &c.Database
}

func (c Config) CacheConfig() *cache.Config {
	return &c.Cache
}

func (c Config) ManagerConfig() *manager.Config {
	return &c.Manager
}
