/*
Package config loads deployment configuration from a TOML file.

PURPOSE:
  Everything a deployment tunes lives here: HTTP address, database path,
  cache backend, alert cache TTL, scheduler cadence, and the overdraft
  rate table. A missing file yields defaults, so `server` runs with zero
  setup; flags in cmd/server override individual values.

EXAMPLE (benefits.toml):

  [server]
  addr = ":8080"

  [database]
  path = "./data/benefits.db"

  [cache]
  backend = "memory"        # or "redis"
  redis_addr = "localhost:6379"
  redis_db = 0
  alert_ttl_minutes = 5

  [overdraft]
  default_rate = 0.25
  [overdraft.rates]
  medical = 0.50
  dental = 0.20
  maternity = 0.30
  glasses = 0.10

  [scheduler]
  enabled = false
  interval_minutes = 60
  threshold_percent = 20

SEE ALSO:
  - benefit/overdraft.go: The policy the rate table becomes
  - cmd/server/main.go: Flag overrides
*/
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/meridian/benefit-ledger/benefit"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Cache     CacheConfig     `toml:"cache"`
	Overdraft OverdraftConfig `toml:"overdraft"`
	Scheduler SchedulerConfig `toml:"scheduler"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type CacheConfig struct {
	Backend         string `toml:"backend"` // "memory" or "redis"
	RedisAddr       string `toml:"redis_addr"`
	RedisDB         int    `toml:"redis_db"`
	AlertTTLMinutes int    `toml:"alert_ttl_minutes"`
}

type OverdraftConfig struct {
	DefaultRate float64            `toml:"default_rate"`
	Rates       map[string]float64 `toml:"rates"`
}

type SchedulerConfig struct {
	Enabled          bool    `toml:"enabled"`
	IntervalMinutes  int     `toml:"interval_minutes"`
	ThresholdPercent float64 `toml:"threshold_percent"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "./benefits.db"},
		Cache: CacheConfig{
			Backend:         "memory",
			RedisAddr:       "localhost:6379",
			AlertTTLMinutes: 5,
		},
		Overdraft: OverdraftConfig{
			DefaultRate: 0.25,
			Rates: map[string]float64{
				"medical":   0.50,
				"dental":    0.20,
				"maternity": 0.30,
				"glasses":   0.10,
			},
		},
		Scheduler: SchedulerConfig{
			Enabled:          false,
			IntervalMinutes:  60,
			ThresholdPercent: 20,
		},
	}
}

// Load reads the TOML file at path, layered over Default. A missing file
// is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// OverdraftPolicy builds the injected policy from the rate table.
func (c Config) OverdraftPolicy() benefit.OverdraftPolicy {
	return benefit.NewOverdraftPolicy(c.Overdraft.Rates, c.Overdraft.DefaultRate)
}

// AlertTTL returns the alert cache TTL as a duration.
func (c Config) AlertTTL() time.Duration {
	if c.Cache.AlertTTLMinutes <= 0 {
		return benefit.DefaultAlertTTL
	}
	return time.Duration(c.Cache.AlertTTLMinutes) * time.Minute
}

// SchedulerInterval returns the alert scan cadence.
func (c Config) SchedulerInterval() time.Duration {
	if c.Scheduler.IntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Scheduler.IntervalMinutes) * time.Minute
}
