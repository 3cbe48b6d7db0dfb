// Package config loads the analyzer's YAML configuration via spf13/viper:
// which world roots to watch, the default dimension, where the region-
// metadata cache lives, how often to rescan, log settings, and how many
// workers a bulk query may use.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/go-mc-tools/chunkanalyzer/pkg/logger"
)

type Config struct {
	Worlds    WorldsConfig    `mapstructure:"worlds" json:"worlds"`
	Cache     CacheConfig     `mapstructure:"cache" json:"cache"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" json:"scheduler"`
	Query     QueryConfig     `mapstructure:"query" json:"query"`
	Logging   LoggingConfig   `mapstructure:"logging" json:"logging"`
}

// WorldsConfig names the world roots the analyzer watches and the default
// dimension used when a query doesn't specify one.
type WorldsConfig struct {
	Roots            []string `mapstructure:"roots" json:"roots"`
	DefaultDimension string   `mapstructure:"default_dimension" json:"default_dimension"`
}

type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	DBPath  string `mapstructure:"db_path" json:"db_path"`
}

type SchedulerConfig struct {
	Enabled    bool   `mapstructure:"enabled" json:"enabled"`
	RescanCron string `mapstructure:"rescan_cron" json:"rescan_cron"`
}

type QueryConfig struct {
	BulkWorkers int `mapstructure:"bulk_workers" json:"bulk_workers"`
}

type LoggingConfig struct {
	Enabled    bool   `mapstructure:"enabled" json:"enabled"`
	FilePath   string `mapstructure:"file_path" json:"file_path"`
	MaxSize    int    `mapstructure:"max_size" json:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" json:"max_age"`
	Compress   bool   `mapstructure:"compress" json:"compress"`
}

// Load reads config.yaml from configPath (falling back to ".") plus
// CHUNKANALYZER_-prefixed environment overrides, applying defaults for
// anything unset.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/chunkanalyzer")

	setDefaults(v)

	v.SetEnvPrefix("CHUNKANALYZER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("worlds.default_dimension", "overworld")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.db_path", "./data/chunkanalyzer-cache.db")

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.rescan_cron", "@every 5m")

	v.SetDefault("query.bulk_workers", 4)

	v.SetDefault("logging.enabled", false)
	v.SetDefault("logging.file_path", "./logs/chunkanalyzer.log")
	v.SetDefault("logging.max_size", 50)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 14)
	v.SetDefault("logging.compress", true)
}

// LoggerConfig adapts the Logging section to pkg/logger's Config shape.
func (c *Config) LoggerConfig() *logger.Config {
	return &logger.Config{
		Enabled:    c.Logging.Enabled,
		FilePath:   c.Logging.FilePath,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAge,
		Compress:   c.Logging.Compress,
	}
}
