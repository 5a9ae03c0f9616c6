package config

import (
	"path/filepath"

	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Config holds all configuration for the tracker
type Config struct {
	Storage  StorageConfig
	Redis    RedisConfig
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// StorageConfig holds file backend locations. Empty paths are derived from DataDir.
type StorageConfig struct {
	DataDir       string `env:"TRACKER_DATA_DIR"       envDefault:"data"`
	PlayersFile   string `env:"TRACKER_PLAYERS_FILE"`
	EncountersDir string `env:"TRACKER_ENCOUNTERS_DIR"`
}

// RedisConfig holds Redis-specific configuration. Redis is used only when URL is set.
type RedisConfig struct {
	URL            string `env:"REDIS_URL"`
	UpdatesChannel string `env:"TRACKER_UPDATES_CHANNEL" envDefault:"tracker:updates"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeValidation, "failed to parse environment")
	}
	return finish(&cfg)
}

// LoadFrom loads configuration from the given variables instead of the process environment
func LoadFrom(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeValidation, "failed to parse environment")
	}
	return finish(&cfg)
}

func finish(cfg *Config) (*Config, error) {
	if cfg.Storage.PlayersFile == "" {
		cfg.Storage.PlayersFile = filepath.Join(cfg.Storage.DataDir, "players.json")
	}
	if cfg.Storage.EncountersDir == "" {
		cfg.Storage.EncountersDir = filepath.Join(cfg.Storage.DataDir, "encounters")
	}

	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return nil, dnderr.Validationf("invalid LOG_LEVEL %q", cfg.LogLevel)
	}

	if cfg.Redis.URL != "" {
		if _, err := redis.ParseURL(cfg.Redis.URL); err != nil {
			return nil, dnderr.WrapWithCode(err, dnderr.CodeValidation, "invalid REDIS_URL")
		}
	}

	return cfg, nil
}

// Level returns the configured log level
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// RedisEnabled reports whether the Redis backend should be used
func (c *Config) RedisEnabled() bool {
	return c.Redis.URL != ""
}

// RedisOptions parses the Redis URL into client options
func (c *Config) RedisOptions() (*redis.Options, error) {
	if !c.RedisEnabled() {
		return nil, dnderr.FailedPrecondition("REDIS_URL is not set")
	}
	opts, err := redis.ParseURL(c.Redis.URL)
	if err != nil {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeValidation, "invalid REDIS_URL")
	}
	return opts, nil
}
