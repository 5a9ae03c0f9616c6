package config_test

import (
	"path/filepath"
	"testing"

	"github.com/KirkDiggler/initiative-tracker/internal/config"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.Storage.DataDir)
	assert.Equal(t, filepath.Join("data", "players.json"), cfg.Storage.PlayersFile)
	assert.Equal(t, filepath.Join("data", "encounters"), cfg.Storage.EncountersDir)
	assert.Equal(t, "tracker:updates", cfg.Redis.UpdatesChannel)
	assert.False(t, cfg.RedisEnabled())
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())

	_, err = cfg.RedisOptions()
	assert.True(t, dnderr.IsFailedPrecondition(err))
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{
		"TRACKER_DATA_DIR":        "/srv/tracker",
		"TRACKER_PLAYERS_FILE":    "/etc/party.json",
		"REDIS_URL":               "redis://:secret@cache:6380/2",
		"TRACKER_UPDATES_CHANNEL": "table:1",
		"LOG_LEVEL":               "debug",
	})
	require.NoError(t, err)

	assert.Equal(t, "/etc/party.json", cfg.Storage.PlayersFile)
	assert.Equal(t, filepath.Join("/srv/tracker", "encounters"), cfg.Storage.EncountersDir)
	assert.Equal(t, "table:1", cfg.Redis.UpdatesChannel)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	require.True(t, cfg.RedisEnabled())

	opts, err := cfg.RedisOptions()
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"log level": {"LOG_LEVEL": "loud"},
		"redis url": {"REDIS_URL": "http://not-redis"},
	}

	for name, environ := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.LoadFrom(environ)
			assert.True(t, dnderr.IsValidation(err))
		})
	}
}
