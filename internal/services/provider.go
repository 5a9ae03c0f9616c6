package services

import (
	"github.com/KirkDiggler/initiative-tracker/internal/config"
	"github.com/KirkDiggler/initiative-tracker/internal/dice"
	"github.com/KirkDiggler/initiative-tracker/internal/events"
	"github.com/KirkDiggler/initiative-tracker/internal/repositories/encounters"
	"github.com/KirkDiggler/initiative-tracker/internal/repositories/players"
	"github.com/KirkDiggler/initiative-tracker/internal/services/tracker"
	"github.com/redis/go-redis/v9"
)

// Provider holds all service instances
type Provider struct {
	Tracker    tracker.Service
	Bus        *events.Bus
	Players    players.Repository
	Encounters encounters.Repository
}

// ProviderConfig holds configuration for creating services
type ProviderConfig struct {
	Config *config.Config

	// RedisClient switches storage and change publishing to Redis. Files are used when nil.
	RedisClient redis.UniversalClient

	Roller dice.Roller
}

// NewProvider creates a new service provider with all services initialized
func NewProvider(cfg *ProviderConfig) *Provider {
	if cfg == nil || cfg.Config == nil {
		panic("config is required")
	}

	bus := events.NewBus(nil)
	bus.Subscribe(events.LogListener{})

	var playerRepo players.Repository
	var encounterRepo encounters.Repository
	if cfg.RedisClient != nil {
		playerRepo = players.NewRedis(cfg.RedisClient)
		encounterRepo = encounters.NewRedis(cfg.RedisClient)
		bus.Subscribe(events.NewRedisPublisher(cfg.RedisClient, cfg.Config.Redis.UpdatesChannel))
	} else {
		playerRepo = players.NewFileRepository(&players.FileRepoConfig{
			Path: cfg.Config.Storage.PlayersFile,
		})
		encounterRepo = encounters.NewFileRepository(&encounters.FileRepoConfig{
			Dir: cfg.Config.Storage.EncountersDir,
		})
	}

	svc := tracker.NewService(&tracker.ServiceConfig{
		Notifier:   bus,
		Roller:     cfg.Roller,
		Players:    playerRepo,
		Encounters: encounterRepo,
	})

	return &Provider{
		Tracker:    svc,
		Bus:        bus,
		Players:    playerRepo,
		Encounters: encounterRepo,
	}
}
