package players

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"github.com/KirkDiggler/initiative-tracker/internal/repositories"
	"github.com/redis/go-redis/v9"
)

// PlayersKey holds the JSON player roster
const PlayersKey = "tracker:players"

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client redis.UniversalClient
}

type redisRepository struct {
	client redis.UniversalClient
}

// NewRedisRepository creates a Redis-backed players repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg == nil || cfg.Client == nil {
		panic("redis client is required")
	}

	return &redisRepository{client: cfg.Client}
}

// NewRedis creates a Redis-backed players repository with default configuration
func NewRedis(client redis.UniversalClient) Repository {
	return NewRedisRepository(&RedisRepoConfig{Client: client})
}

// Save overwrites the stored roster in one SET
func (r *redisRepository) Save(ctx context.Context, players []*combat.Participant) error {
	if players == nil {
		players = []*combat.Participant{}
	}

	data, err := json.Marshal(players)
	if err != nil {
		return dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to encode players")
	}

	if err := r.client.Set(ctx, PlayersKey, string(data), 0).Err(); err != nil {
		return dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to store players in redis")
	}

	return nil
}

// Load reads the stored roster
func (r *redisRepository) Load(ctx context.Context) ([]*combat.Participant, error) {
	data, err := r.client.Get(ctx, PlayersKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repositories.NewRecordNotFoundError("players", PlayersKey)
		}
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to get players from redis")
	}

	return decodePlayers(data)
}
