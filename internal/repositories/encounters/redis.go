package encounters

import (
	"context"
	"errors"

	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"github.com/KirkDiggler/initiative-tracker/internal/repositories"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	// Key patterns
	encounterKeyPrefix = "tracker:encounter:"

	// EncounterIndexKey is the set of stored encounter references
	EncounterIndexKey = "tracker:encounters"
)

// EncounterKey returns the key a snapshot is stored under
func EncounterKey(ref string) string {
	return encounterKeyPrefix + ref
}

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client redis.UniversalClient
}

type redisRepository struct {
	client redis.UniversalClient
}

// NewRedisRepository creates a Redis-backed encounter repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg == nil || cfg.Client == nil {
		panic("redis client is required")
	}

	return &redisRepository{client: cfg.Client}
}

// NewRedis creates a Redis-backed encounter repository with default configuration
func NewRedis(client redis.UniversalClient) Repository {
	return NewRedisRepository(&RedisRepoConfig{Client: client})
}

// Save stores the snapshot and indexes its reference
func (r *redisRepository) Save(ctx context.Context, snapshot *combat.EncounterSnapshot) (string, error) {
	ref, data, err := encodeSnapshot(snapshot)
	if err != nil {
		return "", err
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, EncounterKey(ref), string(data), 0)
	pipe.SAdd(ctx, EncounterIndexKey, ref)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to store encounter in redis").WithMeta("ref", ref)
	}

	return ref, nil
}

// Get retrieves a snapshot by reference
func (r *redisRepository) Get(ctx context.Context, ref string) (*combat.EncounterSnapshot, error) {
	if err := combat.ValidateEncounterRef(ref); err != nil {
		return nil, err
	}

	data, err := r.client.Get(ctx, EncounterKey(ref)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repositories.NewRecordNotFoundError("encounter", ref)
		}
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to get encounter from redis").WithMeta("ref", ref)
	}

	return decodeSnapshot(data)
}

// List fetches every indexed snapshot concurrently. Missing or undecodable entries are skipped.
func (r *redisRepository) List(ctx context.Context) ([]*combat.EncounterSummary, error) {
	refs, err := r.client.SMembers(ctx, EncounterIndexKey).Result()
	if err != nil {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to get encounter index from redis")
	}

	found := make([]*combat.EncounterSummary, len(refs))

	g, ctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		g.Go(func() error {
			data, err := r.client.Get(ctx, EncounterKey(ref)).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					log.Warn().Str("encounter", ref).Msg("skipping indexed encounter with no data")
					return nil
				}
				return dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to get encounter from redis").WithMeta("ref", ref)
			}

			snapshot, err := decodeSnapshot(data)
			if err != nil {
				log.Warn().Err(err).Str("encounter", ref).Msg("skipping malformed encounter")
				return nil
			}

			found[i] = snapshot.Summary(ref)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summaries := make([]*combat.EncounterSummary, 0, len(found))
	for _, s := range found {
		if s != nil {
			summaries = append(summaries, s)
		}
	}

	sortSummaries(summaries)
	return summaries, nil
}
