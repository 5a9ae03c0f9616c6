package events

import (
	"context"
	"encoding/json"
	"time"

	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DefaultUpdatesChannel is the Redis channel changes are published on
const DefaultUpdatesChannel = "tracker:updates"

const publishTimeout = 2 * time.Second

// LogListener writes a debug line for every change
type LogListener struct{}

func (LogListener) ID() string    { return "log" }
func (LogListener) Priority() int { return 100 }

// HandleChange logs the change
func (LogListener) HandleChange(change Change) error {
	log.Debug().Str("change", change.ID).Time("at", change.At).Msg("roster changed")
	return nil
}

// RedisPublisher publishes every change as JSON on a Redis channel
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisPublisher creates a publisher. An empty channel means DefaultUpdatesChannel.
func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	if client == nil {
		panic("redis client is required")
	}
	if channel == "" {
		channel = DefaultUpdatesChannel
	}

	return &RedisPublisher{
		client:  client,
		channel: channel,
	}
}

func (p *RedisPublisher) ID() string    { return "redis:" + p.channel }
func (p *RedisPublisher) Priority() int { return 200 }

// Channel returns the channel changes are published on
func (p *RedisPublisher) Channel() string {
	return p.channel
}

// HandleChange publishes the change
func (p *RedisPublisher) HandleChange(change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return dnderr.Wrap(err, "failed to marshal change")
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return dnderr.Wrapf(err, "failed to publish change to %s", p.channel)
	}

	return nil
}

// DecodeChange parses a published change payload
func DecodeChange(payload string) (Change, error) {
	var change Change
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return Change{}, dnderr.Wrap(err, "failed to decode change")
	}
	return change, nil
}
