package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// Publisher is what services emit events through.
type Publisher interface {
	PublishEvent(ctx context.Context, channel string, ev Event) error
}

// RedisPublisher publishes events onto Redis pub/sub channels. Redis owns
// delivery; we only serialize and send.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) PublishEvent(ctx context.Context, channel string, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.rdb.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	return nil
}

// NoopPublisher drops events. Used when Redis is not configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishEvent(ctx context.Context, channel string, ev Event) error {
	log.Debug().Str("channel", channel).Str("type", ev.Type).Msg("realtime disabled, dropping event")
	return nil
}

var (
	_ Publisher = (*RedisPublisher)(nil)
	_ Publisher = NoopPublisher{}
)
