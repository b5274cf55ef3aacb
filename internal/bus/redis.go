package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/daemonp/envisalink2mqtt/internal/config"
	"github.com/daemonp/envisalink2mqtt/internal/log"
	"github.com/redis/go-redis/v9"
)

// popTimeout bounds every blocking pop so consumers notice cancellation.
const popTimeout = time.Second

// Redis uses one list per channel as a work queue: publishers push to the
// tail and each message is popped by exactly one consumer.
type Redis struct {
	config *config.RedisConfig
	log    *log.Logger
	client *redis.Client
	topics *Topics
}

func NewRedis(cfg *config.RedisConfig, topics *Topics, logger *log.Logger) *Redis {
	return &Redis{config: cfg, log: logger, topics: topics}
}

func (r *Redis) Connect(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     r.config.Addr,
		Password: r.config.Password,
		DB:       r.config.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to redis at %s: %w", r.config.Addr, err)
	}
	r.client = client
	r.log.Info("Connected to redis: %s", r.config.Addr)
	return nil
}

func (r *Redis) Publish(ctx context.Context, channel string, payload []byte) error {
	if r.client == nil {
		return fmt.Errorf("redis: publish before connect")
	}
	key := r.topics.Channel(channel)
	if err := r.client.RPush(ctx, key, payload).Err(); err != nil {
		return fmt.Errorf("failed to push to %s: %w", key, err)
	}
	r.log.Debug("Pushed message to list: %s", key)
	return nil
}

func (r *Redis) Subscribe(ctx context.Context, channels []string) (<-chan []byte, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis: subscribe before connect")
	}

	keys := r.topics.Channels(channels)
	d := newDelivery(ctx)
	go func() {
		defer d.close()
		for ctx.Err() == nil {
			result, err := r.client.BLPop(ctx, popTimeout, keys...).Result()
			switch {
			case errors.Is(err, redis.Nil):
				continue
			case err != nil:
				if ctx.Err() != nil {
					return
				}
				r.log.Error("Failed to pop from %v: %v", keys, err)
				select {
				case <-ctx.Done():
				case <-time.After(popTimeout):
				}
				continue
			}
			// result is [key, value]
			if len(result) == 2 {
				d.deliver([]byte(result[1]))
			}
		}
	}()
	return d.out, nil
}

func (r *Redis) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
