package bus

import (
	"context"
	"fmt"

	"github.com/daemonp/envisalink2mqtt/internal/config"
	"github.com/daemonp/envisalink2mqtt/internal/log"
)

// Bus is a message bus transport. Channels are the logical names from the
// configuration; each transport maps them to its own topic, subject or key.
type Bus interface {
	Connect(ctx context.Context) error
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe delivers every message arriving on any of channels until ctx
	// is done, then closes the returned channel.
	Subscribe(ctx context.Context, channels []string) (<-chan []byte, error)
	Close() error
}

// Retainer is implemented by transports that can publish retained messages
// to raw topics, which Home Assistant discovery needs.
type Retainer interface {
	PublishRetained(topic string, payload []byte) error
	Topics() *Topics
}

// New returns the transport selected by cfg.Driver.
func New(cfg *config.BusConfig, logger *log.Logger) (Bus, error) {
	switch cfg.Driver {
	case config.DriverMQTT:
		return NewMQTT(&cfg.MQTT, NewTopics(cfg.Prefix, "/"), logger.With("mqtt")), nil
	case config.DriverNATS:
		return NewNATS(&cfg.NATS, NewTopics(cfg.Prefix, "."), logger.With("nats")), nil
	case config.DriverRedis:
		return NewRedis(&cfg.Redis, NewTopics(cfg.Prefix, ":"), logger.With("redis")), nil
	default:
		return nil, fmt.Errorf("%w: unknown bus driver %q", config.ErrInvalidConfig, cfg.Driver)
	}
}
