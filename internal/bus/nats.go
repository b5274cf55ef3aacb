package bus

import (
	"context"
	"fmt"

	"github.com/daemonp/envisalink2mqtt/internal/config"
	"github.com/daemonp/envisalink2mqtt/internal/log"
	"github.com/nats-io/nats.go"
)

type NATS struct {
	config *config.NATSConfig
	log    *log.Logger
	conn   *nats.Conn
	topics *Topics
}

func NewNATS(cfg *config.NATSConfig, topics *Topics, logger *log.Logger) *NATS {
	return &NATS{config: cfg, log: logger, topics: topics}
}

func (n *NATS) Connect(ctx context.Context) error {
	conn, err := nats.Connect(n.config.URL,
		nats.Name(n.config.Name),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			n.log.Error("NATS connection lost: %v", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			n.log.Info("Reconnected to NATS at %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", n.config.URL, err)
	}
	n.conn = conn
	n.log.Info("Connected to NATS: %s", n.config.URL)
	return nil
}

func (n *NATS) Publish(ctx context.Context, channel string, payload []byte) error {
	if n.conn == nil {
		return fmt.Errorf("nats: publish before connect")
	}
	subject := n.topics.Channel(channel)
	if err := n.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	n.log.Debug("Published message to subject: %s", subject)
	return nil
}

func (n *NATS) Subscribe(ctx context.Context, channels []string) (<-chan []byte, error) {
	if n.conn == nil {
		return nil, fmt.Errorf("nats: subscribe before connect")
	}

	d := newDelivery(ctx)
	var subs []*nats.Subscription
	for _, subject := range n.topics.Channels(channels) {
		sub, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
			d.deliver(msg.Data)
		})
		if err != nil {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			return nil, fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
		}
		n.log.Debug("Subscribed to subject: %s", subject)
		subs = append(subs, sub)
	}

	go func() {
		<-ctx.Done()
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		d.close()
	}()
	return d.out, nil
}

func (n *NATS) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}
