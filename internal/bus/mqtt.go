package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/daemonp/envisalink2mqtt/internal/config"
	"github.com/daemonp/envisalink2mqtt/internal/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	offlinePayload = "offline"
	onlinePayload  = "online"
	disconnectWait = 250
)

type MQTT struct {
	config *config.MQTTConfig
	log    *log.Logger
	client mqtt.Client
	topics *Topics

	mu            sync.Mutex
	subscriptions map[string]*delivery
}

func NewMQTT(cfg *config.MQTTConfig, topics *Topics, logger *log.Logger) *MQTT {
	if cfg.ClientID == "" {
		cfg.ClientID = "envisalink2mqtt-" + uuid.NewString()[:8]
	}
	return &MQTT{
		config:        cfg,
		log:           logger,
		topics:        topics,
		subscriptions: make(map[string]*delivery),
	}
}

func (m *MQTT) Topics() *Topics {
	return m.topics
}

func (m *MQTT) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", m.config.Host, m.config.Port))
	opts.SetClientID(m.config.ClientID)
	opts.SetUsername(m.config.Username)
	opts.SetPassword(m.config.Password)
	opts.SetCleanSession(m.config.Clean)
	opts.SetKeepAlive(time.Duration(m.config.Keepalive) * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(m.onConnect)
	opts.SetConnectionLostHandler(m.onDisconnect)

	opts.SetWill(m.topics.Status(), offlinePayload, byte(m.config.QOS), true)

	m.client = mqtt.NewClient(opts)

	if err := wait(ctx, m.client.Connect()); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	m.log.Info("Connected to MQTT broker: %s:%d", m.config.Host, m.config.Port)
	return nil
}

func wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MQTT) onConnect(client mqtt.Client) {
	m.log.Info("MQTT connection established")
	if err := m.PublishRetained(m.topics.Status(), []byte(onlinePayload)); err != nil {
		m.log.Error("Failed to publish online status: %v", err)
	}
	m.resubscribe()
}

func (m *MQTT) onDisconnect(client mqtt.Client, err error) {
	m.log.Error("MQTT connection lost: %v", err)
}

func (m *MQTT) resubscribe() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for topic, d := range m.subscriptions {
		m.subscribe(topic, d)
	}
}

func (m *MQTT) subscribe(topic string, d *delivery) {
	token := m.client.Subscribe(topic, byte(m.config.QOS), func(client mqtt.Client, msg mqtt.Message) {
		m.log.Debug("Received message on topic %s", msg.Topic())
		d.deliver(append([]byte(nil), msg.Payload()...))
	})
	if token.Wait() && token.Error() != nil {
		m.log.Error("Failed to subscribe to topic %s: %v", topic, token.Error())
	} else {
		m.log.Debug("Subscribed to topic: %s", topic)
	}
}

func (m *MQTT) Subscribe(ctx context.Context, channels []string) (<-chan []byte, error) {
	if m.client == nil {
		return nil, fmt.Errorf("mqtt: subscribe before connect")
	}

	d := newDelivery(ctx)
	topics := m.topics.Channels(channels)
	m.mu.Lock()
	for _, topic := range topics {
		m.subscriptions[topic] = d
		m.subscribe(topic, d)
	}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		for _, topic := range topics {
			delete(m.subscriptions, topic)
		}
		m.mu.Unlock()
		if m.client.IsConnected() {
			m.client.Unsubscribe(topics...)
		}
		d.close()
	}()
	return d.out, nil
}

func (m *MQTT) Publish(ctx context.Context, channel string, payload []byte) error {
	return m.publish(ctx, m.topics.Channel(channel), payload, m.config.Retain)
}

func (m *MQTT) PublishRetained(topic string, payload []byte) error {
	return m.publish(context.Background(), topic, payload, true)
}

func (m *MQTT) publish(ctx context.Context, topic string, payload []byte, retain bool) error {
	if m.client == nil {
		return fmt.Errorf("mqtt: publish before connect")
	}
	if err := wait(ctx, m.client.Publish(topic, byte(m.config.QOS), retain, payload)); err != nil {
		return fmt.Errorf("failed to publish message to topic %s: %w", topic, err)
	}
	m.log.Debug("Published message to topic: %s", topic)
	return nil
}

func (m *MQTT) Close() error {
	if m.client != nil && m.client.IsConnected() {
		if err := m.PublishRetained(m.topics.Status(), []byte(offlinePayload)); err != nil {
			m.log.Warn("Failed to publish offline status: %v", err)
		}
		m.client.Disconnect(disconnectWait)
	}
	return nil
}
