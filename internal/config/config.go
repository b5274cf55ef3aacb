package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const (
	DriverMQTT  = "mqtt"
	DriverNATS  = "nats"
	DriverRedis = "redis"
)

type Config struct {
	Envisalink    EnvisalinkConfig    `yaml:"envisalink" toml:"envisalink" envPrefix:"ENVISALINK_"`
	Bus           BusConfig           `yaml:"bus" toml:"bus"`
	HomeAssistant HomeAssistantConfig `yaml:"homeassistant" toml:"homeassistant"`
	Metrics       MetricsConfig       `yaml:"metrics" toml:"metrics"`
	Log           string              `yaml:"log" toml:"log" env:"LOG_LEVEL"`
}

type EnvisalinkConfig struct {
	Host           string        `yaml:"host" toml:"host" env:"HOST"`
	Port           int           `yaml:"port" toml:"port" env:"PORT"`
	Password       string        `yaml:"password" toml:"password" env:"PASSWORD"`
	CodeMaster     string        `yaml:"code_master" toml:"code_master" env:"CODE_MASTER"`
	CodeInstaller  string        `yaml:"code_installer" toml:"code_installer" env:"CODE_INSTALLER"`
	Zones          ZoneTable     `yaml:"zones" toml:"zones"`
	MaxPartitions  int           `yaml:"max_partitions" toml:"max_partitions"`
	PollInterval   time.Duration `yaml:"poll_interval" toml:"poll_interval"`
	PollRetries    int           `yaml:"poll_retries" toml:"poll_retries"`
	LoginRetries   int           `yaml:"login_retries" toml:"login_retries"`
	LoginDelay     time.Duration `yaml:"login_delay" toml:"login_delay"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay" toml:"reconnect_delay"`
	ConnectRetries int           `yaml:"connect_retries" toml:"connect_retries"`
	ReadTimeout    time.Duration `yaml:"read_timeout" toml:"read_timeout"`
}

func (e EnvisalinkConfig) Address() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

type BusConfig struct {
	Driver   string         `yaml:"driver" toml:"driver" env:"BUS_DRIVER"`
	Prefix   string         `yaml:"prefix" toml:"prefix"`
	Channels ChannelsConfig `yaml:"channels" toml:"channels"`
	MQTT     MQTTConfig     `yaml:"mqtt" toml:"mqtt" envPrefix:"MQTT_"`
	NATS     NATSConfig     `yaml:"nats" toml:"nats" envPrefix:"NATS_"`
	Redis    RedisConfig    `yaml:"redis" toml:"redis" envPrefix:"REDIS_"`
}

// ChannelsConfig names the bus channels. Commands are consumed from every
// commands channel, events are published to every events channel.
type ChannelsConfig struct {
	Commands []string `yaml:"commands" toml:"commands"`
	Events   []string `yaml:"events" toml:"events"`
}

type MQTTConfig struct {
	ClientID  string `yaml:"client_id" toml:"client_id"`
	Host      string `yaml:"host" toml:"host" env:"HOST"`
	Port      int    `yaml:"port" toml:"port" env:"PORT"`
	Keepalive int    `yaml:"keepalive" toml:"keepalive"`
	Username  string `yaml:"username" toml:"username" env:"USERNAME"`
	Password  string `yaml:"password" toml:"password" env:"PASSWORD"`
	QOS       int    `yaml:"qos" toml:"qos"`
	Retain    bool   `yaml:"retain" toml:"retain"`
	Clean     bool   `yaml:"clean" toml:"clean"`
}

type NATSConfig struct {
	URL  string `yaml:"url" toml:"url" env:"URL"`
	Name string `yaml:"name" toml:"name"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" toml:"addr" env:"ADDR"`
	Password string `yaml:"password" toml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" toml:"db"`
}

type HomeAssistantConfig struct {
	Discovery bool   `yaml:"discovery" toml:"discovery"`
	Prefix    string `yaml:"prefix" toml:"prefix"`
}

type MetricsConfig struct {
	Address string `yaml:"address" toml:"address" env:"METRICS_ADDRESS"`
}

func LoadConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	switch strings.ToLower(filepath.Ext(configFile)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &config); err != nil {
			return nil, fmt.Errorf("%w: error parsing config file: %v", ErrInvalidConfig, err)
		}
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("%w: error parsing config file: %v", ErrInvalidConfig, err)
		}
	}

	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("%w: error parsing environment: %v", ErrInvalidConfig, err)
	}

	config.setDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) setDefaults() {
	e := &c.Envisalink
	if e.Port == 0 {
		e.Port = 4025
	}
	if e.MaxPartitions == 0 {
		e.MaxPartitions = 1
	}
	if e.PollInterval == 0 {
		e.PollInterval = 10 * time.Minute
	}
	if e.PollRetries == 0 {
		e.PollRetries = 3
	}
	if e.LoginRetries == 0 {
		e.LoginRetries = 3
	}
	if e.LoginDelay == 0 {
		e.LoginDelay = time.Second
	}
	if e.ReconnectDelay == 0 {
		e.ReconnectDelay = 10 * time.Second
	}
	if e.ConnectRetries == 0 {
		e.ConnectRetries = 5
	}
	if e.ReadTimeout == 0 {
		e.ReadTimeout = time.Second
	}

	b := &c.Bus
	if b.Driver == "" {
		b.Driver = DriverMQTT
	}
	if b.Prefix == "" {
		b.Prefix = "envisalink2mqtt"
	}
	if b.MQTT.Host == "" {
		b.MQTT.Host = "localhost"
	}
	if b.MQTT.Port == 0 {
		b.MQTT.Port = 1883
	}
	if b.MQTT.Keepalive == 0 {
		b.MQTT.Keepalive = 60
	}
	if b.NATS.URL == "" {
		b.NATS.URL = "nats://127.0.0.1:4222"
	}
	if b.NATS.Name == "" {
		b.NATS.Name = "envisalink2mqtt"
	}
	if b.Redis.Addr == "" {
		b.Redis.Addr = "localhost:6379"
	}

	if c.HomeAssistant.Prefix == "" {
		c.HomeAssistant.Prefix = "homeassistant"
	}
	if c.Log == "" {
		c.Log = "info"
	}
}

// Validate reports every missing or invalid required key at once.
func (c *Config) Validate() error {
	var errs []error
	missing := func(key string) {
		errs = append(errs, fmt.Errorf("missing required key %s", key))
	}

	if c.Envisalink.Host == "" {
		missing("envisalink.host")
	}
	if c.Envisalink.Password == "" {
		missing("envisalink.password")
	}
	if c.Envisalink.CodeMaster == "" {
		missing("envisalink.code_master")
	}
	if len(c.Envisalink.Zones) == 0 {
		missing("envisalink.zones")
	}
	if c.Envisalink.MaxPartitions < 1 || c.Envisalink.MaxPartitions > 8 {
		errs = append(errs, fmt.Errorf("envisalink.max_partitions must be between 1 and 8, got %d", c.Envisalink.MaxPartitions))
	}
	if len(c.Bus.Channels.Commands) == 0 {
		missing("bus.channels.commands")
	}
	if len(c.Bus.Channels.Events) == 0 {
		missing("bus.channels.events")
	}
	switch c.Bus.Driver {
	case DriverMQTT, DriverNATS, DriverRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown bus.driver %q", c.Bus.Driver))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
