package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/daemonp/envisalink2mqtt/internal/config"
	"github.com/daemonp/envisalink2mqtt/internal/log"
	"github.com/daemonp/envisalink2mqtt/internal/metrics"
	"github.com/daemonp/envisalink2mqtt/internal/types"
)

const connectTimeout = time.Minute

// Adapter connects the panel to the bus: events go out as JSON documents on
// every events channel, commands come in from every commands channel.
type Adapter struct {
	bus        Bus
	channels   config.ChannelsConfig
	masterCode string
	log        *log.Logger

	mu        sync.RWMutex
	observers []func(types.Event)
}

func NewAdapter(b Bus, channels config.ChannelsConfig, masterCode string, logger *log.Logger) *Adapter {
	return &Adapter{
		bus:        b,
		channels:   channels,
		masterCode: masterCode,
		log:        logger,
	}
}

// Connect connects the transport, retrying with exponential backoff.
func (a *Adapter) Connect(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = connectTimeout
	return backoff.RetryNotify(func() error {
		return a.bus.Connect(ctx)
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		a.log.Warn("%v, retrying in %s", err, wait.Round(time.Millisecond))
	})
}

// OnEvent registers fn to be called with every published event.
func (a *Adapter) OnEvent(fn func(types.Event)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, fn)
}

// Publish sends event to every events channel.
func (a *Adapter) Publish(ctx context.Context, event types.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	var errs []error
	for _, channel := range a.channels.Events {
		if err := a.bus.Publish(ctx, channel, payload); err != nil {
			errs = append(errs, err)
		}
	}
	metrics.EventsPublished.WithLabelValues(string(event.Type)).Inc()

	a.mu.RLock()
	observers := a.observers
	a.mu.RUnlock()
	for _, fn := range observers {
		fn(event)
	}
	return errors.Join(errs...)
}

// Commands delivers decoded commands from every commands channel until ctx
// is done. Messages that cannot be decoded are logged and dropped.
func (a *Adapter) Commands(ctx context.Context) (<-chan types.Command, error) {
	messages, err := a.bus.Subscribe(ctx, a.channels.Commands)
	if err != nil {
		return nil, err
	}

	out := make(chan types.Command)
	go func() {
		defer close(out)
		for body := range messages {
			cmd, err := ParseCommand(body, a.masterCode)
			if err != nil {
				metrics.CommandsDropped.Inc()
				a.log.Warn("Dropping command: %v", err)
				continue
			}
			a.log.Debug("Command received: %s", cmd)
			select {
			case out <- cmd:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (a *Adapter) Close() error {
	return a.bus.Close()
}
