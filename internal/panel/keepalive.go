package panel

import (
	"context"
	"time"

	"github.com/daemonp/envisalink2mqtt/internal/envisalink"
	"github.com/daemonp/envisalink2mqtt/internal/log"
	"github.com/daemonp/envisalink2mqtt/internal/metrics"
	"github.com/daemonp/envisalink2mqtt/internal/types"
)

var pollCommand = types.Command{Code: "000", Label: "poll"}

// Sender writes a command to the bridge.
type Sender interface {
	Send(ctx context.Context, cmd types.Command) error
}

// Keepalive polls the bridge on a fixed interval and reports a dead session
// once too many polls go unacknowledged. Acknowledgements reach it through
// Acknowledge, the poll state itself is only touched by the Run goroutine.
type Keepalive struct {
	sender     Sender
	interval   time.Duration
	maxRetries int
	log        *log.Logger

	acks    chan struct{}
	acked   bool
	retries int
}

func NewKeepalive(sender Sender, interval time.Duration, maxRetries int, logger *log.Logger) *Keepalive {
	return &Keepalive{
		sender:     sender,
		interval:   interval,
		maxRetries: maxRetries,
		log:        logger,
		acks:       make(chan struct{}, 1),
		acked:      true,
	}
}

// Acknowledge records that the outstanding poll was answered. It never
// blocks.
func (k *Keepalive) Acknowledge() {
	select {
	case k.acks <- struct{}{}:
	default:
	}
}

// Run polls once straight away, then on every interval until ctx is done or
// the session is declared dead, in which case it returns
// envisalink.ErrNoPollResponse.
func (k *Keepalive) Run(ctx context.Context) error {
	if err := k.tick(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-k.acks:
			k.acked = true
		case <-ticker.C:
			if err := k.tick(ctx); err != nil {
				return err
			}
		}
	}
}

func (k *Keepalive) tick(ctx context.Context) error {
	select {
	case <-k.acks:
		k.acked = true
	default:
	}

	if k.acked {
		k.retries = 0
		k.acked = false
		k.send(ctx)
		return nil
	}

	if k.retries >= k.maxRetries {
		k.log.Error("No response to %d polls", k.retries+1)
		return envisalink.ErrNoPollResponse
	}
	k.retries++
	metrics.PollRetries.Inc()
	k.log.Warn("Poll not acknowledged, retry %d of %d", k.retries, k.maxRetries)
	k.send(ctx)
	return nil
}

func (k *Keepalive) send(ctx context.Context) {
	if err := k.sender.Send(ctx, pollCommand); err != nil {
		k.log.Error("Failed to send poll: %v", err)
	}
}
