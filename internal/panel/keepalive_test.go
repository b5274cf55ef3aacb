package panel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/daemonp/envisalink2mqtt/internal/envisalink"
	"github.com/daemonp/envisalink2mqtt/internal/log"
	"github.com/daemonp/envisalink2mqtt/internal/types"
	"github.com/stretchr/testify/require"
)

type countingSender struct {
	mu   sync.Mutex
	sent []types.Command
	err  error
}

func (s *countingSender) Send(ctx context.Context, cmd types.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, cmd)
	return s.err
}

func (s *countingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestKeepaliveEscalation(t *testing.T) {
	sender := &countingSender{}
	k := NewKeepalive(sender, time.Hour, 3, log.Nop())
	ctx := context.Background()

	require.NoError(t, k.tick(ctx))
	require.Equal(t, 1, sender.count())
	require.Equal(t, pollCommand, sender.sent[0])

	for i := 1; i <= 3; i++ {
		require.NoError(t, k.tick(ctx))
		require.Equal(t, i, k.retries)
	}
	require.Equal(t, 4, sender.count())

	require.ErrorIs(t, k.tick(ctx), envisalink.ErrNoPollResponse)
	require.Equal(t, 4, sender.count())
}

func TestKeepaliveAcknowledgeResets(t *testing.T) {
	sender := &countingSender{}
	k := NewKeepalive(sender, time.Hour, 3, log.Nop())
	ctx := context.Background()

	require.NoError(t, k.tick(ctx))
	require.NoError(t, k.tick(ctx))
	require.NoError(t, k.tick(ctx))
	require.Equal(t, 2, k.retries)

	k.Acknowledge()
	k.Acknowledge()
	require.NoError(t, k.tick(ctx))
	require.Equal(t, 0, k.retries)
	require.False(t, k.acked)
	require.Equal(t, 4, sender.count())
}

func TestKeepaliveSendErrorIsNotFatal(t *testing.T) {
	sender := &countingSender{err: errors.New("not connected")}
	k := NewKeepalive(sender, time.Hour, 3, log.Nop())
	require.NoError(t, k.tick(context.Background()))
}

func TestKeepaliveRun(t *testing.T) {
	sender := &countingSender{}
	k := NewKeepalive(sender, time.Millisecond, 2, log.Nop())

	err := k.Run(context.Background())
	require.ErrorIs(t, err, envisalink.ErrNoPollResponse)
	require.Equal(t, 3, sender.count())
}

func TestKeepaliveRunPollsImmediately(t *testing.T) {
	sender := &countingSender{}
	k := NewKeepalive(sender, time.Hour, 3, log.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- k.Run(ctx) }()

	require.Eventually(t, func() bool { return sender.count() == 1 }, time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	require.Equal(t, 1, sender.count())
}

func TestKeepaliveRunStopsOnCancel(t *testing.T) {
	sender := &countingSender{}
	k := NewKeepalive(sender, time.Hour, 3, log.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, k.Run(ctx), context.Canceled)
	require.Equal(t, 1, sender.count())
}
