package panel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/daemonp/envisalink2mqtt/internal/config"
	"github.com/daemonp/envisalink2mqtt/internal/envisalink"
	"github.com/daemonp/envisalink2mqtt/internal/log"
	"github.com/daemonp/envisalink2mqtt/internal/metrics"
	"github.com/daemonp/envisalink2mqtt/internal/types"
	"golang.org/x/sync/errgroup"
)

// idleReadsPerWait is the number of idle reads that count as one login wait.
const idleReadsPerWait = 10

var statusCommand = types.Command{Code: "001", Label: "keyboard: status"}

// Publisher receives every event the panel produces.
type Publisher interface {
	Publish(ctx context.Context, event types.Event) error
}

type Option func(*Panel)

// WithDialer replaces the TCP dialer used to reach the bridge.
func WithDialer(dial envisalink.DialFunc) Option {
	return func(p *Panel) {
		p.dial = dial
	}
}

// WithTransitionHook registers fn to be called on every state change.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(p *Panel) {
		p.onTransition = fn
	}
}

type Panel struct {
	config       *config.EnvisalinkConfig
	log          *log.Logger
	dial         envisalink.DialFunc
	conn         *envisalink.Conn
	classifier   *envisalink.Classifier
	publisher    Publisher
	keepalive    *Keepalive
	onTransition func(from, to State)

	state   atomic.Int32
	mu      sync.Mutex
	session Session
}

func NewPanel(cfg *config.EnvisalinkConfig, publisher Publisher, logger *log.Logger, opts ...Option) *Panel {
	p := &Panel{
		config:     cfg,
		log:        logger,
		classifier: envisalink.NewClassifier(cfg.Zones, cfg.MaxPartitions, cfg.CodeMaster),
		publisher:  publisher,
		session:    newSession(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.conn = envisalink.NewConn(logger, p.dial, cfg.ReadTimeout)
	p.keepalive = NewKeepalive(p, cfg.PollInterval, cfg.PollRetries, logger.With("keepalive"))
	return p
}

// State returns the current lifecycle state.
func (p *Panel) State() State {
	return State(p.state.Load())
}

// Session returns a snapshot of the session record.
func (p *Panel) Session() Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// Run connects to the bridge and drives the session until ctx is cancelled
// or a fatal error faults it. Commands read from commands are sent to the
// bridge. A nil return means ctx was cancelled.
func (p *Panel) Run(ctx context.Context, commands <-chan types.Command) error {
	for _, zone := range p.config.Zones.Zones() {
		p.log.Debug("Zone %s: %s", zone.ID, zone.Label)
	}

	err := p.connect(ctx)
	if err == nil {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return p.loop(gctx, commands)
		})
		g.Go(func() error {
			return p.keepalive.Run(gctx)
		})
		err = g.Wait()
	}

	if envisalink.IsFatal(err) {
		p.fault(err)
		return err
	}
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (p *Panel) loop(ctx context.Context, commands <-chan types.Command) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			if err := p.Send(ctx, cmd); err != nil {
				p.log.Error("Failed to send %s: %v", cmd, err)
			}
			continue
		default:
		}

		if err := p.receive(ctx); err != nil {
			return err
		}
	}
}

func (p *Panel) receive(ctx context.Context) error {
	frames, status, err := p.conn.Receive()
	if err != nil {
		p.log.Error("Receive failed: %v", err)
		return p.reconnect(ctx)
	}

	switch status {
	case envisalink.ReadClosed:
		p.log.Warn("Envisalink closed the connection")
		return p.reconnect(ctx)
	case envisalink.ReadIdle:
		return p.idle()
	}

	for _, frame := range frames {
		if err := p.handleFrame(ctx, frame); err != nil {
			return err
		}
	}
	return nil
}

// idle counts an idle read and fails the session once the bridge has left
// us waiting for login for more than LoginRetries blocks of idle reads.
func (p *Panel) idle() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.session.idle++
	if p.session.idle < idleReadsPerWait {
		return nil
	}
	p.session.idle = 0
	if p.session.LoggedIn {
		return nil
	}

	p.session.LoginWait++
	p.log.Debug("Waiting for login, %d of %d", p.session.LoginWait, p.config.LoginRetries)
	if p.session.LoginWait > p.config.LoginRetries {
		return envisalink.ErrLoginFailed
	}
	return nil
}

func (p *Panel) handleFrame(ctx context.Context, frame string) error {
	metrics.FramesReceived.Inc()
	word := envisalink.StripChecksum(frame)
	if name, ok := envisalink.ResponseName(word[:min(3, len(word))]); ok {
		p.log.Trace("Received %s: %q", name, frame)
	} else {
		p.log.Trace("Received %q", frame)
	}

	o := p.classifier.Classify(word)
	if o.Acked {
		p.keepalive.Acknowledge()
	}
	if o.Status != "" {
		p.setSystem(o.Status)
	}
	if o.Publishable() {
		p.log.Panel(string(o.Event.Type), o.Event.Raw, o.Event.Message)
		p.publish(ctx, o.Event)
	}
	if o.Fatal != nil {
		return o.Fatal
	}

	if o.LoggedIn && p.markLoggedIn() {
		p.transition(LoggedIn)
		if err := p.Send(ctx, statusCommand); err != nil {
			p.log.Error("Failed to request status: %v", err)
		}
	}
	if o.Reply != nil {
		if err := p.Send(ctx, *o.Reply); err != nil {
			p.log.Error("Failed to send %s: %v", o.Reply, err)
		}
	}
	return nil
}

// markLoggedIn records a successful login and reports whether the session
// was not logged in before.
func (p *Panel) markLoggedIn() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	first := !p.session.LoggedIn
	p.session.LoggedIn = true
	p.session.LoginWait = 0
	return first
}

func (p *Panel) setSystem(status string) {
	p.mu.Lock()
	p.session.System = status
	p.mu.Unlock()
}

func (p *Panel) resetSession() {
	p.mu.Lock()
	p.session.reset()
	p.mu.Unlock()
}

func (p *Panel) connect(ctx context.Context) error {
	p.transition(Connecting)

	address := p.config.Address()
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.config.ReconnectDelay), uint64(p.config.ConnectRetries)),
		ctx,
	)
	err := backoff.RetryNotify(func() error {
		return p.conn.Connect(ctx, address)
	}, b, func(err error, wait time.Duration) {
		p.log.Warn("%v, retrying in %s", err, wait)
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w at %s: %v", envisalink.ErrConnect, address, err)
	}

	p.setSystem(envisalink.StatusConnected)
	p.transition(AwaitingLogin)
	return p.login(ctx)
}

func (p *Panel) login(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.config.LoginDelay):
	}

	p.log.Info("Logging in to envisalink")
	if err := p.Send(ctx, types.Command{Code: "005", Data: p.config.Password, Label: "login"}); err != nil {
		p.log.Error("Failed to send password: %v", err)
	}
	return nil
}

func (p *Panel) reconnect(ctx context.Context) error {
	metrics.Reconnects.Inc()
	if err := p.conn.Close(); err != nil {
		p.log.Debug("Close failed: %v", err)
	}
	p.resetSession()
	p.keepalive.Acknowledge()
	p.transition(Disconnected)

	p.log.Info("Reconnecting in %s", p.config.ReconnectDelay)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.config.ReconnectDelay):
	}
	return p.connect(ctx)
}

// Send encodes cmd, writes it to the bridge and mirrors it on the bus.
func (p *Panel) Send(ctx context.Context, cmd types.Command) error {
	frame := envisalink.Encode(cmd.Code, cmd.Data)
	if err := p.conn.Send(frame); err != nil {
		return err
	}

	code := string(frame[:3])
	p.log.Sent(code, cmd.Data, cmd.Label)
	metrics.CommandsSent.WithLabelValues(code).Inc()
	raw := strings.TrimSuffix(string(frame), "\r\n")
	p.publish(ctx, types.NewEvent(types.EventCommand, code, raw, cmd.Label))
	return nil
}

func (p *Panel) publish(ctx context.Context, event types.Event) {
	if err := p.publisher.Publish(ctx, event); err != nil && !errors.Is(err, context.Canceled) {
		p.log.Error("Failed to publish %s event: %v", event.Type, err)
	}
}

func (p *Panel) fault(err error) {
	p.log.Error("Session faulted: %v", err)
	p.transition(Faulted)
	p.Shutdown()
}

// Shutdown closes the socket and resets the session record. It is safe to
// call more than once.
func (p *Panel) Shutdown() {
	if err := p.conn.Close(); err != nil {
		p.log.Debug("Close failed: %v", err)
	}
	p.resetSession()
}

func (p *Panel) transition(to State) {
	from := State(p.state.Swap(int32(to)))
	metrics.SessionState.Set(float64(to))
	if from == to {
		return
	}
	p.log.Debug("Session %s -> %s", from, to)
	if p.onTransition != nil {
		p.onTransition(from, to)
	}
}
