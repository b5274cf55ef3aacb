package envisalink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/daemonp/envisalink2mqtt/internal/log"
)

const dialTimeout = 30 * time.Second

// ReadStatus is the result of one receive attempt.
type ReadStatus int

const (
	// ReadIdle means no data was available before the read deadline.
	ReadIdle ReadStatus = iota
	// ReadData means at least one byte arrived.
	ReadData
	// ReadClosed means the bridge closed the connection.
	ReadClosed
)

func (s ReadStatus) String() string {
	switch s {
	case ReadIdle:
		return "idle"
	case ReadData:
		return "data"
	case ReadClosed:
		return "closed"
	default:
		return fmt.Sprintf("ReadStatus(%d)", int(s))
	}
}

// DialFunc opens the TCP connection to the bridge.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Conn owns the socket to the bridge. Receive is called from a single
// goroutine; Send may be called from any goroutine and writes are
// serialized so frames never interleave.
type Conn struct {
	log         *log.Logger
	dial        DialFunc
	readTimeout time.Duration

	mu      sync.Mutex
	conn    net.Conn
	scanner Scanner
	buffer  []byte
}

func NewConn(logger *log.Logger, dial DialFunc, readTimeout time.Duration) *Conn {
	if dial == nil {
		var d net.Dialer
		dial = d.DialContext
	}
	return &Conn{
		log:         logger,
		dial:        dial,
		readTimeout: readTimeout,
		buffer:      make([]byte, 4096),
	}
}

func (c *Conn) Connect(ctx context.Context, address string) error {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	c.log.Debug("Attempting to connect to %s", address)
	conn, err := c.dial(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.scanner.Reset()
	c.mu.Unlock()

	c.log.Info("Connected to envisalink at %s", address)
	return nil
}

func (c *Conn) current() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// Receive performs one read bounded by the read timeout and returns the
// complete frames it produced, checksums included.
func (c *Conn) Receive() ([]string, ReadStatus, error) {
	conn := c.current()
	if conn == nil {
		return nil, ReadIdle, ErrNotConnected
	}

	if err := conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return nil, ReadIdle, fmt.Errorf("failed to set read deadline: %w", err)
	}
	n, err := conn.Read(c.buffer)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, ReadIdle, nil
		}
		if errors.Is(err, io.EOF) || n == 0 {
			return nil, ReadClosed, nil
		}
		return nil, ReadClosed, fmt.Errorf("read error: %w", err)
	}

	frames, err := c.scanner.Feed(c.buffer[:n])
	if errors.Is(err, ErrPeerClosed) {
		return nil, ReadClosed, nil
	}
	return frames, ReadData, err
}

// Send writes one encoded frame.
func (c *Conn) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}
	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	return nil
}

// Close shuts the socket down in both directions, best effort, and closes it.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	if tcp, ok := c.conn.(*net.TCPConn); ok {
		if err := tcp.CloseRead(); err != nil {
			c.log.Debug("Shutdown read side: %v", err)
		}
		if err := tcp.CloseWrite(); err != nil {
			c.log.Debug("Shutdown write side: %v", err)
		}
	}
	err := c.conn.Close()
	c.conn = nil
	c.scanner.Reset()
	return err
}
