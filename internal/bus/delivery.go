package bus

import (
	"context"
	"sync"
)

// delivery fans messages from transport callbacks into one channel that is
// closed exactly once, after which late callbacks are dropped.
type delivery struct {
	ctx    context.Context
	mu     sync.Mutex
	out    chan []byte
	closed bool
}

func newDelivery(ctx context.Context) *delivery {
	return &delivery{ctx: ctx, out: make(chan []byte, 64)}
}

func (d *delivery) deliver(payload []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	select {
	case d.out <- payload:
	case <-d.ctx.Done():
	}
}

func (d *delivery) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		close(d.out)
	}
}
