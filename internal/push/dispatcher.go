package push

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	queueSize   = 32
	sendTimeout = 30 * time.Second
)

// Broadcaster delivers a payload to every subscribed device.
type Broadcaster interface {
	Broadcast(ctx context.Context, payload Payload) (int, error)
}

// Dispatcher delivers notifications in the background so that request
// handlers never wait on push services.
type Dispatcher struct {
	mu     sync.RWMutex
	sender Broadcaster
	queue  chan Payload
	cancel context.CancelFunc
	done   chan struct{}
	logger *slog.Logger
}

func NewDispatcher(sender Broadcaster, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		sender: sender,
		queue:  make(chan Payload, queueSize),
		logger: logger.With("component", "push_dispatcher"),
	}
}

// Start begins the delivery loop.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	d.mu.Unlock()

	go func() {
		defer close(d.done)
		for {
			select {
			case <-ctx.Done():
				return
			case p := <-d.queue:
				d.deliver(ctx, p)
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit. Queued payloads that were
// not picked up yet are discarded.
func (d *Dispatcher) Stop() {
	d.mu.RLock()
	cancel := d.cancel
	done := d.done
	d.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Notify queues payload for delivery. It never blocks; when the queue is
// full the payload is dropped and Notify returns false.
func (d *Dispatcher) Notify(payload Payload) bool {
	select {
	case d.queue <- payload:
		return true
	default:
		d.logger.Warn("push queue full, dropping notification", "title", payload.Title)
		return false
	}
}

func (d *Dispatcher) deliver(ctx context.Context, p Payload) {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	sent, err := d.sender.Broadcast(ctx, p)
	if err != nil {
		d.logger.Error("broadcast notification", "title", p.Title, "error", err)
		return
	}
	d.logger.Debug("notification delivered", "title", p.Title, "devices", sent)
}
