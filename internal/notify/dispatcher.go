package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/MrJamesThe3rd/doctrack/internal/routing"
)

//go:generate mockgen -source=dispatcher.go -destination=sender_mock.go -package=notify

// Sender delivers a single notification to its office.
type Sender interface {
	Send(ctx context.Context, n routing.Notification) error
}

type Config struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

var DefaultConfig = Config{Workers: 4, QueueSize: 256, Timeout: 5 * time.Second}

// Dispatcher delivers notifications on a fixed pool of workers. Enqueueing
// never blocks: when the queue is full the notification is dropped and logged.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	queue   chan routing.Notification
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(sender Sender, cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig.Workers
	}

	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig.QueueSize
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig.Timeout
	}

	d := &Dispatcher{
		sender:  sender,
		timeout: cfg.Timeout,
		queue:   make(chan routing.Notification, cfg.QueueSize),
	}

	d.wg.Add(cfg.Workers)

	for range cfg.Workers {
		go d.work()
	}

	return d
}

// Notify implements routing.Notifier.
func (d *Dispatcher) Notify(ctx context.Context, notifications []routing.Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		slog.Warn("dispatcher closed, dropping notifications", "count", len(notifications))
		return
	}

	for _, n := range notifications {
		select {
		case d.queue <- n:
		default:
			slog.Warn("notification queue full, dropping",
				"event", n.Event, "office_id", n.OfficeID, "transaction_no", n.TransactionNo)
		}
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()

	for n := range d.queue {
		d.send(n)
	}
}

func (d *Dispatcher) send(n routing.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("notification sender panicked", "event", n.Event, "panic", r)
		}
	}()

	if err := d.sender.Send(ctx, n); err != nil {
		slog.Error("failed to deliver notification",
			"event", n.Event, "office_id", n.OfficeID, "transaction_no", n.TransactionNo, "error", err)
	}
}

// Close stops accepting notifications and waits for queued ones to be sent,
// or for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})

	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
