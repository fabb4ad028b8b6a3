// Package eventbus provides a bounded, multi-subscriber broadcast channel
// for topology change events.
//
// The bus is lossy by design: publishing never blocks, and a subscriber
// that falls behind its buffer loses its oldest pending events rather than
// slowing the publisher or other subscribers. Events published while no
// subscriber exists are discarded. There is no replay; a subscription
// observes only events published after it was created.
package eventbus

import (
	"log/slog"
	"sync"

	"github.com/slashxD/vector/metric"
	"github.com/slashxD/vector/topology"
)

// DefaultCapacity is the per-subscriber buffer size used when no explicit
// capacity is configured.
const DefaultCapacity = 10

// Option configures a Bus.
type Option func(*Bus)

// WithCapacity sets the per-subscriber buffer capacity.
func WithCapacity(capacity int) Option {
	return func(b *Bus) {
		if capacity > 0 {
			b.capacity = capacity
		}
	}
}

// WithLogger sets the structured logger used for drop reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger.With("component", "eventbus")
		}
	}
}

// WithMetrics attaches platform metrics (dropped events, active subscribers).
func WithMetrics(metrics *metric.Metrics) Option {
	return func(b *Bus) {
		b.metrics = metrics
	}
}

// Bus is an explicitly constructed broadcast channel. One instance is
// created at startup and handed to the registry (publisher side) and the
// query surface (subscriber side).
type Bus struct {
	mu          sync.RWMutex
	subscribers map[uint64]*Subscription
	nextID      uint64
	capacity    int
	closed      bool
	logger      *slog.Logger
	metrics     *metric.Metrics
}

// New creates an event bus with the default per-subscriber capacity.
func New(opts ...Option) *Bus {
	b := &Bus{
		subscribers: make(map[uint64]*Subscription),
		capacity:    DefaultCapacity,
		logger:      slog.Default().With("component", "eventbus"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish delivers the change to every active subscriber without blocking.
// With zero subscribers the event is silently discarded. A subscriber whose
// buffer is full loses its oldest pending event to make room; other
// subscribers are unaffected.
func (b *Bus) Publish(change topology.Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, sub := range b.subscribers {
		if dropped := sub.send(change); dropped {
			if b.metrics != nil {
				b.metrics.EventsDropped.Inc()
			}
			b.logger.Debug("dropped oldest event for lagging subscriber",
				"subscriber", sub.id,
				"op", string(change.Op),
				"name", change.Component.ComponentName())
		}
	}
}

// Subscribe returns a new independent receiver. It observes only events
// published after this call. The caller must Close the subscription when
// done to release its slot.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		ch:  make(chan topology.Change, b.capacity),
		bus: b,
	}

	if b.closed {
		// Late subscribers on a torn-down bus get an already-closed stream.
		close(sub.ch)
		sub.detached = true
		return sub
	}

	b.nextID++
	sub.id = b.nextID
	b.subscribers[sub.id] = sub

	if b.metrics != nil {
		b.metrics.SubscribersActive.Inc()
	}

	return sub
}

// Close tears down the bus, closing every subscriber channel. Publishing
// after Close is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, sub := range b.subscribers {
		sub.detached = true
		close(sub.ch)
		delete(b.subscribers, id)
		if b.metrics != nil {
			b.metrics.SubscribersActive.Dec()
		}
	}
}

// unsubscribe removes a subscription and closes its channel.
func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub.detached {
		return
	}
	sub.detached = true
	delete(b.subscribers, sub.id)
	close(sub.ch)

	if b.metrics != nil {
		b.metrics.SubscribersActive.Dec()
	}
}

// Subscription is one receiver's view of the bus.
type Subscription struct {
	id  uint64
	ch  chan topology.Change
	bus *Bus

	// detached is guarded by bus.mu: once true the channel is closed and
	// the subscription no longer receives publishes.
	detached bool

	closeOnce sync.Once
}

// C returns the receive channel. It is closed when the subscription is
// closed or the bus is torn down.
func (s *Subscription) C() <-chan topology.Change {
	return s.ch
}

// Close detaches the subscription from the bus. Safe to call more than
// once; other subscribers and the publisher are unaffected.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.bus.unsubscribe(s)
	})
}

// send enqueues the change without blocking, evicting the oldest pending
// event when the buffer is full. It reports whether an event was dropped.
// Callers hold bus.mu (read), which excludes channel close.
func (s *Subscription) send(change topology.Change) bool {
	select {
	case s.ch <- change:
		return false
	default:
	}

	// Buffer full: evict the oldest pending event. The receiver may drain
	// concurrently, so both the eviction and the retry are best-effort.
	dropped := false
	select {
	case <-s.ch:
		dropped = true
	default:
	}

	select {
	case s.ch <- change:
		return dropped
	default:
		// Lost the race against a faster publisher; the event is dropped.
		return true
	}
}
