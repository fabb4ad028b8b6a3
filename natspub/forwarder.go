// Package natspub forwards topology change events from the in-process event
// bus onto NATS subjects, so other platform services can observe pipeline
// topology changes without linking against the registry.
//
// Events are published as kind-discriminated JSON on
// "<prefix>.component.added" and "<prefix>.component.removed". Delivery
// inherits the bus's lossy semantics plus NATS at-most-once publishing;
// consumers needing history must track snapshots themselves.
package natspub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"github.com/nats-io/nats.go"

	"github.com/slashxD/vector/errors"
	"github.com/slashxD/vector/eventbus"
	"github.com/slashxD/vector/topology"
)

// DefaultSubjectPrefix is the subject prefix used when none is configured.
const DefaultSubjectPrefix = "vector.topology"

// Option configures a Forwarder.
type Option func(*Forwarder)

// WithSubjectPrefix overrides the NATS subject prefix.
func WithSubjectPrefix(prefix string) Option {
	return func(f *Forwarder) {
		if prefix != "" {
			f.subjectPrefix = prefix
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Forwarder) {
		if logger != nil {
			f.logger = logger.With("component", "natspub")
		}
	}
}

// Forwarder bridges the event bus to NATS.
type Forwarder struct {
	nc            *nats.Conn
	bus           *eventbus.Bus
	subjectPrefix string
	logger        *slog.Logger

	running atomic.Bool
	sub     *eventbus.Subscription
	done    chan struct{}
}

// NewForwarder creates a forwarder publishing bus events over the given
// NATS connection.
func NewForwarder(nc *nats.Conn, bus *eventbus.Bus, opts ...Option) (*Forwarder, error) {
	if nc == nil {
		return nil, errors.WrapFatal(errors.ErrNoConnection, "Forwarder", "NewForwarder", "NATS connection validation")
	}
	if bus == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Forwarder", "NewForwarder", "event bus validation")
	}

	f := &Forwarder{
		nc:            nc,
		bus:           bus,
		subjectPrefix: DefaultSubjectPrefix,
		logger:        slog.Default().With("component", "natspub"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Start subscribes to the bus and begins forwarding. It returns immediately;
// forwarding runs until Stop is called or the bus is torn down.
func (f *Forwarder) Start() error {
	if !f.running.CompareAndSwap(false, true) {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Forwarder", "Start", "state check")
	}

	f.sub = f.bus.Subscribe()
	f.done = make(chan struct{})

	go f.run()

	return nil
}

// Stop detaches from the bus and waits for the forwarding loop to exit.
func (f *Forwarder) Stop(ctx context.Context) error {
	if !f.running.CompareAndSwap(true, false) {
		return errors.WrapInvalid(errors.ErrNotStarted, "Forwarder", "Stop", "state check")
	}

	f.sub.Close()

	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return errors.WrapTransient(ctx.Err(), "Forwarder", "Stop", "waiting for loop exit")
	}
}

func (f *Forwarder) run() {
	defer close(f.done)

	for change := range f.sub.C() {
		f.forward(change)
	}
}

func (f *Forwarder) forward(change topology.Change) {
	data, err := json.Marshal(change)
	if err != nil {
		f.logger.Error("change encoding failed",
			"op", string(change.Op), "error", err)
		return
	}

	subject := f.Subject(change.Op)
	if err := f.nc.Publish(subject, data); err != nil {
		// Publish failures are transient from the registry's point of view;
		// the change feed is best-effort.
		f.logger.Warn("change publish failed",
			"subject", subject, "error", err)
		return
	}

	f.logger.Debug("change forwarded",
		"subject", subject, "name", change.Component.ComponentName())
}

// Subject returns the NATS subject used for the given change operation.
func (f *Forwarder) Subject(op topology.ChangeOp) string {
	return f.subjectPrefix + ".component." + string(op)
}
