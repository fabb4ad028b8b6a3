// Package query exposes the read-only surface over the topology registry:
// synchronous snapshot accessors and the filtered added/removed event
// streams consumed by external query bindings.
package query

import (
	"context"
	"log/slog"

	"github.com/slashxD/vector/eventbus"
	"github.com/slashxD/vector/registry"
	"github.com/slashxD/vector/topology"
)

// Option configures a Surface.
type Option func(*Surface)

// WithLogger sets the structured logger for subscription lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Surface) {
		if logger != nil {
			s.logger = logger.With("component", "query")
		}
	}
}

// Surface bundles the registry (snapshot reads) and the event bus
// (subscriptions) behind the operations a protocol binding consumes.
type Surface struct {
	registry *registry.Registry
	bus      *eventbus.Bus
	logger   *slog.Logger
}

// NewSurface creates a query surface over the given registry and bus.
func NewSurface(reg *registry.Registry, bus *eventbus.Bus, opts ...Option) *Surface {
	s := &Surface{
		registry: reg,
		bus:      bus,
		logger:   slog.Default().With("component", "query"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Components returns all configured components as of call time.
func (s *Surface) Components() []topology.Component {
	return s.registry.Components()
}

// Sources returns the configured sources as of call time.
func (s *Surface) Sources() []topology.Component {
	return s.registry.ByKind(topology.KindSource)
}

// Transforms returns the configured transforms as of call time.
func (s *Surface) Transforms() []topology.Component {
	return s.registry.ByKind(topology.KindTransform)
}

// Sinks returns the configured sinks as of call time.
func (s *Surface) Sinks() []topology.Component {
	return s.registry.ByKind(topology.KindSink)
}

// ComponentAdded subscribes to all newly added components. Each call yields
// a fresh, independent stream with no replay; Removed events and lag-induced
// drops are skipped silently. The stream closes when ctx is cancelled or the
// bus is torn down.
func (s *Surface) ComponentAdded(ctx context.Context) <-chan topology.Component {
	return s.stream(ctx, topology.OpAdded)
}

// ComponentRemoved subscribes to all removed components; symmetric to
// ComponentAdded.
func (s *Surface) ComponentRemoved(ctx context.Context) <-chan topology.Component {
	return s.stream(ctx, topology.OpRemoved)
}

func (s *Surface) stream(ctx context.Context, op topology.ChangeOp) <-chan topology.Component {
	sub := s.bus.Subscribe()
	out := make(chan topology.Component)

	go func() {
		defer close(out)
		defer sub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-sub.C():
				if !ok {
					// Bus torn down.
					return
				}
				if change.Op != op {
					continue
				}
				select {
				case out <- change.Component:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
