package natspub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/slashxD/vector/eventbus"
	"github.com/slashxD/vector/registry"
	"github.com/slashxD/vector/topology"
)

// startNATS spins up a NATS server container for the duration of the test.
func startNATS(t *testing.T) *nats.Conn {
	t.Helper()

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "nats:2.11.7-alpine",
		ExposedPorts: []string{"4222/tcp"},
		WaitingFor:   wait.ForListeningPort("4222/tcp"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "4222/tcp")
	require.NoError(t, err)

	nc, err := nats.Connect("nats://" + host + ":" + port.Port())
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	return nc
}

func TestForwarder_PublishesChanges(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	nc := startNATS(t)

	bus := eventbus.New()
	defer bus.Close()
	reg := registry.New(bus)

	forwarder, err := NewForwarder(nc, bus)
	require.NoError(t, err)
	require.NoError(t, forwarder.Start())
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = forwarder.Stop(ctx)
	}()

	received := make(chan *nats.Msg, 8)
	sub, err := nc.ChanSubscribe("vector.topology.component.>", received)
	require.NoError(t, err)
	defer func() { _ = sub.Unsubscribe() }()

	require.NoError(t, reg.Update(topology.Topology{
		Sources: map[string]topology.SourceSpec{"in": {Type: "stdin"}},
	}))

	select {
	case msg := <-received:
		assert.Equal(t, "vector.topology.component.added", msg.Subject)

		var change topology.Change
		require.NoError(t, json.Unmarshal(msg.Data, &change))
		assert.Equal(t, topology.OpAdded, change.Op)
		assert.Equal(t, topology.Source{Name: "in", Type: "stdin"}, change.Component)
	case <-time.After(5 * time.Second):
		t.Fatal("no change event arrived on NATS")
	}
}

func TestForwarder_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	nc := startNATS(t)

	bus := eventbus.New()
	defer bus.Close()

	forwarder, err := NewForwarder(nc, bus)
	require.NoError(t, err)

	require.NoError(t, forwarder.Start())
	assert.Error(t, forwarder.Start(), "double start must fail")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, forwarder.Stop(ctx))
	assert.Error(t, forwarder.Stop(ctx), "double stop must fail")
}
