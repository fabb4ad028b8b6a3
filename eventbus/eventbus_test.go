package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slashxD/vector/topology"
)

func added(name string) topology.Change {
	return topology.Change{Op: topology.OpAdded, Component: topology.Source{Name: name, Type: "stdin"}}
}

// receive drains one event or fails the test after a timeout.
func receive(t *testing.T, sub *Subscription) topology.Change {
	t.Helper()
	select {
	case change, ok := <-sub.C():
		require.True(t, ok, "subscription closed unexpectedly")
		return change
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return topology.Change{}
	}
}

func TestPublish_NoSubscribers(t *testing.T) {
	bus := New()
	defer bus.Close()

	// Must not block or panic; the event is silently discarded.
	bus.Publish(added("in"))
}

func TestPublish_FanOut(t *testing.T) {
	bus := New()
	defer bus.Close()

	first := bus.Subscribe()
	defer first.Close()
	second := bus.Subscribe()
	defer second.Close()

	bus.Publish(added("in"))

	assert.Equal(t, "in", receive(t, first).Component.ComponentName())
	assert.Equal(t, "in", receive(t, second).Component.ComponentName())
}

func TestSubscribe_NoReplay(t *testing.T) {
	bus := New()
	defer bus.Close()

	bus.Publish(added("before"))

	sub := bus.Subscribe()
	defer sub.Close()

	select {
	case change := <-sub.C():
		t.Fatalf("received replayed event %v", change)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublish_DropsOldestForLaggingSubscriber(t *testing.T) {
	bus := New(WithCapacity(2))
	defer bus.Close()

	slow := bus.Subscribe()
	defer slow.Close()

	for _, name := range []string{"a", "b", "c", "d"} {
		bus.Publish(added(name))
	}

	// Buffer holds the two most recent events; "a" and "b" were evicted.
	assert.Equal(t, "c", receive(t, slow).Component.ComponentName())
	assert.Equal(t, "d", receive(t, slow).Component.ComponentName())

	select {
	case change := <-slow.C():
		t.Fatalf("unexpected extra event %v", change)
	default:
	}
}

func TestLaggingSubscriber_DoesNotAffectOthers(t *testing.T) {
	bus := New(WithCapacity(2))
	defer bus.Close()

	lagging := bus.Subscribe()
	defer lagging.Close()
	keeper := bus.Subscribe()
	defer keeper.Close()

	names := []string{"a", "b", "c"}
	for _, name := range names {
		bus.Publish(added(name))
		// The healthy subscriber drains as it goes.
		assert.Equal(t, name, receive(t, keeper).Component.ComponentName())
	}
}

func TestSubscriptionClose_ReleasesSlot(t *testing.T) {
	bus := New()
	defer bus.Close()

	sub := bus.Subscribe()
	other := bus.Subscribe()
	defer other.Close()

	sub.Close()
	sub.Close() // idempotent

	_, ok := <-sub.C()
	assert.False(t, ok, "closed subscription channel should be closed")

	// Publisher and remaining subscriber are unaffected.
	bus.Publish(added("in"))
	assert.Equal(t, "in", receive(t, other).Component.ComponentName())
}

func TestBusClose_TerminatesSubscribers(t *testing.T) {
	bus := New()

	sub := bus.Subscribe()
	bus.Close()

	_, ok := <-sub.C()
	assert.False(t, ok)

	// Publish and a second Close after teardown are no-ops.
	bus.Publish(added("in"))
	bus.Close()

	// Subscribing after close yields an already-closed stream.
	late := bus.Subscribe()
	_, ok = <-late.C()
	assert.False(t, ok)
	late.Close()
}

func TestPublish_ConcurrentWithSubscriberChurn(t *testing.T) {
	bus := New(WithCapacity(4))
	defer bus.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			bus.Publish(added("spin"))
		}
	}()

	for i := 0; i < 50; i++ {
		sub := bus.Subscribe()
		sub.Close()
	}

	<-done
}
