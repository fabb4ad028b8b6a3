package metric

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry_GathersCoreMetrics(t *testing.T) {
	registry := NewMetricsRegistry()
	metrics := registry.CoreMetrics()

	metrics.ReloadsTotal.Inc()
	metrics.EventsPublished.WithLabelValues("added").Add(3)
	metrics.EventsDropped.Inc()
	metrics.SubscribersActive.Set(2)
	metrics.ComponentsConfigured.WithLabelValues("source").Set(4)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ReloadsTotal))
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("added")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.EventsDropped))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.SubscribersActive))
	assert.Equal(t, float64(4), testutil.ToFloat64(metrics.ComponentsConfigured.WithLabelValues("source")))

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, family := range families {
		names[family.GetName()] = true
	}
	assert.True(t, names["vector_topology_reloads_total"])
	assert.True(t, names["vector_events_published_total"])
	assert.True(t, names["vector_events_dropped_total"])
	assert.True(t, names["vector_events_subscribers_active"])
	assert.True(t, names["vector_topology_components_configured"])
}

func TestServer_ServesMetrics(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping HTTP server test in short mode")
	}

	registry := NewMetricsRegistry()
	registry.CoreMetrics().ReloadsTotal.Inc()

	// Port 0 binds an ephemeral port for the test.
	server := NewServer(0, "/metrics", registry)
	server.port = 0
	require.NoError(t, server.Start())
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Stop(ctx)
	}()

	resp, err := http.Get(fmt.Sprintf("http://%s/metrics", server.Addr()))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "vector_topology_reloads_total 1"))
}

func TestServer_DoubleStartFails(t *testing.T) {
	registry := NewMetricsRegistry()
	server := NewServer(0, "", registry)
	server.port = 0

	require.NoError(t, server.Start())
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Stop(ctx)
	}()

	assert.Error(t, server.Start())
}
