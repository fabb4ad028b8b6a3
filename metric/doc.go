// Package metric provides Prometheus-based metrics for the topology
// registry: reload counters, per-kind component gauges, and event bus
// delivery counters, served over a dedicated HTTP endpoint.
//
// Each MetricsRegistry owns a private prometheus.Registry, so tests and
// embedded deployments can run isolated instances without global
// registration conflicts.
package metric
