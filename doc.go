// Package vector provides a live component registry and change-notification
// subsystem for a running data-processing pipeline.
//
// # Architecture
//
// External observers read the current set of configured pipeline stages
// (sources, transforms, sinks) and subscribe to add/remove events whenever
// the pipeline's topology is reloaded, without restarting active
// subscriptions.
//
//	┌─────────────────────────────────────┐
//	│       Reload Collaborator           │  config loader + file watcher
//	│           (config)                  │
//	└──────────────────┬──────────────────┘
//	                   │ Update(topology)
//	┌──────────────────▼──────────────────┐
//	│            Registry                 │  versioned snapshot, name diff
//	│           (registry)                │
//	└─────────┬─────────────────┬─────────┘
//	 snapshot │                 │ Change events
//	┌─────────▼────────┐ ┌──────▼──────────┐
//	│   Query Surface  │ │    Event Bus    │  lossy fan-out, bounded
//	│     (query)      │ │   (eventbus)    │  per-subscriber buffers
//	└─────────┬────────┘ └──────┬──────────┘
//	          │                 │
//	     HTTP gateway      WebSocket streams, NATS feed
//
// The registry holds an atomically swapped snapshot so readers always see a
// complete topology and never wait on a reload. The diff between snapshots
// is identity-based, keyed by the globally-unique stage name. Fan-out is
// lossy: slow subscribers drop their oldest events instead of blocking the
// reload path.
//
// # Packages
//
//   - topology: component model, snapshots, change events
//   - registry: the snapshot owner and diff engine
//   - eventbus: bounded broadcast channel
//   - query: snapshot accessors and filtered event streams
//   - config: YAML topology loading and hot reload
//   - gateway/http: REST + WebSocket binding over the query surface
//   - natspub: NATS mirror of the change feed
//   - metric: Prometheus metrics
package vector
