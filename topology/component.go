// Package topology contains the component model for a running pipeline:
// the three stage kinds (source, transform, sink), point-in-time snapshots
// of the configured stage set, and the change events emitted when the
// effective topology is reloaded.
package topology

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/slashxD/vector/errors"
)

// Kind represents the role of a pipeline stage
type Kind string

// Stage kind constants
const (
	KindSource    Kind = "source"
	KindTransform Kind = "transform"
	KindSink      Kind = "sink"
)

// Valid reports whether k is one of the three stage kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSource, KindTransform, KindSink:
		return true
	default:
		return false
	}
}

// Component is the capability common to all pipeline stages. A component is
// opaque metadata: a globally-unique name, a kind-specific type tag, and the
// stage's declared topology (inputs for transforms/sinks, output type for
// sources). Concrete variants are Source, Transform and Sink.
type Component interface {
	// ComponentName returns the stage name, unique across the whole
	// registry regardless of kind.
	ComponentName() string
	// ComponentType returns the kind-specific type tag (e.g. "stdin",
	// "json_parser", "elasticsearch").
	ComponentType() string
	// Kind returns the stage role.
	Kind() Kind
}

// Source is a stage that produces data; it declares no inputs, only the
// type of output it emits.
type Source struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	OutputType string `json:"output_type,omitempty"`
}

// ComponentName returns the source's name
func (s Source) ComponentName() string { return s.Name }

// ComponentType returns the source's type tag
func (s Source) ComponentType() string { return s.Type }

// Kind returns KindSource
func (s Source) Kind() Kind { return KindSource }

// Transform is a stage that consumes from named upstream stages and
// produces derived data.
type Transform struct {
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Inputs []string `json:"inputs,omitempty"`
}

// ComponentName returns the transform's name
func (t Transform) ComponentName() string { return t.Name }

// ComponentType returns the transform's type tag
func (t Transform) ComponentType() string { return t.Type }

// Kind returns KindTransform
func (t Transform) Kind() Kind { return KindTransform }

// Sink is a terminal stage consuming from named upstream stages.
type Sink struct {
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Inputs []string `json:"inputs,omitempty"`
}

// ComponentName returns the sink's name
func (s Sink) ComponentName() string { return s.Name }

// ComponentType returns the sink's type tag
func (s Sink) ComponentType() string { return s.Type }

// Kind returns KindSink
func (s Sink) Kind() Kind { return KindSink }

// Snapshot is an immutable point-in-time mapping of all configured
// components by name. Snapshots are produced only by whole-topology builds
// and must never be mutated entry-wise once published.
type Snapshot map[string]Component

// Components returns all components in the snapshot, ordered by name so
// repeated reads of the same snapshot observe a stable sequence.
func (s Snapshot) Components() []Component {
	result := make([]Component, 0, len(s))
	for _, c := range s {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ComponentName() < result[j].ComponentName()
	})
	return result
}

// ByKind returns the components of the given kind, ordered by name.
func (s Snapshot) ByKind(kind Kind) []Component {
	result := make([]Component, 0)
	for _, c := range s {
		if c.Kind() == kind {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ComponentName() < result[j].ComponentName()
	})
	return result
}

// componentEnvelope is the kind-discriminated wire form of a Component,
// used wherever components cross a serialization boundary (HTTP gateway,
// NATS change feed).
type componentEnvelope struct {
	Kind      Kind            `json:"kind"`
	Component json.RawMessage `json:"component"`
}

// MarshalComponent encodes a component as a kind-discriminated JSON envelope.
func MarshalComponent(c Component) ([]byte, error) {
	if c == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("component cannot be nil"),
			"Component", "MarshalComponent", "component validation")
	}

	inner, err := json.Marshal(c)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Component", "MarshalComponent", "component encoding")
	}

	return json.Marshal(componentEnvelope{Kind: c.Kind(), Component: inner})
}

// UnmarshalComponent decodes a kind-discriminated JSON envelope produced by
// MarshalComponent back into the concrete component variant.
func UnmarshalComponent(data []byte) (Component, error) {
	var envelope componentEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, errors.WrapInvalid(err, "Component", "UnmarshalComponent", "envelope decoding")
	}

	switch envelope.Kind {
	case KindSource:
		var s Source
		if err := json.Unmarshal(envelope.Component, &s); err != nil {
			return nil, errors.WrapInvalid(err, "Component", "UnmarshalComponent", "source decoding")
		}
		return s, nil
	case KindTransform:
		var t Transform
		if err := json.Unmarshal(envelope.Component, &t); err != nil {
			return nil, errors.WrapInvalid(err, "Component", "UnmarshalComponent", "transform decoding")
		}
		return t, nil
	case KindSink:
		var s Sink
		if err := json.Unmarshal(envelope.Component, &s); err != nil {
			return nil, errors.WrapInvalid(err, "Component", "UnmarshalComponent", "sink decoding")
		}
		return s, nil
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("unknown component kind %q", envelope.Kind),
			"Component", "UnmarshalComponent", "kind validation")
	}
}
