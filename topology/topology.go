package topology

import (
	"fmt"

	"github.com/slashxD/vector/errors"
)

// SourceSpec describes a configured source stage. The stage name comes from
// the map key in Topology.
type SourceSpec struct {
	Type       string `json:"type" yaml:"type"`
	OutputType string `json:"output_type,omitempty" yaml:"output_type,omitempty"`
}

// TransformSpec describes a configured transform stage.
type TransformSpec struct {
	Type   string   `json:"type" yaml:"type"`
	Inputs []string `json:"inputs,omitempty" yaml:"inputs,omitempty"`
}

// SinkSpec describes a configured sink stage.
type SinkSpec struct {
	Type   string   `json:"type" yaml:"type"`
	Inputs []string `json:"inputs,omitempty" yaml:"inputs,omitempty"`
}

// Topology is the effective pipeline description handed to the registry by
// the configuration-reload collaborator. It is a structured, already-parsed
// document; the registry never sees raw configuration text.
type Topology struct {
	Sources    map[string]SourceSpec    `json:"sources,omitempty" yaml:"sources,omitempty"`
	Transforms map[string]TransformSpec `json:"transforms,omitempty" yaml:"transforms,omitempty"`
	Sinks      map[string]SinkSpec      `json:"sinks,omitempty" yaml:"sinks,omitempty"`
}

// Validate checks the registry invariants a topology must satisfy before it
// can be installed: stage names are non-empty and unique across all three
// kinds, and every stage carries a type tag.
func (t Topology) Validate() error {
	seen := make(map[string]Kind, len(t.Sources)+len(t.Transforms)+len(t.Sinks))

	check := func(name, typeTag string, kind Kind) error {
		if name == "" {
			return errors.WrapInvalid(
				fmt.Errorf("%s with empty name", kind),
				"Topology", "Validate", "name validation")
		}
		if typeTag == "" {
			return errors.WrapInvalid(
				fmt.Errorf("%s %q has no type", kind, name),
				"Topology", "Validate", "type validation")
		}
		if prev, exists := seen[name]; exists {
			return errors.WrapInvalid(
				fmt.Errorf("name %q used by both %s and %s: %w", name, prev, kind, errors.ErrDuplicateName),
				"Topology", "Validate", "name uniqueness check")
		}
		seen[name] = kind
		return nil
	}

	for name, spec := range t.Sources {
		if err := check(name, spec.Type, KindSource); err != nil {
			return err
		}
	}
	for name, spec := range t.Transforms {
		if err := check(name, spec.Type, KindTransform); err != nil {
			return err
		}
	}
	for name, spec := range t.Sinks {
		if err := check(name, spec.Type, KindSink); err != nil {
			return err
		}
	}

	return nil
}

// Build constructs the component snapshot described by the topology.
// Input slices are copied so the snapshot does not alias the caller's
// description.
func (t Topology) Build() Snapshot {
	snapshot := make(Snapshot, len(t.Sources)+len(t.Transforms)+len(t.Sinks))

	for name, spec := range t.Sources {
		snapshot[name] = Source{
			Name:       name,
			Type:       spec.Type,
			OutputType: spec.OutputType,
		}
	}

	for name, spec := range t.Transforms {
		snapshot[name] = Transform{
			Name:   name,
			Type:   spec.Type,
			Inputs: copyInputs(spec.Inputs),
		}
	}

	for name, spec := range t.Sinks {
		snapshot[name] = Sink{
			Name:   name,
			Type:   spec.Type,
			Inputs: copyInputs(spec.Inputs),
		}
	}

	return snapshot
}

func copyInputs(inputs []string) []string {
	if len(inputs) == 0 {
		return nil
	}
	copied := make([]string, len(inputs))
	copy(copied, inputs)
	return copied
}
