package topology

import (
	"encoding/json"
	"fmt"

	"github.com/slashxD/vector/errors"
)

// ChangeOp identifies whether a component entered or left the topology.
type ChangeOp string

// Change operation constants
const (
	OpAdded   ChangeOp = "added"
	OpRemoved ChangeOp = "removed"
)

// Change is a single topology change event. It carries a full copy of the
// affected component, not just its name, so subscribers need no additional
// lookup against a snapshot that may already be gone.
type Change struct {
	Op        ChangeOp
	Component Component
}

// changeEnvelope is the wire form of a Change.
type changeEnvelope struct {
	Op        ChangeOp        `json:"op"`
	Kind      Kind            `json:"kind"`
	Component json.RawMessage `json:"component"`
}

// MarshalJSON encodes the change with a kind-discriminated component payload.
func (c Change) MarshalJSON() ([]byte, error) {
	if c.Component == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("change component cannot be nil"),
			"Change", "MarshalJSON", "component validation")
	}

	inner, err := json.Marshal(c.Component)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Change", "MarshalJSON", "component encoding")
	}

	return json.Marshal(changeEnvelope{
		Op:        c.Op,
		Kind:      c.Component.Kind(),
		Component: inner,
	})
}

// UnmarshalJSON decodes a change produced by MarshalJSON.
func (c *Change) UnmarshalJSON(data []byte) error {
	var envelope changeEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return errors.WrapInvalid(err, "Change", "UnmarshalJSON", "envelope decoding")
	}

	wrapped, err := json.Marshal(componentEnvelope{Kind: envelope.Kind, Component: envelope.Component})
	if err != nil {
		return errors.WrapInvalid(err, "Change", "UnmarshalJSON", "component re-encoding")
	}

	component, err := UnmarshalComponent(wrapped)
	if err != nil {
		return err
	}

	c.Op = envelope.Op
	c.Component = component
	return nil
}
