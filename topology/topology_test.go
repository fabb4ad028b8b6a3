package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slashxD/vector/errors"
)

func TestTopologyValidate(t *testing.T) {
	tests := []struct {
		name    string
		topo    Topology
		wantErr bool
	}{
		{
			name: "valid pipeline",
			topo: Topology{
				Sources:    map[string]SourceSpec{"in": {Type: "stdin"}},
				Transforms: map[string]TransformSpec{"parse": {Type: "json_parser", Inputs: []string{"in"}}},
				Sinks:      map[string]SinkSpec{"out": {Type: "console", Inputs: []string{"parse"}}},
			},
		},
		{
			name: "empty topology",
			topo: Topology{},
		},
		{
			name: "missing source type",
			topo: Topology{
				Sources: map[string]SourceSpec{"in": {}},
			},
			wantErr: true,
		},
		{
			name: "empty transform name",
			topo: Topology{
				Transforms: map[string]TransformSpec{"": {Type: "json_parser"}},
			},
			wantErr: true,
		},
		{
			name: "name shared between source and sink",
			topo: Topology{
				Sources: map[string]SourceSpec{"dup": {Type: "stdin"}},
				Sinks:   map[string]SinkSpec{"dup": {Type: "console"}},
			},
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.topo.Validate()
			if test.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTopologyValidate_DuplicateSentinel(t *testing.T) {
	topo := Topology{
		Transforms: map[string]TransformSpec{"dup": {Type: "json_parser"}},
		Sinks:      map[string]SinkSpec{"dup": {Type: "console"}},
	}

	err := topo.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDuplicateName)
}

func TestTopologyBuild(t *testing.T) {
	topo := Topology{
		Sources:    map[string]SourceSpec{"in": {Type: "stdin", OutputType: "log"}},
		Transforms: map[string]TransformSpec{"parse": {Type: "json_parser", Inputs: []string{"in"}}},
		Sinks:      map[string]SinkSpec{"out": {Type: "console", Inputs: []string{"parse"}}},
	}

	snapshot := topo.Build()
	require.Len(t, snapshot, 3)

	assert.Equal(t, Source{Name: "in", Type: "stdin", OutputType: "log"}, snapshot["in"])
	assert.Equal(t, Transform{Name: "parse", Type: "json_parser", Inputs: []string{"in"}}, snapshot["parse"])
	assert.Equal(t, Sink{Name: "out", Type: "console", Inputs: []string{"parse"}}, snapshot["out"])
}

func TestTopologyBuild_CopiesInputs(t *testing.T) {
	inputs := []string{"in"}
	topo := Topology{
		Sinks: map[string]SinkSpec{"out": {Type: "console", Inputs: inputs}},
	}

	snapshot := topo.Build()
	inputs[0] = "mutated"

	sink, ok := snapshot["out"].(Sink)
	require.True(t, ok)
	assert.Equal(t, []string{"in"}, sink.Inputs)
}

func TestTopologyBuild_Empty(t *testing.T) {
	assert.Empty(t, Topology{}.Build())
}
