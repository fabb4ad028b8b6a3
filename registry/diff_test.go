package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slashxD/vector/topology"
)

func names(components []topology.Component) []string {
	result := make([]string, 0, len(components))
	for _, c := range components {
		result = append(result, c.ComponentName())
	}
	return result
}

func TestDiff_Empty(t *testing.T) {
	added, removed := Diff(topology.Snapshot{}, topology.Snapshot{})
	assert.Empty(t, added)
	assert.Empty(t, removed)
}

func TestDiff_AllAdded(t *testing.T) {
	updated := topology.Snapshot{
		"in":  topology.Source{Name: "in", Type: "stdin"},
		"out": topology.Sink{Name: "out", Type: "console"},
	}

	added, removed := Diff(topology.Snapshot{}, updated)
	assert.ElementsMatch(t, []string{"in", "out"}, names(added))
	assert.Empty(t, removed)
}

func TestDiff_AllRemoved(t *testing.T) {
	old := topology.Snapshot{"in": topology.Source{Name: "in", Type: "stdin"}}

	added, removed := Diff(old, topology.Snapshot{})
	assert.Empty(t, added)
	require.Len(t, removed, 1)
	// Removed events carry the full prior component value.
	assert.Equal(t, old["in"], removed[0])
}

func TestDiff_Mixed(t *testing.T) {
	old := topology.Snapshot{
		"a": topology.Source{Name: "a", Type: "stdin"},
		"b": topology.Sink{Name: "b", Type: "console"},
	}
	updated := topology.Snapshot{
		"b": topology.Sink{Name: "b", Type: "console"},
		"c": topology.Transform{Name: "c", Type: "json_parser"},
	}

	added, removed := Diff(old, updated)
	assert.Equal(t, []string{"c"}, names(added))
	assert.Equal(t, []string{"a"}, names(removed))
}

func TestDiff_IdentityBased_ContentChangeIgnored(t *testing.T) {
	// Same name, completely different definition: the diff is keyed by
	// name only, so nothing is reported.
	old := topology.Snapshot{"x": topology.Source{Name: "x", Type: "stdin"}}
	updated := topology.Snapshot{"x": topology.Sink{Name: "x", Type: "console", Inputs: []string{"y"}}}

	added, removed := Diff(old, updated)
	assert.Empty(t, added)
	assert.Empty(t, removed)
}

func TestDiff_EachNameAppearsOnce(t *testing.T) {
	old := topology.Snapshot{
		"keep": topology.Source{Name: "keep", Type: "stdin"},
		"go1":  topology.Sink{Name: "go1", Type: "console"},
		"go2":  topology.Sink{Name: "go2", Type: "console"},
	}
	updated := topology.Snapshot{
		"keep": topology.Source{Name: "keep", Type: "stdin"},
		"new1": topology.Transform{Name: "new1", Type: "json_parser"},
	}

	added, removed := Diff(old, updated)
	assert.ElementsMatch(t, []string{"new1"}, names(added))
	assert.ElementsMatch(t, []string{"go1", "go2"}, names(removed))
}
