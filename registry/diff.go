package registry

import (
	"github.com/slashxD/vector/topology"
)

// Diff computes the exact sets of added and removed components between two
// snapshots, keyed by component name.
//
// The diff is identity-based: a name present in both snapshots is never
// reported, even when its kind, type tag or inputs changed. In-place
// definition changes therefore produce no event; only the appearance or
// disappearance of a name does. Removed components carry their full value
// from the old snapshot. Ordering within each returned slice is
// unspecified.
func Diff(old, updated topology.Snapshot) (added, removed []topology.Component) {
	for name, component := range old {
		if _, exists := updated[name]; !exists {
			removed = append(removed, component)
		}
	}

	for name, component := range updated {
		if _, exists := old[name]; !exists {
			added = append(added, component)
		}
	}

	return added, removed
}
