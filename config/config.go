// Package config implements the configuration-reload collaborator: it
// parses topology description files and watches them for changes, handing
// the registry a validated topology on every successful (re)load. The
// registry core never sees raw configuration text.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/slashxD/vector/errors"
	"github.com/slashxD/vector/topology"
)

// Parse decodes a YAML topology document and validates it.
func Parse(data []byte) (topology.Topology, error) {
	var topo topology.Topology
	if err := yaml.Unmarshal(data, &topo); err != nil {
		return topology.Topology{}, errors.WrapInvalid(err, "Config", "Parse", "YAML decoding")
	}

	if err := topo.Validate(); err != nil {
		return topology.Topology{}, errors.Wrap(err, "Config", "Parse", "topology validation")
	}

	return topo, nil
}

// Load reads and parses the topology file at path.
func Load(path string) (topology.Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return topology.Topology{}, errors.WrapInvalid(
				errors.ErrConfigNotFound, "Config", "Load", "reading "+path)
		}
		return topology.Topology{}, errors.WrapFatal(err, "Config", "Load", "reading "+path)
	}

	return Parse(data)
}
