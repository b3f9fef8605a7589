package store

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/layerq/internal/layer"
)

// SeedEntry is one layer in a catalog seed file. Only ID is required;
// the other fields carry catalog attributes the id cannot encode.
type SeedEntry struct {
	ID                  string  `yaml:"id"`
	Size                string  `yaml:"size,omitempty"`
	Scored              bool    `yaml:"scored,omitempty"`
	ZPool               bool    `yaml:"z_pool,omitempty"`
	BalanceDifferential float64 `yaml:"balance_differential,omitempty"`
	AsymmetryScore      float64 `yaml:"asymmetry_score,omitempty"`
}

// ReadSeed decodes a YAML list of SeedEntry into layers. Alliances are
// filled from the given table.
func ReadSeed(r io.Reader, alliances layer.Alliances) ([]layer.Layer, error) {
	var entries []SeedEntry
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&entries); err != nil {
		if err == io.EOF {
			return []layer.Layer{}, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	layers := make([]layer.Layer, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		l, err := layer.Parse(e.ID)
		if err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}
		if seen[l.ID] {
			return nil, fmt.Errorf("seed entry %d: duplicate layer %s", i, l.ID)
		}
		seen[l.ID] = true

		l.Size = e.Size
		l.Scored = e.Scored
		l.ZPool = e.ZPool
		l.BalanceDifferential = e.BalanceDifferential
		l.AsymmetryScore = e.AsymmetryScore
		alliances.Fill(&l)
		layers = append(layers, l)
	}
	return layers, nil
}
