package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/layerq/internal/constraint"
	"github.com/roach88/layerq/internal/query"
	"github.com/roach88/layerq/internal/repeat"
)

// Load reads a configuration file, fills defaults, resolves relative
// paths against the file's directory and validates the result.
// An empty path returns Default.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}

	var cfg Config
	if err := decodeFile(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	cfg.resolvePaths(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// decodeFile decodes path into v, choosing the format by extension:
// .cue through CUE, anything else as YAML (which includes JSON).
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		err = decodeCUE(path, data, v)
	} else {
		err = decodeYAML(data, v)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// decodeYAML decodes strictly: unknown keys are errors. An empty
// document leaves v untouched.
func decodeYAML(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// decodeCUE evaluates a CUE document, requires it to be concrete and
// decodes it through its JSON field names.
func decodeCUE(path string, data []byte, v any) error {
	value := cuecontext.New().CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return err
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return value.Decode(v)
}

// FiltersFile is the on-disk shape of a filter-entity file.
type FiltersFile struct {
	Filters []constraint.EntitySpec `json:"filters" yaml:"filters"`
}

// LoadFilters reads a filter-entity file into a lookup table.
func LoadFilters(path string) (constraint.Table, error) {
	var file FiltersFile
	if err := decodeFile(path, &file); err != nil {
		return nil, err
	}
	table, err := constraint.NewTable(file.Filters)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// RequestFile is the on-disk shape of a query context: constraints,
// history and its parity.
type RequestFile struct {
	Constraints          []constraint.Spec `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	PreviousLayerItems   []repeat.Item     `json:"previous_layer_items,omitempty" yaml:"previous_layer_items,omitempty"`
	FirstLayerItemParity int               `json:"first_layer_item_parity,omitempty" yaml:"first_layer_item_parity,omitempty"`
	ApplyMatchHistory    bool              `json:"apply_match_history,omitempty" yaml:"apply_match_history,omitempty"`
}

// Context decodes the request into a query context.
func (r RequestFile) Context() (query.Context, error) {
	qc := query.Context{
		PreviousLayerItems:   r.PreviousLayerItems,
		FirstLayerItemParity: r.FirstLayerItemParity,
		ApplyMatchHistory:    r.ApplyMatchHistory,
	}
	for i, spec := range r.Constraints {
		c, err := spec.Constraint()
		if err != nil {
			return query.Context{}, fmt.Errorf("constraints[%d]: %w", i, err)
		}
		qc.Constraints = append(qc.Constraints, c)
	}
	return qc, nil
}

// LoadRequest reads a query context file. An empty path is an empty
// context.
func LoadRequest(path string) (query.Context, error) {
	if path == "" {
		return query.Context{}, nil
	}
	var file RequestFile
	if err := decodeFile(path, &file); err != nil {
		return query.Context{}, err
	}
	qc, err := file.Context()
	if err != nil {
		return query.Context{}, fmt.Errorf("%s: %w", path, err)
	}
	return qc, nil
}

// LoadHistory reads a history file: a list of items, oldest first.
func LoadHistory(path string) ([]repeat.Item, error) {
	var items []repeat.Item
	if err := decodeFile(path, &items); err != nil {
		return nil, err
	}
	return items, nil
}
