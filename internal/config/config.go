// Package config loads layerq configuration from YAML or CUE files.
//
// A configuration names the SQLite catalog, the filter-entity file, the
// generator's column walk and weights, and the faction → alliance table.
// Zero fields take the defaults of Default.
package config

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/layerq/internal/layer"
	"github.com/roach88/layerq/internal/query"
	"github.com/roach88/layerq/internal/sampling"
	"github.com/roach88/layerq/internal/store"
)

// Config is the full layerq configuration.
type Config struct {
	Catalog   CatalogConfig   `json:"catalog" yaml:"catalog"`
	Filters   FiltersConfig   `json:"filters" yaml:"filters"`
	Generator GeneratorConfig `json:"generator" yaml:"generator"`

	// Alliances maps faction → alliance. Replaces the built-in table.
	Alliances map[string]string `json:"alliances,omitempty" yaml:"alliances,omitempty"`

	// GroupByColumns are the columns reported by the components command.
	GroupByColumns []string `json:"group_by_columns,omitempty" yaml:"group_by_columns,omitempty" validate:"dive,column"`

	// SearchLimit caps id search results.
	SearchLimit int `json:"search_limit,omitempty" yaml:"search_limit,omitempty" validate:"gte=0"`
}

// CatalogConfig locates the SQLite catalog.
type CatalogConfig struct {
	Path string `json:"path" yaml:"path" validate:"required"`
}

// FiltersConfig locates the filter-entity file. Empty means none.
type FiltersConfig struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// GeneratorConfig tunes procedural generation.
type GeneratorConfig struct {
	ColumnOrder       []string                      `json:"column_order,omitempty" yaml:"column_order,omitempty" validate:"dive,column"`
	Weights           map[string]map[string]float64 `json:"weights,omitempty" yaml:"weights,omitempty"`
	LowCardinalityMax int                           `json:"low_cardinality_max,omitempty" yaml:"low_cardinality_max,omitempty" validate:"gte=0"`
}

// DefaultCatalogPath is the catalog used when none is configured.
const DefaultCatalogPath = "layerq.db"

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{Path: DefaultCatalogPath},
		Generator: GeneratorConfig{
			ColumnOrder:       slices.Clone(query.DefaultColumnOrder),
			Weights:           map[string]map[string]float64{},
			LowCardinalityMax: query.DefaultLowCardinalityMax,
		},
		Alliances:      maps.Clone(layer.DefaultAlliances),
		GroupByColumns: slices.Clone(query.DefaultGroupByColumns),
		SearchLimit:    query.DefaultSearchLimit,
	}
}

// applyDefaults fills zero fields from Default.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Catalog.Path == "" {
		c.Catalog.Path = d.Catalog.Path
	}
	if len(c.Generator.ColumnOrder) == 0 {
		c.Generator.ColumnOrder = d.Generator.ColumnOrder
	}
	if c.Generator.Weights == nil {
		c.Generator.Weights = d.Generator.Weights
	}
	if c.Generator.LowCardinalityMax == 0 {
		c.Generator.LowCardinalityMax = d.Generator.LowCardinalityMax
	}
	if len(c.Alliances) == 0 {
		c.Alliances = d.Alliances
	}
	if len(c.GroupByColumns) == 0 {
		c.GroupByColumns = d.GroupByColumns
	}
	if c.SearchLimit == 0 {
		c.SearchLimit = d.SearchLimit
	}
}

// resolvePaths makes relative paths relative to the config file's directory.
func (c *Config) resolvePaths(dir string) {
	if c.Catalog.Path != "" && c.Catalog.Path != store.MemoryPath && !filepath.IsAbs(c.Catalog.Path) {
		c.Catalog.Path = filepath.Join(dir, c.Catalog.Path)
	}
	if c.Filters.Path != "" && !filepath.IsAbs(c.Filters.Path) {
		c.Filters.Path = filepath.Join(dir, c.Filters.Path)
	}
}

// Validate checks that every configured column exists and every number
// is in range. It reports all problems at once, struct-tag rules first.
func (c *Config) Validate() error {
	var problems []string
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate config: %w", err)
		}
		for _, fe := range fieldErrs {
			problems = append(problems, describe(fe))
		}
	}

	for _, col := range slices.Sorted(maps.Keys(c.Generator.Weights)) {
		if !layer.IsStored(col) {
			problems = append(problems, fmt.Sprintf("generator.weights: unknown column %q", col))
			continue
		}
		for _, value := range slices.Sorted(maps.Keys(c.Generator.Weights[col])) {
			if w := c.Generator.Weights[col][value]; w < 0 {
				problems = append(problems, fmt.Sprintf("generator.weights.%s.%s: negative weight %g", col, value, w))
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ValidationError lists every problem found by Validate.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid config: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid config: %d problems, first: %s", len(e.Problems), e.Problems[0])
}

// EngineOptions converts the configuration into query.Engine options.
func (c *Config) EngineOptions() []query.Option {
	return []query.Option{
		query.WithAlliances(layer.Alliances(c.Alliances)),
		query.WithColumnOrder(c.Generator.ColumnOrder),
		query.WithWeights(sampling.Weights(c.Generator.Weights)),
		query.WithLowCardinalityMax(c.Generator.LowCardinalityMax),
		query.WithGroupByColumns(c.GroupByColumns),
		query.WithSearchLimit(c.SearchLimit),
	}
}
