package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/layerq/internal/config"
	"github.com/roach88/layerq/internal/constraint"
)

// FiltersCheckResult reports the static problems of a filter table.
type FiltersCheckResult struct {
	Entities int                       `json:"entities"`
	Cycles   []constraint.CycleWarning `json:"cycles,omitempty"`
	Dangling map[string][]string       `json:"dangling,omitempty"`
}

// OK reports whether the table has no problems.
func (r FiltersCheckResult) OK() bool {
	return len(r.Cycles) == 0 && len(r.Dangling) == 0
}

// RenderText implements TextRenderer.
func (r FiltersCheckResult) RenderText(w io.Writer) {
	for _, c := range r.Cycles {
		fmt.Fprintf(w, "cycle: %s\n", c.Message)
	}
	for _, id := range slices.Sorted(maps.Keys(r.Dangling)) {
		fmt.Fprintf(w, "dangling: %s references missing %s\n", id, strings.Join(r.Dangling[id], ", "))
	}
	if r.OK() {
		fmt.Fprintf(w, "%d filter entities, no problems\n", r.Entities)
	}
}

// NewFiltersCommand creates the filters command group.
func NewFiltersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filters",
		Short: "Inspect filter entities",
	}
	cmd.AddCommand(newFiltersCheckCommand(rootOpts))
	return cmd
}

func newFiltersCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report reference cycles and dangling references in a filter file",
		Long: `Statically analyze a filter-entity file. Every reference cycle is
reported once with its path; references to missing entities are listed per
entity. Exits 1 when problems are found.

Example:
  layerq filters check --file filters.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFiltersCheck(rootOpts, file, cmd)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "filter-entity file (default: filters.path from config)")

	return cmd
}

func runFiltersCheck(opts *RootOptions, file string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if file == "" {
		cfg, err := loadConfig(opts)
		if err != nil {
			return formatter.Fail(ErrCodeConfig, "failed to load config", err)
		}
		file = cfg.Filters.Path
	}
	if file == "" {
		_ = formatter.Error(ErrCodeConfig, "no filter file: pass --file or set filters.path", nil)
		return NewExitError(ExitCommandError, "no filter file")
	}

	table, err := config.LoadFilters(file)
	if err != nil {
		return formatter.Fail(ErrCodeConfig, "failed to load filters", err)
	}

	result := FiltersCheckResult{
		Entities: len(table),
		Cycles:   constraint.AnalyzeCycles(table),
		Dangling: constraint.DanglingReferences(table),
	}
	if len(result.Dangling) == 0 {
		result.Dangling = nil
	}

	switch {
	case len(result.Cycles) > 0:
		_ = formatter.Error(ErrCodeFilterCycle, fmt.Sprintf("%d reference cycle(s) in %s", len(result.Cycles), file), result)
	case len(result.Dangling) > 0:
		_ = formatter.Error(ErrCodeDangling, fmt.Sprintf("%d entity(ies) reference missing filters in %s", len(result.Dangling), file), result)
	default:
		return formatter.Success(result)
	}
	if formatter.Format != "json" {
		result.RenderText(formatter.Writer)
	}
	return NewExitError(ExitFailure, "filter table has problems")
}
