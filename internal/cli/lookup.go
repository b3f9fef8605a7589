package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/layerq/internal/query"
)

// ExistsOutput is the exists command's result.
type ExistsOutput struct {
	*query.ExistsResult
}

// RenderText implements TextRenderer.
func (o ExistsOutput) RenderText(w io.Writer) {
	for _, r := range o.Results {
		fmt.Fprintf(w, "%s  %s\n", mark(r.Exists), r.ID)
	}
}

// PoolOutput is the pool command's result.
type PoolOutput struct {
	*query.PoolResult
}

// RenderText implements TextRenderer.
func (o PoolOutput) RenderText(w io.Writer) {
	for _, r := range o.Results {
		state := "in pool"
		switch {
		case !r.Exists:
			state = "not in catalog"
		case !r.MatchesFilter:
			state = "filtered out"
		}
		fmt.Fprintf(w, "%s  %s (%s)\n", mark(r.Exists && r.MatchesFilter), r.ID, state)
	}
}

// SearchOutput is the search command's result.
type SearchOutput struct {
	IDs []string `json:"ids"`
}

// RenderText implements TextRenderer.
func (o SearchOutput) RenderText(w io.Writer) {
	for _, id := range o.IDs {
		fmt.Fprintln(w, id)
	}
}

// ComponentsOutput is the components command's result.
type ComponentsOutput struct {
	Columns    []string         `json:"columns"`
	Components query.Components `json:"components"`
}

// RenderText implements TextRenderer.
func (o ComponentsOutput) RenderText(w io.Writer) {
	for _, col := range o.Columns {
		values := make([]string, len(o.Components[col]))
		for i, v := range o.Components[col] {
			values[i] = fmt.Sprint(v)
		}
		fmt.Fprintf(w, "%s: %s\n", col, strings.Join(values, ", "))
	}
}

func mark(ok bool) string {
	if ok {
		return "+"
	}
	return "-"
}

// NewExistsCommand creates the exists command.
func NewExistsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "exists <layer-id>...",
		Short:         "Check which layer ids are in the catalog",
		Example:       `  layerq exists Narva-RAAS-V1:RGF:USA Gorodok-AAS-V2:INS:BAF`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			res, err := e.engine.LayersExist(cmd.Context(), args)
			if err != nil {
				return e.formatter.Fail(ErrCodeCatalog, "exists failed", err)
			}
			return e.formatter.Success(ExistsOutput{ExistsResult: res})
		},
	}
}

// NewPoolCommand creates the pool command.
func NewPoolCommand(rootOpts *RootOptions) *cobra.Command {
	var req RequestOptions

	cmd := &cobra.Command{
		Use:   "pool <layer-id>...",
		Short: "Check which layer ids satisfy a query context",
		Long: `Report, per layer id, whether it exists in the catalog and whether it
satisfies every where-condition constraint of the query context.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			qc, err := req.context(cmd)
			if err != nil {
				return e.formatter.Fail(ErrCodeRequest, "failed to load request", err)
			}
			res, err := e.engine.LayersInPool(cmd.Context(), args, qc)
			if err != nil {
				return e.formatter.Fail(ErrCodeCatalog, "pool check failed", err)
			}
			return e.formatter.Success(PoolOutput{PoolResult: res})
		},
	}
	req.bind(cmd)
	return cmd
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "search <text>",
		Short:         "Find layer ids containing text",
		Example:       `  layerq search narva`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			ids, err := e.engine.SearchIDs(cmd.Context(), args[0])
			if err != nil {
				return e.formatter.Fail(ErrCodeCatalog, "search failed", err)
			}
			return e.formatter.Success(SearchOutput{IDs: ids})
		},
	}
}

// NewComponentsCommand creates the components command.
func NewComponentsCommand(rootOpts *RootOptions) *cobra.Command {
	var req RequestOptions

	cmd := &cobra.Command{
		Use:           "components",
		Short:         "List the distinct values of the group-by columns in a pool",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			qc, err := req.context(cmd)
			if err != nil {
				return e.formatter.Fail(ErrCodeRequest, "failed to load request", err)
			}
			components, err := e.engine.DistinctComponents(cmd.Context(), qc)
			if err != nil {
				return e.formatter.Fail(ErrCodeCatalog, "components failed", err)
			}
			return e.formatter.Success(ComponentsOutput{Columns: e.cfg.GroupByColumns, Components: components})
		},
	}
	req.bind(cmd)
	return cmd
}
