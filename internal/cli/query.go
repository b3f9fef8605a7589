package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/layerq/internal/query"
	"github.com/roach88/layerq/internal/queryir"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	RequestOptions

	Page     int
	PageSize int
	SortBy   string
	Desc     bool
	Random   bool
}

// QueryOutput is the query command's result.
type QueryOutput struct {
	*query.QueryResult
	Page int `json:"page"`
}

// RenderText implements TextRenderer.
func (o QueryOutput) RenderText(w io.Writer) {
	for _, l := range o.Layers {
		renderLayer(w, l)
	}
	fmt.Fprintf(w, "page %d of %d, %d layers\n", o.Page+1, o.PageCount, o.TotalCount)
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "List layers matching a query context",
		Long: `List one page of catalog layers matching the constraints of a query
context. Field constraints and do-not-repeat violations are reported per
layer without filtering.

Example:
  layerq query --request pool.yaml --page-size 20 --sort Map
  layerq query --request pool.yaml --random --page-size 5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd)
		},
	}

	opts.RequestOptions.bind(cmd)
	cmd.Flags().IntVar(&opts.Page, "page", 0, "zero-based page index")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", query.DefaultPageSize, "layers per page")
	cmd.Flags().StringVar(&opts.SortBy, "sort", "", "sort column (ties break by id)")
	cmd.Flags().BoolVar(&opts.Desc, "desc", false, "sort descending")
	cmd.Flags().BoolVar(&opts.Random, "random", false, "random weighted sort (returns one page)")

	return cmd
}

func runQuery(opts *QueryOptions, cmd *cobra.Command) error {
	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	qc, err := opts.RequestOptions.context(cmd)
	if err != nil {
		return e.formatter.Fail(ErrCodeRequest, "failed to load request", err)
	}

	in := query.QueryInput{Context: qc, PageIndex: opts.Page, PageSize: opts.PageSize}
	switch {
	case opts.Random:
		in.Sort = &query.Sort{Type: query.SortRandom}
	case opts.SortBy != "":
		in.Sort = &query.Sort{Type: query.SortColumn, Column: opts.SortBy, Direction: queryir.Asc}
		if opts.Desc {
			in.Sort.Direction = queryir.Desc
		}
	}

	res, err := e.engine.QueryLayers(cmd.Context(), in)
	if err != nil {
		return e.formatter.Fail(ErrCodeCatalog, "query failed", err)
	}
	return e.formatter.Success(QueryOutput{QueryResult: res, Page: opts.Page})
}
