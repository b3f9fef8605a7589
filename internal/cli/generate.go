package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/layerq/internal/query"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	RequestOptions

	Count int
	Full  bool
}

// GenerateOutput is the generate command's result.
type GenerateOutput struct {
	*query.GenerateResult
}

// RenderText implements TextRenderer.
func (o GenerateOutput) RenderText(w io.Writer) {
	for _, id := range o.IDs {
		fmt.Fprintln(w, id)
	}
	for _, l := range o.Layers {
		renderLayer(w, l)
	}
	fmt.Fprintf(w, "%d of %d candidates\n", len(o.IDs)+len(o.Layers), o.TotalCount)
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Draw weighted-random layers satisfying a query context",
		Long: `Draw up to N distinct layers satisfying the where-condition constraints
of a query context. Each draw walks the configured column order and picks
one value per column by weight.

Example:
  layerq generate -n 5 --request pool.yaml --apply-match-history
  layerq generate -n 1 --full --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, cmd)
		},
	}

	opts.RequestOptions.bind(cmd)
	cmd.Flags().IntVarP(&opts.Count, "count", "n", 1, "number of layers to draw")
	cmd.Flags().BoolVar(&opts.Full, "full", false, "return full layer records instead of ids")

	return cmd
}

func runGenerate(opts *GenerateOptions, cmd *cobra.Command) error {
	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	qc, err := opts.RequestOptions.context(cmd)
	if err != nil {
		return e.formatter.Fail(ErrCodeRequest, "failed to load request", err)
	}

	res, err := e.engine.Generate(cmd.Context(), qc, opts.Count, opts.Full)
	if err != nil {
		return e.formatter.Fail(ErrCodeCatalog, "generate failed", err)
	}
	if len(res.IDs)+len(res.Layers) < opts.Count {
		e.formatter.VerboseLog("only %d candidate layers match", res.TotalCount)
	}
	return e.formatter.Success(GenerateOutput{GenerateResult: res})
}
