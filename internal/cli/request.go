package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/layerq/internal/config"
	"github.com/roach88/layerq/internal/query"
)

// RequestOptions are the flags that build a query context.
type RequestOptions struct {
	Request      string
	History      string
	Parity       int
	ApplyHistory bool
}

func (r *RequestOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&r.Request, "request", "r", "", "query context file: constraints and history (.yaml, .json or .cue)")
	cmd.Flags().StringVar(&r.History, "history", "", "history file, oldest first (replaces the request's history)")
	cmd.Flags().IntVar(&r.Parity, "parity", 0, "parity (0 or 1) of the first history item")
	cmd.Flags().BoolVar(&r.ApplyHistory, "apply-match-history", false, "prepend recorded match history")
}

// context loads the request file and applies flag overrides.
func (r *RequestOptions) context(cmd *cobra.Command) (query.Context, error) {
	qc, err := config.LoadRequest(r.Request)
	if err != nil {
		return query.Context{}, err
	}
	if r.History != "" {
		items, err := config.LoadHistory(r.History)
		if err != nil {
			return query.Context{}, err
		}
		qc.PreviousLayerItems = items
	}
	if cmd.Flags().Changed("parity") {
		qc.FirstLayerItemParity = r.Parity
	}
	if r.ApplyHistory {
		qc.ApplyMatchHistory = true
	}
	return qc, nil
}

// renderLayer writes one result line plus its violations.
func renderLayer(w io.Writer, l query.LayerResult) {
	flags := make([]string, len(l.Constraints))
	for i, ok := range l.Constraints {
		flags[i] = "-"
		if ok {
			flags[i] = "+"
		}
	}
	if len(flags) > 0 {
		fmt.Fprintf(w, "%s  [%s]\n", l.ID, strings.Join(flags, ""))
	} else {
		fmt.Fprintln(w, l.ID)
	}
	for _, v := range l.Violations {
		fmt.Fprintf(w, "    repeats %s of %s (constraint %s)\n", v.Field, v.ReasonItem.LayerID, v.ConstraintID)
	}
}
