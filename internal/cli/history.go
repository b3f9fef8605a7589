package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/layerq/internal/query"
	"github.com/roach88/layerq/internal/repeat"
)

// HistoryOutput lists recorded match history, oldest first.
type HistoryOutput struct {
	Items []repeat.Item `json:"items"`
}

// RenderText implements TextRenderer.
func (o HistoryOutput) RenderText(w io.Writer) {
	for _, item := range o.Items {
		if item.IsVote() {
			fmt.Fprintf(w, "%s  vote:", item.ItemID)
			for _, c := range item.Choices {
				fmt.Fprintf(w, " %s", c.LayerID)
			}
			fmt.Fprintln(w)
			continue
		}
		fmt.Fprintf(w, "%s  %s\n", item.ItemID, item.LayerID)
	}
}

// NewHistoryCommand creates the history command group.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Record and list match history",
		Long: `Record played layers in the catalog database. Queries and generation
prepend the recorded history when --apply-match-history is set.`,
	}
	cmd.AddCommand(newHistoryAddCommand(rootOpts))
	cmd.AddCommand(newHistoryListCommand(rootOpts))
	return cmd
}

func newHistoryAddCommand(rootOpts *RootOptions) *cobra.Command {
	var itemID string

	cmd := &cobra.Command{
		Use:   "add <layer-id>",
		Short: "Record a played layer",
		Long: `Record a played layer as the newest history item. Recording the same
item id twice is a no-op.

Example:
  layerq history add Narva-RAAS-V1:RGF:USA --item-id match-1042`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if itemID == "" {
				itemID = query.UUIDv7Generator{}.Generate()
			}
			item := repeat.Item{ItemID: itemID, LayerID: args[0]}
			seq, err := e.store.AppendHistory(cmd.Context(), item)
			if err != nil {
				return e.formatter.Fail(ErrCodeCatalog, "failed to record history", err)
			}
			e.logger.Debug("history recorded", "item", itemID, "seq", seq)
			return e.formatter.Success(HistoryOutput{Items: []repeat.Item{item}})
		},
	}

	cmd.Flags().StringVar(&itemID, "item-id", "", "history item id (default: a new UUIDv7)")

	return cmd
}

func newHistoryListCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List recorded match history, oldest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			items, err := e.store.RecentHistory(cmd.Context(), limit)
			if err != nil {
				return e.formatter.Fail(ErrCodeCatalog, "failed to read history", err)
			}
			return e.formatter.Success(HistoryOutput{Items: items})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "most recent items to list (0 = all)")

	return cmd
}
