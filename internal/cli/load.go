package cli

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/roach88/layerq/internal/layer"
	"github.com/roach88/layerq/internal/store"
)

// LoadOutput reports a catalog load.
type LoadOutput struct {
	Files   []string `json:"files"`
	Loaded  int      `json:"loaded"`
	Deleted int64    `json:"deleted,omitempty"`
}

func (o LoadOutput) String() string {
	from := strings.Join(o.Files, ", ")
	if len(o.Files) > 3 {
		from = fmt.Sprintf("%d files", len(o.Files))
	}
	if o.Deleted > 0 {
		return fmt.Sprintf("loaded %d layers from %s, deleted %d", o.Loaded, from, o.Deleted)
	}
	return fmt.Sprintf("loaded %d layers from %s", o.Loaded, from)
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	var remove []string

	cmd := &cobra.Command{
		Use:   "load <seed-file|glob>...",
		Short: "Load layers into the catalog",
		Long: `Load layers from YAML seed files into the SQLite catalog, creating it
if needed. Each entry names a layer id plus its catalog-only attributes;
existing layers are updated in place. Arguments may be globs, including
** for any number of directories.

Example:
  layerq load --db layers.db layers.yaml
  layerq load --db layers.db 'seeds/**/*.yaml'
  layerq load --db layers.db layers.yaml --delete Narva-RAAS-V1:RGF:USA`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(rootOpts, args, remove, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&remove, "delete", nil, "layer ids to delete after loading")

	return cmd
}

func runLoad(opts *RootOptions, patterns []string, remove []string, cmd *cobra.Command) error {
	e, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	files, err := expandSeedFiles(patterns)
	if err != nil {
		return e.formatter.Fail(ErrCodeRequest, "failed to find seed files", err)
	}

	var layers []layer.Layer
	for _, file := range files {
		read, err := readSeedFile(file, e.alliances())
		if err != nil {
			return e.formatter.Fail(ErrCodeRequest, "failed to read seed file", err)
		}
		e.formatter.VerboseLog("read %d layers from %s", len(read), file)
		layers = append(layers, read...)
	}

	out := LoadOutput{Files: files}
	if out.Loaded, err = e.store.LoadLayers(cmd.Context(), layers); err != nil {
		return e.formatter.Fail(ErrCodeCatalog, "failed to load layers", err)
	}
	if len(remove) > 0 {
		if out.Deleted, err = e.store.DeleteLayers(cmd.Context(), remove); err != nil {
			return e.formatter.Fail(ErrCodeCatalog, "failed to delete layers", err)
		}
	}
	return e.formatter.Success(out)
}

// expandSeedFiles resolves each pattern to the files it matches, in
// argument order, without duplicates. A pattern matching nothing is an
// error so a typo never loads an empty catalog silently.
func expandSeedFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%s: no such file", pattern)
		}
		for _, m := range matches {
			if !slices.Contains(files, m) {
				files = append(files, m)
			}
		}
	}
	return files, nil
}

func readSeedFile(path string, alliances layer.Alliances) ([]layer.Layer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	layers, err := store.ReadSeed(f, alliances)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return layers, nil
}
