package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/layerq/internal/config"
	"github.com/roach88/layerq/internal/layer"
	"github.com/roach88/layerq/internal/query"
	"github.com/roach88/layerq/internal/store"
)

// env is everything a command needs: configuration, the open catalog
// and an engine over it.
type env struct {
	cfg       *config.Config
	store     *store.Store
	engine    *query.Engine
	formatter *OutputFormatter
	logger    *slog.Logger
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// newLogger writes text logs to stderr, at debug level under --verbose.
func newLogger(opts *RootOptions, cmd *cobra.Command) *slog.Logger {
	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	return slog.New(handler)
}

// loadConfig reads --config and applies --db.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, err
	}
	if opts.Database != "" {
		cfg.Catalog.Path = opts.Database
	}
	return cfg, nil
}

// openEnv loads configuration, opens the catalog and builds the engine.
// On error the failure has already been reported through the formatter.
func openEnv(opts *RootOptions, cmd *cobra.Command) (*env, error) {
	e := &env{
		formatter: newFormatter(opts, cmd),
		logger:    newLogger(opts, cmd),
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, e.formatter.Fail(ErrCodeConfig, "failed to load config", err)
	}
	e.cfg = cfg

	engineOpts := cfg.EngineOptions()
	if cfg.Filters.Path != "" {
		table, err := config.LoadFilters(cfg.Filters.Path)
		if err != nil {
			return nil, e.formatter.Fail(ErrCodeConfig, "failed to load filters", err)
		}
		engineOpts = append(engineOpts, query.WithLookup(table))
		e.logger.Debug("filters loaded", "path", cfg.Filters.Path, "entities", len(table))
	}

	e.logger.Debug("opening catalog", "path", cfg.Catalog.Path)
	st, err := store.Open(cfg.Catalog.Path)
	if err != nil {
		return nil, e.formatter.Fail(ErrCodeCatalog, "failed to open catalog", err)
	}
	e.store = st

	engineOpts = append(engineOpts,
		query.WithHistorySource(st),
		query.WithLogger(e.logger),
	)
	e.engine = query.New(st, engineOpts...)
	return e, nil
}

func (e *env) alliances() layer.Alliances {
	return layer.Alliances(e.cfg.Alliances)
}

func (e *env) Close() {
	if e.store == nil {
		return
	}
	if err := e.store.Close(); err != nil {
		e.logger.Error("error closing catalog", "error", err)
	}
}
