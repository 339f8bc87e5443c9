package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/specialistvlad/pipegraph/internal/catalog"
	"github.com/specialistvlad/pipegraph/internal/ctxlog"
	"github.com/specialistvlad/pipegraph/internal/dag"
	"github.com/specialistvlad/pipegraph/internal/fsutil"
	"github.com/specialistvlad/pipegraph/internal/manifest"
	"github.com/specialistvlad/pipegraph/internal/model"
	"golang.org/x/sync/errgroup"
)

// ErrInvalid is returned by every operation when at least one manifest
// could not be resolved. Details are written to the output.
var ErrInvalid = errors.New("validation failed")

// App encapsulates the application's dependencies, configuration, and
// loaded component catalog.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	catalog *catalog.Catalog
	styles  styles
}

// NewApp creates a new application instance. Logs go to logW so that
// structured output on outW stays machine readable.
func NewApp(ctx context.Context, outW, logW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured.", "level", cfg.LogLevel, "format", cfg.LogFormat)

	a := &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		styles: newStyles(colorEnabled(outW, cfg.NoColor)),
	}
	if err := a.loadCatalog(ctxlog.WithLogger(ctx, logger)); err != nil {
		return nil, err
	}
	return a, nil
}

// loadCatalog (re)reads the component directory, if one is configured.
func (a *App) loadCatalog(ctx context.Context) error {
	if a.config.ComponentsPath == "" {
		a.logger.Debug("No component directory configured, port checks are skipped.")
		return nil
	}
	cat := catalog.New()
	if err := cat.LoadDir(ctx, a.config.ComponentsPath); err != nil {
		return fmt.Errorf("failed to load components: %w", err)
	}
	a.catalog = cat
	return nil
}

// manifestOptions returns the parse options shared by every manifest.
func (a *App) manifestOptions() manifest.Options {
	opts := manifest.Options{
		Strict:         a.config.Strict,
		TargetRegistry: a.config.TargetRegistry,
	}
	if a.catalog != nil {
		opts.Components = a.catalog
	}
	return opts
}

// result is the outcome of resolving one manifest.
type result struct {
	Path  string
	Def   *model.PipelineDefinition
	Graph *dag.Graph
	Err   error
}

// resolveAll resolves every configured manifest using at most WorkerCount
// goroutines. Results keep the order of the expanded paths.
func (a *App) resolveAll(ctx context.Context) ([]result, error) {
	paths, err := fsutil.ExpandPaths(a.config.ManifestPaths)
	if err != nil {
		return nil, fmt.Errorf("failed to find manifests: %w", err)
	}
	if len(paths) == 0 {
		return nil, errors.New("no manifests found")
	}
	a.logger.Debug("Resolving manifests.", "count", len(paths), "workers", a.config.WorkerCount)

	results := make([]result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.WorkerCount)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.resolve(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *App) resolve(ctx context.Context, path string) result {
	def, err := manifest.ParseFile(ctx, path, a.manifestOptions())
	if err != nil {
		return result{Path: path, Err: err}
	}
	g, err := dag.Build(ctx, def)
	if err != nil {
		return result{Path: path, Def: def, Err: err}
	}
	return result{Path: path, Def: def, Graph: g}
}

// failed counts the results carrying an error.
func failed(results []result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

func invalid(results []result) error {
	if n := failed(results); n > 0 {
		return fmt.Errorf("%w: %d of %d manifests", ErrInvalid, n, len(results))
	}
	return nil
}

func colorEnabled(w io.Writer, disabled bool) bool {
	if disabled {
		return false
	}
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
