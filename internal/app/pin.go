package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/specialistvlad/pipegraph/internal/ctxlog"
	"github.com/specialistvlad/pipegraph/internal/fsutil"
	"github.com/specialistvlad/pipegraph/internal/pin"
)

// Pin rewrites the component references of every manifest to fully
// qualified registry URIs. Files are rewritten in place unless DryRun is
// set, in which case the pinned documents are printed instead.
func (a *App) Pin(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	if a.catalog == nil {
		return errors.New("pinning requires a component directory")
	}
	if a.config.TargetRegistry == "" {
		return errors.New("pinning requires a target registry")
	}
	paths, err := fsutil.ExpandPaths(a.config.ManifestPaths)
	if err != nil {
		return fmt.Errorf("failed to find manifests: %w", err)
	}

	opts := pin.Options{Registry: a.config.TargetRegistry, VersionSuffix: a.config.VersionSuffix}
	var results []result
	for _, path := range paths {
		if err := a.pinFile(ctx, path, opts); err != nil {
			results = append(results, result{Path: path, Err: err})
			a.printFailure(result{Path: path, Err: err})
			continue
		}
		results = append(results, result{Path: path})
	}
	return invalid(results)
}

func (a *App) pinFile(ctx context.Context, path string, opts pin.Options) error {
	ctx = ctxlog.With(ctx, "manifest", path)
	logger := ctxlog.FromContext(ctx)

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}
	out, report, err := pin.Pin(ctx, src, a.catalog, opts)
	if err != nil {
		return err
	}

	if a.config.DryRun {
		fmt.Fprintf(a.outW, "# %s\n%s", path, out)
		return nil
	}

	fmt.Fprintf(a.outW, "%s %s\n", a.styles.ok.Sprint("pinned"), path)
	for _, c := range report.Changes {
		fmt.Fprintf(a.outW, "    %s: %s -> %s\n", c.JobID, c.From, c.To)
	}
	for _, id := range report.Skipped {
		fmt.Fprintf(a.outW, "    %s: %s\n", id, a.styles.warn.Sprint("skipped"))
	}
	if len(report.Changes) == 0 {
		logger.Info("Nothing to pin.")
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	logger.Info("Manifest pinned.", "changes", len(report.Changes))
	return nil
}
