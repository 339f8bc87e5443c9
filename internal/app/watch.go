package app

import (
	"context"
	"errors"
	"time"

	"github.com/specialistvlad/pipegraph/internal/ctxlog"
	"github.com/specialistvlad/pipegraph/internal/fsutil"
)

// settleDelay lets editors finish writing before manifests are re-read.
const settleDelay = 200 * time.Millisecond

// Watch validates every manifest, then again each time a manifest or
// component file changes, until ctx is cancelled.
func (a *App) Watch(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	watched := append([]string(nil), a.config.ManifestPaths...)
	if a.config.ComponentsPath != "" {
		watched = append(watched, a.config.ComponentsPath)
	}

	for {
		if err := a.Validate(ctx); err != nil && !errors.Is(err, ErrInvalid) {
			return err
		}

		wctx, stop, err := fsutil.UntilModified(ctx, watched...)
		if err != nil {
			return err
		}
		a.logger.Info("Watching for changes.", "paths", watched)
		<-wctx.Done()
		stop()
		if ctx.Err() != nil {
			a.logger.Info("Watch stopped.")
			return nil
		}
		a.logger.Info("Change detected, revalidating.", "cause", context.Cause(wctx))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(settleDelay):
		}
		if err := a.loadCatalog(ctx); err != nil {
			a.logger.Error("Failed to reload components.", "error", err)
		}
	}
}
