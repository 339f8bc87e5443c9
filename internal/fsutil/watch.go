package fsutil

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// UntilModified returns a context that is cancelled once any of paths is
// written, created, removed or renamed. Directories are watched for changes
// to their direct entries. The cause of the cancellation names the event.
//
// On error both returned values are nil.
func UntilModified(ctx context.Context, paths ...string) (context.Context, func(), error) {
	cctx, cancel := context.WithCancelCause(ctx)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		cancel(err)
		return nil, nil, err
	}

	for _, p := range paths {
		if err := w.Add(p); err != nil {
			w.Close()
			cancel(err)
			return nil, nil, fmt.Errorf("failed to watch %s: %w", p, err)
		}
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-cctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Op == fsnotify.Chmod {
					continue
				}
				cancel(fmt.Errorf("%s changed (%s)", event.Name, event.Op))
				return
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				cancel(err)
				return
			}
		}
	}()

	return cctx, func() { cancel(nil) }, nil
}
