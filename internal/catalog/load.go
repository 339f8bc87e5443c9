package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/specialistvlad/pipegraph/internal/ctxlog"
	"github.com/specialistvlad/pipegraph/internal/fsutil"
	"github.com/specialistvlad/pipegraph/internal/schema"
	"go.uber.org/multierr"
)

// LoadDir recursively loads every component spec under dir. Documents
// without both a name and a version, such as pipeline manifests sharing the
// directory, are skipped. Errors from all files are reported together.
func (c *Catalog) LoadDir(ctx context.Context, dir string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Catalog loading component specs...", "path", dir)

	filePaths, err := fsutil.FindFilesByExtension(dir, fsutil.YAMLExtensions...)
	if err != nil {
		logger.Error("Failed to walk components directory", "path", dir, "error", err)
		return err
	}
	if len(filePaths) == 0 {
		logger.Warn("No component spec files found in path", "path", dir)
		return nil
	}

	var errs error
	for _, filePath := range filePaths {
		loaded, err := c.loadFile(filePath)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("component spec %s: %w", filePath, err))
			continue
		}
		if !loaded {
			logger.Debug("Skipping file without component name and version", "file", filePath)
			continue
		}
		logger.Debug("Loaded component spec", "file", filePath)
	}
	if errs != nil {
		return errs
	}

	logger.Info("Catalog loaded successfully.", "component_versions_loaded", c.Len())
	return nil
}

func (c *Catalog) loadFile(path string) (bool, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	root, err := schema.Parse(src)
	if err != nil {
		return false, err
	}
	name, hasName := schema.Lookup(root, "name")
	version, hasVersion := schema.Lookup(root, "version")
	if !hasName || !hasVersion || name.Value == "" || version.Value == "" {
		return false, nil
	}

	spec, err := DecodeComponent(root, path)
	if err != nil {
		return false, err
	}
	return true, c.Add(spec)
}
