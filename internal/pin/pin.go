// Package pin rewrites the component references of a pipeline manifest to
// fully qualified registry asset IDs, so the pipeline keeps using exactly
// the component versions it was validated against.
//
// Rewriting happens on the yaml.Node tree; comments, key order and
// formatting of everything else are preserved.
package pin

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/pipegraph/internal/catalog"
	"github.com/specialistvlad/pipegraph/internal/ctxlog"
	"github.com/specialistvlad/pipegraph/internal/manifest"
	"github.com/specialistvlad/pipegraph/internal/model"
	"github.com/specialistvlad/pipegraph/internal/schema"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Options controls pinning.
type Options struct {
	// Registry is the registry components are published to. References
	// without a registry are pinned into it.
	Registry string
	// VersionSuffix is appended to every pinned version as "<version>-<suffix>".
	VersionSuffix string
}

// Change records one rewritten reference.
type Change struct {
	JobID string
	From  string
	To    string
}

// Report summarises a pinning run.
type Report struct {
	Changes []Change
	// Skipped lists jobs left untouched: inline components and components
	// missing from the catalog.
	Skipped []string
}

// Pin rewrites every job component of the manifest in src and returns the
// new document. References to registries other than the target and the
// system registry are rejected.
func Pin(ctx context.Context, src []byte, components manifest.ComponentResolver, opts Options) ([]byte, Report, error) {
	logger := ctxlog.FromContext(ctx)
	var report Report

	if opts.Registry == "" {
		return nil, report, errors.New("a target registry is required")
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, report, &model.SchemaError{Reason: err.Error()}
	}
	if len(doc.Content) == 0 {
		return nil, report, &model.SchemaError{Reason: "manifest is empty"}
	}
	jobs, ok := schema.Lookup(doc.Content[0], "jobs")
	if !ok {
		return nil, report, &model.SchemaError{Reason: "a jobs mapping is required"}
	}

	var errs error
	for _, e := range schema.Entries(jobs) {
		jobID := e.Key.Value
		comp, ok := schema.Lookup(e.Value, "component")
		if !ok || comp.Kind != yaml.ScalarNode {
			logger.Info("Component not defined by reference, leaving job as is.", "job", jobID)
			report.Skipped = append(report.Skipped, jobID)
			continue
		}

		to, err := pinRef(comp.Value, components, opts)
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			logger.Warn("Component not found in catalog, leaving reference as is.", "job", jobID, "component", comp.Value)
			report.Skipped = append(report.Skipped, jobID)
			continue
		case err != nil:
			errs = multierr.Append(errs, fmt.Errorf("job %s: %w", jobID, err))
			continue
		}

		if to != comp.Value {
			logger.Debug("Pinned component.", "job", jobID, "from", comp.Value, "to", to)
			report.Changes = append(report.Changes, Change{JobID: jobID, From: comp.Value, To: to})
			comp.Value = to
			comp.Style = 0
		}
	}
	if errs != nil {
		return nil, report, errs
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, report, err
	}
	if err := enc.Close(); err != nil {
		return nil, report, err
	}
	return buf.Bytes(), report, nil
}

func pinRef(raw string, components manifest.ComponentResolver, opts Options) (string, error) {
	ref, err := model.ParseComponentRef(raw)
	if err != nil {
		return "", err
	}
	registry := opts.Registry
	if ref.Registry != "" {
		if ref.Registry != opts.Registry && ref.Registry != model.SystemRegistry {
			return "", fmt.Errorf("component %s references registry %q; dependencies must exist in %q or %q",
				ref.Name, ref.Registry, opts.Registry, model.SystemRegistry)
		}
		registry = ref.Registry
	}

	spec, err := components.Resolve(ref)
	if err != nil {
		return "", err
	}
	version := spec.Version
	if opts.VersionSuffix != "" {
		version += "-" + opts.VersionSuffix
	}
	return model.AssetID(registry, spec.Name, version), nil
}
