package manifest

import (
	"context"
	"fmt"
	"os"

	"github.com/specialistvlad/pipegraph/internal/ctxlog"
	"github.com/specialistvlad/pipegraph/internal/model"
	"github.com/specialistvlad/pipegraph/internal/schema"
	"gopkg.in/yaml.v3"
)

// ComponentResolver looks up the schema of a referenced component.
// *catalog.Catalog satisfies it.
type ComponentResolver interface {
	Resolve(ref model.ComponentRef) (*model.ComponentSpec, error)
}

// Options controls how a manifest is parsed.
type Options struct {
	// Components resolves job component references. When nil, no component
	// schema is known and port checks are skipped.
	Components ComponentResolver
	// Strict turns unresolvable components into schema errors instead of
	// warnings.
	Strict bool
	// TargetRegistry is the registry components are expected to come from.
	// References to any other registry except the system one are logged.
	TargetRegistry string
	// Source names the document in the resulting definition.
	Source string
}

// ParseFile reads and parses the manifest at path.
func ParseFile(ctx context.Context, path string, opts Options) (*model.PipelineDefinition, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	if opts.Source == "" {
		opts.Source = path
	}
	return Parse(ctx, src, opts)
}

// Parse decodes and validates a pipeline manifest.
func Parse(ctx context.Context, src []byte, opts Options) (*model.PipelineDefinition, error) {
	logger := ctxlog.FromContext(ctx).With("manifest", opts.Source)

	root, err := schema.Parse(src)
	if err != nil {
		return nil, &model.SchemaError{Reason: err.Error()}
	}
	if root == nil {
		return nil, &model.SchemaError{Reason: "manifest is empty"}
	}
	if root.Kind != yaml.MappingNode {
		return nil, &model.SchemaError{Location: model.Location{Line: root.Line}, Reason: "manifest must be a mapping, got " + schema.KindName(root)}
	}

	p := &parser{logger: logger, opts: opts}
	def := p.parse(root)
	if p.errs != nil {
		logger.Debug("Manifest rejected.")
		return nil, p.errs
	}
	logger.Debug("Manifest parsed.", "jobs", len(def.Jobs), "inputs", len(def.Inputs), "outputs", len(def.Outputs))
	return def, nil
}
