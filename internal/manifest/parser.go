package manifest

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/specialistvlad/pipegraph/internal/catalog"
	"github.com/specialistvlad/pipegraph/internal/fieldpath"
	"github.com/specialistvlad/pipegraph/internal/model"
	"github.com/specialistvlad/pipegraph/internal/refexpr"
	"github.com/specialistvlad/pipegraph/internal/schema"
	"github.com/zclconf/go-cty/cty"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

var jobIDRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// inlineComponent is the Raw value of references to components declared
// inside the job itself.
const inlineComponent = "<inline>"

type parser struct {
	logger *slog.Logger
	opts   Options
	errs   error

	inputs  []*model.InputParameter
	outputs []*model.OutputSlot
	jobs    []*model.JobNode

	inputsByName  map[string]*model.InputParameter
	outputsByName map[string]*model.OutputSlot
	jobsByID      map[string]*model.JobNode
	// lines records where each binding was written, for later checks.
	lines map[string]int
}

func (p *parser) fail(err error) {
	p.errs = multierr.Append(p.errs, err)
}

func (p *parser) schemaError(path fieldpath.Path, line int, format string, args ...any) {
	p.fail(&model.SchemaError{Location: model.Location{Path: path, Line: line}, Reason: fmt.Sprintf(format, args...)})
}

func (p *parser) parse(root *yaml.Node) *model.PipelineDefinition {
	p.inputsByName = make(map[string]*model.InputParameter)
	p.outputsByName = make(map[string]*model.OutputSlot)
	p.jobsByID = make(map[string]*model.JobNode)
	p.lines = make(map[string]int)

	var doc schema.PipelineDoc
	if err := schema.Decode(root, &doc); err != nil {
		p.schemaError(fieldpath.Path{}, root.Line, "%s", err)
		return nil
	}
	if doc.Type != "" && doc.Type != "pipeline" {
		p.schemaError(fieldpath.New("type"), root.Line, "expected type pipeline, got %q", doc.Type)
	}

	p.parseInputs(&doc.Inputs)
	p.parseOutputs(&doc.Outputs)

	defaultCompute := ""
	if doc.Settings != nil {
		defaultCompute = doc.Settings.DefaultCompute
	}
	jobsNode, _ := schema.Lookup(root, "jobs")
	p.parseJobs(jobsNode, defaultCompute)

	for _, job := range p.jobs {
		p.validateJob(job)
	}
	p.checkPipelineOutputs()

	def := model.NewPipelineDefinition(doc.Name, p.inputs, p.outputs, p.jobs)
	def.DisplayName = doc.DisplayName
	def.Source = p.opts.Source
	return def
}

// mappingEntries returns the pairs of an optional mapping section and
// reports a schema error when the section has another shape or repeats a
// key. Only the first occurrence of a repeated key is returned.
func (p *parser) mappingEntries(n *yaml.Node, path fieldpath.Path) []schema.Entry {
	if schema.IsAbsent(n) {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		p.schemaError(path, n.Line, "expected a mapping, got %s", schema.KindName(n))
		return nil
	}
	seen := make(map[string]int)
	var out []schema.Entry
	for _, e := range schema.Entries(n) {
		if first, ok := seen[e.Key.Value]; ok {
			p.schemaError(path.Child(e.Key.Value), e.Key.Line, "%q is already declared on line %d", e.Key.Value, first)
			continue
		}
		seen[e.Key.Value] = e.Key.Line
		out = append(out, e)
	}
	return out
}

func (p *parser) parseInputs(n *yaml.Node) {
	base := fieldpath.New("inputs")
	for _, e := range p.mappingEntries(n, base) {
		path := base.Child(e.Key.Value)
		in := &model.InputParameter{Name: e.Key.Value, Line: e.Key.Line}

		switch {
		case schema.IsAbsent(e.Value):
		case e.Value.Kind == yaml.ScalarNode:
			if refexpr.Contains(e.Value.Value) {
				p.schemaError(path, e.Value.Line, "pipeline inputs cannot hold references")
				continue
			}
			raw, typ, err := schema.Literal(e.Value)
			if err != nil {
				p.schemaError(path, e.Value.Line, "%s", err)
				continue
			}
			in.Type = typ
			in.Inferred = true
			in.Default = &model.Value{Type: typ, Val: raw}
		case e.Value.Kind == yaml.MappingNode:
			if !p.decodeInputParameter(in, e.Value, path) {
				continue
			}
		default:
			p.schemaError(path, e.Value.Line, "expected a literal or a mapping, got %s", schema.KindName(e.Value))
			continue
		}

		p.inputs = append(p.inputs, in)
		p.inputsByName[in.Name] = in
	}
}

func (p *parser) decodeInputParameter(in *model.InputParameter, n *yaml.Node, path fieldpath.Path) bool {
	var doc schema.PortDoc
	if err := schema.Decode(n, &doc); err != nil {
		p.schemaError(path, n.Line, "%s", err)
		return false
	}
	in.Optional = doc.Optional
	in.Enum = doc.Enum
	in.Description = doc.Description

	valueNode := &doc.Default
	if schema.IsAbsent(valueNode) {
		valueNode = &doc.Value
	}
	raw, rawType, err := schema.Literal(valueNode)
	if err != nil {
		p.schemaError(path.Child("default"), valueNode.Line, "%s", err)
		return false
	}
	if doc.Path != "" && raw.IsNull() {
		raw, rawType = cty.StringVal(doc.Path), model.TypeString
	}

	switch {
	case doc.Type != "":
		typ, err := model.ParsePortType(doc.Type)
		if err != nil {
			p.schemaError(path.Child("type"), n.Line, "%s", err)
			return false
		}
		in.Type = typ
	case doc.Path != "":
		in.Type = model.TypeFolder
	default:
		in.Type = rawType
		in.Inferred = true
	}

	if raw.IsNull() {
		return true
	}
	val, err := schema.Coerce(raw, rawType, in.Type, in.Enum, model.Location{Path: path.Child("default"), Line: valueNode.Line})
	if err != nil {
		p.fail(err)
		return false
	}
	val.Mode = doc.Mode
	in.Default = &val
	return true
}

func (p *parser) parseOutputs(n *yaml.Node) {
	base := fieldpath.New("outputs")
	for _, e := range p.mappingEntries(n, base) {
		path := base.Child(e.Key.Value)
		out := &model.OutputSlot{Name: e.Key.Value, Line: e.Key.Line}

		switch {
		case schema.IsAbsent(e.Value):
		case e.Value.Kind == yaml.MappingNode:
			var doc schema.PortDoc
			if err := schema.Decode(e.Value, &doc); err != nil {
				p.schemaError(path, e.Value.Line, "%s", err)
				continue
			}
			if doc.Type != "" {
				typ, err := model.ParsePortType(doc.Type)
				if err != nil {
					p.schemaError(path.Child("type"), e.Value.Line, "%s", err)
					continue
				}
				out.Type = typ
			}
			out.Mode = doc.Mode
		default:
			p.schemaError(path, e.Value.Line, "expected a mapping, got %s", schema.KindName(e.Value))
			continue
		}

		p.outputs = append(p.outputs, out)
		p.outputsByName[out.Name] = out
	}
}

func (p *parser) parseJobs(n *yaml.Node, defaultCompute string) {
	base := fieldpath.New("jobs")
	if schema.IsAbsent(n) {
		p.schemaError(base, 0, "a jobs mapping is required")
		return
	}
	if n.Kind != yaml.MappingNode {
		p.schemaError(base, n.Line, "expected a mapping, got %s", schema.KindName(n))
		return
	}
	entries := schema.Entries(n)
	if len(entries) == 0 {
		p.schemaError(base, n.Line, "at least one job is required")
		return
	}

	lines := make(map[string][]int)
	for _, e := range entries {
		lines[e.Key.Value] = append(lines[e.Key.Value], e.Key.Line)
	}

	for _, e := range entries {
		id := e.Key.Value
		path := fieldpath.Job(id)
		if l := lines[id]; len(l) > 1 {
			if l[0] != e.Key.Line {
				continue
			}
			p.fail(&model.DuplicateJobIdError{Location: model.Location{Path: path, Line: l[1]}, ID: id, Lines: l})
		}
		if !jobIDRegex.MatchString(id) {
			p.schemaError(path, e.Key.Line, "invalid job id %q: must start with a letter or underscore and contain only letters, digits, '_' and '-'", id)
			continue
		}
		job := p.parseJob(id, e.Value, path, defaultCompute)
		if job == nil {
			continue
		}
		p.jobs = append(p.jobs, job)
		p.jobsByID[id] = job
	}
}

func (p *parser) parseJob(id string, n *yaml.Node, path fieldpath.Path, defaultCompute string) *model.JobNode {
	if n.Kind != yaml.MappingNode {
		p.schemaError(path, n.Line, "job must be a mapping, got %s", schema.KindName(n))
		return nil
	}
	var doc schema.JobDoc
	if err := schema.Decode(n, &doc); err != nil {
		p.schemaError(path, n.Line, "%s", err)
		return nil
	}

	job := &model.JobNode{
		ID:      id,
		Type:    doc.Type,
		Inputs:  make(map[string]model.Binding),
		Outputs: make(map[string]*model.OutputSlot),
		Resources: model.Resources{
			Compute: doc.Compute,
		},
	}
	if job.Resources.Compute == "" {
		job.Resources.Compute = defaultCompute
	}
	if doc.Resources != nil {
		if doc.Resources.InstanceCount < 0 {
			p.schemaError(path.Child("resources", "instance_count"), n.Line, "instance_count must not be negative")
		}
		job.Resources.InstanceType = doc.Resources.InstanceType
		job.Resources.InstanceCount = doc.Resources.InstanceCount
	}

	if !p.parseComponent(job, &doc.Component, path.Child("component"), n.Line) {
		return nil
	}
	if job.Type == "" {
		job.Type = "command"
		if job.Spec != nil && job.Spec.Type != "" {
			job.Type = job.Spec.Type
		}
	}

	p.parseJobInputs(job, &doc.Inputs, path.Child("inputs"))
	p.parseJobOutputs(job, &doc.Outputs, path.Child("outputs"))
	return job
}

func (p *parser) parseComponent(job *model.JobNode, n *yaml.Node, path fieldpath.Path, jobLine int) bool {
	switch {
	case schema.IsAbsent(n):
		p.schemaError(path, jobLine, "component is required")
		return false
	case n.Kind == yaml.MappingNode:
		spec, err := catalog.DecodeComponent(n, p.opts.Source)
		if err != nil {
			p.schemaError(path, n.Line, "inline component: %s", err)
			return false
		}
		name := spec.Name
		if name == "" {
			name = job.ID
		}
		job.Component = model.ComponentRef{Raw: inlineComponent, Name: name, Version: spec.Version}
		job.Spec = spec
		return true
	case n.Kind != yaml.ScalarNode:
		p.schemaError(path, n.Line, "expected a component reference, got %s", schema.KindName(n))
		return false
	}

	ref, err := model.ParseComponentRef(n.Value)
	if err != nil {
		p.schemaError(path, n.Line, "%s", err)
		return false
	}
	job.Component = ref

	if ref.Registry != "" && p.opts.TargetRegistry != "" &&
		ref.Registry != p.opts.TargetRegistry && ref.Registry != model.SystemRegistry {
		p.logger.Warn("Component comes from a registry other than the target or system registry.",
			"job", job.ID, "component", ref.Raw, "registry", ref.Registry, "target", p.opts.TargetRegistry)
	}

	if p.opts.Components == nil {
		return true
	}
	spec, err := p.opts.Components.Resolve(ref)
	switch {
	case err == nil:
		job.Spec = spec
	case errors.Is(err, catalog.ErrNotFound) && !p.opts.Strict:
		p.logger.Warn("Component not found in catalog, skipping port checks.", "job", job.ID, "component", ref.Raw)
	default:
		p.schemaError(path, n.Line, "%s", err)
	}
	return true
}

func (p *parser) parseJobInputs(job *model.JobNode, n *yaml.Node, base fieldpath.Path) {
	for _, e := range p.mappingEntries(n, base) {
		path := base.Child(e.Key.Value)
		b, ok := p.parseInputBinding(e.Value, path)
		if !ok || b == nil {
			continue
		}
		job.Inputs[e.Key.Value] = b
		job.InputOrder = append(job.InputOrder, e.Key.Value)
		p.lines[path.String()] = e.Value.Line
	}
}

// parseInputBinding returns a nil binding without error for explicit nulls,
// which leave the input unbound.
func (p *parser) parseInputBinding(n *yaml.Node, path fieldpath.Path) (model.Binding, bool) {
	switch {
	case schema.IsAbsent(n):
		return nil, true
	case n.Kind == yaml.ScalarNode:
		if n.ShortTag() == "!!str" {
			b, isRef, err := refexpr.ParseInputBinding(n.Value)
			if err != nil {
				p.schemaError(path, n.Line, "%s", err)
				return nil, false
			}
			if isRef {
				return b, true
			}
		}
		raw, typ, err := schema.Literal(n)
		if err != nil {
			p.schemaError(path, n.Line, "%s", err)
			return nil, false
		}
		return model.Literal{Value: model.Value{Type: typ, Val: raw}}, true
	case n.Kind == yaml.MappingNode:
		var doc schema.PortDoc
		if err := schema.Decode(n, &doc); err != nil {
			p.schemaError(path, n.Line, "%s", err)
			return nil, false
		}
		if doc.Path != "" {
			b, isRef, err := refexpr.ParseInputBinding(doc.Path)
			if err != nil {
				p.schemaError(path.Child("path"), n.Line, "%s", err)
				return nil, false
			}
			if isRef {
				return b, true
			}
		}
		typ := model.TypeUnknown
		if doc.Type != "" {
			t, err := model.ParsePortType(doc.Type)
			if err != nil {
				p.schemaError(path.Child("type"), n.Line, "%s", err)
				return nil, false
			}
			typ = t
		}
		if doc.Path != "" {
			return model.Literal{Value: model.Value{Type: typ, Val: cty.StringVal(doc.Path), Mode: doc.Mode}}, true
		}
		raw, rawType, err := schema.Literal(&doc.Value)
		if err != nil {
			p.schemaError(path.Child("value"), n.Line, "%s", err)
			return nil, false
		}
		if typ == model.TypeUnknown {
			typ = rawType
		}
		return model.Literal{Value: model.Value{Type: typ, Val: raw, Mode: doc.Mode}}, true
	default:
		p.schemaError(path, n.Line, "expected a literal, a reference or a mapping, got %s", schema.KindName(n))
		return nil, false
	}
}

func (p *parser) parseJobOutputs(job *model.JobNode, n *yaml.Node, base fieldpath.Path) {
	for _, e := range p.mappingEntries(n, base) {
		path := base.Child(e.Key.Value)
		slot := &model.OutputSlot{Name: e.Key.Value, Line: e.Key.Line}

		switch {
		case schema.IsAbsent(e.Value):
		case e.Value.Kind == yaml.ScalarNode:
			name, err := refexpr.ParseOutputBinding(e.Value.Value)
			if err != nil {
				p.schemaError(path, e.Value.Line, "%s", err)
				continue
			}
			slot.Bind = name
		case e.Value.Kind == yaml.MappingNode:
			var doc schema.PortDoc
			if err := schema.Decode(e.Value, &doc); err != nil {
				p.schemaError(path, e.Value.Line, "%s", err)
				continue
			}
			if doc.Type != "" {
				typ, err := model.ParsePortType(doc.Type)
				if err != nil {
					p.schemaError(path.Child("type"), e.Value.Line, "%s", err)
					continue
				}
				slot.Type = typ
			}
			slot.Mode = doc.Mode
			if doc.Path != "" && refexpr.Contains(doc.Path) {
				name, err := refexpr.ParseOutputBinding(doc.Path)
				if err != nil {
					p.schemaError(path.Child("path"), e.Value.Line, "%s", err)
					continue
				}
				slot.Bind = name
			}
		default:
			p.schemaError(path, e.Value.Line, "expected a reference or a mapping, got %s", schema.KindName(e.Value))
			continue
		}

		job.Outputs[slot.Name] = slot
		job.OutputOrder = append(job.OutputOrder, slot.Name)
	}
}
