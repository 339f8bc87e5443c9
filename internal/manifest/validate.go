package manifest

import (
	"fmt"
	"sort"

	"github.com/specialistvlad/pipegraph/internal/fieldpath"
	"github.com/specialistvlad/pipegraph/internal/model"
	"github.com/specialistvlad/pipegraph/internal/schema"
)

// validateJob checks a job's bindings against the component schema and the
// rest of the manifest. It runs after every job is parsed, so references
// may point at jobs declared later in the document.
func (p *parser) validateJob(job *model.JobNode) {
	base := fieldpath.Job(job.ID)

	for _, name := range job.InputOrder {
		path := base.Child("inputs", name)
		loc := model.Location{Path: path, Line: p.lines[path.String()]}

		var port *model.Port
		if job.Spec != nil {
			var ok bool
			if port, ok = job.Spec.Input(name); !ok {
				p.schemaError(path, loc.Line, "component %s declares no input %q", job.Component, name)
				continue
			}
		}
		if b, ok := p.checkBinding(job.Inputs[name], port, loc); ok {
			job.Inputs[name] = b
		}
	}

	if job.Spec != nil {
		for _, name := range job.Spec.InputOrder {
			port := job.Spec.Inputs[name]
			if _, bound := job.Inputs[name]; bound || !port.Required() {
				continue
			}
			p.schemaError(base.Child("inputs", name), 0, "required input %q of component %s is not bound", name, job.Component)
		}
	}

	for _, name := range job.OutputOrder {
		slot := job.Outputs[name]
		path := base.Child("outputs", name)
		loc := model.Location{Path: path, Line: slot.Line}

		if job.Spec != nil {
			port, ok := job.Spec.Output(name)
			if !ok {
				p.schemaError(path, slot.Line, "component %s declares no output %q", job.Component, name)
				continue
			}
			if slot.Type == model.TypeUnknown {
				slot.Type = port.Type
			} else if slot.Type != port.Type {
				p.fail(&model.TypeMismatchError{Location: loc, Expected: port.Type.String(), Actual: slot.Type.String()})
				continue
			}
		}

		if slot.Bind == "" {
			continue
		}
		target, ok := p.outputsByName[slot.Bind]
		if !ok {
			p.fail(&model.UnknownReferenceError{Location: loc, Kind: model.RefPipelineOutput, Name: slot.Bind})
			continue
		}
		if target.Type != model.TypeUnknown && slot.Type != model.TypeUnknown && target.Type != slot.Type {
			p.fail(&model.TypeMismatchError{Location: loc, Expected: target.Type.String(), Actual: slot.Type.String()})
		}
	}
}

// checkBinding validates one input binding against its port, which is nil
// when the component schema is unknown. Literals come back converted to
// the port type.
func (p *parser) checkBinding(b model.Binding, port *model.Port, loc model.Location) (model.Binding, bool) {
	portType := model.TypeUnknown
	var enum []string
	if port != nil {
		portType = port.Type
		enum = port.Enum
	}

	switch b := b.(type) {
	case model.Literal:
		val, err := schema.Coerce(b.Value.Val, b.Value.Type, portType, enum, loc)
		if err != nil {
			p.fail(err)
			return nil, false
		}
		val.Mode = b.Value.Mode
		return model.Literal{Value: val}, true

	case model.ParentInputRef:
		in, ok := p.inputsByName[b.Name]
		if !ok {
			p.fail(&model.UnknownReferenceError{Location: loc, Kind: model.RefPipelineInput, Name: b.Name})
			return nil, false
		}
		if !inputCompatible(portType, in) {
			p.fail(&model.TypeMismatchError{
				Location: loc,
				Expected: portType.String(),
				Actual:   fmt.Sprintf("%s (pipeline input %q)", in.Type, in.Name),
			})
			return nil, false
		}
		if in.Default != nil && !in.Default.IsNull() {
			if _, err := schema.Coerce(in.Default.Val, in.Type, portType, enum, loc); err != nil {
				p.fail(err)
				return nil, false
			}
		}
		return b, true

	case model.JobOutputRef:
		producer, ok := p.jobsByID[b.JobID]
		if !ok {
			p.fail(&model.UnknownReferenceError{Location: loc, Kind: model.RefJob, Name: b.JobID})
			return nil, false
		}
		outType, declared := producer.OutputType(b.Output)
		if !declared && producer.Spec != nil {
			p.fail(&model.UnknownReferenceError{Location: loc, Kind: model.RefJobOutput, Name: b.JobID + "." + b.Output})
			return nil, false
		}
		if !portType.Accepts(outType) {
			p.fail(&model.TypeMismatchError{
				Location: loc,
				Expected: portType.String(),
				Actual:   fmt.Sprintf("%s (output %q of job %q)", outType, b.Output, b.JobID),
			})
			return nil, false
		}
		return b, true
	}
	return b, true
}

// inputCompatible reports whether a pipeline input can feed a port. Inputs
// declared in short form carry an inferred string type, which stands for a
// path when bound to an asset port.
func inputCompatible(port model.PortType, in *model.InputParameter) bool {
	if port.Accepts(in.Type) {
		return true
	}
	if in.Inferred && in.Type == model.TypeString {
		return true
	}
	return port == model.TypeString && in.Type.IsScalar()
}

// checkPipelineOutputs rejects pipeline outputs fed by more than one job
// and logs the ones nothing feeds.
func (p *parser) checkPipelineOutputs() {
	producers := make(map[string][]string)
	for _, job := range p.jobs {
		for _, name := range job.OutputOrder {
			if bind := job.Outputs[name].Bind; bind != "" {
				producers[bind] = append(producers[bind], job.ID+"."+name)
			}
		}
	}
	for _, out := range p.outputs {
		from := producers[out.Name]
		switch {
		case len(from) == 0:
			p.logger.Warn("Pipeline output is not bound by any job.", "output", out.Name)
		case len(from) > 1:
			sort.Strings(from)
			p.schemaError(fieldpath.New("outputs", out.Name), out.Line, "bound by more than one job output: %v", from)
		}
	}
}
