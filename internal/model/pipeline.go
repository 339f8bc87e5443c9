package model

// InputParameter is a pipeline-level input.
type InputParameter struct {
	Name        string
	Type        PortType
	Default     *Value
	Optional    bool
	Enum        []string
	Description string
	Line        int
	// Inferred is set for the short form `name: <literal>`, whose type comes
	// from the YAML scalar rather than a declaration.
	Inferred bool
}

// OutputSlot is a typed output of a job or of the pipeline. Bind names the
// pipeline output a job output is promoted to, if any.
type OutputSlot struct {
	Name string
	Type PortType
	Mode string
	Bind string
	Line int
}

// Resources describes where and how wide a job runs.
type Resources struct {
	Compute       string
	InstanceType  string
	InstanceCount int
}

// JobNode is a single step of a pipeline wrapping a component with concrete
// input bindings.
type JobNode struct {
	ID        string
	Index     int
	Type      string
	Component ComponentRef
	// Spec is the component schema, nil when the component is not known to
	// the catalog.
	Spec      *ComponentSpec
	Resources Resources

	Inputs      map[string]Binding
	InputOrder  []string
	Outputs     map[string]*OutputSlot
	OutputOrder []string
}

// Binding returns the binding of the named input.
func (j *JobNode) Binding(input string) (Binding, bool) {
	b, ok := j.Inputs[input]
	return b, ok
}

// OutputType returns the type of a job output. Job-level declarations take
// precedence over the component schema. declared is false when neither the
// job nor a known component declares the output.
func (j *JobNode) OutputType(name string) (t PortType, declared bool) {
	if slot, ok := j.Outputs[name]; ok && slot.Type != TypeUnknown {
		return slot.Type, true
	}
	if j.Spec != nil {
		if p, ok := j.Spec.Output(name); ok {
			return p.Type, true
		}
	}
	if _, ok := j.Outputs[name]; ok {
		return TypeUnknown, true
	}
	return TypeUnknown, false
}

// InputType returns the declared type of a job input port, TypeUnknown when
// the component is not known.
func (j *JobNode) InputType(name string) PortType {
	if j.Spec == nil {
		return TypeUnknown
	}
	if p, ok := j.Spec.Input(name); ok {
		return p.Type
	}
	return TypeUnknown
}

// PipelineDefinition is a validated pipeline manifest. Jobs, inputs and
// outputs keep their declaration order.
type PipelineDefinition struct {
	Name        string
	DisplayName string
	Source      string

	Inputs  []*InputParameter
	Outputs []*OutputSlot
	Jobs    []*JobNode

	inputs  map[string]*InputParameter
	outputs map[string]*OutputSlot
	jobs    map[string]*JobNode
}

// NewPipelineDefinition indexes the given declarations. Job indices are
// reassigned to match the slice order.
func NewPipelineDefinition(name string, inputs []*InputParameter, outputs []*OutputSlot, jobs []*JobNode) *PipelineDefinition {
	d := &PipelineDefinition{
		Name:    name,
		Inputs:  inputs,
		Outputs: outputs,
		Jobs:    jobs,
		inputs:  make(map[string]*InputParameter, len(inputs)),
		outputs: make(map[string]*OutputSlot, len(outputs)),
		jobs:    make(map[string]*JobNode, len(jobs)),
	}
	for _, in := range inputs {
		d.inputs[in.Name] = in
	}
	for _, out := range outputs {
		d.outputs[out.Name] = out
	}
	for i, j := range jobs {
		j.Index = i
		d.jobs[j.ID] = j
	}
	return d
}

// Input returns the pipeline input with the given name.
func (d *PipelineDefinition) Input(name string) (*InputParameter, bool) {
	in, ok := d.inputs[name]
	return in, ok
}

// Output returns the pipeline output with the given name.
func (d *PipelineDefinition) Output(name string) (*OutputSlot, bool) {
	out, ok := d.outputs[name]
	return out, ok
}

// Job returns the job with the given id.
func (d *PipelineDefinition) Job(id string) (*JobNode, bool) {
	j, ok := d.jobs[id]
	return j, ok
}

// JobIDs returns job ids in declaration order.
func (d *PipelineDefinition) JobIDs() []string {
	ids := make([]string, len(d.Jobs))
	for i, j := range d.Jobs {
		ids[i] = j.ID
	}
	return ids
}
