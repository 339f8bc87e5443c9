package resolver

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/pipegraph/internal/fieldpath"
	"github.com/specialistvlad/pipegraph/internal/model"
	"github.com/specialistvlad/pipegraph/internal/schema"
)

// ErrMissingValue is returned when a required pipeline input has neither a
// supplied value nor a default.
var ErrMissingValue = errors.New("no value supplied")

// Context is what the orchestrator knows at a point in time.
type Context struct {
	Pipeline *model.PipelineDefinition
	// Inputs holds values supplied for pipeline inputs; defaults fill the
	// rest.
	Inputs map[string]model.Value
	// States holds the state of each job; missing jobs are Pending.
	States map[string]State
	// Outputs holds the outputs reported by completed jobs.
	Outputs map[string]map[string]model.Value
}

// State returns the recorded state of a job.
func (c *Context) State(jobID string) State {
	if c.States == nil {
		return Pending
	}
	return c.States[jobID]
}

// Kind tells which field of a Resolution is meaningful.
type Kind int

const (
	// Resolved means Value holds the input's concrete value.
	Resolved Kind = iota
	// Deferred means the value will come from Edge once its producer completes.
	Deferred
	// Absent means an optional input has no value and is left out.
	Absent
)

func (k Kind) String() string {
	switch k {
	case Resolved:
		return "resolved"
	case Deferred:
		return "deferred"
	case Absent:
		return "absent"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// DeferredEdge is a dependency on a job output that is not available yet.
type DeferredEdge struct {
	JobID  string
	Output string
}

func (e DeferredEdge) String() string {
	return e.JobID + "." + e.Output
}

// Resolution is the outcome of resolving one binding.
type Resolution struct {
	Kind  Kind
	Value model.Value
	Edge  DeferredEdge
}

func (r Resolution) String() string {
	switch r.Kind {
	case Resolved:
		return r.Value.String()
	case Deferred:
		return "<waiting on " + r.Edge.String() + ">"
	default:
		return "<absent>"
	}
}

// Resolve resolves a binding against the context. Pipeline inputs resolve
// immediately from supplied values or defaults; job outputs only once the
// producing job is Completed and has reported the output.
func Resolve(b model.Binding, c *Context) (Resolution, error) {
	switch b := b.(type) {
	case model.Literal:
		return Resolution{Kind: Resolved, Value: b.Value}, nil

	case model.ParentInputRef:
		in, ok := c.Pipeline.Input(b.Name)
		if !ok {
			return Resolution{}, &model.UnknownReferenceError{
				Location: model.Location{Path: inputPath(b.Name)},
				Kind:     model.RefPipelineInput,
				Name:     b.Name,
			}
		}
		if v, ok := c.Inputs[b.Name]; ok && !v.IsNull() {
			val, err := schema.Coerce(v.Val, v.Type, in.Type, in.Enum, model.Location{Path: inputPath(b.Name), Line: in.Line})
			if err != nil {
				return Resolution{}, err
			}
			val.Mode = v.Mode
			return Resolution{Kind: Resolved, Value: val}, nil
		}
		if in.Default != nil && !in.Default.IsNull() {
			return Resolution{Kind: Resolved, Value: *in.Default}, nil
		}
		if in.Optional {
			return Resolution{Kind: Absent}, nil
		}
		return Resolution{}, fmt.Errorf("pipeline input %q: %w", b.Name, ErrMissingValue)

	case model.JobOutputRef:
		if _, ok := c.Pipeline.Job(b.JobID); !ok {
			return Resolution{}, &model.UnknownReferenceError{Kind: model.RefJob, Name: b.JobID}
		}
		edge := DeferredEdge{JobID: b.JobID, Output: b.Output}
		if c.State(b.JobID) != Completed {
			return Resolution{Kind: Deferred, Edge: edge}, nil
		}
		v, ok := c.Outputs[b.JobID][b.Output]
		if !ok {
			return Resolution{}, fmt.Errorf("job %q completed without reporting output %q", b.JobID, b.Output)
		}
		return Resolution{Kind: Resolved, Value: v}, nil
	}
	return Resolution{}, fmt.Errorf("unsupported binding %T", b)
}

func inputPath(name string) fieldpath.Path {
	return fieldpath.New("inputs", name)
}
