package resolver

import (
	"context"
	"fmt"

	"github.com/specialistvlad/pipegraph/internal/command"
	"github.com/specialistvlad/pipegraph/internal/ctxlog"
	"github.com/specialistvlad/pipegraph/internal/dag"
	"github.com/specialistvlad/pipegraph/internal/fieldpath"
	"github.com/specialistvlad/pipegraph/internal/model"
	"github.com/specialistvlad/pipegraph/internal/schema"
	"go.uber.org/multierr"
)

// InputResolution is the resolution of one job input.
type InputResolution struct {
	Name       string
	Resolution Resolution
}

// JobPlan describes one job at a point in time.
type JobPlan struct {
	JobID string
	State State
	// Inputs lists bound inputs in declaration order, followed by unbound
	// component inputs that have a default.
	Inputs []InputResolution
	// Waiting lists the outputs the job still needs, without duplicates.
	Waiting []DeferredEdge
	// Command is the rendered command line once the job is ready and its
	// component declares a command. Output placeholders are left in place
	// for the orchestrator to fill.
	Command string
}

// Readiness resolves every input of a job and computes its state. Jobs the
// orchestrator already moved past Ready keep their recorded state;
// otherwise a job is Ready when nothing is deferred and Pending if not.
func Readiness(job *model.JobNode, c *Context) (JobPlan, error) {
	plan := JobPlan{JobID: job.ID}
	seen := make(map[DeferredEdge]bool)

	var errs error
	for _, name := range job.InputOrder {
		res, err := Resolve(job.Inputs[name], c)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", fieldpath.Job(job.ID).Child("inputs", name), err))
			continue
		}
		if _, ok := job.Inputs[name].(model.ParentInputRef); ok && res.Kind == Resolved {
			if res.Value, err = checkPort(job, name, res.Value); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
		}
		plan.Inputs = append(plan.Inputs, InputResolution{Name: name, Resolution: res})
		if res.Kind == Deferred && !seen[res.Edge] {
			seen[res.Edge] = true
			plan.Waiting = append(plan.Waiting, res.Edge)
		}
	}
	if job.Spec != nil {
		for _, name := range job.Spec.InputOrder {
			if _, bound := job.Inputs[name]; bound {
				continue
			}
			if port := job.Spec.Inputs[name]; port.Default != nil {
				plan.Inputs = append(plan.Inputs, InputResolution{Name: name, Resolution: Resolution{Kind: Resolved, Value: *port.Default}})
			}
		}
	}
	if errs != nil {
		return JobPlan{}, errs
	}

	switch recorded := c.State(job.ID); {
	case recorded > Ready:
		plan.State = recorded
	case len(plan.Waiting) == 0:
		plan.State = Ready
	default:
		plan.State = Pending
	}

	if plan.State == Ready && job.Spec != nil && job.Spec.Command != "" {
		cmd, err := renderCommand(job, plan.Inputs)
		if err != nil {
			return JobPlan{}, fmt.Errorf("%s: %w", fieldpath.Job(job.ID), err)
		}
		plan.Command = cmd
	}
	return plan, nil
}

// checkPort coerces a pipeline input value to the component port it feeds.
// Values supplied at plan time are only checked against the pipeline
// input's declaration, so the port's type and enum are enforced here.
func checkPort(job *model.JobNode, name string, v model.Value) (model.Value, error) {
	if job.Spec == nil {
		return v, nil
	}
	port, ok := job.Spec.Inputs[name]
	if !ok {
		return v, nil
	}
	loc := model.Location{Path: fieldpath.Job(job.ID).Child("inputs", name)}
	out, err := schema.Coerce(v.Val, v.Type, port.Type, port.Enum, loc)
	if err != nil {
		return model.Value{}, err
	}
	out.Mode = v.Mode
	return out, nil
}

func renderCommand(job *model.JobNode, inputs []InputResolution) (string, error) {
	tmpl, err := command.Parse(job.Spec.Command)
	if err != nil {
		return "", err
	}
	values := command.Values{
		Inputs:  make(map[string]string, len(inputs)),
		Outputs: make(map[string]string, len(job.Spec.Outputs)),
	}
	for _, in := range inputs {
		if in.Resolution.Kind == Resolved && !in.Resolution.Value.IsNull() {
			values.Inputs[in.Name] = in.Resolution.Value.String()
		}
	}
	for name := range job.Spec.Outputs {
		values.Outputs[name] = command.Placeholder{Kind: command.Output, Name: name}.String()
	}
	return tmpl.Render(values)
}

// Plan returns every job of the pipeline in topological order with its
// input resolutions and state. It fails as a whole when any binding cannot
// be resolved.
func Plan(ctx context.Context, g *dag.Graph, c *Context) ([]JobPlan, error) {
	logger := ctxlog.FromContext(ctx)

	order, err := g.Order()
	if err != nil {
		return nil, err
	}

	plans := make([]JobPlan, 0, len(order))
	var errs error
	for _, id := range order {
		job, ok := c.Pipeline.Job(id)
		if !ok {
			return nil, fmt.Errorf("graph node %q is not a job of pipeline %q", id, c.Pipeline.Name)
		}
		p, err := Readiness(job, c)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		logger.Debug("Plan: job resolved.", "job", id, "state", p.State, "waiting", len(p.Waiting))
		plans = append(plans, p)
	}
	if errs != nil {
		return nil, errs
	}
	return plans, nil
}
