package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/pipegraph/internal/ctxlog"
	"github.com/specialistvlad/pipegraph/internal/model"
	"github.com/specialistvlad/pipegraph/internal/resolver"
)

type planDoc struct {
	Manifest string       `yaml:"manifest"`
	Pipeline string       `yaml:"pipeline,omitempty"`
	Jobs     []jobPlanDoc `yaml:"jobs,omitempty"`
	Errors   []string     `yaml:"errors,omitempty"`
}

type jobPlanDoc struct {
	ID      string            `yaml:"id"`
	State   string            `yaml:"state"`
	Inputs  map[string]string `yaml:"inputs,omitempty"`
	Waiting []string          `yaml:"waiting,omitempty,flow"`
	Command string            `yaml:"command,omitempty"`
}

// Plan resolves job inputs against the configured orchestrator view and
// prints the state of every job in execution order.
func (a *App) Plan(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	results, err := a.resolveAll(ctx)
	if err != nil {
		return err
	}

	docs := make([]planDoc, 0, len(results))
	for i, r := range results {
		doc := planDoc{Manifest: r.Path}
		if r.Err == nil {
			doc.Pipeline = r.Def.Name
			plans, err := resolver.Plan(ctx, r.Graph, a.resolverContext(ctx, r.Def))
			if err != nil {
				results[i].Err = err
			}
			for _, p := range plans {
				doc.Jobs = append(doc.Jobs, newJobPlanDoc(p))
			}
		}
		if results[i].Err != nil {
			doc.Errors = errorLines(results[i].Err)
		}
		docs = append(docs, doc)
	}

	if a.config.OutputFormat == FormatYAML {
		if err := a.writeYAML(docs); err != nil {
			return err
		}
		return invalid(results)
	}

	for i, doc := range docs {
		if results[i].Err != nil {
			a.printFailure(results[i])
			continue
		}
		a.printPlan(doc)
	}
	return invalid(results)
}

// resolverContext builds the orchestrator view of one pipeline from the
// configured values. Values naming undeclared inputs are ignored.
func (a *App) resolverContext(ctx context.Context, def *model.PipelineDefinition) *resolver.Context {
	logger := ctxlog.FromContext(ctx)
	c := &resolver.Context{
		Pipeline: def,
		Inputs:   make(map[string]model.Value, len(a.config.InputValues)),
		Outputs:  make(map[string]map[string]model.Value),
	}
	for name, v := range a.config.InputValues {
		if _, ok := def.Input(name); !ok {
			logger.Warn("Ignoring value for undeclared pipeline input.", "pipeline", def.Name, "input", name)
			continue
		}
		c.Inputs[name] = model.StringValue(v)
	}
	// NewConfig already rejected unknown states.
	c.States, _ = a.config.jobStates()
	for key, v := range a.config.JobOutputs {
		job, output, _ := strings.Cut(key, ".")
		if c.Outputs[job] == nil {
			c.Outputs[job] = make(map[string]model.Value)
		}
		c.Outputs[job][output] = model.StringValue(v)
	}
	return c
}

func newJobPlanDoc(p resolver.JobPlan) jobPlanDoc {
	doc := jobPlanDoc{ID: p.JobID, State: p.State.String(), Command: p.Command}
	if len(p.Inputs) > 0 {
		doc.Inputs = make(map[string]string, len(p.Inputs))
		for _, in := range p.Inputs {
			doc.Inputs[in.Name] = in.Resolution.String()
		}
	}
	for _, e := range p.Waiting {
		doc.Waiting = append(doc.Waiting, e.String())
	}
	return doc
}

func (a *App) printPlan(doc planDoc) {
	fmt.Fprintf(a.outW, "%s %s\n", a.styles.title.Sprint(doc.Manifest), a.styles.dim.Sprintf("(%s)", doc.Pipeline))
	for _, job := range doc.Jobs {
		fmt.Fprintf(a.outW, "  %s %s\n", job.ID, a.stateStyle(job.State))
		if len(job.Waiting) > 0 {
			fmt.Fprintf(a.outW, "    waiting on %s\n", strings.Join(job.Waiting, ", "))
		}
		if job.Command != "" {
			fmt.Fprintf(a.outW, "    $ %s\n", job.Command)
		}
	}
}

func (a *App) stateStyle(state string) string {
	switch state {
	case resolver.Ready.String(), resolver.Completed.String():
		return a.styles.ok.Sprint(state)
	case resolver.Failed.String():
		return a.styles.fail.Sprint(state)
	default:
		return a.styles.warn.Sprint(state)
	}
}
