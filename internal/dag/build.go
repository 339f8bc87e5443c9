package dag

import (
	"context"
	"fmt"

	"github.com/specialistvlad/pipegraph/internal/ctxlog"
	"github.com/specialistvlad/pipegraph/internal/fieldpath"
	"github.com/specialistvlad/pipegraph/internal/model"
)

// Build constructs the dependency graph of a pipeline and verifies that it
// is acyclic.
func Build(ctx context.Context, def *model.PipelineDefinition) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting graph construction.", "pipeline", def.Name)
	graph := New()

	// First pass: one node per job, in declaration order.
	for _, job := range def.Jobs {
		graph.AddNode(job.ID)
	}
	logger.Debug("Build: Node creation complete.", "node_count", graph.Len())

	// Second pass: an edge for every input bound to another job's output.
	if err := linkNodes(def, graph); err != nil {
		return nil, err
	}
	logger.Debug("Build: Node linking complete.")

	if err := graph.DetectCycles(); err != nil {
		return nil, fmt.Errorf("error validating dependency graph: %w", err)
	}
	logger.Debug("Build: Cycle detection passed.")

	logger.Debug("Build: Graph construction successful.")
	return graph, nil
}

func linkNodes(def *model.PipelineDefinition, graph *Graph) error {
	for _, job := range def.Jobs {
		for _, input := range job.InputOrder {
			ref, ok := job.Inputs[input].(model.JobOutputRef)
			if !ok {
				continue
			}
			if _, ok := def.Job(ref.JobID); !ok {
				return &model.UnknownReferenceError{
					Location: model.Location{Path: fieldpath.Job(job.ID).Child("inputs", input)},
					Kind:     model.RefJob,
					Name:     ref.JobID,
				}
			}
			if err := graph.AddBinding(ref.JobID, job.ID, Label{Output: ref.Output, Input: input}); err != nil {
				return fmt.Errorf("error validating dependency graph: %w", err)
			}
		}
	}
	return nil
}
