package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/pipegraph/internal/ctxlog"
)

// Validate resolves every manifest and prints one status line each.
func (a *App) Validate(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	results, err := a.resolveAll(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Err != nil {
			a.printFailure(r)
			continue
		}
		fmt.Fprintf(a.outW, "%s %s %s\n",
			a.styles.ok.Sprint("ok"),
			r.Path,
			a.styles.dim.Sprintf("(%s, %d jobs)", pipelineName(r), r.Graph.Len()))
	}
	return invalid(results)
}

func pipelineName(r result) string {
	if r.Def.Name != "" {
		return r.Def.Name
	}
	return "unnamed"
}
