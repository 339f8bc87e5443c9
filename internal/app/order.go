package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/pipegraph/internal/ctxlog"
	"github.com/specialistvlad/pipegraph/internal/dag"
	"gopkg.in/yaml.v3"
)

type orderDoc struct {
	Manifest string     `yaml:"manifest"`
	Pipeline string     `yaml:"pipeline,omitempty"`
	Order    []string   `yaml:"order,omitempty"`
	Levels   [][]string `yaml:"levels,omitempty,flow"`
	Edges    []edgeDoc  `yaml:"edges,omitempty"`
	Errors   []string   `yaml:"errors,omitempty"`
}

type edgeDoc struct {
	From     string   `yaml:"from"`
	To       string   `yaml:"to"`
	Bindings []string `yaml:"bindings,omitempty,flow"`
}

// Order prints the execution order of every manifest.
func (a *App) Order(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	results, err := a.resolveAll(ctx)
	if err != nil {
		return err
	}

	docs := make([]orderDoc, 0, len(results))
	for i, r := range results {
		doc, err := newOrderDoc(r)
		if err != nil {
			results[i].Err = err
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
		a.printOrder(doc)
	}
	return invalid(results)
}

func newOrderDoc(r result) (orderDoc, error) {
	doc := orderDoc{Manifest: r.Path}
	if r.Err != nil {
		doc.Errors = errorLines(r.Err)
		return doc, r.Err
	}
	doc.Pipeline = r.Def.Name

	order, err := r.Graph.Order()
	if err != nil {
		doc.Errors = errorLines(err)
		return doc, err
	}
	levels, err := r.Graph.Levels()
	if err != nil {
		doc.Errors = errorLines(err)
		return doc, err
	}
	doc.Order = order
	doc.Levels = levels
	for _, e := range r.Graph.Edges() {
		doc.Edges = append(doc.Edges, edgeDoc{From: e.From, To: e.To, Bindings: bindings(e)})
	}
	return doc, nil
}

func bindings(e dag.Edge) []string {
	var out []string
	for _, l := range e.Labels {
		if l.Output == "" && l.Input == "" {
			continue
		}
		out = append(out, l.Output+" -> "+l.Input)
	}
	return out
}

func (a *App) printOrder(doc orderDoc) {
	fmt.Fprintf(a.outW, "%s %s\n", a.styles.title.Sprint(doc.Manifest), a.styles.dim.Sprintf("(%s)", doc.Pipeline))

	deps := make(map[string][]string)
	for _, e := range doc.Edges {
		deps[e.To] = append(deps[e.To], e.From)
	}
	for i, id := range doc.Order {
		line := fmt.Sprintf("  %d. %s", i+1, id)
		if len(deps[id]) > 0 {
			line += a.styles.dim.Sprintf(" after %s", strings.Join(deps[id], ", "))
		}
		fmt.Fprintln(a.outW, line)
	}
}

func (a *App) writeYAML(v any) error {
	enc := yaml.NewEncoder(a.outW)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return enc.Close()
}
