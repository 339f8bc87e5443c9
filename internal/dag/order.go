package dag

import (
	"container/heap"
	"fmt"

	"github.com/specialistvlad/pipegraph/internal/model"
)

type nodeHeap []*node

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return h[i].index < h[j].index }
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)        { *h = append(*h, x.(*node)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Order returns a topological order of the graph using Kahn's algorithm.
// Among nodes that are ready at the same time, the one inserted first comes
// first. A cyclic graph yields a *model.CyclicDependencyError.
func (g *Graph) Order() ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	out := g.kahn()
	if len(out) != len(g.declared) {
		return nil, &model.CyclicDependencyError{Cycle: g.findCycle()}
	}
	return ids(out), nil
}

func (g *Graph) kahn() []*node {
	indeg := make(map[string]int, len(g.declared))
	ready := &nodeHeap{}
	for _, n := range g.declared {
		indeg[n.id] = len(n.deps)
		if len(n.deps) == 0 {
			*ready = append(*ready, n)
		}
	}
	heap.Init(ready)

	out := make([]*node, 0, len(g.declared))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(*node)
		out = append(out, n)
		for _, m := range n.dependents {
			indeg[m.id]--
			if indeg[m.id] == 0 {
				heap.Push(ready, m)
			}
		}
	}
	return out
}

// Depth returns the length of the longest dependency chain ending at the
// node. Roots have depth 0.
func (g *Graph) Depth(id string) (int, error) {
	depths, err := g.depths()
	if err != nil {
		return 0, err
	}
	d, ok := depths[id]
	if !ok {
		return 0, fmt.Errorf("node not found: %s", id)
	}
	return d, nil
}

// Levels groups nodes by depth. Nodes within a level do not depend on each
// other and keep topological order.
func (g *Graph) Levels() ([][]string, error) {
	depths, err := g.depths()
	if err != nil {
		return nil, err
	}
	order, err := g.Order()
	if err != nil {
		return nil, err
	}
	var levels [][]string
	for _, id := range order {
		d := depths[id]
		for len(levels) <= d {
			levels = append(levels, nil)
		}
		levels[d] = append(levels[d], id)
	}
	return levels, nil
}

func (g *Graph) depths() (map[string]int, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	order := g.kahn()
	if len(order) != len(g.declared) {
		return nil, &model.CyclicDependencyError{Cycle: g.findCycle()}
	}
	depths := make(map[string]int, len(order))
	for _, n := range order {
		d := 0
		for _, dep := range n.deps {
			if depths[dep.id]+1 > d {
				d = depths[dep.id] + 1
			}
		}
		depths[n.id] = d
	}
	return depths, nil
}
