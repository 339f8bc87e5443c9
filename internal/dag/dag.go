package dag

import (
	"fmt"
	"sort"

	"github.com/specialistvlad/pipegraph/internal/model"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes:  make(map[string]*node),
		labels: make(map[edgeKey][]Label),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}

	n := &node{
		id:         id,
		index:      len(g.declared),
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
	g.nodes[id] = n
	g.declared = append(g.declared, n)
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. Adding an
// existing edge again is a no-op. A node depending on itself is reported
// as a cycle of length one.
func (g *Graph) AddEdge(fromID, toID string) error {
	return g.AddBinding(fromID, toID, Label{})
}

// AddBinding adds the edge fromID -> toID and records the output/input pair
// it stands for. Duplicate labels are ignored.
func (g *Graph) AddBinding(fromID, toID string, label Label) error {
	if fromID == toID {
		return &model.CyclicDependencyError{Cycle: []string{fromID, fromID}}
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode

	if label == (Label{}) {
		return nil
	}
	key := edgeKey{from: fromID, to: toID}
	for _, l := range g.labels[key] {
		if l == label {
			return nil
		}
	}
	g.labels[key] = append(g.labels[key], label)
	return nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.declared)
}

// Nodes returns node IDs in insertion order.
func (g *Graph) Nodes() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return ids(g.declared)
}

// Dependencies returns the IDs of the nodes the given node depends on, in
// insertion order.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return ids(sorted(n.deps)), nil
}

// Dependents returns the IDs of the nodes that depend on the given node, in
// insertion order.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return ids(sorted(n.dependents)), nil
}

// Roots returns the nodes without dependencies, in insertion order.
func (g *Graph) Roots() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var out []string
	for _, n := range g.declared {
		if len(n.deps) == 0 {
			out = append(out, n.id)
		}
	}
	return out
}

// Edges lists every edge ordered by producer, then consumer insertion
// order.
func (g *Graph) Edges() []Edge {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var out []Edge
	for _, from := range g.declared {
		for _, to := range sorted(from.dependents) {
			labels := g.labels[edgeKey{from: from.id, to: to.id}]
			out = append(out, Edge{From: from.id, To: to.id, Labels: append([]Label(nil), labels...)})
		}
	}
	return out
}

// DetectCycles checks the graph for cycles with a three-colour depth-first
// search over nodes and their dependents in insertion order. The first
// cycle found is returned as a *model.CyclicDependencyError whose path
// starts and ends with the same node.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if cycle := g.findCycle(); cycle != nil {
		return &model.CyclicDependencyError{Cycle: cycle}
	}
	return nil
}

func (g *Graph) findCycle() []string {
	const (
		unvisited = iota
		inProgress
		done
	)
	state := make(map[string]int, len(g.declared))
	parent := make(map[string]*node, len(g.declared))
	var cycle []string

	var visit func(n *node) bool
	visit = func(n *node) bool {
		state[n.id] = inProgress
		for _, next := range sorted(n.dependents) {
			switch state[next.id] {
			case unvisited:
				parent[next.id] = n
				if visit(next) {
					return true
				}
			case inProgress:
				// Back edge n -> next: walk parents from n back to next.
				rev := []string{next.id}
				for cur := n; cur != nil && cur != next; cur = parent[cur.id] {
					rev = append(rev, cur.id)
				}
				rev = append(rev, next.id)
				for i := len(rev) - 1; i >= 0; i-- {
					cycle = append(cycle, rev[i])
				}
				return true
			}
		}
		state[n.id] = done
		return false
	}

	for _, n := range g.declared {
		if state[n.id] == unvisited && visit(n) {
			return cycle
		}
	}
	return nil
}

func sorted(m map[string]*node) []*node {
	out := make([]*node, 0, len(m))
	for _, n := range m {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out
}

func ids(nodes []*node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.id
	}
	return out
}
