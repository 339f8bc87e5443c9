package dag

import "sync"

// Graph is a collection of nodes and their dependencies, representing a DAG.
// All operations on the graph are concurrency-safe.
type Graph struct {
	// mutex protects the graph during concurrent access.
	mutex sync.RWMutex
	// nodes stores all nodes in the graph, keyed by their unique ID.
	nodes map[string]*node
	// declared lists nodes in insertion order.
	declared []*node
	// labels records which output feeds which input along each edge.
	labels map[edgeKey][]Label
}

// node represents a single vertex in the graph. It is un-exported to
// enforce interaction with the graph via the public API (using string IDs),
// not by direct struct manipulation.
type node struct {
	// id is the unique identifier for the node.
	id string
	// index is the insertion position, used to break ordering ties.
	index int
	// deps holds the set of nodes that this node depends on (predecessors).
	deps map[string]*node
	// dependents holds the set of nodes that depend on this node (successors).
	dependents map[string]*node
}

type edgeKey struct {
	from, to string
}

// Label names the producer output and consumer input an edge stands for.
type Label struct {
	Output string
	Input  string
}

// Edge is a dependency from producer From to consumer To. Several bindings
// between the same pair of jobs share one edge.
type Edge struct {
	From   string
	To     string
	Labels []Label
}
