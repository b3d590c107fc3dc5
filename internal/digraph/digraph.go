// Package digraph provides the directed graph used to order build configurations.
//
// A Digraph is mutable until Freeze is called. Once frozen it can be read
// concurrently, ordered with ComputeVertexOrder and copied with
// BuildFilteredDigraph. An edge from -> to means that "from" depends on "to":
// the order places "to" first.
package digraph

import (
	"slices"
)

// Digraph is a directed graph over comparable vertices. Vertices and the
// successors of each vertex keep their insertion order.
type Digraph[V comparable] struct {
	index    map[V]int
	edgeSet  []map[int]struct{}
	vertices []V
	edges    [][]int
	frozen   bool
}

// New returns an empty, mutable graph.
func New[V comparable]() *Digraph[V] {
	return &Digraph[V]{
		index: make(map[V]int),
	}
}

// AddVertex adds v to the graph. Adding a vertex twice is a no-op.
func (g *Digraph[V]) AddVertex(v V) error {
	if g.frozen {
		return NewFrozenGraphError()
	}

	g.addVertex(v)

	return nil
}

func (g *Digraph[V]) addVertex(v V) int {
	if idx, ok := g.index[v]; ok {
		return idx
	}

	idx := len(g.vertices)
	g.index[v] = idx
	g.vertices = append(g.vertices, v)
	g.edges = append(g.edges, nil)
	g.edgeSet = append(g.edgeSet, nil)

	return idx
}

// AddEdge adds the edge from -> to. Both endpoints must already be vertices of the graph.
// Duplicate edges collapse into one; self edges are rejected.
func (g *Digraph[V]) AddEdge(from, to V) error {
	if g.frozen {
		return NewFrozenGraphError()
	}

	if from == to {
		return NewSelfEdgeError(from)
	}

	fromIdx, ok := g.index[from]
	if !ok {
		return NewMissingVertexError(from)
	}

	toIdx, ok := g.index[to]
	if !ok {
		return NewMissingVertexError(to)
	}

	g.addEdge(fromIdx, toIdx)

	return nil
}

func (g *Digraph[V]) addEdge(from, to int) bool {
	if g.edgeSet[from] == nil {
		g.edgeSet[from] = make(map[int]struct{})
	}

	if _, ok := g.edgeSet[from][to]; ok {
		return false
	}

	g.edgeSet[from][to] = struct{}{}
	g.edges[from] = append(g.edges[from], to)

	return true
}

// Freeze locks the topology. Further mutation returns an error.
func (g *Digraph[V]) Freeze() {
	g.frozen = true
}

// Frozen reports whether Freeze has been called.
func (g *Digraph[V]) Frozen() bool {
	return g.frozen
}

// Len returns the number of vertices.
func (g *Digraph[V]) Len() int {
	return len(g.vertices)
}

// EdgeCount returns the number of distinct edges.
func (g *Digraph[V]) EdgeCount() int {
	count := 0
	for _, succ := range g.edges {
		count += len(succ)
	}

	return count
}

// Contains reports whether v is a vertex of the graph.
func (g *Digraph[V]) Contains(v V) bool {
	_, ok := g.index[v]
	return ok
}

// Vertices returns the vertices in insertion order.
func (g *Digraph[V]) Vertices() []V {
	return slices.Clone(g.vertices)
}

// Successors returns the targets of the edges leaving v, in insertion order.
func (g *Digraph[V]) Successors(v V) []V {
	idx, ok := g.index[v]
	if !ok {
		return nil
	}

	out := make([]V, 0, len(g.edges[idx]))
	for _, to := range g.edges[idx] {
		out = append(out, g.vertices[to])
	}

	return out
}

// HasEdge reports whether the edge from -> to exists.
func (g *Digraph[V]) HasEdge(from, to V) bool {
	fromIdx, ok := g.index[from]
	if !ok {
		return false
	}

	toIdx, ok := g.index[to]
	if !ok {
		return false
	}

	_, ok = g.edgeSet[fromIdx][toIdx]

	return ok
}

// Reachable returns every vertex reachable from v by following one or more edges.
// The result is keyed by vertex; v itself is included only when it lies on a cycle.
func (g *Digraph[V]) Reachable(v V) map[V]struct{} {
	start, ok := g.index[v]
	if !ok {
		return nil
	}

	seen := make([]bool, len(g.vertices))
	stack := slices.Clone(g.edges[start])
	out := make(map[V]struct{})

	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if seen[idx] {
			continue
		}

		seen[idx] = true
		out[g.vertices[idx]] = struct{}{}
		stack = append(stack, g.edges[idx]...)
	}

	return out
}

// Transpose returns a frozen graph with every edge reversed.
func (g *Digraph[V]) Transpose() *Digraph[V] {
	rev := New[V]()
	for _, v := range g.vertices {
		rev.addVertex(v)
	}

	for from, succ := range g.edges {
		for _, to := range succ {
			rev.addEdge(to, from)
		}
	}

	rev.Freeze()

	return rev
}
