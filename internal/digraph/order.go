package digraph

import (
	"slices"
)

// Order is the result of ComputeVertexOrder.
type Order[V comparable] struct {
	// Vertices lists every vertex, dependencies before their dependents.
	Vertices []V
	// Knots holds the strongly connected components with more than one member.
	Knots [][]V
	// HasCycles is true when at least one knot was found.
	HasCycles bool
}

// ComputeVertexOrder orders the vertices of a frozen graph so that for every edge u -> v
// with u and v in different strongly connected components, v comes before u.
// Members of one component are emitted in insertion order. Cycles are not an error:
// they are reported as knots and the condensed order is still returned.
func ComputeVertexOrder[V comparable](g *Digraph[V]) (*Order[V], error) {
	if !g.frozen {
		return nil, NewNotFrozenError()
	}

	components := g.components(func(int) bool { return true })

	order := &Order[V]{
		Vertices: make([]V, 0, len(g.vertices)),
	}

	for _, members := range components {
		vertices := make([]V, 0, len(members))
		for _, idx := range members {
			vertices = append(vertices, g.vertices[idx])
		}

		order.Vertices = append(order.Vertices, vertices...)

		if len(members) > 1 {
			order.HasCycles = true
			order.Knots = append(order.Knots, vertices)
		}
	}

	return order, nil
}

// components runs Tarjan's algorithm over the vertices accepted by include, following only
// edges between accepted vertices. Components come out in reverse topological order of the
// condensation, which for dependency edges means dependencies first. Members are sorted
// by insertion index.
func (g *Digraph[V]) components(include func(int) bool) [][]int {
	var (
		n       = len(g.vertices)
		index   = make([]int, n)
		lowlink = make([]int, n)
		onStack = make([]bool, n)
		stack   = make([]int, 0, n)
		next    = 1
		out     [][]int
	)

	var strongConnect func(v int)
	strongConnect = func(v int) {
		index[v] = next
		lowlink[v] = next
		next++

		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if !include(w) {
				continue
			}

			switch {
			case index[w] == 0:
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			case onStack[w]:
				lowlink[v] = min(lowlink[v], index[w])
			}
		}

		if lowlink[v] != index[v] {
			return
		}

		var members []int

		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false

			members = append(members, w)

			if w == v {
				break
			}
		}

		slices.Sort(members)
		out = append(out, members)
	}

	for v := range n {
		if include(v) && index[v] == 0 {
			strongConnect(v)
		}
	}

	return out
}
