package digraph

// BuildFilteredDigraph returns a frozen copy of g without the vertices matched by exclude.
// Reachability between kept vertices is preserved: a path u -> x1 -> ... -> xn -> v whose inner
// vertices are all excluded becomes the edge u -> v. Paths that lead back to their own start
// are dropped, since self edges are not allowed.
//
// Excluded regions are condensed into strongly connected components first and the set of kept
// vertices each component leads to is computed once, so the work is proportional to the size
// of the input plus the size of the output.
func BuildFilteredDigraph[V comparable](g *Digraph[V], exclude func(V) bool) (*Digraph[V], error) {
	if !g.frozen {
		return nil, NewNotFrozenError()
	}

	n := len(g.vertices)

	excluded := make([]bool, n)
	for idx, v := range g.vertices {
		excluded[idx] = exclude(v)
	}

	// compOf maps an excluded vertex to its component; reach holds, per component, the kept
	// vertices reachable from it through excluded vertices only.
	components := g.components(func(idx int) bool { return excluded[idx] })
	compOf := make([]int, n)
	reach := make([][]int, len(components))
	mark := make([]int, n)

	for compID, members := range components {
		for _, idx := range members {
			compOf[idx] = compID
		}
	}

	for compID, members := range components {
		stamp := compID + 1

		var kept []int

		add := func(idx int) {
			if mark[idx] != stamp {
				mark[idx] = stamp
				kept = append(kept, idx)
			}
		}

		for _, idx := range members {
			for _, succ := range g.edges[idx] {
				switch {
				case !excluded[succ]:
					add(succ)
				case compOf[succ] != compID:
					// Tarjan emits successors' components first, so reach is already final.
					for _, k := range reach[compOf[succ]] {
						add(k)
					}
				}
			}
		}

		reach[compID] = kept
	}

	filtered := New[V]()

	for idx, v := range g.vertices {
		if !excluded[idx] {
			filtered.addVertex(v)
		}
	}

	for idx, v := range g.vertices {
		if excluded[idx] {
			continue
		}

		from := filtered.index[v]

		for _, succ := range g.edges[idx] {
			if !excluded[succ] {
				filtered.addEdge(from, filtered.index[g.vertices[succ]])
				continue
			}

			for _, k := range reach[compOf[succ]] {
				if k != idx {
					filtered.addEdge(from, filtered.index[g.vertices[k]])
				}
			}
		}
	}

	filtered.Freeze()

	return filtered, nil
}
