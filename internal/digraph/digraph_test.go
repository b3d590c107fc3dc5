package digraph_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weavebuild/weave/internal/digraph"
	"github.com/weavebuild/weave/internal/errors"
)

func newGraph(t *testing.T, vertices []string, edges [][2]string) *digraph.Digraph[string] {
	t.Helper()

	g := digraph.New[string]()
	for _, v := range vertices {
		require.NoError(t, g.AddVertex(v))
	}

	for _, e := range edges {
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}

	g.Freeze()

	return g
}

func position(order []string) map[string]int {
	pos := make(map[string]int, len(order))
	for i, v := range order {
		pos[v] = i
	}

	return pos
}

func TestDigraph_MutationRules(t *testing.T) {
	t.Parallel()

	g := digraph.New[string]()
	require.NoError(t, g.AddVertex("a"))
	require.NoError(t, g.AddVertex("b"))
	require.NoError(t, g.AddVertex("a"))

	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("a", "b"))
	assert.Equal(t, 1, g.EdgeCount(), "multi-edges collapse")

	var selfEdge digraph.SelfEdgeError
	require.ErrorAs(t, g.AddEdge("a", "a"), &selfEdge)

	var missing digraph.MissingVertexError
	require.ErrorAs(t, g.AddEdge("a", "zzz"), &missing)

	g.Freeze()

	var frozen digraph.FrozenGraphError
	require.ErrorAs(t, g.AddVertex("c"), &frozen)
	require.ErrorAs(t, g.AddEdge("b", "a"), &frozen)
	assert.Equal(t, 2, g.Len())
}

func TestComputeVertexOrder_RequiresFrozenGraph(t *testing.T) {
	t.Parallel()

	g := digraph.New[string]()
	require.NoError(t, g.AddVertex("a"))

	_, err := digraph.ComputeVertexOrder(g)
	assert.True(t, errors.As(err, &digraph.NotFrozenError{}))
}

func TestComputeVertexOrder_Chain(t *testing.T) {
	t.Parallel()

	g := newGraph(t, []string{"P0", "P1", "P2"}, [][2]string{{"P0", "P1"}, {"P1", "P2"}})

	order, err := digraph.ComputeVertexOrder(g)
	require.NoError(t, err)

	assert.Equal(t, []string{"P2", "P1", "P0"}, order.Vertices)
	assert.False(t, order.HasCycles)
	assert.Empty(t, order.Knots)
}

func TestComputeVertexOrder_IndependentVerticesKeepInsertionOrder(t *testing.T) {
	t.Parallel()

	g := newGraph(t, []string{"c", "a", "b"}, nil)

	order, err := digraph.ComputeVertexOrder(g)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, order.Vertices)
}

func TestComputeVertexOrder_ThreeCycle(t *testing.T) {
	t.Parallel()

	g := newGraph(t,
		[]string{"A", "B", "C", "D"},
		[][2]string{{"A", "B"}, {"B", "C"}, {"C", "A"}, {"D", "A"}},
	)

	order, err := digraph.ComputeVertexOrder(g)
	require.NoError(t, err)

	assert.True(t, order.HasCycles)
	require.Len(t, order.Knots, 1)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, order.Knots[0])
	assert.Equal(t, []string{"A", "B", "C"}, order.Knots[0], "knot members keep insertion order")
	assert.Equal(t, "D", order.Vertices[3], "dependent of the knot comes last")
}

func TestComputeVertexOrder_EdgesAcrossComponentsRespected(t *testing.T) {
	t.Parallel()

	vertices := []string{"a", "b", "c", "d", "e", "f", "g"}
	edges := [][2]string{
		{"a", "b"}, {"b", "c"}, {"c", "b"}, {"a", "d"},
		{"d", "e"}, {"e", "f"}, {"f", "d"}, {"g", "a"}, {"c", "f"},
	}
	g := newGraph(t, vertices, edges)

	order, err := digraph.ComputeVertexOrder(g)
	require.NoError(t, err)
	require.Len(t, order.Vertices, len(vertices))
	assert.Len(t, order.Knots, 2)

	pos := position(order.Vertices)
	knotOf := map[string]int{}

	for i, knot := range order.Knots {
		for _, v := range knot {
			knotOf[v] = i + 1
		}
	}

	for _, e := range edges {
		if knotOf[e[0]] != 0 && knotOf[e[0]] == knotOf[e[1]] {
			continue
		}

		assert.Less(t, pos[e[1]], pos[e[0]], "%s must precede %s", e[1], e[0])
	}
}

func TestBuildFilteredDigraph_Chain(t *testing.T) {
	t.Parallel()

	g := newGraph(t, []string{"A", "B", "C"}, [][2]string{{"A", "B"}, {"B", "C"}})

	filtered, err := digraph.BuildFilteredDigraph(g, func(v string) bool { return v == "B" })
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "C"}, filtered.Vertices())
	assert.Equal(t, 1, filtered.EdgeCount())
	assert.True(t, filtered.HasEdge("A", "C"))
	assert.True(t, filtered.Frozen())
}

func TestBuildFilteredDigraph_ExcludedCycle(t *testing.T) {
	t.Parallel()

	// A -> X -> Y -> X, Y -> B, X -> A: the excluded knot leads to both A and B.
	g := newGraph(t,
		[]string{"A", "X", "Y", "B"},
		[][2]string{{"A", "X"}, {"X", "Y"}, {"Y", "X"}, {"Y", "B"}, {"X", "A"}},
	)

	filtered, err := digraph.BuildFilteredDigraph(g, func(v string) bool { return v == "X" || v == "Y" })
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, filtered.Vertices())
	assert.True(t, filtered.HasEdge("A", "B"))
	assert.False(t, filtered.HasEdge("B", "A"))
	assert.Equal(t, 1, filtered.EdgeCount(), "the path back to A must not become a self edge")
}

func TestBuildFilteredDigraph_PreservesReachability(t *testing.T) {
	t.Parallel()

	const size = 40

	g := digraph.New[int]()
	for i := range size {
		require.NoError(t, g.AddVertex(i))
	}

	for i := range size {
		for j := i + 1; j < size; j += 3 {
			require.NoError(t, g.AddEdge(i, j))
		}
	}

	g.Freeze()

	exclude := func(v int) bool { return v%4 == 1 }

	filtered, err := digraph.BuildFilteredDigraph(g, exclude)
	require.NoError(t, err)

	for _, u := range filtered.Vertices() {
		want := map[int]struct{}{}

		for v := range g.Reachable(u) {
			if !exclude(v) {
				want[v] = struct{}{}
			}
		}

		assert.Equal(t, want, filtered.Reachable(u), "reachability from %d", u)
	}
}

func TestBuildFilteredDigraph_LargeDenseGraph(t *testing.T) {
	t.Parallel()

	const size = 320

	g := digraph.New[string]()
	for i := range size {
		require.NoError(t, g.AddVertex(fmt.Sprintf("p%03d", i)))
	}

	for i := range size {
		for j := range size {
			if i != j && (i+j)%2 == 0 {
				require.NoError(t, g.AddEdge(fmt.Sprintf("p%03d", i), fmt.Sprintf("p%03d", j)))
			}
		}
	}

	g.Freeze()

	start := time.Now()

	filtered, err := digraph.BuildFilteredDigraph(g, func(v string) bool { return v[len(v)-1] == '7' })
	require.NoError(t, err)

	_, err = digraph.ComputeVertexOrder(filtered)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, size-32, filtered.Len())
}
