package routing

import (
	"math"
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEdge(t *testing.T) {
	t.Run("symmetric with minimum weight", func(t *testing.T) {
		g := NewGraph()
		g.AddEdge("a", "b", 5)
		g.AddEdge("b", "a", 2)

		a, _ := g.ID("a")
		b, _ := g.ID("b")
		ab, ok := g.EdgeBetween(a, b)
		require.True(t, ok)
		ba, ok := g.EdgeBetween(b, a)
		require.True(t, ok)
		assert.Equal(t, 2, ab.Weight)
		assert.Equal(t, 2, ba.Weight)
		assert.Equal(t, 1, g.EdgeCount())
	})

	t.Run("labels accumulate and dedupe by route", func(t *testing.T) {
		g := NewGraph()
		g.AddEdge("a", "b", 1, Label{VehicleID: "t1", RouteID: "r1"})
		g.AddEdge("a", "b", 1, Label{VehicleID: "t2", RouteID: "r1"})
		g.AddEdge("b", "a", 1, Label{VehicleID: "t3", RouteID: "r2"})

		a, _ := g.ID("a")
		b, _ := g.ID("b")
		e, _ := g.EdgeBetween(a, b)
		assert.Equal(t, []Label{
			{VehicleID: "t1", RouteID: "r1"},
			{VehicleID: "t3", RouteID: "r2"},
		}, e.Labels)
	})

	t.Run("self loops ignored", func(t *testing.T) {
		g := NewGraph()
		g.AddEdge("a", "a", 1)
		assert.Equal(t, 1, g.NodeCount())
		assert.Equal(t, 0, g.EdgeCount())
	})

	t.Run("ids follow insertion order", func(t *testing.T) {
		g := NewGraph()
		g.AddNode("z")
		g.AddEdge("y", "z", 1)
		assert.Equal(t, "z", g.Key(0))
		assert.Equal(t, "y", g.Key(1))
	})
}

func TestShortestPath(t *testing.T) {
	t.Run("same node", func(t *testing.T) {
		g := NewGraph()
		id := g.AddNode("a")
		p := ShortestPath(g, id, id)
		assert.True(t, p.Found)
		assert.Equal(t, []int{id}, p.Nodes)
		assert.Equal(t, 0, p.Distance)
	})

	t.Run("unreachable", func(t *testing.T) {
		g := NewGraph()
		a := g.AddNode("a")
		b := g.AddNode("b")
		p := ShortestPath(g, a, b)
		assert.False(t, p.Found)
		assert.Empty(t, p.Nodes)
	})

	t.Run("prefers cheaper detour", func(t *testing.T) {
		g := NewGraph()
		g.AddEdge("a", "d", 10)
		g.AddEdge("a", "b", 1)
		g.AddEdge("b", "c", 1)
		g.AddEdge("c", "d", 1)

		a, _ := g.ID("a")
		d, _ := g.ID("d")
		p := ShortestPath(g, a, d)
		require.True(t, p.Found)
		assert.Equal(t, 3, p.Distance)
		assert.Equal(t, []string{"a", "b", "c", "d"}, keys(g, p.Nodes))
	})

	t.Run("ties resolve the same way every run", func(t *testing.T) {
		g := NewGraph()
		g.AddEdge("s", "m1", 1)
		g.AddEdge("s", "m2", 1)
		g.AddEdge("m1", "t", 1)
		g.AddEdge("m2", "t", 1)

		s, _ := g.ID("s")
		dst, _ := g.ID("t")
		first := ShortestPath(g, s, dst)
		for i := 0; i < 20; i++ {
			assert.Equal(t, first.Nodes, ShortestPath(g, s, dst).Nodes)
		}
		assert.Equal(t, []string{"s", "m1", "t"}, keys(g, first.Nodes))
	})
}

func TestShortestPathMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 50; trial++ {
		g := NewGraph()
		n := 3 + rng.Intn(5)
		for i := 0; i < n; i++ {
			g.AddNode(strconv.Itoa(i))
		}
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if rng.Intn(3) == 0 {
					g.AddEdge(strconv.Itoa(i), strconv.Itoa(j), 1+rng.Intn(6))
				}
			}
		}

		for src := 0; src < n; src++ {
			for dst := 0; dst < n; dst++ {
				want := bruteForce(g, src, dst)
				got := ShortestPath(g, src, dst)
				if want == math.MaxInt {
					assert.False(t, got.Found, "trial %d %d->%d", trial, src, dst)
					continue
				}
				require.True(t, got.Found, "trial %d %d->%d", trial, src, dst)
				assert.Equal(t, want, got.Distance, "trial %d %d->%d", trial, src, dst)
				assert.Equal(t, want, pathWeight(t, g, got.Nodes))
			}
		}
	}
}

// bruteForce enumerates every simple path from src to dst
func bruteForce(g *Graph, src, dst int) int {
	best := math.MaxInt
	visited := make([]bool, g.NodeCount())
	var walk func(at, cost int)
	walk = func(at, cost int) {
		if at == dst {
			if cost < best {
				best = cost
			}
			return
		}
		visited[at] = true
		for _, e := range g.Neighbors(at) {
			if !visited[e.To] {
				walk(e.To, cost+e.Weight)
			}
		}
		visited[at] = false
	}
	walk(src, 0)
	return best
}

func pathWeight(t *testing.T, g *Graph, nodes []int) int {
	total := 0
	for i := 1; i < len(nodes); i++ {
		e, ok := g.EdgeBetween(nodes[i-1], nodes[i])
		require.True(t, ok)
		total += e.Weight
	}
	return total
}

func keys(g *Graph, nodes []int) []string {
	out := make([]string, len(nodes))
	for i, id := range nodes {
		out[i] = g.Key(id)
	}
	return out
}

func assertSymmetric(t *testing.T, g *Graph) {
	t.Helper()
	for a := 0; a < g.NodeCount(); a++ {
		for _, e := range g.Neighbors(a) {
			back, ok := g.EdgeBetween(e.To, a)
			require.True(t, ok, "missing %s -> %s", g.Key(e.To), g.Key(a))
			assert.Equal(t, e.Weight, back.Weight)
			assert.ElementsMatch(t, e.Labels, back.Labels)
		}
	}
}
