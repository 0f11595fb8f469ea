package routing

import (
	"container/heap"
	"math"
)

// Path is the outcome of a shortest-path search
type Path struct {
	Nodes    []int
	Distance int
	Found    bool
}

type queueItem struct {
	node int
	dist int
}

// frontier is a min-heap on distance; equal distances pop in node id order
type frontier []queueItem

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].dist != f[j].dist {
		return f[i].dist < f[j].dist
	}
	return f[i].node < f[j].node
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x interface{}) { *f = append(*f, x.(queueItem)) }

func (f *frontier) Pop() interface{} {
	old := *f
	item := old[len(old)-1]
	*f = old[:len(old)-1]
	return item
}

// ShortestPath runs Dijkstra from src to dst. All search state is local to
// the call, so concurrent searches over one graph are safe.
func ShortestPath(g *Graph, src, dst int) Path {
	if src == dst {
		return Path{Nodes: []int{src}, Found: true}
	}

	n := g.NodeCount()
	dist := make([]int, n)
	prev := make([]int, n)
	settled := make([]bool, n)
	for i := range dist {
		dist[i] = math.MaxInt
		prev[i] = -1
	}
	dist[src] = 0

	pq := &frontier{{node: src, dist: 0}}
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(queueItem)
		if settled[cur.node] {
			continue
		}
		if cur.node == dst {
			break
		}
		settled[cur.node] = true

		for _, e := range g.Neighbors(cur.node) {
			if settled[e.To] {
				continue
			}
			nd := cur.dist + e.Weight
			if nd < dist[e.To] {
				dist[e.To] = nd
				prev[e.To] = cur.node
				heap.Push(pq, queueItem{node: e.To, dist: nd})
			}
		}
	}

	if dist[dst] == math.MaxInt {
		return Path{}
	}

	var nodes []int
	for at := dst; at != -1; at = prev[at] {
		nodes = append(nodes, at)
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}

	return Path{Nodes: nodes, Distance: dist[dst], Found: true}
}
