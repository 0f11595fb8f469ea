package routing

// Label names the vehicle (trip) and route that traverse a route-graph edge
type Label struct {
	VehicleID string `json:"vehicle_id"`
	RouteID   string `json:"route_id"`
}

// Edge is a weighted link from one node to a neighbor
type Edge struct {
	To     int
	Weight int
	Labels []Label
}

// Graph is an undirected weighted adjacency list over string-keyed nodes.
// Node ids are dense and assigned in insertion order. A Graph is built once
// and then only read; it must not be modified after it is shared.
type Graph struct {
	keys []string
	ids  map[string]int
	adj  [][]Edge
	pos  []map[int]int
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{ids: make(map[string]int)}
}

// AddNode registers key and returns its id. Existing keys keep their id.
func (g *Graph) AddNode(key string) int {
	if id, ok := g.ids[key]; ok {
		return id
	}
	id := len(g.keys)
	g.keys = append(g.keys, key)
	g.ids[key] = id
	g.adj = append(g.adj, nil)
	g.pos = append(g.pos, make(map[int]int))
	return id
}

// AddEdge connects a and b in both directions. A repeated pair keeps the
// lower weight and accumulates labels, skipping routes already present.
func (g *Graph) AddEdge(a, b string, weight int, labels ...Label) {
	from := g.AddNode(a)
	to := g.AddNode(b)
	if from == to {
		return
	}
	g.link(from, to, weight, labels)
	g.link(to, from, weight, labels)
}

func (g *Graph) link(from, to, weight int, labels []Label) {
	if i, ok := g.pos[from][to]; ok {
		e := &g.adj[from][i]
		if weight < e.Weight {
			e.Weight = weight
		}
		e.Labels = mergeLabels(e.Labels, labels)
		return
	}
	g.pos[from][to] = len(g.adj[from])
	g.adj[from] = append(g.adj[from], Edge{
		To:     to,
		Weight: weight,
		Labels: mergeLabels(nil, labels),
	})
}

func mergeLabels(existing, add []Label) []Label {
	for _, l := range add {
		dup := false
		for _, e := range existing {
			if e.RouteID == l.RouteID {
				dup = true
				break
			}
		}
		if !dup {
			existing = append(existing, l)
		}
	}
	return existing
}

// ID returns the node id for key
func (g *Graph) ID(key string) (int, bool) {
	id, ok := g.ids[key]
	return id, ok
}

// Key returns the key of node id
func (g *Graph) Key(id int) string {
	return g.keys[id]
}

// Neighbors returns the edges leaving node id. Callers must not modify them.
func (g *Graph) Neighbors(id int) []Edge {
	return g.adj[id]
}

// EdgeBetween returns the edge from a to b, if any
func (g *Graph) EdgeBetween(a, b int) (Edge, bool) {
	i, ok := g.pos[a][b]
	if !ok {
		return Edge{}, false
	}
	return g.adj[a][i], true
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	return len(g.keys)
}

// EdgeCount returns the number of undirected edges
func (g *Graph) EdgeCount() int {
	n := 0
	for _, edges := range g.adj {
		n += len(edges)
	}
	return n / 2
}
