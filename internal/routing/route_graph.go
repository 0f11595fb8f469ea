package routing

import (
	"github.com/harshit21255/delhi-transit-buddy/internal/models"
)

// BusHopWeight is the cost of riding between two consecutive stops
const BusHopWeight = 1

// Leg is one continuous ride on a single route
type Leg struct {
	VehicleID string
	RouteID   string
	Stops     []string // display names, boundary stop shared with the next leg
}

// RouteGraph is the bus network keyed by case-folded stop name
type RouteGraph struct {
	graph *Graph
	names []string // display name per node id
}

// BuildRouteGraph connects consecutive stops of every trip in the index
func BuildRouteGraph(idx *CombinedIndex) *RouteGraph {
	rg := &RouteGraph{graph: NewGraph()}
	for _, t := range idx.Trips() {
		label := Label{VehicleID: t.TripID, RouteID: t.RouteID}
		for i := range t.keys {
			rg.addStop(t.keys[i], t.Stops[i])
			if i == 0 {
				continue
			}
			rg.graph.AddEdge(t.keys[i-1], t.keys[i], BusHopWeight, label)
		}
	}
	return rg
}

func (rg *RouteGraph) addStop(key, name string) {
	if id := rg.graph.AddNode(key); id == len(rg.names) {
		rg.names = append(rg.names, name)
	}
}

// Graph exposes the underlying adjacency for inspection
func (rg *RouteGraph) Graph() *Graph {
	return rg.graph
}

// HasStop reports whether a stop name appears in the graph
func (rg *RouteGraph) HasStop(name string) bool {
	_, ok := rg.graph.ID(models.NormalizeName(name))
	return ok
}

// StopName returns the display name of the stop with the given name key
func (rg *RouteGraph) StopName(name string) (string, bool) {
	id, ok := rg.graph.ID(models.NormalizeName(name))
	if !ok {
		return "", false
	}
	return rg.names[id], true
}

// Journey finds the fewest-hop path between two stops and splits it into
// legs. It returns nil when either stop is unknown, the stops are the same,
// or no path joins them.
func (rg *RouteGraph) Journey(source, destination string) []Leg {
	src, ok := rg.graph.ID(models.NormalizeName(source))
	if !ok {
		return nil
	}
	dst, ok := rg.graph.ID(models.NormalizeName(destination))
	if !ok || src == dst {
		return nil
	}

	path := ShortestPath(rg.graph, src, dst)
	if !path.Found {
		return nil
	}

	segments := Segment(rg.graph, path.Nodes)
	legs := make([]Leg, 0, len(segments))
	for _, seg := range segments {
		leg := Leg{VehicleID: seg.Label.VehicleID, RouteID: seg.Label.RouteID}
		for _, id := range seg.Nodes {
			leg.Stops = append(leg.Stops, rg.names[id])
		}
		legs = append(legs, leg)
	}
	return legs
}
