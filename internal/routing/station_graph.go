package routing

import (
	"sort"

	"github.com/harshit21255/delhi-transit-buddy/internal/models"
)

const (
	// SameLineWeight is the cost of one hop between adjacent stations on a line
	SameLineWeight = 1

	// DefaultInterchangePenalty is the cost of changing lines at an interchange
	DefaultInterchangePenalty = 3

	// MinutesPerHop and MinutesPerInterchange drive the static travel estimate
	MinutesPerHop         = 2
	MinutesPerInterchange = 5
)

// StationGraph is the rail network: stations are nodes, consecutive stations
// on a line are joined with weight 1 and same-named stations on different
// lines are joined with the interchange penalty
type StationGraph struct {
	graph    *Graph
	stations []models.Station // indexed by node id
	penalty  int
}

// BuildStationGraph builds the rail graph from a flat station list
func BuildStationGraph(stations []models.Station, interchangePenalty int) *StationGraph {
	sg := &StationGraph{
		graph:   NewGraph(),
		penalty: interchangePenalty,
	}

	// Duplicate keys collapse to one node carrying the last record seen
	for _, s := range stations {
		id := sg.graph.AddNode(s.Key())
		if id == len(sg.stations) {
			sg.stations = append(sg.stations, s)
		} else {
			sg.stations[id] = s
		}
	}
	members := sg.stations

	byLine := make(map[string][]models.Station)
	var lineOrder []string
	for _, s := range members {
		if _, ok := byLine[s.Line]; !ok {
			lineOrder = append(lineOrder, s.Line)
		}
		byLine[s.Line] = append(byLine[s.Line], s)
	}

	for _, line := range lineOrder {
		onLine := byLine[line]
		sort.SliceStable(onLine, func(i, j int) bool {
			return onLine[i].StationID < onLine[j].StationID
		})
		for i := 0; i+1 < len(onLine); i++ {
			sg.graph.AddEdge(onLine[i].Key(), onLine[i+1].Key(), SameLineWeight)
		}
	}

	byName := make(map[string][]models.Station)
	var nameOrder []string
	for _, s := range members {
		key := s.NameKey()
		if _, ok := byName[key]; !ok {
			nameOrder = append(nameOrder, key)
		}
		byName[key] = append(byName[key], s)
	}

	for _, name := range nameOrder {
		group := byName[name]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				sg.graph.AddEdge(group[i].Key(), group[j].Key(), interchangePenalty)
			}
		}
	}

	return sg
}

// Graph exposes the underlying adjacency for inspection
func (sg *StationGraph) Graph() *Graph {
	return sg.graph
}

// Penalty returns the interchange penalty the graph was built with
func (sg *StationGraph) Penalty() int {
	return sg.penalty
}

// Station returns the station stored at node id
func (sg *StationGraph) Station(id int) models.Station {
	return sg.stations[id]
}

// Len returns the number of stations in the graph
func (sg *StationGraph) Len() int {
	return len(sg.stations)
}

// Route plans a journey between two stations. Stations sharing a name give
// the single-station path. When no path exists the result holds just
// [source, destination] and Connected is false.
func (sg *StationGraph) Route(source, destination models.Station) models.RailRoute {
	route, _ := sg.route(source, destination)
	return route
}

// BestRoute plans between every pairing of candidate stations and keeps the
// cheapest connected result. Candidates are tried in order, so earlier
// stations win ties.
func (sg *StationGraph) BestRoute(sources, destinations []models.Station) models.RailRoute {
	var (
		best     models.RailRoute
		bestCost = -1
	)
	for _, src := range sources {
		for _, dst := range destinations {
			route, cost := sg.route(src, dst)
			if bestCost == -1 || (route.Connected && (!best.Connected || cost < bestCost)) {
				best, bestCost = route, cost
			}
		}
	}
	return best
}

func (sg *StationGraph) route(source, destination models.Station) (models.RailRoute, int) {
	route := models.RailRoute{
		Source:      source,
		Destination: destination,
	}

	if source.NameKey() == destination.NameKey() {
		route.Path = []models.Station{source}
		route.Connected = true
		return route, 0
	}

	var path Path
	src, okSrc := sg.graph.ID(source.Key())
	dst, okDst := sg.graph.ID(destination.Key())
	if okSrc && okDst {
		path = ShortestPath(sg.graph, src, dst)
	}

	if !path.Found {
		route.Path = []models.Station{source, destination}
		route.TotalStations = 1
		route.InterchangeCount = InterchangeCount(route.Path)
		return route, 0
	}

	route.Path = make([]models.Station, len(path.Nodes))
	for i, id := range path.Nodes {
		route.Path[i] = sg.stations[id]
	}
	route.TotalStations = len(route.Path) - 1
	route.InterchangeCount = InterchangeCount(route.Path)
	route.DistanceKm = PathDistanceKm(route.Path)
	route.EstimatedTime = EstimatedMinutes(route.TotalStations, route.InterchangeCount)
	route.Connected = true
	return route, path.Distance
}

// EstimatedMinutes is the static travel estimate for a path with the given
// number of hops, of which interchanges are line changes
func EstimatedMinutes(hops, interchanges int) int {
	return (hops-interchanges)*MinutesPerHop + interchanges*MinutesPerInterchange
}

// InterchangeCount counts adjacent path pairs whose lines differ
func InterchangeCount(path []models.Station) int {
	count := 0
	for i := 1; i < len(path); i++ {
		if path[i].Line != path[i-1].Line {
			count++
		}
	}
	return count
}
