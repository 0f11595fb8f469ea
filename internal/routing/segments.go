package routing

// PathSegment is a run of path nodes ridden under one label
type PathSegment struct {
	Label Label
	Nodes []int
}

// Segment splits a path into the fewest runs such that every edge of a run
// carries the run's route. At each boundary it picks the route that reaches
// furthest along the path; ties go to the label listed first on the edge.
// Consecutive segments share their boundary node. A path with fewer than two
// nodes, or one crossing an unlabeled edge, yields no segments.
func Segment(g *Graph, nodes []int) []PathSegment {
	if len(nodes) < 2 {
		return nil
	}

	edges := make([][]Label, len(nodes)-1)
	for i := range edges {
		e, ok := g.EdgeBetween(nodes[i], nodes[i+1])
		if !ok || len(e.Labels) == 0 {
			return nil
		}
		edges[i] = e.Labels
	}

	var segments []PathSegment
	for start := 0; start < len(edges); {
		best, bestReach := Label{}, 0
		for _, l := range edges[start] {
			if r := reach(edges, start, l.RouteID); r > bestReach {
				best, bestReach = l, r
			}
		}

		end := start + bestReach
		segments = append(segments, PathSegment{
			Label: best,
			Nodes: append([]int(nil), nodes[start:end+1]...),
		})
		start = end
	}
	return segments
}

// reach counts consecutive edges from start that carry routeID
func reach(edges [][]Label, start int, routeID string) int {
	n := 0
	for i := start; i < len(edges); i++ {
		if !hasRoute(edges[i], routeID) {
			break
		}
		n++
	}
	return n
}

func hasRoute(labels []Label, routeID string) bool {
	for _, l := range labels {
		if l.RouteID == routeID {
			return true
		}
	}
	return false
}
