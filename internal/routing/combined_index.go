package routing

import (
	"sort"
	"strings"

	"github.com/harshit21255/delhi-transit-buddy/internal/models"
)

// TripSequence is the ordered distinct stop list ridden by one trip
type TripSequence struct {
	TripID    string
	RouteID   string
	RouteName string
	Stops     []string // display names, first spelling seen
	keys      []string
}

// DirectMatch is a single trip that serves both ends of a query in order
type DirectMatch struct {
	TripID  string
	RouteID string
	Stops   []string
}

// CombinedIndex maps trips to their routes and stop sequences
type CombinedIndex struct {
	trips []TripSequence
}

// BuildCombinedIndex joins trips, routes, stops and stop times into the
// flattened index rows. Rows are grouped by trip in trip id order and sorted
// by stop sequence within a trip. The second result counts skipped inputs:
// trips without a route, stop times without a known trip or stop, and stop
// times that claim a position already held by a different stop. Stop times
// of a trip skipped for its route are covered by that trip's count.
func BuildCombinedIndex(trips []models.BusTrip, routes []models.BusRoute, stops []models.BusStop, stopTimes []models.StopTime) ([]models.CombinedBusData, int) {
	routeByID := make(map[string]models.BusRoute, len(routes))
	for _, r := range routes {
		routeByID[r.RouteID] = r
	}
	stopByID := make(map[string]models.BusStop, len(stops))
	for _, s := range stops {
		stopByID[s.StopID] = s
	}

	warnings := 0
	knownTrip := make(map[string]bool, len(trips))
	tripRoute := make(map[string]models.BusRoute, len(trips))
	for _, t := range trips {
		knownTrip[t.TripID] = true
		r, ok := routeByID[t.RouteID]
		if !ok {
			warnings++
			continue
		}
		tripRoute[t.TripID] = r
	}

	byTrip := make(map[string][]models.CombinedBusData)
	for _, st := range stopTimes {
		r, ok := tripRoute[st.TripID]
		if !ok {
			if !knownTrip[st.TripID] {
				warnings++
			}
			continue
		}
		stop, ok := stopByID[st.StopID]
		if !ok {
			warnings++
			continue
		}
		byTrip[st.TripID] = append(byTrip[st.TripID], models.CombinedBusData{
			BusID:        st.TripID,
			RouteID:      r.RouteID,
			RouteName:    r.RouteLongName,
			StopID:       stop.StopID,
			StopName:     stop.StopName,
			StopSequence: st.StopSequence,
		})
	}

	tripIDs := make([]string, 0, len(byTrip))
	for id := range byTrip {
		tripIDs = append(tripIDs, id)
	}
	sort.Strings(tripIDs)

	var rows []models.CombinedBusData
	for _, id := range tripIDs {
		sorted, conflicts := sortTripRows(byTrip[id])
		rows = append(rows, sorted...)
		warnings += conflicts
	}
	return rows, warnings
}

// sortTripRows orders one trip's rows by sequence and keeps the first row at
// each position. Exact repeats are dropped silently; a different stop at a
// taken position is dropped and counted.
func sortTripRows(rows []models.CombinedBusData) ([]models.CombinedBusData, int) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].StopSequence < rows[j].StopSequence
	})
	conflicts := 0
	out := rows[:0]
	for _, row := range rows {
		if n := len(out); n > 0 && row.StopSequence == out[n-1].StopSequence {
			if row.StopID != out[n-1].StopID {
				conflicts++
			}
			continue
		}
		out = append(out, row)
	}
	return out, conflicts
}

// IndexFromRows builds the lookup structure from combined index rows in any order
func IndexFromRows(rows []models.CombinedBusData) *CombinedIndex {
	byTrip := make(map[string][]models.CombinedBusData)
	for _, row := range rows {
		byTrip[row.BusID] = append(byTrip[row.BusID], row)
	}

	tripIDs := make([]string, 0, len(byTrip))
	for id := range byTrip {
		tripIDs = append(tripIDs, id)
	}
	sort.Strings(tripIDs)

	idx := &CombinedIndex{trips: make([]TripSequence, 0, len(tripIDs))}
	for _, id := range tripIDs {
		tripRows, _ := sortTripRows(append([]models.CombinedBusData(nil), byTrip[id]...))
		seq := TripSequence{
			TripID:    id,
			RouteID:   tripRows[0].RouteID,
			RouteName: tripRows[0].RouteName,
		}
		seen := make(map[string]bool, len(tripRows))
		for _, row := range tripRows {
			key := models.NormalizeName(row.StopName)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			seq.Stops = append(seq.Stops, row.StopName)
			seq.keys = append(seq.keys, key)
		}
		idx.trips = append(idx.trips, seq)
	}
	return idx
}

// Trips returns every trip sequence in trip id order
func (idx *CombinedIndex) Trips() []TripSequence {
	return idx.trips
}

// TripRouteStops returns trip id -> route id -> ordered distinct stop names
func (idx *CombinedIndex) TripRouteStops() map[string]map[string][]string {
	out := make(map[string]map[string][]string, len(idx.trips))
	for _, t := range idx.trips {
		out[t.TripID] = map[string][]string{t.RouteID: t.Stops}
	}
	return out
}

// DirectRoutes finds trips that visit source and later destination.
// Matches with the same route and stop list are reported once.
func (idx *CombinedIndex) DirectRoutes(source, destination string) []DirectMatch {
	src := models.NormalizeName(source)
	dst := models.NormalizeName(destination)
	if src == "" || dst == "" || src == dst {
		return nil
	}

	var matches []DirectMatch
	seen := make(map[string]bool)
	for _, t := range idx.trips {
		from, to := -1, -1
		for i, key := range t.keys {
			if key == src && from == -1 {
				from = i
			}
			if key == dst && from != -1 {
				to = i
				break
			}
		}
		if from == -1 || to == -1 {
			continue
		}

		stops := t.Stops[from : to+1]
		sig := t.RouteID + "\x00" + strings.Join(t.keys[from:to+1], "\x00")
		if seen[sig] {
			continue
		}
		seen[sig] = true
		matches = append(matches, DirectMatch{
			TripID:  t.TripID,
			RouteID: t.RouteID,
			Stops:   append([]string(nil), stops...),
		})
	}
	return matches
}
