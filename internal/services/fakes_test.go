package services

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/harshit21255/delhi-transit-buddy/internal/database"
	"github.com/harshit21255/delhi-transit-buddy/internal/models"
	"github.com/harshit21255/delhi-transit-buddy/internal/routing"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeStationStore struct {
	mu          sync.Mutex
	stations    []models.Station
	lines       []models.MetroLine
	extra       []models.Station // visible to point lookups only
	listCalls   int
	lookupCalls int
}

func (f *fakeStationStore) ListStations(context.Context) ([]models.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return append([]models.Station(nil), f.stations...), nil
}

func (f *fakeStationStore) ListLines(context.Context) ([]models.MetroLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lines, nil
}

func (f *fakeStationStore) FindStationByName(_ context.Context, name string) (*models.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookupCalls++
	for _, s := range append(append([]models.Station(nil), f.stations...), f.extra...) {
		if strings.EqualFold(s.Name, strings.TrimSpace(name)) {
			st := s
			return &st, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeStationStore) SearchStations(_ context.Context, term string, limit int) ([]models.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Station
	for _, s := range f.stations {
		if strings.Contains(strings.ToLower(s.Name), strings.ToLower(term)) && len(out) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStationStore) setStations(stations []models.Station) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stations = stations
}

type fakeBusStore struct {
	trips     []models.BusTrip
	routes    []models.BusRoute
	stops     []models.BusStop
	stopTimes []models.StopTime
	combined  []models.CombinedBusData

	agencies      []models.BusAgency
	replaceCalls  int
	stopTimeCalls int
}

// newFakeBusStore builds a feed where each row is (trip, route, stop names...)
func newFakeBusStore(rows ...[]string) *fakeBusStore {
	f := &fakeBusStore{}
	seenRoute := map[string]bool{}
	stopIDs := map[string]string{}
	for _, row := range rows {
		trip, route := row[0], row[1]
		if !seenRoute[route] {
			seenRoute[route] = true
			f.routes = append(f.routes, models.BusRoute{
				RouteID:        route,
				RouteShortName: route,
				RouteLongName:  route + " Express",
				RouteType:      models.RouteTypeBus,
			})
		}
		f.trips = append(f.trips, models.BusTrip{TripID: trip, RouteID: route})
		for i, name := range row[2:] {
			id, ok := stopIDs[name]
			if !ok {
				id = "S" + name
				stopIDs[name] = id
				f.stops = append(f.stops, models.BusStop{StopID: id, StopName: name, StopLat: 28.6, StopLon: 77.2})
			}
			f.stopTimes = append(f.stopTimes, models.StopTime{TripID: trip, StopID: id, StopSequence: i + 1})
		}
	}
	f.combined, _ = routing.BuildCombinedIndex(f.trips, f.routes, f.stops, f.stopTimes)
	return f
}

func (f *fakeBusStore) ListCombinedRows(context.Context) ([]models.CombinedBusData, error) {
	return f.combined, nil
}

func (f *fakeBusStore) ListRoutes(context.Context) ([]models.BusRoute, error) {
	return f.routes, nil
}

func (f *fakeBusStore) ListStops(context.Context) ([]models.BusStop, error) {
	return f.stops, nil
}

func (f *fakeBusStore) ListTrips(context.Context) ([]models.BusTrip, error) {
	return f.trips, nil
}

func (f *fakeBusStore) ListStopTimes(context.Context) ([]models.StopTime, error) {
	return f.stopTimes, nil
}

func (f *fakeBusStore) FindRouteByID(_ context.Context, routeID string) (*models.BusRoute, error) {
	for _, r := range f.routes {
		if r.RouteID == routeID {
			route := r
			return &route, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeBusStore) FindStopByName(_ context.Context, name string) (*models.BusStop, error) {
	for _, s := range f.stops {
		if strings.EqualFold(s.StopName, strings.TrimSpace(name)) {
			st := s
			return &st, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeBusStore) SearchStops(_ context.Context, term string, limit int) ([]models.BusStop, error) {
	var out []models.BusStop
	for _, s := range f.stops {
		if strings.Contains(strings.ToLower(s.StopName), strings.ToLower(term)) && len(out) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeBusStore) UpsertAgencies(_ context.Context, a []models.BusAgency) error {
	f.agencies = a
	return nil
}

func (f *fakeBusStore) UpsertRoutes(_ context.Context, r []models.BusRoute) error {
	f.routes = r
	return nil
}

func (f *fakeBusStore) UpsertStops(_ context.Context, s []models.BusStop) error {
	f.stops = s
	return nil
}

func (f *fakeBusStore) UpsertTrips(_ context.Context, t []models.BusTrip) error {
	f.trips = t
	return nil
}

func (f *fakeBusStore) UpsertStopTimes(_ context.Context, st []models.StopTime) error {
	f.stopTimeCalls++
	f.stopTimes = append(f.stopTimes, st...)
	return nil
}

func (f *fakeBusStore) ReplaceCombinedRows(_ context.Context, rows []models.CombinedBusData) error {
	f.replaceCalls++
	f.combined = rows
	return nil
}
