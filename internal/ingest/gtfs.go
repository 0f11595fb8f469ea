package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harshit21255/delhi-transit-buddy/internal/models"
	"github.com/sirupsen/logrus"
)

// DefaultBatchSize is the number of stop times written per upsert call
const DefaultBatchSize = 500

// BusWriter is the write side of the record store used by GTFS ingestion
type BusWriter interface {
	UpsertAgencies(ctx context.Context, agencies []models.BusAgency) error
	UpsertRoutes(ctx context.Context, routes []models.BusRoute) error
	UpsertStops(ctx context.Context, stops []models.BusStop) error
	UpsertTrips(ctx context.Context, trips []models.BusTrip) error
	UpsertStopTimes(ctx context.Context, stopTimes []models.StopTime) error
}

// Loader converts static feed files into normalized records
type Loader struct {
	logger    *logrus.Logger
	batchSize int
}

// NewLoader creates a new feed loader
func NewLoader(logger *logrus.Logger) *Loader {
	return &Loader{
		logger:    logger,
		batchSize: DefaultBatchSize,
	}
}

// LoadGTFS reads agency, routes, stops, trips and stop_times from dir and
// writes them through w, in that order
func (l *Loader) LoadGTFS(ctx context.Context, dir string, w BusWriter) (*Report, error) {
	report := &Report{}

	agencies, err := l.readAgencies(filepath.Join(dir, "agency.txt"), report)
	if err != nil {
		return nil, err
	}
	if err := w.UpsertAgencies(ctx, agencies); err != nil {
		return nil, err
	}
	report.Agencies = len(agencies)

	routes, err := l.readRoutes(filepath.Join(dir, "routes.txt"), report)
	if err != nil {
		return nil, err
	}
	if err := w.UpsertRoutes(ctx, routes); err != nil {
		return nil, err
	}
	report.Routes = len(routes)

	stops, err := l.readStops(filepath.Join(dir, "stops.txt"), report)
	if err != nil {
		return nil, err
	}
	if err := w.UpsertStops(ctx, stops); err != nil {
		return nil, err
	}
	report.Stops = len(stops)

	trips, err := l.readTrips(filepath.Join(dir, "trips.txt"), report)
	if err != nil {
		return nil, err
	}
	if err := w.UpsertTrips(ctx, trips); err != nil {
		return nil, err
	}
	report.Trips = len(trips)

	if err := l.loadStopTimes(ctx, filepath.Join(dir, "stop_times.txt"), w, report); err != nil {
		return nil, err
	}

	l.logger.WithFields(logrus.Fields{
		"agencies":   report.Agencies,
		"routes":     report.Routes,
		"stops":      report.Stops,
		"trips":      report.Trips,
		"stop_times": report.StopTimes,
		"skipped":    report.Skipped,
	}).Info("GTFS feed loaded")

	return report, nil
}

func (l *Loader) readAgencies(path string, report *Report) ([]models.BusAgency, error) {
	var agencies []models.BusAgency
	err := readFile(path, []string{"agency_name"}, report, func(rec record) bool {
		agency := models.BusAgency{
			AgencyID:       rec.get("agency_id"),
			AgencyName:     rec.get("agency_name"),
			AgencyURL:      rec.get("agency_url"),
			AgencyTimezone: rec.get("agency_timezone"),
		}
		if agency.AgencyName == "" {
			report.Warn("agency.txt: row without agency_name")
			return true
		}
		agencies = append(agencies, agency)
		return true
	})
	return agencies, err
}

func (l *Loader) readRoutes(path string, report *Report) ([]models.BusRoute, error) {
	var routes []models.BusRoute
	err := readFile(path, []string{"route_id"}, report, func(rec record) bool {
		route := models.BusRoute{
			RouteID:        rec.get("route_id"),
			AgencyID:       rec.get("agency_id"),
			RouteShortName: rec.get("route_short_name"),
			RouteLongName:  rec.get("route_long_name"),
			RouteType:      rec.getInt("route_type", models.RouteTypeBus),
		}
		if route.RouteID == "" {
			report.Warn("routes.txt: row without route_id")
			return true
		}
		routes = append(routes, route)
		return true
	})
	return routes, err
}

func (l *Loader) readStops(path string, report *Report) ([]models.BusStop, error) {
	var stops []models.BusStop
	err := readFile(path, []string{"stop_id", "stop_name"}, report, func(rec record) bool {
		stop := models.BusStop{
			StopID:   rec.get("stop_id"),
			StopName: rec.get("stop_name"),
			StopLat:  rec.getFloat("stop_lat", 0),
			StopLon:  rec.getFloat("stop_lon", 0),
		}
		if stop.StopID == "" || stop.StopName == "" {
			report.Warn("stops.txt: row without stop_id or stop_name")
			return true
		}
		stops = append(stops, stop)
		return true
	})
	return stops, err
}

func (l *Loader) readTrips(path string, report *Report) ([]models.BusTrip, error) {
	var trips []models.BusTrip
	err := readFile(path, []string{"trip_id", "route_id"}, report, func(rec record) bool {
		trip := models.BusTrip{
			TripID:    rec.get("trip_id"),
			RouteID:   rec.get("route_id"),
			ServiceID: rec.get("service_id"),
		}
		if trip.TripID == "" || trip.RouteID == "" {
			report.Warn("trips.txt: row without trip_id or route_id")
			return true
		}
		trips = append(trips, trip)
		return true
	})
	return trips, err
}

// loadStopTimes streams stop_times.txt, the largest file, in batches
func (l *Loader) loadStopTimes(ctx context.Context, path string, w BusWriter, report *Report) error {
	batch := make([]models.StopTime, 0, l.batchSize)
	var writeErr error

	flush := func() {
		if len(batch) == 0 || writeErr != nil {
			return
		}
		if err := w.UpsertStopTimes(ctx, batch); err != nil {
			writeErr = err
			return
		}
		report.StopTimes += len(batch)
		l.logger.WithField("processed", report.StopTimes).Debug("Stop times batch written")
		batch = make([]models.StopTime, 0, l.batchSize)
	}

	err := readFile(path, []string{"trip_id", "stop_id", "stop_sequence"}, report, func(rec record) bool {
		if writeErr != nil {
			return true
		}
		st := models.StopTime{
			TripID:        rec.get("trip_id"),
			StopID:        rec.get("stop_id"),
			ArrivalTime:   rec.get("arrival_time"),
			DepartureTime: rec.get("departure_time"),
		}
		if st.TripID == "" || st.StopID == "" {
			report.Warn("stop_times.txt: row without trip_id or stop_id")
			return true
		}
		seq, ok := rec.lookupInt("stop_sequence")
		if !ok {
			report.Warn("stop_times.txt: trip %s has unparsable stop_sequence %q", st.TripID, rec.get("stop_sequence"))
			return true
		}
		st.StopSequence = seq
		batch = append(batch, st)
		if len(batch) >= l.batchSize {
			flush()
		}
		return true
	})
	if err != nil {
		return err
	}

	flush()
	return writeErr
}

func readFile(path string, required []string, report *Report, fn func(record) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	skipped, err := readCSV(f, required, fn)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	for i := 0; i < skipped; i++ {
		report.Warn("%s: malformed row", filepath.Base(path))
	}
	return nil
}
