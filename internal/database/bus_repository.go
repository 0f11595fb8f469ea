package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/harshit21255/delhi-transit-buddy/internal/models"
)

// BusRepository handles GTFS entity persistence and the combined index table
type BusRepository struct {
	db        DB
	notifier  *Notifier
	batchSize int
}

// NewBusRepository creates a new bus repository
func NewBusRepository(db DB, notifier *Notifier) *BusRepository {
	return &BusRepository{
		db:        db,
		notifier:  notifier,
		batchSize: DefaultBatchSize,
	}
}

// ListRoutes returns every bus route
func (r *BusRepository) ListRoutes(ctx context.Context) ([]models.BusRoute, error) {
	query := `
		SELECT route_id, agency_id, route_short_name, route_long_name, route_type
		FROM bus_routes
		ORDER BY route_id
	`

	var routes []models.BusRoute
	if err := r.db.SelectContext(ctx, &routes, query); err != nil {
		return nil, fmt.Errorf("error listing routes: %w", err)
	}
	return routes, nil
}

// ListStops returns every bus stop
func (r *BusRepository) ListStops(ctx context.Context) ([]models.BusStop, error) {
	query := `
		SELECT stop_id, stop_name, stop_lat, stop_lon
		FROM bus_stops
		ORDER BY stop_id
	`

	var stops []models.BusStop
	if err := r.db.SelectContext(ctx, &stops, query); err != nil {
		return nil, fmt.Errorf("error listing stops: %w", err)
	}
	return stops, nil
}

// ListTrips returns every trip
func (r *BusRepository) ListTrips(ctx context.Context) ([]models.BusTrip, error) {
	query := `
		SELECT trip_id, route_id, service_id
		FROM bus_trips
		ORDER BY trip_id
	`

	var trips []models.BusTrip
	if err := r.db.SelectContext(ctx, &trips, query); err != nil {
		return nil, fmt.Errorf("error listing trips: %w", err)
	}
	return trips, nil
}

// ListStopTimes returns every stop time ordered by trip and position
func (r *BusRepository) ListStopTimes(ctx context.Context) ([]models.StopTime, error) {
	query := `
		SELECT trip_id, stop_id, arrival_time, departure_time, stop_sequence
		FROM bus_stop_times
		ORDER BY trip_id, stop_sequence
	`

	var stopTimes []models.StopTime
	if err := r.db.SelectContext(ctx, &stopTimes, query); err != nil {
		return nil, fmt.Errorf("error listing stop times: %w", err)
	}
	return stopTimes, nil
}

// ListCombinedRows returns the persisted combined index ordered by trip and position
func (r *BusRepository) ListCombinedRows(ctx context.Context) ([]models.CombinedBusData, error) {
	query := `
		SELECT bus_id, route_id, route_name, stop_id, stop_name, stop_sequence
		FROM combined_bus_data
		ORDER BY bus_id, stop_sequence
	`

	var rows []models.CombinedBusData
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("error listing combined bus data: %w", err)
	}
	return rows, nil
}

// FindRouteByID returns a single route
func (r *BusRepository) FindRouteByID(ctx context.Context, routeID string) (*models.BusRoute, error) {
	query := r.db.Rebind(`
		SELECT route_id, agency_id, route_short_name, route_long_name, route_type
		FROM bus_routes
		WHERE route_id = ?
	`)

	var route models.BusRoute
	if err := r.db.GetContext(ctx, &route, query, routeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding route: %w", err)
	}
	return &route, nil
}

// FindStopByName finds a stop by exact name match (case-insensitive)
func (r *BusRepository) FindStopByName(ctx context.Context, name string) (*models.BusStop, error) {
	query := r.db.Rebind(`
		SELECT stop_id, stop_name, stop_lat, stop_lon
		FROM bus_stops
		WHERE LOWER(stop_name) = LOWER(?)
		ORDER BY stop_id
		LIMIT 1
	`)

	var stop models.BusStop
	if err := r.db.GetContext(ctx, &stop, query, strings.TrimSpace(name)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding stop: %w", err)
	}
	return &stop, nil
}

// SearchStops returns stops whose name contains the search term
func (r *BusRepository) SearchStops(ctx context.Context, term string, limit int) ([]models.BusStop, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []models.BusStop{}, nil
	}

	query := r.db.Rebind(`
		SELECT stop_id, stop_name, stop_lat, stop_lon
		FROM bus_stops
		WHERE LOWER(stop_name) LIKE LOWER(?) ESCAPE '!'
		ORDER BY
			CASE WHEN LOWER(stop_name) = LOWER(?) THEN 0 ELSE 1 END,
			stop_name
		LIMIT ?
	`)

	stops := []models.BusStop{}
	if err := r.db.SelectContext(ctx, &stops, query, likePattern(term), term, limit); err != nil {
		return nil, fmt.Errorf("error searching stops: %w", err)
	}
	return stops, nil
}

// UpsertAgencies inserts or replaces agencies by id
func (r *BusRepository) UpsertAgencies(ctx context.Context, agencies []models.BusAgency) error {
	query := `
		INSERT INTO bus_agencies (agency_id, agency_name, agency_url, agency_timezone)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (agency_id) DO UPDATE SET
			agency_name = excluded.agency_name,
			agency_url = excluded.agency_url,
			agency_timezone = excluded.agency_timezone
	`

	rows := make([][]interface{}, len(agencies))
	for i, a := range agencies {
		rows[i] = []interface{}{a.AgencyID, a.AgencyName, a.AgencyURL, a.AgencyTimezone}
	}

	if err := bulkUpsert(ctx, r.db, query, rows, r.batchSize); err != nil {
		return fmt.Errorf("error upserting agencies: %w", err)
	}
	r.notifier.Publish(KindAgencies)
	return nil
}

// UpsertRoutes inserts or replaces routes by id
func (r *BusRepository) UpsertRoutes(ctx context.Context, routes []models.BusRoute) error {
	query := `
		INSERT INTO bus_routes (route_id, agency_id, route_short_name, route_long_name, route_type)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (route_id) DO UPDATE SET
			agency_id = excluded.agency_id,
			route_short_name = excluded.route_short_name,
			route_long_name = excluded.route_long_name,
			route_type = excluded.route_type
	`

	rows := make([][]interface{}, len(routes))
	for i, rt := range routes {
		rows[i] = []interface{}{rt.RouteID, rt.AgencyID, rt.RouteShortName, rt.RouteLongName, rt.RouteType}
	}

	if err := bulkUpsert(ctx, r.db, query, rows, r.batchSize); err != nil {
		return fmt.Errorf("error upserting routes: %w", err)
	}
	r.notifier.Publish(KindRoutes)
	return nil
}

// UpsertStops inserts or replaces stops by id
func (r *BusRepository) UpsertStops(ctx context.Context, stops []models.BusStop) error {
	query := `
		INSERT INTO bus_stops (stop_id, stop_name, stop_lat, stop_lon)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (stop_id) DO UPDATE SET
			stop_name = excluded.stop_name,
			stop_lat = excluded.stop_lat,
			stop_lon = excluded.stop_lon
	`

	rows := make([][]interface{}, len(stops))
	for i, s := range stops {
		rows[i] = []interface{}{s.StopID, s.StopName, s.StopLat, s.StopLon}
	}

	if err := bulkUpsert(ctx, r.db, query, rows, r.batchSize); err != nil {
		return fmt.Errorf("error upserting stops: %w", err)
	}
	r.notifier.Publish(KindStops)
	return nil
}

// UpsertTrips inserts or replaces trips by id
func (r *BusRepository) UpsertTrips(ctx context.Context, trips []models.BusTrip) error {
	query := `
		INSERT INTO bus_trips (trip_id, route_id, service_id)
		VALUES (?, ?, ?)
		ON CONFLICT (trip_id) DO UPDATE SET
			route_id = excluded.route_id,
			service_id = excluded.service_id
	`

	rows := make([][]interface{}, len(trips))
	for i, t := range trips {
		rows[i] = []interface{}{t.TripID, t.RouteID, t.ServiceID}
	}

	if err := bulkUpsert(ctx, r.db, query, rows, r.batchSize); err != nil {
		return fmt.Errorf("error upserting trips: %w", err)
	}
	r.notifier.Publish(KindTrips)
	return nil
}

// UpsertStopTimes inserts or replaces stop times by (trip_id, stop_sequence),
// committing in batches
func (r *BusRepository) UpsertStopTimes(ctx context.Context, stopTimes []models.StopTime) error {
	query := `
		INSERT INTO bus_stop_times (trip_id, stop_id, arrival_time, departure_time, stop_sequence)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (trip_id, stop_sequence) DO UPDATE SET
			stop_id = excluded.stop_id,
			arrival_time = excluded.arrival_time,
			departure_time = excluded.departure_time
	`

	rows := make([][]interface{}, len(stopTimes))
	for i, st := range stopTimes {
		rows[i] = []interface{}{st.TripID, st.StopID, st.ArrivalTime, st.DepartureTime, st.StopSequence}
	}

	if err := bulkUpsert(ctx, r.db, query, rows, r.batchSize); err != nil {
		return fmt.Errorf("error upserting stop times: %w", err)
	}
	r.notifier.Publish(KindStopTimes)
	return nil
}

// ReplaceCombinedRows swaps the persisted combined index in one transaction
func (r *BusRepository) ReplaceCombinedRows(ctx context.Context, rows []models.CombinedBusData) error {
	insert := r.db.Rebind(`
		INSERT INTO combined_bus_data (bus_id, route_id, route_name, stop_id, stop_name, stop_sequence)
		VALUES (?, ?, ?, ?, ?, ?)
	`)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM combined_bus_data`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("error clearing combined bus data: %w", err)
	}

	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, insert,
			row.BusID, row.RouteID, row.RouteName, row.StopID, row.StopName, row.StopSequence,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("error inserting combined bus data: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit combined bus data: %w", err)
	}

	r.notifier.Publish(KindCombined)
	return nil
}

// CountRecords returns row counts for every table in the record store
func (r *BusRepository) CountRecords(ctx context.Context) (*models.RecordCounts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM stations) AS stations,
			(SELECT COUNT(*) FROM metro_lines) AS lines,
			(SELECT COUNT(*) FROM bus_agencies) AS agencies,
			(SELECT COUNT(*) FROM bus_routes) AS routes,
			(SELECT COUNT(*) FROM bus_stops) AS stops,
			(SELECT COUNT(*) FROM bus_trips) AS trips,
			(SELECT COUNT(*) FROM bus_stop_times) AS stop_times,
			(SELECT COUNT(*) FROM combined_bus_data) AS combined
	`

	var counts models.RecordCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("error counting records: %w", err)
	}
	return &counts, nil
}
