package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/harshit21255/delhi-transit-buddy/internal/models"
)

// StationRepository handles metro station and line persistence
type StationRepository struct {
	db       DB
	notifier *Notifier
}

// NewStationRepository creates a new station repository
func NewStationRepository(db DB, notifier *Notifier) *StationRepository {
	return &StationRepository{
		db:       db,
		notifier: notifier,
	}
}

// ListStations returns every station ordered by line and ordinal
func (r *StationRepository) ListStations(ctx context.Context) ([]models.Station, error) {
	query := `
		SELECT name, line, station_id, latitude, longitude
		FROM stations
		ORDER BY line, station_id
	`

	var stations []models.Station
	if err := r.db.SelectContext(ctx, &stations, query); err != nil {
		return nil, fmt.Errorf("error listing stations: %w", err)
	}
	return stations, nil
}

// ListLines returns every metro line
func (r *StationRepository) ListLines(ctx context.Context) ([]models.MetroLine, error) {
	query := `
		SELECT name, color, total_stations
		FROM metro_lines
		ORDER BY name
	`

	var lines []models.MetroLine
	if err := r.db.SelectContext(ctx, &lines, query); err != nil {
		return nil, fmt.Errorf("error listing lines: %w", err)
	}
	return lines, nil
}

// FindStationByName finds a station by exact name match (case-insensitive).
// Interchange stations match once per line; the first line alphabetically wins.
func (r *StationRepository) FindStationByName(ctx context.Context, name string) (*models.Station, error) {
	query := r.db.Rebind(`
		SELECT name, line, station_id, latitude, longitude
		FROM stations
		WHERE LOWER(name) = LOWER(?)
		ORDER BY line, station_id
		LIMIT 1
	`)

	var station models.Station
	err := r.db.GetContext(ctx, &station, query, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding station: %w", err)
	}
	return &station, nil
}

// SearchStations returns stations whose name contains the search term
func (r *StationRepository) SearchStations(ctx context.Context, term string, limit int) ([]models.Station, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []models.Station{}, nil
	}

	query := r.db.Rebind(`
		SELECT name, line, station_id, latitude, longitude
		FROM stations
		WHERE LOWER(name) LIKE LOWER(?) ESCAPE '!'
		ORDER BY
			CASE WHEN LOWER(name) = LOWER(?) THEN 0 ELSE 1 END,
			name, line
		LIMIT ?
	`)

	stations := []models.Station{}
	if err := r.db.SelectContext(ctx, &stations, query, likePattern(term), term, limit); err != nil {
		return nil, fmt.Errorf("error searching stations: %w", err)
	}
	return stations, nil
}

// CountStations returns the number of stored stations
func (r *StationRepository) CountStations(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM stations`); err != nil {
		return 0, fmt.Errorf("error counting stations: %w", err)
	}
	return count, nil
}

// UpsertLines inserts or replaces metro lines by name
func (r *StationRepository) UpsertLines(ctx context.Context, lines []models.MetroLine) error {
	query := `
		INSERT INTO metro_lines (name, color, total_stations)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			color = excluded.color,
			total_stations = excluded.total_stations
	`

	rows := make([][]interface{}, len(lines))
	for i, l := range lines {
		rows[i] = []interface{}{l.Name, l.Color, l.TotalStations}
	}

	if err := bulkUpsert(ctx, r.db, query, rows, DefaultBatchSize); err != nil {
		return fmt.Errorf("error upserting lines: %w", err)
	}
	r.notifier.Publish(KindLines)
	return nil
}

// UpsertStations inserts or replaces stations by (line, station_id)
func (r *StationRepository) UpsertStations(ctx context.Context, stations []models.Station) error {
	query := `
		INSERT INTO stations (line, station_id, name, latitude, longitude)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (line, station_id) DO UPDATE SET
			name = excluded.name,
			latitude = excluded.latitude,
			longitude = excluded.longitude
	`

	rows := make([][]interface{}, len(stations))
	for i, s := range stations {
		rows[i] = []interface{}{s.Line, s.StationID, s.Name, s.Latitude, s.Longitude}
	}

	if err := bulkUpsert(ctx, r.db, query, rows, DefaultBatchSize); err != nil {
		return fmt.Errorf("error upserting stations: %w", err)
	}
	r.notifier.Publish(KindStations)
	return nil
}
