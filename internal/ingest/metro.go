package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/harshit21255/delhi-transit-buddy/internal/models"
	"github.com/sirupsen/logrus"
)

// MetroWriter is the write side of the record store used by metro ingestion
type MetroWriter interface {
	CountStations(ctx context.Context) (int, error)
	UpsertLines(ctx context.Context, lines []models.MetroLine) error
	UpsertStations(ctx context.Context, stations []models.Station) error
}

type metroStationJSON struct {
	Name      *string  `json:"name"`
	StationID *float64 `json:"stationId"`
	Lat       *float64 `json:"lat"`
	Long      *float64 `json:"long"`
}

// ParseMetroStations decodes a line name → station list document.
// Entries missing any field are skipped and reported.
func ParseMetroStations(r io.Reader, report *Report) ([]models.MetroLine, []models.Station, error) {
	var doc map[string][]metroStationJSON
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("failed to decode metro stations: %w", err)
	}

	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]models.MetroLine, 0, len(names))
	var stations []models.Station

	for _, lineName := range names {
		entries := doc[lineName]
		lines = append(lines, models.MetroLine{
			Name:          lineName,
			Color:         models.LineColor(lineName),
			TotalStations: len(entries),
		})

		for i, e := range entries {
			if e.Name == nil || e.StationID == nil || e.Lat == nil || e.Long == nil {
				report.Warn("metro line %s: station %d is missing a field", lineName, i)
				continue
			}
			stations = append(stations, models.Station{
				Name:      strings.TrimSpace(*e.Name),
				Line:      lineName,
				StationID: int(*e.StationID),
				Latitude:  *e.Lat,
				Longitude: *e.Long,
			})
		}
	}

	return lines, stations, nil
}

// LoadMetro loads the metro station map into the store. An already
// populated store is left untouched unless force is set.
func (l *Loader) LoadMetro(ctx context.Context, path string, w MetroWriter, force bool) (*Report, error) {
	report := &Report{}

	if !force {
		count, err := w.CountStations(ctx)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			l.logger.WithField("stations", count).Info("Metro stations already loaded, skipping initialization")
			report.Unchanged = true
			return report, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metro stations: %w", err)
	}
	defer f.Close()

	lines, stations, err := ParseMetroStations(f, report)
	if err != nil {
		return nil, err
	}

	if err := w.UpsertLines(ctx, lines); err != nil {
		return nil, err
	}
	if err := w.UpsertStations(ctx, stations); err != nil {
		return nil, err
	}

	report.Lines = len(lines)
	report.Stations = len(stations)

	l.logger.WithFields(logrus.Fields{
		"lines":    report.Lines,
		"stations": report.Stations,
		"skipped":  report.Skipped,
	}).Info("Metro stations loaded")

	return report, nil
}
