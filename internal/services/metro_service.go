package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harshit21255/delhi-transit-buddy/internal/database"
	"github.com/harshit21255/delhi-transit-buddy/internal/models"
	"github.com/harshit21255/delhi-transit-buddy/internal/routing"
	"github.com/sirupsen/logrus"
)

// StationStore is the read side of the record store used for rail routing
type StationStore interface {
	ListStations(ctx context.Context) ([]models.Station, error)
	ListLines(ctx context.Context) ([]models.MetroLine, error)
	FindStationByName(ctx context.Context, name string) (*models.Station, error)
	SearchStations(ctx context.Context, term string, limit int) ([]models.Station, error)
}

// MetroSnapshot is an immutable view of the rail network. Its name index
// only ever resolves to stations of the same generation as its graph.
type MetroSnapshot struct {
	Graph    *routing.StationGraph
	Stations []models.Station
	Lines    []models.MetroLine
	names    *NameIndex[[]models.Station]
}

// Size is the number of stations in the snapshot
func (s *MetroSnapshot) Size() int { return len(s.Stations) }

// MetroService plans rail journeys over the cached station graph
type MetroService struct {
	store   StationStore
	cache   *SnapshotCache[MetroSnapshot]
	penalty int
	logger  *logrus.Logger
}

// NewMetroService creates a new metro service
func NewMetroService(store StationStore, notifier *database.Notifier, interchangePenalty int, logger *logrus.Logger) *MetroService {
	s := &MetroService{
		store:   store,
		penalty: interchangePenalty,
		logger:  logger,
	}
	s.cache = NewSnapshotCache("metro", s.buildSnapshot, notifier, logger, database.KindStations, database.KindLines)
	return s
}

// Cache exposes the snapshot cache for watching and forced rebuilds
func (s *MetroService) Cache() *SnapshotCache[MetroSnapshot] {
	return s.cache
}

func (s *MetroService) buildSnapshot(ctx context.Context) (*MetroSnapshot, error) {
	stations, err := s.store.ListStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stations: %w", err)
	}
	if len(stations) == 0 {
		return nil, ErrRoutingUnavailable
	}

	lines, err := s.store.ListLines(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load metro lines: %w", err)
	}

	byName := make(map[string][]models.Station)
	for _, st := range stations {
		key := st.NameKey()
		byName[key] = append(byName[key], st)
	}

	snap := &MetroSnapshot{
		Graph:    routing.BuildStationGraph(stations, s.penalty),
		Stations: stations,
		Lines:    lines,
		names:    NewNameIndex(s.loadStations, byName),
	}

	s.logger.WithFields(logrus.Fields{
		"stations": len(stations),
		"lines":    len(lines),
		"edges":    snap.Graph.Graph().EdgeCount(),
	}).Info("Station graph built")

	return snap, nil
}

func (s *MetroService) loadStations(ctx context.Context, name string) ([]models.Station, error) {
	st, err := s.store.FindStationByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return []models.Station{*st}, nil
}

// candidates returns every station of snap sharing name, one per line
func (s *MetroService) candidates(ctx context.Context, snap *MetroSnapshot, name string) ([]models.Station, error) {
	key := models.NormalizeName(name)
	if key == "" {
		return nil, models.NewInvalidStationError(name)
	}

	stations, err := snap.names.Lookup(ctx, key, name)
	if errors.Is(err, database.ErrNotFound) {
		return nil, models.NewInvalidStationError(name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up station %q: %w", name, err)
	}
	return stations, nil
}

// Stations returns every station in the current snapshot
func (s *MetroService) Stations(ctx context.Context) ([]models.Station, error) {
	snap, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Stations, nil
}

// Lines returns every metro line in the current snapshot
func (s *MetroService) Lines(ctx context.Context) ([]models.MetroLine, error) {
	snap, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Lines, nil
}

// FindStation resolves a station by case-insensitive name
func (s *MetroService) FindStation(ctx context.Context, name string) (*models.Station, error) {
	snap, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	stations, err := s.candidates(ctx, snap, name)
	if err != nil {
		return nil, err
	}
	st := stations[0]
	return &st, nil
}

// PlanRailRoute finds the cheapest rail journey between two station names
func (s *MetroService) PlanRailRoute(ctx context.Context, from, to string) (*models.RailRoute, error) {
	start := time.Now()

	snap, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	route, err := s.planRailRoute(ctx, snap, from, to)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"from":         from,
		"to":           to,
		"stations":     route.TotalStations,
		"interchanges": route.InterchangeCount,
		"connected":    route.Connected,
		"duration":     time.Since(start).String(),
	}).Info("Rail route planned")

	return route, nil
}

// planRailRoute resolves both names and plans entirely within snap
func (s *MetroService) planRailRoute(ctx context.Context, snap *MetroSnapshot, from, to string) (*models.RailRoute, error) {
	sources, srcErr := s.candidates(ctx, snap, from)
	destinations, dstErr := s.candidates(ctx, snap, to)
	if err := mergeLookupErrors(srcErr, dstErr); err != nil {
		return nil, err
	}

	route := snap.Graph.BestRoute(sources, destinations)
	return &route, nil
}

// SearchStations finds stations whose names contain query
func (s *MetroService) SearchStations(ctx context.Context, query string, limit int) ([]models.Station, error) {
	stations, err := s.store.SearchStations(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search stations: %w", err)
	}
	return stations, nil
}

// mergeLookupErrors folds unknown-name errors for both ends into one
func mergeLookupErrors(src, dst error) error {
	var srcInvalid, dstInvalid *models.InvalidStationError
	srcIs := errors.As(src, &srcInvalid)
	dstIs := errors.As(dst, &dstInvalid)

	switch {
	case src != nil && !srcIs:
		return src
	case dst != nil && !dstIs:
		return dst
	case srcIs && dstIs:
		names := append([]string{}, srcInvalid.Names...)
		return models.NewInvalidStationError(append(names, dstInvalid.Names...)...)
	case srcIs:
		return srcInvalid
	case dstIs:
		return dstInvalid
	}
	return nil
}
