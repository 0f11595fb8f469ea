package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/harshit21255/delhi-transit-buddy/internal/ingest"
	"github.com/harshit21255/delhi-transit-buddy/internal/models"
	"github.com/harshit21255/delhi-transit-buddy/internal/routing"
	"github.com/sirupsen/logrus"
)

// ErrIngestRunning is returned when an ingestion is already in progress
var ErrIngestRunning = errors.New("feed ingestion already running")

// BusFeedStore is the store surface needed to load GTFS and regenerate the combined index
type BusFeedStore interface {
	ingest.BusWriter
	ListTrips(ctx context.Context) ([]models.BusTrip, error)
	ListRoutes(ctx context.Context) ([]models.BusRoute, error)
	ListStops(ctx context.Context) ([]models.BusStop, error)
	ListStopTimes(ctx context.Context) ([]models.StopTime, error)
	ReplaceCombinedRows(ctx context.Context, rows []models.CombinedBusData) error
}

// IngestService loads the static feeds into the record store
type IngestService struct {
	loader        *ingest.Loader
	metroStore    ingest.MetroWriter
	busStore      BusFeedStore
	gtfsDir       string
	metroJSONPath string
	logger        *logrus.Logger

	running sync.Mutex
}

// NewIngestService creates a new ingestion service
func NewIngestService(
	loader *ingest.Loader,
	metroStore ingest.MetroWriter,
	busStore BusFeedStore,
	gtfsDir string,
	metroJSONPath string,
	logger *logrus.Logger,
) *IngestService {
	return &IngestService{
		loader:        loader,
		metroStore:    metroStore,
		busStore:      busStore,
		gtfsDir:       gtfsDir,
		metroJSONPath: metroJSONPath,
		logger:        logger,
	}
}

// Run loads the requested feeds. Only one run proceeds at a time; a
// concurrent call fails fast with ErrIngestRunning.
func (s *IngestService) Run(ctx context.Context, req models.IngestRequest) (*ingest.Report, error) {
	if !s.running.TryLock() {
		return nil, ErrIngestRunning
	}
	defer s.running.Unlock()

	start := time.Now()
	report := &ingest.Report{}

	if req.Metro {
		metro, err := s.loader.LoadMetro(ctx, s.metroJSONPath, s.metroStore, req.Force)
		if err != nil {
			return nil, fmt.Errorf("metro ingestion failed: %w", err)
		}
		report.Merge(metro)
		report.Unchanged = metro.Unchanged
	}

	if req.Bus {
		bus, err := s.loader.LoadGTFS(ctx, s.gtfsDir, s.busStore)
		if err != nil {
			return nil, fmt.Errorf("GTFS ingestion failed: %w", err)
		}
		report.Merge(bus)

		if err := s.RegenerateCombinedIndex(ctx, report); err != nil {
			return nil, err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"metro":    req.Metro,
		"bus":      req.Bus,
		"force":    req.Force,
		"skipped":  report.Skipped,
		"duration": time.Since(start).String(),
	}).Info("Feed ingestion finished")

	return report, nil
}

// RegenerateCombinedIndex rebuilds the combined index from the stored
// GTFS records and replaces the persisted rows
func (s *IngestService) RegenerateCombinedIndex(ctx context.Context, report *ingest.Report) error {
	trips, err := s.busStore.ListTrips(ctx)
	if err != nil {
		return fmt.Errorf("failed to load trips: %w", err)
	}
	routes, err := s.busStore.ListRoutes(ctx)
	if err != nil {
		return fmt.Errorf("failed to load routes: %w", err)
	}
	stops, err := s.busStore.ListStops(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stops: %w", err)
	}
	stopTimes, err := s.busStore.ListStopTimes(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stop times: %w", err)
	}

	rows, warnings := routing.BuildCombinedIndex(trips, routes, stops, stopTimes)
	if warnings > 0 {
		report.WarnN(warnings, "combined index skipped %d trips or stop times with missing references", warnings)
		s.logger.WithField("skipped", warnings).Warn("Combined index skipped rows with missing references")
	}

	if err := s.busStore.ReplaceCombinedRows(ctx, rows); err != nil {
		return fmt.Errorf("failed to store combined bus data: %w", err)
	}
	report.Combined = len(rows)

	s.logger.WithField("rows", len(rows)).Info("Combined bus index regenerated")
	return nil
}
