package services

import (
	"context"
	"strings"

	"github.com/harshit21255/delhi-transit-buddy/internal/models"
	"github.com/sirupsen/logrus"
)

// DefaultSearchLimit caps each result list of a free-text search
const DefaultSearchLimit = 20

// StationSearcher finds stations by name substring
type StationSearcher interface {
	SearchStations(ctx context.Context, query string, limit int) ([]models.Station, error)
}

// StopSearcher finds bus stops by name substring
type StopSearcher interface {
	SearchStops(ctx context.Context, query string, limit int) ([]models.BusStop, error)
}

// SearchService handles the unified station and stop search
type SearchService struct {
	stations StationSearcher
	stops    StopSearcher
	logger   *logrus.Logger
}

// NewSearchService creates a new search service
func NewSearchService(stations StationSearcher, stops StopSearcher, logger *logrus.Logger) *SearchService {
	return &SearchService{
		stations: stations,
		stops:    stops,
		logger:   logger,
	}
}

// Search matches query against metro station and bus stop names
func (s *SearchService) Search(ctx context.Context, query string, limit int) (*models.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.ErrInvalidInput("search query is required")
	}
	if limit <= 0 || limit > DefaultSearchLimit {
		limit = DefaultSearchLimit
	}

	stations, err := s.stations.SearchStations(ctx, query, limit)
	if err != nil {
		s.logger.WithError(err).Error("Error searching stations")
		return nil, err
	}

	stops, err := s.stops.SearchStops(ctx, query, limit)
	if err != nil {
		s.logger.WithError(err).Error("Error searching bus stops")
		return nil, err
	}

	if stations == nil {
		stations = []models.Station{}
	}
	if stops == nil {
		stops = []models.BusStop{}
	}

	s.logger.WithFields(logrus.Fields{
		"query":    query,
		"stations": len(stations),
		"stops":    len(stops),
	}).Debug("Search completed")

	return &models.SearchResponse{
		Query:    query,
		Stations: stations,
		Stops:    stops,
	}, nil
}
