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

// BusStore is the read side of the record store used for bus routing
type BusStore interface {
	ListCombinedRows(ctx context.Context) ([]models.CombinedBusData, error)
	ListRoutes(ctx context.Context) ([]models.BusRoute, error)
	ListStops(ctx context.Context) ([]models.BusStop, error)
	FindRouteByID(ctx context.Context, routeID string) (*models.BusRoute, error)
	FindStopByName(ctx context.Context, name string) (*models.BusStop, error)
	SearchStops(ctx context.Context, term string, limit int) ([]models.BusStop, error)
}

// BusSnapshot is an immutable view of the bus network together with the
// stop and route records it was built from
type BusSnapshot struct {
	Graph  *routing.RouteGraph
	Index  *routing.CombinedIndex
	Rows   int
	routes *NameIndex[models.BusRoute]
	stops  *NameIndex[models.BusStop]
}

// Size is the number of combined rows the snapshot was built from
func (s *BusSnapshot) Size() int { return s.Rows }

// BusService plans bus journeys over the cached route graph
type BusService struct {
	store  BusStore
	cache  *SnapshotCache[BusSnapshot]
	logger *logrus.Logger
}

// NewBusService creates a new bus service
func NewBusService(store BusStore, notifier *database.Notifier, logger *logrus.Logger) *BusService {
	s := &BusService{
		store:  store,
		logger: logger,
	}
	s.cache = NewSnapshotCache("bus", s.buildSnapshot, notifier, logger,
		database.KindCombined, database.KindRoutes, database.KindStops)
	return s
}

// Cache exposes the snapshot cache for watching and forced rebuilds
func (s *BusService) Cache() *SnapshotCache[BusSnapshot] {
	return s.cache
}

func (s *BusService) buildSnapshot(ctx context.Context) (*BusSnapshot, error) {
	rows, err := s.store.ListCombinedRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load combined bus data: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrRoutingUnavailable
	}

	routes, err := s.store.ListRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load bus routes: %w", err)
	}
	stops, err := s.store.ListStops(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load bus stops: %w", err)
	}

	byID := make(map[string]models.BusRoute, len(routes))
	for _, r := range routes {
		byID[r.RouteID] = r
	}
	byName := make(map[string]models.BusStop, len(stops))
	for _, st := range stops {
		key := models.NormalizeName(st.StopName)
		if _, ok := byName[key]; !ok {
			byName[key] = st
		}
	}

	snap := &BusSnapshot{
		Rows:   len(rows),
		routes: NewNameIndex(s.loadRoute, byID),
		stops:  NewNameIndex(s.loadStop, byName),
	}
	snap.Index = routing.IndexFromRows(rows)
	snap.Graph = routing.BuildRouteGraph(snap.Index)

	s.logger.WithFields(logrus.Fields{
		"rows":  len(rows),
		"trips": len(snap.Index.Trips()),
		"stops": snap.Graph.Graph().NodeCount(),
		"edges": snap.Graph.Graph().EdgeCount(),
	}).Info("Route graph built")

	return snap, nil
}

func (s *BusService) loadStop(ctx context.Context, name string) (models.BusStop, error) {
	st, err := s.store.FindStopByName(ctx, name)
	if err != nil {
		return models.BusStop{}, err
	}
	return *st, nil
}

func (s *BusService) loadRoute(ctx context.Context, routeID string) (models.BusRoute, error) {
	r, err := s.store.FindRouteByID(ctx, routeID)
	if err != nil {
		return models.BusRoute{}, err
	}
	return *r, nil
}

func (s *BusService) resolveStop(ctx context.Context, snap *BusSnapshot, name string) (models.BusStop, error) {
	key := models.NormalizeName(name)
	if key == "" {
		return models.BusStop{}, models.NewInvalidStationError(name)
	}

	st, err := snap.stops.Lookup(ctx, key, name)
	if errors.Is(err, database.ErrNotFound) {
		return models.BusStop{}, models.NewInvalidStationError(name)
	}
	if err != nil {
		return models.BusStop{}, fmt.Errorf("failed to look up stop %q: %w", name, err)
	}
	return st, nil
}

// resolveEnds looks up both stops of a query, reporting every unknown name
func (s *BusService) resolveEnds(ctx context.Context, snap *BusSnapshot, from, to string) (models.BusStop, models.BusStop, error) {
	src, srcErr := s.resolveStop(ctx, snap, from)
	dst, dstErr := s.resolveStop(ctx, snap, to)
	if err := mergeLookupErrors(srcErr, dstErr); err != nil {
		return models.BusStop{}, models.BusStop{}, err
	}
	return src, dst, nil
}

// PlanBusJourney finds the fewest-stop bus journey between two stop names.
// An unreachable destination yields a journey with no segments.
func (s *BusService) PlanBusJourney(ctx context.Context, from, to string) (*models.BusJourney, error) {
	start := time.Now()

	snap, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	src, dst, err := s.resolveEnds(ctx, snap, from, to)
	if err != nil {
		return nil, err
	}

	journey := &models.BusJourney{
		Source:      src.StopName,
		Destination: dst.StopName,
		Segments:    []models.BusRouteWithStops{},
	}

	for _, leg := range snap.Graph.Journey(src.StopName, dst.StopName) {
		journey.Segments = append(journey.Segments, s.segment(ctx, snap, leg.RouteID, leg.Stops))
	}
	if n := len(journey.Segments); n > 0 {
		journey.Transfers = n - 1
		for _, seg := range journey.Segments {
			journey.TotalStops += len(seg.Stops) - 1
		}
	}

	s.logger.WithFields(logrus.Fields{
		"from":      from,
		"to":        to,
		"segments":  len(journey.Segments),
		"transfers": journey.Transfers,
		"duration":  time.Since(start).String(),
	}).Info("Bus journey planned")

	return journey, nil
}

// FindDirectBuses lists single-route rides from one stop to another
func (s *BusService) FindDirectBuses(ctx context.Context, from, to string) ([]models.BusRouteWithStops, error) {
	snap, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	src, dst, err := s.resolveEnds(ctx, snap, from, to)
	if err != nil {
		return nil, err
	}

	results := []models.BusRouteWithStops{}
	for _, m := range snap.Index.DirectRoutes(src.StopName, dst.StopName) {
		results = append(results, s.segment(ctx, snap, m.RouteID, m.Stops))
	}

	s.logger.WithFields(logrus.Fields{
		"from":   from,
		"to":     to,
		"routes": len(results),
	}).Debug("Direct buses found")

	return results, nil
}

// SearchStops finds bus stops whose names contain query
func (s *BusService) SearchStops(ctx context.Context, query string, limit int) ([]models.BusStop, error) {
	stops, err := s.store.SearchStops(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search stops: %w", err)
	}
	return stops, nil
}

// segment expands a route id and stop names into full records.
// Records missing from the store keep just the identifying field.
func (s *BusService) segment(ctx context.Context, snap *BusSnapshot, routeID string, names []string) models.BusRouteWithStops {
	route, err := snap.routes.Lookup(ctx, routeID, routeID)
	if err != nil {
		s.logger.WithError(err).WithField("route_id", routeID).Warn("Route metadata missing")
		route = models.BusRoute{RouteID: routeID, RouteType: models.RouteTypeBus}
	}

	seg := models.BusRouteWithStops{
		Route: route,
		Stops: make([]models.BusStop, 0, len(names)),
	}
	for _, name := range names {
		st, err := snap.stops.Lookup(ctx, models.NormalizeName(name), name)
		if err != nil {
			st = models.BusStop{StopName: name}
		}
		seg.Stops = append(seg.Stops, st)
	}
	if len(seg.Stops) > 0 {
		seg.StartStop = seg.Stops[0]
		seg.EndStop = seg.Stops[len(seg.Stops)-1]
	}
	return seg
}
