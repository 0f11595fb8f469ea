package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/harshit21255/delhi-transit-buddy/internal/models"
	"github.com/sirupsen/logrus"
)

// DefaultStopSearchLimit caps stop search results when no limit is given
const DefaultStopSearchLimit = 20

// BusQuerier answers bus network queries
type BusQuerier interface {
	PlanBusJourney(ctx context.Context, from, to string) (*models.BusJourney, error)
	FindDirectBuses(ctx context.Context, from, to string) ([]models.BusRouteWithStops, error)
	SearchStops(ctx context.Context, query string, limit int) ([]models.BusStop, error)
}

// BusHandler handles bus HTTP requests
type BusHandler struct {
	bus    BusQuerier
	logger *logrus.Logger
}

// NewBusHandler creates a new bus handler
func NewBusHandler(bus BusQuerier, logger *logrus.Logger) *BusHandler {
	return &BusHandler{
		bus:    bus,
		logger: logger,
	}
}

// SearchStops handles GET /api/v1/bus/stops/search?q=&limit=
func (h *BusHandler) SearchStops(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		respondError(c, h.logger, models.ErrInvalidInput("q query parameter is required"))
		return
	}

	limit := DefaultStopSearchLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, h.logger, models.ErrInvalidInput("limit must be a positive integer"))
			return
		}
		if n < limit {
			limit = n
		}
	}

	stops, err := h.bus.SearchStops(c.Request.Context(), query, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if stops == nil {
		stops = []models.BusStop{}
	}
	respondOK(c, stops)
}

// PlanJourney handles GET /api/v1/bus/journey?from=&to=
// @Summary Plan a bus journey
// @Description Fewest-stop journey split into one segment per bus ridden
// @Tags Bus
// @Produce json
// @Param from query string true "Source stop name"
// @Param to query string true "Destination stop name"
// @Success 200 {object} models.BusJourney
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /bus/journey [get]
func (h *BusHandler) PlanJourney(c *gin.Context) {
	req, err := bindRoute(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	journey, err := h.bus.PlanBusJourney(c.Request.Context(), req.From, req.To)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, journey)
}

// DirectBuses handles GET /api/v1/bus/direct?from=&to=
func (h *BusHandler) DirectBuses(c *gin.Context) {
	req, err := bindRoute(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	routes, err := h.bus.FindDirectBuses(c.Request.Context(), req.From, req.To)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, routes)
}
