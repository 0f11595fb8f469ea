package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/harshit21255/delhi-transit-buddy/internal/models"
	"github.com/sirupsen/logrus"
)

// MetroQuerier answers rail network queries
type MetroQuerier interface {
	Stations(ctx context.Context) ([]models.Station, error)
	Lines(ctx context.Context) ([]models.MetroLine, error)
	FindStation(ctx context.Context, name string) (*models.Station, error)
	PlanRailRoute(ctx context.Context, from, to string) (*models.RailRoute, error)
}

// MetroHandler handles metro HTTP requests
type MetroHandler struct {
	metro  MetroQuerier
	logger *logrus.Logger
}

// NewMetroHandler creates a new metro handler
func NewMetroHandler(metro MetroQuerier, logger *logrus.Logger) *MetroHandler {
	return &MetroHandler{
		metro:  metro,
		logger: logger,
	}
}

// ListStations handles GET /api/v1/metro/stations
func (h *MetroHandler) ListStations(c *gin.Context) {
	stations, err := h.metro.Stations(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, stations)
}

// ListLines handles GET /api/v1/metro/lines
func (h *MetroHandler) ListLines(c *gin.Context) {
	lines, err := h.metro.Lines(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, lines)
}

// GetStation handles GET /api/v1/metro/stations/:name
func (h *MetroHandler) GetStation(c *gin.Context) {
	station, err := h.metro.FindStation(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, station)
}

// PlanRoute handles GET /api/v1/metro/route?from=&to=
// @Summary Plan a metro journey
// @Description Cheapest path between two stations; line changes cost extra
// @Tags Metro
// @Produce json
// @Param from query string true "Source station name"
// @Param to query string true "Destination station name"
// @Success 200 {object} models.RailRoute
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /metro/route [get]
func (h *MetroHandler) PlanRoute(c *gin.Context) {
	req, err := bindRoute(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	route, err := h.metro.PlanRailRoute(c.Request.Context(), req.From, req.To)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, route)
}
