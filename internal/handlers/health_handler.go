package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harshit21255/delhi-transit-buddy/internal/services"
	"github.com/sirupsen/logrus"
)

// Pinger checks the record store connection
type Pinger interface {
	Ping() error
}

// SnapshotReporter exposes the status of a graph snapshot
type SnapshotReporter interface {
	Status() services.SnapshotStatus
}

// HealthHandler reports service liveness
type HealthHandler struct {
	db        Pinger
	snapshots []SnapshotReporter
	logger    *logrus.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger, logger *logrus.Logger, snapshots ...SnapshotReporter) *HealthHandler {
	return &HealthHandler{
		db:        db,
		snapshots: snapshots,
		logger:    logger,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	statuses := make([]services.SnapshotStatus, 0, len(h.snapshots))
	for _, snap := range h.snapshots {
		statuses = append(statuses, snap.Status())
	}

	body := gin.H{
		"status":    "healthy",
		"database":  "connected",
		"snapshots": statuses,
		"time":      time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.db.Ping(); err != nil {
		h.logger.WithError(err).Error("Database health check failed")
		body["status"] = "unhealthy"
		body["database"] = "disconnected"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}

	c.JSON(http.StatusOK, body)
}
