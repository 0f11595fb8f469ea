package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/harshit21255/delhi-transit-buddy/internal/ingest"
	"github.com/harshit21255/delhi-transit-buddy/internal/middleware"
	"github.com/harshit21255/delhi-transit-buddy/internal/models"
	"github.com/harshit21255/delhi-transit-buddy/internal/services"
	"github.com/harshit21255/delhi-transit-buddy/internal/utils"
	"github.com/sirupsen/logrus"
)

// FeedIngester reloads the static feeds
type FeedIngester interface {
	Run(ctx context.Context, req models.IngestRequest) (*ingest.Report, error)
}

// SnapshotController is a rebuildable graph snapshot
type SnapshotController interface {
	Refresh(ctx context.Context) error
	Status() services.SnapshotStatus
}

// RecordCounter reports the size of the record store
type RecordCounter interface {
	CountRecords(ctx context.Context) (*models.RecordCounts, error)
}

// JobReporter describes scheduled jobs
type JobReporter interface {
	GetJobStatus() map[string]interface{}
}

// ActionAuditor records and lists admin actions
type ActionAuditor interface {
	LogEvent(ctx context.Context, event services.AuditEvent) error
	GetRecentEvents(ctx context.Context, limit int) ([]models.AuditEvent, error)
}

// DefaultAuditLimit is the number of audit events listed when no limit is given
const DefaultAuditLimit = 50

// AdminHandler handles operator endpoints
type AdminHandler struct {
	ingester  FeedIngester
	snapshots []SnapshotController
	counter   RecordCounter
	jobs      JobReporter
	auditor   ActionAuditor
	logger    *logrus.Logger
}

// NewAdminHandler creates a new admin handler. jobs and auditor may be nil.
func NewAdminHandler(
	ingester FeedIngester,
	counter RecordCounter,
	jobs JobReporter,
	auditor ActionAuditor,
	logger *logrus.Logger,
	snapshots ...SnapshotController,
) *AdminHandler {
	return &AdminHandler{
		ingester:  ingester,
		snapshots: snapshots,
		counter:   counter,
		jobs:      jobs,
		auditor:   auditor,
		logger:    logger,
	}
}

func (h *AdminHandler) audit(c *gin.Context, action string, details map[string]interface{}) {
	if h.auditor == nil {
		return
	}

	event := services.AuditEvent{
		Action:    action,
		IPAddress: utils.ClientIP(c),
		UserAgent: c.Request.UserAgent(),
		Details:   details,
	}
	if admin, ok := middleware.GetAdminContext(c); ok {
		event.Actor = admin.Username
	}

	if err := h.auditor.LogEvent(c.Request.Context(), event); err != nil {
		h.logger.WithError(err).WithField("action", action).Error("Failed to write audit event")
	}
}

// Ingest handles POST /api/v1/admin/ingest
// An empty body reloads both feeds.
func (h *AdminHandler) Ingest(c *gin.Context) {
	req := models.IngestRequest{Metro: true, Bus: true}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Status: "error", Message: "invalid ingest request"})
		return
	}
	if !req.Metro && !req.Bus {
		c.JSON(http.StatusBadRequest, ErrorResponse{Status: "error", Message: "select at least one feed"})
		return
	}

	fields := logrus.Fields{"metro": req.Metro, "bus": req.Bus, "force": req.Force}
	if admin, ok := middleware.GetAdminContext(c); ok {
		fields["admin"] = admin.Username
	}
	h.logger.WithFields(fields).Info("Feed ingestion requested")

	report, err := h.ingester.Run(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit(c, services.AuditIngest, map[string]interface{}{
		"metro":    req.Metro,
		"bus":      req.Bus,
		"force":    req.Force,
		"combined": report.Combined,
		"skipped":  report.Skipped,
	})
	respondOK(c, report)
}

// Rebuild handles POST /api/v1/admin/rebuild
func (h *AdminHandler) Rebuild(c *gin.Context) {
	statuses := make([]services.SnapshotStatus, 0, len(h.snapshots))
	for _, snap := range h.snapshots {
		if err := snap.Refresh(c.Request.Context()); err != nil {
			respondError(c, h.logger, err)
			return
		}
		statuses = append(statuses, snap.Status())
	}

	h.logger.WithField("snapshots", len(statuses)).Info("Snapshots rebuilt on request")
	h.audit(c, services.AuditRebuild, map[string]interface{}{"snapshots": len(statuses)})
	respondOK(c, statuses)
}

// AuditLog handles GET /api/v1/admin/audit?limit=
func (h *AdminHandler) AuditLog(c *gin.Context) {
	if h.auditor == nil {
		respondOK(c, []models.AuditEvent{})
		return
	}

	limit := DefaultAuditLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			respondError(c, h.logger, models.ErrInvalidInput("limit must be between 1 and 500"))
			return
		}
		limit = n
	}

	events, err := h.auditor.GetRecentEvents(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, events)
}

// Stats handles GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	counts, err := h.counter.CountRecords(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	statuses := make([]services.SnapshotStatus, 0, len(h.snapshots))
	for _, snap := range h.snapshots {
		statuses = append(statuses, snap.Status())
	}

	stats := gin.H{
		"records":   counts,
		"snapshots": statuses,
	}
	if h.jobs != nil {
		stats["jobs"] = h.jobs.GetJobStatus()
	}

	respondOK(c, stats)
}
