package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harshit21255/delhi-transit-buddy/internal/database"
	"github.com/harshit21255/delhi-transit-buddy/internal/models"
	"github.com/harshit21255/delhi-transit-buddy/internal/utils"
)

// Audit actions
const (
	AuditLoginSuccess      = "login_success"
	AuditLoginFailed       = "login_failed"
	AuditRateLimitExceeded = "rate_limit_exceeded"
	AuditIngest            = "ingest"
	AuditRebuild           = "rebuild"
)

// AuditService records admin security events
type AuditService struct {
	db  database.DB
	now func() time.Time
}

// NewAuditService creates a new audit service
func NewAuditService(db database.DB) *AuditService {
	return &AuditService{
		db:  db,
		now: time.Now,
	}
}

// AuditEvent represents a security event to be logged
type AuditEvent struct {
	Actor     string                 // Username, possibly unverified for failed logins
	Action    string                 // One of the Audit* actions
	IPAddress string                 // Client IP address
	UserAgent string                 // Client user agent
	Details   map[string]interface{} // Stored as JSON
}

type auditRow struct {
	ID        string `db:"id"`
	Actor     string `db:"actor"`
	Action    string `db:"action"`
	IPAddress string `db:"ip_address"`
	UserAgent string `db:"user_agent"`
	Details   string `db:"details"`
	CreatedAt int64  `db:"created_at"`
}

// LogLogin logs a login attempt
func (s *AuditService) LogLogin(ctx context.Context, username, ipAddress, userAgent string, success bool, reason string) error {
	details := map[string]interface{}{
		"device_info": utils.ParseUserAgent(userAgent),
	}
	if reason != "" {
		details["reason"] = reason
	}

	action := AuditLoginFailed
	if success {
		action = AuditLoginSuccess
	}

	return s.LogEvent(ctx, AuditEvent{
		Actor:     username,
		Action:    action,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details:   details,
	})
}

// LogRateLimitViolation logs a blocked login
func (s *AuditService) LogRateLimitViolation(ctx context.Context, username, ipAddress, userAgent, limitType string, retryAfter time.Time) error {
	return s.LogEvent(ctx, AuditEvent{
		Actor:     username,
		Action:    AuditRateLimitExceeded,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details: map[string]interface{}{
			"limit_type":  limitType, // "username" or "ip"
			"retry_after": retryAfter.UTC(),
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// LogEvent writes one event to the audit_logs table
func (s *AuditService) LogEvent(ctx context.Context, event AuditEvent) error {
	details := event.Details
	if details == nil {
		details = map[string]interface{}{}
	}
	encoded, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	query := s.db.Rebind(`
		INSERT INTO audit_logs (id, actor, action, ip_address, user_agent, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	_, err = s.db.ExecContext(ctx, query,
		uuid.NewString(),
		event.Actor,
		event.Action,
		event.IPAddress,
		event.UserAgent,
		string(encoded),
		s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to log audit event: %w", err)
	}

	return nil
}

// GetRecentEvents returns the newest events first
func (s *AuditService) GetRecentEvents(ctx context.Context, limit int) ([]models.AuditEvent, error) {
	query := s.db.Rebind(`
		SELECT id, actor, action, ip_address, user_agent, details, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT ?
	`)

	var rows []auditRow
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent events: %w", err)
	}

	events := make([]models.AuditEvent, 0, len(rows))
	for _, row := range rows {
		event := models.AuditEvent{
			ID:        row.ID,
			Actor:     row.Actor,
			Action:    row.Action,
			IPAddress: row.IPAddress,
			UserAgent: row.UserAgent,
			CreatedAt: time.UnixMilli(row.CreatedAt).UTC(),
		}
		// Unreadable details are dropped, the event itself is kept
		_ = json.Unmarshal([]byte(row.Details), &event.Details)
		events = append(events, event)
	}

	return events, nil
}

// CleanupOldAuditLogs removes audit logs older than the specified duration
func (s *AuditService) CleanupOldAuditLogs(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := s.db.Rebind(`DELETE FROM audit_logs WHERE created_at < ?`)

	result, err := s.db.ExecContext(ctx, query, s.now().Add(-olderThan).UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old audit logs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
