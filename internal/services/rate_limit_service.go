package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harshit21255/delhi-transit-buddy/internal/database"
)

// RateLimitService throttles failed admin logins per username and per IP
type RateLimitService struct {
	db     database.DB
	config RateLimitConfig
	now    func() time.Time
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(db database.DB, config RateLimitConfig) *RateLimitService {
	return &RateLimitService{
		db:     db,
		config: config,
		now:    time.Now,
	}
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	MaxUserAttempts int           // Max failed logins per username
	UserWindow      time.Duration // Time window for username limit
	MaxIPAttempts   int           // Max failed logins per IP
	IPWindow        time.Duration // Time window for IP limit
}

// DefaultRateLimitConfig returns the default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxUserAttempts: 5,                // 5 failures
		UserWindow:      15 * time.Minute, // per 15 minutes
		MaxIPAttempts:   20,               // 20 failures
		IPWindow:        1 * time.Hour,    // per hour
	}
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "username" or "ip"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

type attemptCount struct {
	Attempts    int           `db:"attempts"`
	LastAttempt sql.NullInt64 `db:"last_attempt"`
}

// CheckLoginRateLimit fails with *RateLimitError once a username or IP has
// used up its failed attempts
func (s *RateLimitService) CheckLoginRateLimit(ctx context.Context, username, ip string) error {
	checks := []struct {
		identifier string
		kind       string
		max        int
		window     time.Duration
	}{
		{username, "username", s.config.MaxUserAttempts, s.config.UserWindow},
		{ip, "ip", s.config.MaxIPAttempts, s.config.IPWindow},
	}

	for _, check := range checks {
		if check.identifier == "" {
			continue
		}

		count, lastAttempt, err := s.getAttemptCount(ctx, check.identifier, check.kind, check.window)
		if err != nil {
			return fmt.Errorf("failed to check %s rate limit: %w", check.kind, err)
		}

		if count >= check.max {
			retryAfter := lastAttempt.Add(check.window)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many failed logins for this %s. Please try again after %s", check.kind, retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       check.kind,
			}
		}
	}

	return nil
}

// getAttemptCount gets the number of failed attempts within the time window
func (s *RateLimitService) getAttemptCount(ctx context.Context, identifier, identifierType string, window time.Duration) (int, time.Time, error) {
	now := s.now()
	query := s.db.Rebind(`
		SELECT COUNT(*) AS attempts, MAX(attempted_at) AS last_attempt
		FROM admin_login_attempts
		WHERE identifier = ?
		  AND identifier_type = ?
		  AND attempted_at > ?
	`)

	var row attemptCount
	if err := s.db.GetContext(ctx, &row, query, identifier, identifierType, now.Add(-window).Unix()); err != nil {
		return 0, time.Time{}, err
	}

	lastAttempt := now
	if row.LastAttempt.Valid {
		lastAttempt = time.Unix(row.LastAttempt.Int64, 0)
	}
	return row.Attempts, lastAttempt, nil
}

// RecordFailedLogin records a failed attempt against the username and IP
func (s *RateLimitService) RecordFailedLogin(ctx context.Context, username, ip string) error {
	query := s.db.Rebind(`
		INSERT INTO admin_login_attempts (identifier, identifier_type, attempted_at)
		VALUES (?, ?, ?)
	`)
	now := s.now().Unix()

	for _, attempt := range []struct{ identifier, kind string }{
		{username, "username"},
		{ip, "ip"},
	} {
		if attempt.identifier == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, query, attempt.identifier, attempt.kind, now); err != nil {
			return fmt.Errorf("failed to record %s attempt: %w", attempt.kind, err)
		}
	}

	return nil
}

// ResetLoginAttempts clears the username's failures after a successful login
func (s *RateLimitService) ResetLoginAttempts(ctx context.Context, username string) error {
	query := s.db.Rebind(`
		DELETE FROM admin_login_attempts
		WHERE identifier = ? AND identifier_type = 'username'
	`)

	if _, err := s.db.ExecContext(ctx, query, username); err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}
	return nil
}

// CleanupExpiredAttempts removes attempts older than the longest window
func (s *RateLimitService) CleanupExpiredAttempts(ctx context.Context) (int64, error) {
	maxWindow := s.config.IPWindow
	if s.config.UserWindow > maxWindow {
		maxWindow = s.config.UserWindow
	}

	query := s.db.Rebind(`DELETE FROM admin_login_attempts WHERE attempted_at < ?`)

	result, err := s.db.ExecContext(ctx, query, s.now().Add(-maxWindow).Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup login attempts: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
