package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/harshit21255/delhi-transit-buddy/internal/database"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rateLimitNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func setupRateLimitTest(t *testing.T) (*RateLimitService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	conn := &database.Conn{DB: sqlx.NewDb(db, "sqlmock")}
	service := NewRateLimitService(conn, DefaultRateLimitConfig())
	service.now = func() time.Time { return rateLimitNow }

	cleanup := func() {
		db.Close()
	}

	return service, mock, cleanup
}

func attemptRows(count int, last interface{}) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"attempts", "last_attempt"}).AddRow(count, last)
}

func TestCheckLoginRateLimit_NoAttempts(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COUNT(.+) FROM admin_login_attempts").
		WithArgs("admin", "username", rateLimitNow.Add(-15*time.Minute).Unix()).
		WillReturnRows(attemptRows(0, nil))
	mock.ExpectQuery("SELECT COUNT(.+) FROM admin_login_attempts").
		WithArgs("203.0.113.7", "ip", rateLimitNow.Add(-time.Hour).Unix()).
		WillReturnRows(attemptRows(0, nil))

	err := service.CheckLoginRateLimit(context.Background(), "admin", "203.0.113.7")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckLoginRateLimit_UsernameExceeded(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	lastAttempt := rateLimitNow.Add(-5 * time.Minute)
	mock.ExpectQuery("SELECT COUNT(.+) FROM admin_login_attempts").
		WithArgs("admin", "username", sqlmock.AnyArg()).
		WillReturnRows(attemptRows(5, lastAttempt.Unix()))

	err := service.CheckLoginRateLimit(context.Background(), "admin", "203.0.113.7")
	require.Error(t, err)

	var rateLimitErr *RateLimitError
	require.True(t, errors.As(err, &rateLimitErr), "Error should be RateLimitError")
	assert.Equal(t, "username", rateLimitErr.Type)
	assert.Contains(t, rateLimitErr.Message, "Too many failed logins for this username")
	assert.Equal(t, lastAttempt.Add(15*time.Minute).Unix(), rateLimitErr.RetryAfter.Unix())

	// The IP is not consulted once the username is blocked
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckLoginRateLimit_IPExceeded(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COUNT(.+) FROM admin_login_attempts").
		WithArgs("admin", "username", sqlmock.AnyArg()).
		WillReturnRows(attemptRows(1, rateLimitNow.Unix()))
	mock.ExpectQuery("SELECT COUNT(.+) FROM admin_login_attempts").
		WithArgs("203.0.113.7", "ip", sqlmock.AnyArg()).
		WillReturnRows(attemptRows(20, rateLimitNow.Add(-10*time.Minute).Unix()))

	err := service.CheckLoginRateLimit(context.Background(), "admin", "203.0.113.7")

	var rateLimitErr *RateLimitError
	require.True(t, errors.As(err, &rateLimitErr))
	assert.Equal(t, "ip", rateLimitErr.Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckLoginRateLimit_EmptyIdentifiersSkipped(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	assert.NoError(t, service.CheckLoginRateLimit(context.Background(), "", ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckLoginRateLimit_DatabaseError(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COUNT(.+) FROM admin_login_attempts").
		WillReturnError(errors.New("database is locked"))

	err := service.CheckLoginRateLimit(context.Background(), "admin", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to check username rate limit")

	var rateLimitErr *RateLimitError
	assert.False(t, errors.As(err, &rateLimitErr))
}

func TestRecordFailedLogin(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO admin_login_attempts").
		WithArgs("admin", "username", rateLimitNow.Unix()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO admin_login_attempts").
		WithArgs("203.0.113.7", "ip", rateLimitNow.Unix()).
		WillReturnResult(sqlmock.NewResult(2, 1))

	err := service.RecordFailedLogin(context.Background(), "admin", "203.0.113.7")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetLoginAttempts(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM admin_login_attempts WHERE identifier = (.+) AND identifier_type = 'username'").
		WithArgs("admin").
		WillReturnResult(sqlmock.NewResult(0, 3))

	assert.NoError(t, service.ResetLoginAttempts(context.Background(), "admin"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCleanupExpiredAttempts(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM admin_login_attempts WHERE attempted_at <").
		WithArgs(rateLimitNow.Add(-time.Hour).Unix()).
		WillReturnResult(sqlmock.NewResult(0, 12))

	deleted, err := service.CleanupExpiredAttempts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
