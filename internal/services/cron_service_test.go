package services

import (
	"context"
	"errors"
	"testing"

	"github.com/harshit21255/delhi-transit-buddy/internal/ingest"
	"github.com/harshit21255/delhi-transit-buddy/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRefresher struct {
	requests []models.IngestRequest
	err      error
}

func (r *recordingRefresher) Run(_ context.Context, req models.IngestRequest) (*ingest.Report, error) {
	r.requests = append(r.requests, req)
	if r.err != nil {
		return nil, r.err
	}
	return &ingest.Report{Stations: 2}, nil
}

func TestCronService(t *testing.T) {
	t.Run("Empty schedule stays idle", func(t *testing.T) {
		svc := NewCronService(&recordingRefresher{}, "", quietLogger())
		require.NoError(t, svc.Start())
		status := svc.GetJobStatus()
		assert.Equal(t, 0, status["job_count"])
		svc.Stop()
	})

	t.Run("Schedules refresh job", func(t *testing.T) {
		svc := NewCronService(&recordingRefresher{}, "0 30 3 * * *", quietLogger())
		require.NoError(t, svc.Start())
		defer svc.Stop()

		status := svc.GetJobStatus()
		assert.Equal(t, 1, status["job_count"])
		assert.Equal(t, true, status["running"])
	})

	t.Run("Invalid schedule", func(t *testing.T) {
		svc := NewCronService(&recordingRefresher{}, "every tuesday", quietLogger())
		assert.Error(t, svc.Start())
	})

	t.Run("Manual run reloads both feeds", func(t *testing.T) {
		refresher := &recordingRefresher{}
		svc := NewCronService(refresher, "", quietLogger())
		svc.RunRefreshNow()

		require.Len(t, refresher.requests, 1)
		assert.Equal(t, models.IngestRequest{Metro: true, Bus: true, Force: true}, refresher.requests[0])
	})

	t.Run("Failures are logged not raised", func(t *testing.T) {
		refresher := &recordingRefresher{err: errors.New("feed missing")}
		svc := NewCronService(refresher, "", quietLogger())
		assert.NotPanics(t, svc.RunRefreshNow)

		refresher.err = ErrIngestRunning
		assert.NotPanics(t, svc.RunRefreshNow)
		assert.Len(t, refresher.requests, 2)
	})

	t.Run("Cleanup jobs", func(t *testing.T) {
		var calls int
		var failWith error
		run := func(context.Context) (int64, error) {
			calls++
			return 4, failWith
		}

		svc := NewCronService(&recordingRefresher{}, "0 30 3 * * *", quietLogger())
		svc.AddCleanupJob("login attempts", "0 15 * * * *", run)
		svc.AddCleanupJob("audit logs", "0 45 4 * * *", run)
		require.NoError(t, svc.Start())
		defer svc.Stop()

		assert.Equal(t, 3, svc.GetJobStatus()["job_count"])

		job := cleanupJob{name: "login attempts", run: run}
		svc.cleanupJob(job)
		failWith = errors.New("database is locked")
		assert.NotPanics(t, func() { svc.cleanupJob(job) })
		assert.Equal(t, 2, calls)
	})

	t.Run("Invalid cleanup schedule", func(t *testing.T) {
		svc := NewCronService(&recordingRefresher{}, "", quietLogger())
		svc.AddCleanupJob("audit logs", "daily", func(context.Context) (int64, error) { return 0, nil })
		assert.Error(t, svc.Start())
	})
}
