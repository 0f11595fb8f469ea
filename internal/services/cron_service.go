package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harshit21255/delhi-transit-buddy/internal/ingest"
	"github.com/harshit21255/delhi-transit-buddy/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// FeedRefresher re-runs feed ingestion
type FeedRefresher interface {
	Run(ctx context.Context, req models.IngestRequest) (*ingest.Report, error)
}

// CleanupFunc deletes expired rows and reports how many went
type CleanupFunc func(ctx context.Context) (int64, error)

type cleanupJob struct {
	name     string
	schedule string
	run      CleanupFunc
}

// CronService manages scheduled background jobs
type CronService struct {
	cron      *cron.Cron
	refresher FeedRefresher
	cleanups  []cleanupJob
	schedule  string
	timeout   time.Duration
	logger    *logrus.Logger
}

// NewCronService creates a new CronService. schedule uses the six-field
// format with seconds; an empty schedule disables the refresh job.
func NewCronService(refresher FeedRefresher, schedule string, logger *logrus.Logger) *CronService {
	return &CronService{
		cron:      cron.New(cron.WithSeconds()),
		refresher: refresher,
		schedule:  schedule,
		timeout:   30 * time.Minute,
		logger:    logger,
	}
}

// AddCleanupJob registers a table cleanup job; call before Start
func (s *CronService) AddCleanupJob(name, schedule string, run CleanupFunc) {
	s.cleanups = append(s.cleanups, cleanupJob{name: name, schedule: schedule, run: run})
}

// Start starts all cron jobs
func (s *CronService) Start() error {
	// Cron format: second minute hour day month weekday
	// "0 30 3 * * *" = At 3:30 AM every day
	if s.schedule != "" {
		if _, err := s.cron.AddFunc(s.schedule, s.refreshFeedsJob); err != nil {
			return fmt.Errorf("failed to schedule feed refresh job: %w", err)
		}
		s.logger.WithField("schedule", s.schedule).Info("Scheduled: feed refresh")
	}

	for _, job := range s.cleanups {
		job := job
		if _, err := s.cron.AddFunc(job.schedule, func() { s.cleanupJob(job) }); err != nil {
			return fmt.Errorf("failed to schedule %s cleanup job: %w", job.name, err)
		}
		s.logger.WithField("schedule", job.schedule).Infof("Scheduled: %s cleanup", job.name)
	}

	if len(s.cron.Entries()) == 0 {
		s.logger.Info("No jobs scheduled, cron service idle")
		return nil
	}

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops all cron jobs and waits for a running job to finish
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

// refreshFeedsJob reloads both feeds; the resulting change notifications
// trigger the graph rebuilds
func (s *CronService) refreshFeedsJob() {
	s.logger.Info("[CRON] Starting feed refresh job")
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	report, err := s.refresher.Run(ctx, models.IngestRequest{Metro: true, Bus: true, Force: true})
	if errors.Is(err, ErrIngestRunning) {
		s.logger.Warn("[CRON] Feed refresh skipped, ingestion already running")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Feed refresh failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"stations":   report.Stations,
		"stop_times": report.StopTimes,
		"combined":   report.Combined,
		"skipped":    report.Skipped,
		"duration":   time.Since(start).String(),
	}).Info("[CRON] Feed refresh finished")
}

func (s *CronService) cleanupJob(job cleanupJob) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := job.run(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("job", job.name).Error("[CRON] Cleanup failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"job":     job.name,
		"deleted": deleted,
	}).Debug("[CRON] Cleanup finished")
}

// RunRefreshNow runs the feed refresh job immediately
func (s *CronService) RunRefreshNow() {
	s.logger.Info("[MANUAL] Running feed refresh now")
	s.refreshFeedsJob()
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"schedule":  s.schedule,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
