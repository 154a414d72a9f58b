package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/janus/internal/build"
)

// Enqueuer accepts build requests. *build.Service implements it.
type Enqueuer interface {
	Enqueue(ctx context.Context, req build.Request) (*build.Job, error)
}

// Orchestrator schedules the daily rebuild of the configured season.
type Orchestrator struct {
	builds Enqueuer
	config *Config
	logger logrus.FieldLogger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	now    func() time.Time
}

// Config holds scheduler configuration
type Config struct {
	Season           string
	SeasonType       string
	WriteCSV         bool
	EnableDailyBuild bool          // Default: true
	DailyBuildHour   int           // Default: 5 (5 AM local)
	RunOnStart       bool          // Enqueue a build immediately on Start
	MaxRetries       int           // Default: 3
	RetryDelay       time.Duration // Default: 5s
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		Season:           "2024-25",
		SeasonType:       "Regular Season",
		WriteCSV:         true,
		EnableDailyBuild: true,
		DailyBuildHour:   5,
		MaxRetries:       3,
		RetryDelay:       5 * time.Second,
	}
}

// NewOrchestrator creates a new scheduler orchestrator
func NewOrchestrator(builds Enqueuer, config *Config, logger logrus.FieldLogger) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}
	return &Orchestrator{
		builds: builds,
		config: config,
		logger: logger.WithField("component", "scheduler"),
		now:    time.Now,
	}
}

// Start launches the scheduling goroutine.
func (o *Orchestrator) Start(ctx context.Context) {
	ctx, o.cancel = context.WithCancel(ctx)

	o.logger.WithFields(logrus.Fields{
		"season":      o.config.Season,
		"season_type": o.config.SeasonType,
		"daily_build": o.config.EnableDailyBuild,
		"hour":        o.config.DailyBuildHour,
	}).Info("Starting scheduler")

	if o.config.RunOnStart {
		if err := o.enqueueWithRetry(ctx); err != nil {
			o.logger.WithError(err).Error("Startup build not queued")
		}
	}

	if o.config.EnableDailyBuild {
		o.wg.Add(1)
		go o.runDailyBuild(ctx)
	}
}

// Stop gracefully stops the scheduler
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
	o.logger.Info("Scheduler stopped")
}

// NextRun returns the first time at hour:00 strictly after now, in now's
// location.
func NextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (o *Orchestrator) runDailyBuild(ctx context.Context) {
	defer o.wg.Done()

	for {
		nextRun := NextRun(o.now(), o.config.DailyBuildHour)
		wait := time.Until(nextRun)
		o.logger.Infof("Next daily build: %s (in %v)", nextRun.Format("2006-01-02 15:04:05"), wait.Round(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err := o.enqueueWithRetry(ctx); err != nil {
				o.logger.WithError(err).Error("Daily build not queued")
			}
		}
	}
}

// enqueueWithRetry queues one build, retrying transient failures.
func (o *Orchestrator) enqueueWithRetry(ctx context.Context) error {
	req := build.Request{
		Season:     o.config.Season,
		SeasonType: o.config.SeasonType,
		WriteCSV:   o.config.WriteCSV,
	}

	var err error
	for attempt := 1; attempt <= o.config.MaxRetries; attempt++ {
		var job *build.Job
		job, err = o.builds.Enqueue(ctx, req)
		if err == nil {
			o.logger.WithField("job_id", job.JobID).Info("Scheduled build queued")
			return nil
		}

		o.logger.WithError(err).Warnf("Enqueue attempt %d/%d failed", attempt, o.config.MaxRetries)

		if attempt < o.config.MaxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(o.config.RetryDelay):
			}
		}
	}
	return fmt.Errorf("enqueue build after %d attempts: %w", o.config.MaxRetries, err)
}

// GetStatus returns current scheduler status
func (o *Orchestrator) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"daily_build_enabled": o.config.EnableDailyBuild,
		"daily_build_hour":    o.config.DailyBuildHour,
		"season":              o.config.Season,
		"season_type":         o.config.SeasonType,
		"next_run":            NextRun(o.now(), o.config.DailyBuildHour),
	}
}
