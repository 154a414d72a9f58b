package build

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/janus/internal/gamelog"
)

// JobStore is the job persistence the Service needs. *Repository
// implements it.
type JobStore interface {
	CreateJob(ctx context.Context, job *Job) (*Job, error)
	UpdateStatus(ctx context.Context, jobID string, status JobStatus, message string, lastErr error) error
	UpdateProgress(ctx context.Context, jobID string, current, total int, message string) error
	UpdateResult(ctx context.Context, jobID string, summary *Summary) error
	AppendEvent(ctx context.Context, jobID string, eventType, message string, current, total *int) error
	ResetStuckJobs(ctx context.Context) error
	MarkNextJobRunning(ctx context.Context) (*Job, error)
	GetActiveJob(ctx context.Context) (*Job, error)
	ListRecentJobs(ctx context.Context, limit int) ([]*Job, error)
}

// Request represents a build invocation request.
type Request struct {
	Season     string
	SeasonType string
	WriteCSV   bool
	DryRun     bool
}

// Validate checks the season and normalizes the season type.
func (r *Request) Validate() error {
	if err := gamelog.ValidateSeason(r.Season); err != nil {
		return err
	}
	if r.SeasonType == "" {
		r.SeasonType = gamelog.SeasonTypeRegular
	}
	st, err := gamelog.NormalizeSeasonType(r.SeasonType)
	if err != nil {
		return err
	}
	r.SeasonType = st
	return nil
}

// Service coordinates job persistence, execution, and status reporting.
type Service struct {
	repo      JobStore
	runner    *Runner
	notifier  Notifier
	outputDir string

	historyLimit int
	pollInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger logrus.FieldLogger
}

// NewService constructs a Service. Call Start to launch the worker. CSV
// files for jobs requesting them are written under outputDir.
func NewService(repo JobStore, runner *Runner, outputDir string, logger logrus.FieldLogger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Service{
		repo:         repo,
		runner:       runner,
		outputDir:    outputDir,
		historyLimit: 10,
		pollInterval: 3 * time.Second,
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger.WithField("component", "build_service"),
	}
}

// SetNotifier registers a receiver for live build events.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Start launches the background worker loop.
func (s *Service) Start() {
	if err := s.repo.ResetStuckJobs(s.ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to reset jobs")
	}

	s.wg.Add(1)
	go s.worker()
}

// Shutdown stops workers and waits for completion.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Enqueue validates the request and stores a queued job.
func (s *Service) Enqueue(ctx context.Context, req Request) (*Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	job := &Job{
		JobID:         uuid.NewString(),
		Season:        req.Season,
		SeasonType:    req.SeasonType,
		WriteCSV:      req.WriteCSV,
		DryRun:        req.DryRun,
		Status:        JobStatusQueued,
		StatusMessage: sql.NullString{String: "Queued", Valid: true},
		ProgressTotal: progressSteps,
	}

	stored, err := s.repo.CreateJob(ctx, job)
	if err != nil {
		return nil, err
	}

	_ = s.repo.AppendEvent(ctx, stored.JobID, "queued", "Job queued", nil, nil)
	s.logger.WithFields(logrus.Fields{
		"job_id":      stored.JobID,
		"season":      stored.Season,
		"season_type": stored.SeasonType,
	}).Info("Build job queued")

	return stored, nil
}

// GetStatus returns the currently running job plus recent history.
func (s *Service) GetStatus(ctx context.Context) (*StatusSummary, error) {
	active, err := s.repo.GetActiveJob(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListRecentJobs(ctx, s.historyLimit)
	if err != nil {
		return nil, err
	}

	return &StatusSummary{
		ActiveJob: active,
		History:   history,
	}, nil
}

func (s *Service) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
			job, err := s.repo.MarkNextJobRunning(s.ctx)
			if err != nil {
				s.logger.WithError(err).Error("Claim job failed")
				select {
				case <-s.ctx.Done():
					return
				case <-time.After(time.Second):
				}
				continue
			}
			if job == nil {
				select {
				case <-s.ctx.Done():
					return
				case <-ticker.C:
					continue
				}
			}

			s.executeJob(job)
		}
	}
}

func (s *Service) executeJob(job *Job) {
	spec := s.buildSpec(job)
	reporter := &jobReporter{
		ctx:      s.ctx,
		repo:     s.repo,
		notifier: s.notifier,
		job:      job.Copy(),
		logger:   s.logger.WithField("job_id", job.JobID),
	}

	summary, err := s.runner.Run(s.ctx, spec, reporter)
	if err != nil {
		_ = s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusFailed, "Job failed", err)
		return
	}

	if err := s.repo.UpdateResult(s.ctx, job.JobID, summary); err != nil {
		s.logger.WithError(err).WithField("job_id", job.JobID).Warn("Failed to record job result")
	}
	_ = s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusCompleted, "Job completed", nil)
}

func (s *Service) buildSpec(job *Job) JobSpec {
	spec := JobSpec{
		Season:     job.Season,
		SeasonType: job.SeasonType,
		DryRun:     job.DryRun,
		Persist:    true,
		Publish:    true,
	}
	if job.WriteCSV {
		spec.OutputPath = filepath.Join(s.outputDir, gamelog.DefaultFileName(job.Season))
	}
	return spec
}

// jobReporter mirrors runner callbacks into the job tables and the notifier.
type jobReporter struct {
	ctx      context.Context
	repo     JobStore
	notifier Notifier
	job      *Job
	logger   logrus.FieldLogger
}

func (r *jobReporter) OnJobStart(spec JobSpec) {
	_ = r.repo.UpdateProgress(r.ctx, r.job.JobID, 0, progressSteps, "Job starting")
	r.notify(Event{Type: EventJobStarted, Message: "Job starting", Total: progressSteps, Data: spec})
}

func (r *jobReporter) OnRowsFetched(rows int) {
	msg := fmt.Sprintf("Retrieved %d team-game rows", rows)
	_ = r.repo.AppendEvent(r.ctx, r.job.JobID, EventRowsFetched, msg, nil, nil)
	r.notify(Event{Type: EventRowsFetched, Message: msg, Data: map[string]int{"rows": rows}})
}

func (r *jobReporter) OnGameSkipped(skipped gamelog.SkippedGame) {
	msg := fmt.Sprintf("Game %s skipped: %s", skipped.GameID, skipped.Reason)
	_ = r.repo.AppendEvent(r.ctx, r.job.JobID, EventGameSkipped, msg, nil, nil)
	r.notify(Event{Type: EventGameSkipped, Message: msg, Data: skipped})
}

func (r *jobReporter) OnProgress(message string, current int, total int) {
	_ = r.repo.UpdateProgress(r.ctx, r.job.JobID, current, total, message)
	r.notify(Event{Type: EventProgress, Message: message, Current: current, Total: total})
}

func (r *jobReporter) OnJobComplete(summary *Summary) {
	_ = r.repo.UpdateProgress(r.ctx, r.job.JobID, progressSteps, progressSteps, "Job complete")
	r.notify(Event{Type: EventJobCompleted, Message: "Job complete", Current: progressSteps, Total: progressSteps, Data: summary})
}

func (r *jobReporter) OnJobError(err error) {
	r.logger.WithError(err).Error("Build failed")
	_ = r.repo.AppendEvent(r.ctx, r.job.JobID, "error", err.Error(), nil, nil)
	r.notify(Event{Type: EventJobFailed, Message: err.Error()})
}

func (r *jobReporter) notify(event Event) {
	if r.notifier == nil {
		return
	}
	event.JobID = r.job.JobID
	event.Season = r.job.Season
	event.SeasonType = r.job.SeasonType
	event.Timestamp = time.Now().UTC()
	r.notifier.Notify(event)
}
