package build

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/fortuna/janus/internal/gamelog"
)

// JobStatus represents the lifecycle state for a job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job models the database representation of a build job.
type Job struct {
	JobID           string
	Season          string
	SeasonType      string
	WriteCSV        bool
	DryRun          bool
	Status          JobStatus
	StatusMessage   sql.NullString
	ProgressCurrent int
	ProgressTotal   int
	RowsRead        int
	GamesBuilt      int
	SkippedGameIDs  pq.StringArray
	OutputPath      sql.NullString
	LastError       sql.NullString
	CreatedAt       time.Time
	UpdatedAt       time.Time
	StartedAt       sql.NullTime
	CompletedAt     sql.NullTime
}

// Copy returns a shallow copy to prevent external mutation.
func (j *Job) Copy() *Job {
	if j == nil {
		return nil
	}
	cpy := *j
	return &cpy
}

// JobSpec describes the work to be performed by the runner.
type JobSpec struct {
	Season     string
	SeasonType string
	// OutputPath is where the CSV is written; empty skips the file.
	OutputPath string
	DryRun     bool
	Persist    bool
	Publish    bool
}

// Summary describes a finished build.
type Summary struct {
	Season         string                `json:"season"`
	SeasonType     string                `json:"season_type"`
	RowsRead       int                   `json:"rows_read"`
	GamesBuilt     int                   `json:"games_built"`
	GamesSkipped   int                   `json:"games_skipped"`
	SkippedGameIDs []string              `json:"skipped_game_ids"`
	Columns        []string              `json:"columns"`
	OutputPath     string                `json:"output_path,omitempty"`
	Skipped        []gamelog.SkippedGame `json:"-"`
	Table          *gamelog.GameTable    `json:"-"`
}

// Reporter receives lifecycle callbacks from the runner.
type Reporter interface {
	OnJobStart(spec JobSpec)
	OnRowsFetched(rows int)
	OnGameSkipped(skipped gamelog.SkippedGame)
	OnProgress(message string, current int, total int)
	OnJobComplete(summary *Summary)
	OnJobError(err error)
}

// StatusSummary is returned to API callers.
type StatusSummary struct {
	ActiveJob *Job   `json:"active_job,omitempty"`
	History   []*Job `json:"recent_jobs,omitempty"`
}

// Event types pushed to a Notifier.
const (
	EventJobStarted   = "job_started"
	EventRowsFetched  = "rows_fetched"
	EventGameSkipped  = "game_skipped"
	EventProgress     = "progress"
	EventJobCompleted = "job_completed"
	EventJobFailed    = "job_failed"
)

// Event is a build progress notification.
type Event struct {
	Type       string      `json:"type"`
	JobID      string      `json:"job_id"`
	Season     string      `json:"season"`
	SeasonType string      `json:"season_type"`
	Message    string      `json:"message,omitempty"`
	Current    int         `json:"current,omitempty"`
	Total      int         `json:"total,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Notifier receives build events as they happen. The WebSocket hub
// implements it.
type Notifier interface {
	Notify(event Event)
}
