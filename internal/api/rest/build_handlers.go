package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fortuna/janus/internal/build"
)

// BuildQueue accepts build requests and reports on them.
type BuildQueue interface {
	Enqueue(ctx context.Context, req build.Request) (*build.Job, error)
	GetStatus(ctx context.Context) (*build.StatusSummary, error)
}

// ScheduleStatus reports the daily build schedule.
type ScheduleStatus interface {
	GetStatus() map[string]interface{}
}

// BuildHandler proxies API calls to the build service.
type BuildHandler struct {
	service  BuildQueue
	schedule ScheduleStatus
}

// NewBuildHandler wires the REST layer to the build service. schedule may be nil.
func NewBuildHandler(service BuildQueue, schedule ScheduleStatus) *BuildHandler {
	return &BuildHandler{service: service, schedule: schedule}
}

type apiBuildRequest struct {
	Season     string `json:"season"`
	SeasonType string `json:"season_type"`
	WriteCSV   bool   `json:"write_csv"`
	DryRun     bool   `json:"dry_run"`
}

// HandleBuildRequest handles POST /api/v1/builds
func (h *BuildHandler) HandleBuildRequest(w http.ResponseWriter, r *http.Request) {
	var req apiBuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	job, err := h.service.Enqueue(r.Context(), build.Request{
		Season:     req.Season,
		SeasonType: req.SeasonType,
		WriteCSV:   req.WriteCSV,
		DryRun:     req.DryRun,
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to enqueue build job", err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job": jobPayload(job),
	})
}

// HandleBuildStatus handles GET /api/v1/builds/status
func (h *BuildHandler) HandleBuildStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetStatus(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch status", err)
		return
	}

	payload := buildStatusPayload(summary)
	if h.schedule != nil {
		payload["schedule"] = h.schedule.GetStatus()
	}
	respondJSON(w, http.StatusOK, payload)
}

func buildStatusPayload(summary *build.StatusSummary) map[string]interface{} {
	response := map[string]interface{}{
		"status":  "idle",
		"message": "No active jobs",
	}

	if summary.ActiveJob != nil {
		response["status"] = summary.ActiveJob.Status
		if summary.ActiveJob.StatusMessage.Valid {
			response["message"] = summary.ActiveJob.StatusMessage.String
		}
		response["active_job"] = jobPayload(summary.ActiveJob)
	}

	history := make([]map[string]interface{}, 0, len(summary.History))
	for _, job := range summary.History {
		history = append(history, jobPayload(job))
	}

	response["history"] = history
	return response
}

func jobPayload(job *build.Job) map[string]interface{} {
	if job == nil {
		return nil
	}

	payload := map[string]interface{}{
		"job_id":           job.JobID,
		"season":           job.Season,
		"season_type":      job.SeasonType,
		"write_csv":        job.WriteCSV,
		"dry_run":          job.DryRun,
		"status":           job.Status,
		"progress_current": job.ProgressCurrent,
		"progress_total":   job.ProgressTotal,
		"rows_read":        job.RowsRead,
		"games_built":      job.GamesBuilt,
		"created_at":       job.CreatedAt,
		"updated_at":       job.UpdatedAt,
	}

	if job.StatusMessage.Valid {
		payload["status_message"] = job.StatusMessage.String
	}
	if len(job.SkippedGameIDs) > 0 {
		payload["skipped_game_ids"] = job.SkippedGameIDs
	}
	if job.OutputPath.Valid {
		payload["output_path"] = job.OutputPath.String
	}
	if job.StartedAt.Valid {
		payload["started_at"] = job.StartedAt.Time
	}
	if job.CompletedAt.Valid {
		payload["completed_at"] = job.CompletedAt.Time
	}
	if job.LastError.Valid {
		payload["last_error"] = job.LastError.String
	}

	return payload
}
