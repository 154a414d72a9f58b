package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/janus/internal/gamelog"
	"github.com/fortuna/janus/internal/service"
	"github.com/fortuna/janus/internal/store/repository"
)

// GameQueries serves persisted season datasets.
type GameQueries interface {
	GetSeasonGames(ctx context.Context, season, seasonType string, filter repository.GameFilter) (*gamelog.GameTable, error)
	GetGame(ctx context.Context, season, seasonType, gameID string) (*gamelog.GameTable, error)
}

// StandingsQueries serves derived standings.
type StandingsQueries interface {
	GetStandings(ctx context.Context, season, seasonType string) ([]service.TeamStanding, error)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Handler contains dependencies for HTTP handlers
type Handler struct {
	games     GameQueries
	standings StandingsQueries
	checks    map[string]HealthCheck
	logger    logrus.FieldLogger
}

// NewHandler creates a new handler
func NewHandler(games GameQueries, standings StandingsQueries, checks map[string]HealthCheck, logger logrus.FieldLogger) *Handler {
	return &Handler{
		games:     games,
		standings: standings,
		checks:    checks,
		logger:    logger,
	}
}

// HealthCheck handles GET /health. Any failing dependency turns the
// response into a 503.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}

	respondJSON(w, status, map[string]interface{}{
		"status":       overall,
		"service":      "janus",
		"version":      "1.0.0",
		"dependencies": deps,
	})
}

// GetSeasonGames handles GET /api/v1/seasons/{season}/games
func (h *Handler) GetSeasonGames(w http.ResponseWriter, r *http.Request) {
	season := mux.Vars(r)["season"]
	seasonType := r.URL.Query().Get("season_type")

	filter := repository.GameFilter{Team: r.URL.Query().Get("team")}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		filter.Limit = l
	}

	table, err := h.games.GetSeasonGames(r.Context(), season, seasonType, filter)
	if err != nil {
		respondServiceError(w, "Failed to fetch season games", err)
		return
	}

	respondJSON(w, http.StatusOK, tablePayload(season, seasonTypeOrDefault(seasonType), table))
}

// GetSeasonGamesCSV handles GET /api/v1/seasons/{season}/games.csv
func (h *Handler) GetSeasonGamesCSV(w http.ResponseWriter, r *http.Request) {
	season := mux.Vars(r)["season"]

	table, err := h.games.GetSeasonGames(r.Context(), season, r.URL.Query().Get("season_type"), repository.GameFilter{})
	if err != nil {
		respondServiceError(w, "Failed to fetch season games", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", gamelog.DefaultFileName(season)))
	w.WriteHeader(http.StatusOK)
	if err := gamelog.WriteCSV(w, table); err != nil {
		h.logger.WithError(err).WithField("season", season).Warn("CSV response truncated")
	}
}

// GetGame handles GET /api/v1/seasons/{season}/games/{gameID}
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	table, err := h.games.GetGame(r.Context(), vars["season"], r.URL.Query().Get("season_type"), vars["gameID"])
	if err != nil {
		respondServiceError(w, "Game not found", err)
		return
	}
	if len(table.Records) == 0 {
		respondError(w, http.StatusNotFound, "Game not found", nil)
		return
	}

	respondJSON(w, http.StatusOK, table.Map(table.Records[0]))
}

// GetStandings handles GET /api/v1/seasons/{season}/standings
func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	season := mux.Vars(r)["season"]
	seasonType := r.URL.Query().Get("season_type")

	standings, err := h.standings.GetStandings(r.Context(), season, seasonType)
	if err != nil {
		respondServiceError(w, "Failed to compute standings", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"season":      season,
		"season_type": seasonTypeOrDefault(seasonType),
		"standings":   standings,
	})
}

func tablePayload(season, seasonType string, table *gamelog.GameTable) map[string]interface{} {
	games := make([]map[string]interface{}, 0, len(table.Records))
	for _, rec := range table.Records {
		games = append(games, table.Map(rec))
	}
	return map[string]interface{}{
		"season":      season,
		"season_type": seasonType,
		"columns":     table.Columns(),
		"count":       len(games),
		"games":       games,
	}
}

func seasonTypeOrDefault(seasonType string) string {
	if st, err := gamelog.NormalizeSeasonType(seasonType); err == nil {
		return st
	}
	return gamelog.SeasonTypeRegular
}

// respondServiceError maps service and repository errors to status codes.
func respondServiceError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		respondError(w, http.StatusNotFound, message, err)
	case errors.Is(err, service.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, message, err)
	default:
		respondError(w, http.StatusInternalServerError, message, err)
	}
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
