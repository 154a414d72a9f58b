package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Dependencies are the services the REST API exposes. Builds may be nil,
// in which case the build routes are not registered.
type Dependencies struct {
	Games     GameQueries
	Standings StandingsQueries
	Builds    BuildQueue
	Schedule  ScheduleStatus
	Checks    map[string]HealthCheck
}

// Server represents the REST API server
type Server struct {
	port   string
	server *http.Server
}

// NewServer creates a new REST API server
func NewServer(port string, deps Dependencies, logger logrus.FieldLogger) *Server {
	return &Server{
		port: port,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           NewRouter(deps, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewRouter builds the route table.
func NewRouter(deps Dependencies, logger logrus.FieldLogger) *mux.Router {
	logger = logger.WithField("component", "rest")
	handler := NewHandler(deps.Games, deps.Standings, deps.Checks, logger)

	router := mux.NewRouter()

	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggingMiddleware(logger))
	router.Use(CORSMiddleware)

	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	// Season datasets
	api.HandleFunc("/seasons/{season}/games.csv", handler.GetSeasonGamesCSV).Methods("GET")
	api.HandleFunc("/seasons/{season}/games", handler.GetSeasonGames).Methods("GET")
	api.HandleFunc("/seasons/{season}/games/{gameID}", handler.GetGame).Methods("GET")
	api.HandleFunc("/seasons/{season}/standings", handler.GetStandings).Methods("GET")

	// Build jobs
	if deps.Builds != nil {
		buildHandler := NewBuildHandler(deps.Builds, deps.Schedule)
		api.HandleFunc("/builds", buildHandler.HandleBuildRequest).Methods("POST", "OPTIONS")
		api.HandleFunc("/builds/status", buildHandler.HandleBuildStatus).Methods("GET")
	}

	return router
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
