package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/janus/internal/api/rest"
	"github.com/fortuna/janus/internal/api/websocket"
	"github.com/fortuna/janus/internal/build"
	"github.com/fortuna/janus/internal/cache"
	"github.com/fortuna/janus/internal/config"
	"github.com/fortuna/janus/internal/ingest/nbastats"
	"github.com/fortuna/janus/internal/logging"
	"github.com/fortuna/janus/internal/publisher"
	"github.com/fortuna/janus/internal/scheduler"
	"github.com/fortuna/janus/internal/service"
	"github.com/fortuna/janus/internal/store"
	"github.com/fortuna/janus/internal/store/repository"
)

const (
	serviceName    = "janus"
	serviceVersion = "1.0.0"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	logger.Infof("Starting %s v%s - NBA season dataset service", serviceName, serviceVersion)

	db, err := store.NewDatabase(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	db.SetLogger(logger.WithField("component", "store"))

	if err := db.RunMigrations(); err != nil {
		logger.Fatalf("Failed to run database migrations: %v", err)
	}

	redisCache := connectRedis(cfg.RedisURL, logger)
	defer redisCache.Close()

	redisPublisher := publisher.NewRedisPublisher(redisCache.Client())

	client := nbastats.NewClient(nbastats.Config{
		BaseURL:           cfg.NBAStats.BaseURL,
		RequestTimeout:    cfg.NBAStats.RequestTimeout,
		RequestsPerSecond: cfg.NBAStats.RequestsPerSecond,
		MaxRetries:        cfg.NBAStats.MaxRetries,
		RetryDelay:        cfg.NBAStats.RetryDelay,
		CacheTTL:          cfg.NBAStats.CacheTTL,
	}, redisCache, logger)

	gameRepo := repository.NewSeasonGameRepository(db)
	runner := build.NewRunner(client, logger).
		WithStore(gameRepo).
		WithPublisher(redisPublisher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	buildService := build.NewService(build.NewRepository(db), runner, cfg.OutputDir, logger)
	buildService.SetNotifier(hub)
	buildService.Start()
	logger.Info("Build service started")

	sched := scheduler.NewOrchestrator(buildService, &scheduler.Config{
		Season:           cfg.Season,
		SeasonType:       cfg.SeasonType,
		WriteCSV:         true,
		EnableDailyBuild: cfg.EnableDailyBuild,
		DailyBuildHour:   cfg.DailyBuildHour,
		RunOnStart:       cfg.BuildOnStart,
		MaxRetries:       cfg.NBAStats.MaxRetries,
		RetryDelay:       cfg.NBAStats.RetryDelay,
	}, logger)
	sched.Start(ctx)

	restServer := rest.NewServer(cfg.RESTPort, rest.Dependencies{
		Games:     service.NewGameService(gameRepo),
		Standings: service.NewStandingsService(gameRepo),
		Builds:    buildService,
		Schedule:  sched,
		Checks: map[string]rest.HealthCheck{
			"postgres": func(context.Context) error { return db.HealthCheck() },
			"redis":    redisCache.HealthCheck,
		},
	}, logger)
	go func() {
		logger.Infof("REST API listening on :%s", cfg.RESTPort)
		if err := restServer.Start(); err != nil {
			logger.WithError(err).Warn("REST server stopped")
		}
	}()

	wsServer := websocket.NewServer(hub, logger)
	go func() {
		if err := wsServer.Start(cfg.WSPort); err != nil {
			logger.WithError(err).Warn("WebSocket server stopped")
		}
	}()

	logger.WithFields(logrus.Fields{
		"rest":      "http://0.0.0.0:" + cfg.RESTPort,
		"websocket": "ws://0.0.0.0:" + cfg.WSPort,
	}).Infof("%s v%s started", serviceName, serviceVersion)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down gracefully...")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("REST API server shutdown error")
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("WebSocket server shutdown error")
	}
	if err := buildService.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Build service shutdown error")
	}
	cancel()

	logger.Infof("%s stopped", serviceName)
}

// connectRedis retries until Redis accepts connections.
func connectRedis(url string, logger *logrus.Logger) *cache.RedisCache {
	const (
		maxRetries = 30
		retryDelay = 2 * time.Second
	)

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		redisCache, err := cache.NewRedisCache(url)
		if err == nil {
			logger.Info("Connected to Redis")
			return redisCache
		}
		lastErr = err
		logger.Warnf("Redis connection attempt %d/%d failed: %v (retrying in %v)", i+1, maxRetries, err, retryDelay)
		time.Sleep(retryDelay)
	}
	logger.Fatalf("Failed to connect to Redis after %d attempts: %v", maxRetries, lastErr)
	return nil
}
