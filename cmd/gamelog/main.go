// Command gamelog builds one season's game-level dataset and saves it as CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/janus/internal/build"
	"github.com/fortuna/janus/internal/cache"
	"github.com/fortuna/janus/internal/config"
	"github.com/fortuna/janus/internal/gamelog"
	"github.com/fortuna/janus/internal/ingest/nbastats"
	"github.com/fortuna/janus/internal/logging"
	"github.com/fortuna/janus/internal/publisher"
	"github.com/fortuna/janus/internal/store"
	"github.com/fortuna/janus/internal/store/repository"
)

const (
	appName    = "janus-gamelog"
	appVersion = "1.0.0"
)

type options struct {
	season     string
	seasonType string
	out        string
	dsn        string
	redisURL   string
	publish    bool
	dryRun     bool
	head       int
}

func main() {
	cfg := config.Load()

	opts := options{}
	flag.StringVar(&opts.season, "season", cfg.Season, "Season to build (e.g., 2024-25)")
	flag.StringVar(&opts.seasonType, "season-type", cfg.SeasonType, "Season type (Regular Season, Playoffs, ...)")
	flag.StringVar(&opts.out, "out", "", "Output CSV path (default <OUTPUT_DIR>/nba_<start>_<end>_games_with_team_stats.csv)")
	flag.StringVar(&opts.dsn, "dsn", "", "Postgres DSN; when set the season is also stored")
	flag.StringVar(&opts.redisURL, "redis", "", "Redis URL; when set responses are cached")
	flag.BoolVar(&opts.publish, "publish", false, "Publish dataset events to Redis streams (requires --redis)")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "Build and print the dataset without writing anything")
	flag.IntVar(&opts.head, "head", 5, "Number of games to print")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level")
	flag.Parse()

	logger := logging.NewWithWriter(*logLevel, os.Stderr)
	logger.Infof("=== %s v%s ===", appName, appVersion)

	if opts.out == "" {
		opts.out = filepath.Join(cfg.OutputDir, gamelog.DefaultFileName(opts.season))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, logger, os.Stdout); err != nil {
		logger.Errorf("Build failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, logger *logrus.Logger, stdout io.Writer) error {
	if err := gamelog.ValidateSeason(opts.season); err != nil {
		return err
	}
	seasonType, err := gamelog.NormalizeSeasonType(opts.seasonType)
	if err != nil {
		return err
	}

	var responseCache nbastats.ResponseCache
	var redisPublisher *publisher.RedisPublisher
	if opts.redisURL != "" {
		redisCache, err := cache.NewRedisCache(opts.redisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisCache.Close()
		responseCache = redisCache
		if opts.publish {
			redisPublisher = publisher.NewRedisPublisher(redisCache.Client())
		}
	} else if opts.publish {
		return fmt.Errorf("--publish requires --redis")
	}

	client := nbastats.NewClient(nbastats.Config{
		BaseURL:           cfg.NBAStats.BaseURL,
		RequestTimeout:    cfg.NBAStats.RequestTimeout,
		RequestsPerSecond: cfg.NBAStats.RequestsPerSecond,
		MaxRetries:        cfg.NBAStats.MaxRetries,
		RetryDelay:        cfg.NBAStats.RetryDelay,
		CacheTTL:          cfg.NBAStats.CacheTTL,
	}, responseCache, logger)

	runner := build.NewRunner(client, logger)
	spec := build.JobSpec{
		Season:     opts.season,
		SeasonType: seasonType,
		OutputPath: opts.out,
		DryRun:     opts.dryRun,
		Publish:    redisPublisher != nil,
	}

	if opts.dsn != "" {
		db, err := store.NewDatabase(opts.dsn)
		if err != nil {
			return err
		}
		defer db.Close()
		db.SetLogger(logger.WithField("component", "store"))
		if err := db.RunMigrations(); err != nil {
			return err
		}
		runner.WithStore(repository.NewSeasonGameRepository(db))
		spec.Persist = true
	}
	if redisPublisher != nil {
		runner.WithPublisher(redisPublisher)
	}

	summary, err := runner.Run(ctx, spec, &consoleReporter{out: stdout})
	if err != nil {
		return err
	}

	printSummary(stdout, summary, opts.head)
	return nil
}

// printSummary writes the dataset shape and its first rows.
func printSummary(w io.Writer, summary *build.Summary, head int) {
	rows, cols := summary.Table.Shape()
	fmt.Fprintf(w, "Final dataset shape: (%d, %d)\n", rows, cols)

	preview := summary.Table.Head(head)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(preview.Columns(), "\t"))
	for _, rec := range preview.Records {
		fmt.Fprintln(tw, strings.Join(preview.Row(rec), "\t"))
	}
	tw.Flush()

	if summary.OutputPath != "" {
		fmt.Fprintf(w, "Saved dataset to %s\n", summary.OutputPath)
	}
}

type consoleReporter struct {
	out io.Writer
}

func (c *consoleReporter) OnJobStart(spec build.JobSpec) {
	fmt.Fprintf(c.out, "Building %s %s (dry_run=%v)\n", spec.Season, spec.SeasonType, spec.DryRun)
}

func (c *consoleReporter) OnRowsFetched(rows int) {
	fmt.Fprintf(c.out, "Retrieved %d team-game rows.\n", rows)
}

func (c *consoleReporter) OnGameSkipped(skipped gamelog.SkippedGame) {
	fmt.Fprintf(c.out, "Skipping game %s: %s %v\n", skipped.GameID, skipped.Reason, skipped.Matchups)
}

func (c *consoleReporter) OnProgress(message string, current int, total int) {}

func (c *consoleReporter) OnJobComplete(summary *build.Summary) {
	if summary.Table == nil {
		return
	}
	names := make([]string, len(summary.Table.Stats))
	for i, stat := range summary.Table.Stats {
		names[i] = stat.Name
	}
	fmt.Fprintf(c.out, "Using stat columns: %s\n", strings.Join(names, ", "))
}

func (c *consoleReporter) OnJobError(err error) {
	fmt.Fprintf(c.out, "Job error: %v\n", err)
}
