package build

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/janus/internal/gamelog"
	"github.com/fortuna/janus/internal/publisher"
)

// progressSteps is the number of stages a build reports progress for:
// fetch, aggregate, write CSV, persist, publish.
const progressSteps = 5

// Source provides the flat team-game log for a season.
type Source interface {
	FetchTeamGameLog(ctx context.Context, season, seasonType string) (*gamelog.TeamGameLog, error)
}

// GameStore persists an assembled season.
type GameStore interface {
	ReplaceSeason(ctx context.Context, season, seasonType string, table *gamelog.GameTable) error
}

// Publisher announces built datasets and skipped games.
type Publisher interface {
	PublishDatasetBuilt(ctx context.Context, event publisher.DatasetEvent) error
	PublishGameSkipped(ctx context.Context, event publisher.SkippedEvent) error
}

// Runner fetches, aggregates and stores one season per Run.
type Runner struct {
	source    Source
	store     GameStore
	publisher Publisher
	logger    logrus.FieldLogger
}

// NewRunner constructs a runner reading from source. Persistence and
// publishing are off until WithStore / WithPublisher are called.
func NewRunner(source Source, logger logrus.FieldLogger) *Runner {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Runner{
		source: source,
		logger: logger.WithField("component", "build"),
	}
}

// WithStore enables persistence of built seasons.
func (r *Runner) WithStore(store GameStore) *Runner {
	r.store = store
	return r
}

// WithPublisher enables event publishing.
func (r *Runner) WithPublisher(p Publisher) *Runner {
	r.publisher = p
	return r
}

// Run executes the job spec, reporting progress via the Reporter if provided.
// A fetch failure aborts the build; skipped games never do.
func (r *Runner) Run(ctx context.Context, spec JobSpec, reporter Reporter) (*Summary, error) {
	if reporter == nil {
		reporter = nopReporter{}
	}
	reporter.OnJobStart(spec)

	fail := func(err error) (*Summary, error) {
		reporter.OnJobError(err)
		return nil, err
	}

	teamLog, err := r.source.FetchTeamGameLog(ctx, spec.Season, spec.SeasonType)
	if err != nil {
		return fail(err)
	}
	reporter.OnRowsFetched(len(teamLog.Rows))
	reporter.OnProgress(fmt.Sprintf("Retrieved %d team-game rows", len(teamLog.Rows)), 1, progressSteps)

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	result := gamelog.NewAggregator(r.logger).Aggregate(teamLog)
	for _, skipped := range result.Skipped {
		reporter.OnGameSkipped(skipped)
	}

	summary := newSummary(spec, result)
	reporter.OnProgress(fmt.Sprintf("Built %d games (%d skipped)", summary.GamesBuilt, summary.GamesSkipped), 2, progressSteps)

	if spec.DryRun {
		reporter.OnProgress("Dry-run mode: no data will be written", progressSteps, progressSteps)
		reporter.OnJobComplete(summary)
		return summary, nil
	}

	if spec.OutputPath != "" {
		if err := gamelog.WriteCSVFile(spec.OutputPath, result.Table); err != nil {
			return fail(err)
		}
		summary.OutputPath = spec.OutputPath
		r.logger.WithField("path", spec.OutputPath).Info("Saved dataset")
		reporter.OnProgress("Saved dataset to "+spec.OutputPath, 3, progressSteps)
	}

	if spec.Persist && r.store != nil {
		if err := r.store.ReplaceSeason(ctx, spec.Season, spec.SeasonType, result.Table); err != nil {
			return fail(fmt.Errorf("persist season %s: %w", spec.Season, err))
		}
		reporter.OnProgress(fmt.Sprintf("Stored %d games", summary.GamesBuilt), 4, progressSteps)
	}

	if spec.Publish && r.publisher != nil {
		r.publish(ctx, summary)
		reporter.OnProgress("Published dataset events", progressSteps, progressSteps)
	}

	reporter.OnJobComplete(summary)
	return summary, nil
}

// publish announces the dataset. Failures are logged; the dataset is
// already stored at this point.
func (r *Runner) publish(ctx context.Context, summary *Summary) {
	for _, skipped := range summary.Skipped {
		if err := r.publisher.PublishGameSkipped(ctx, publisher.SkippedEvent{
			Season:     summary.Season,
			SeasonType: summary.SeasonType,
			GameID:     skipped.GameID,
			Reason:     skipped.Reason,
			Matchups:   skipped.Matchups,
			HomeCount:  skipped.HomeCount,
			AwayCount:  skipped.AwayCount,
		}); err != nil {
			r.logger.WithError(err).WithField("game_id", skipped.GameID).Warn("Failed to publish skipped game")
		}
	}

	if err := r.publisher.PublishDatasetBuilt(ctx, publisher.DatasetEvent{
		Season:       summary.Season,
		SeasonType:   summary.SeasonType,
		RowsRead:     summary.RowsRead,
		GamesBuilt:   summary.GamesBuilt,
		GamesSkipped: summary.GamesSkipped,
		Columns:      summary.Columns,
		OutputPath:   summary.OutputPath,
		BuiltAt:      time.Now().UTC(),
	}); err != nil {
		r.logger.WithError(err).Warn("Failed to publish dataset event")
	}
}

func newSummary(spec JobSpec, result *gamelog.AggregateResult) *Summary {
	ids := make([]string, 0, len(result.Skipped))
	for _, s := range result.Skipped {
		ids = append(ids, s.GameID)
	}
	return &Summary{
		Season:         spec.Season,
		SeasonType:     spec.SeasonType,
		RowsRead:       result.RowsRead,
		GamesBuilt:     len(result.Table.Records),
		GamesSkipped:   len(result.Skipped),
		SkippedGameIDs: ids,
		Columns:        result.Table.Columns(),
		Skipped:        result.Skipped,
		Table:          result.Table,
	}
}

type nopReporter struct{}

func (nopReporter) OnJobStart(JobSpec) {}
func (nopReporter) OnRowsFetched(int) {}
func (nopReporter) OnGameSkipped(gamelog.SkippedGame) {}
func (nopReporter) OnProgress(string, int, int) {}
func (nopReporter) OnJobComplete(*Summary) {}
func (nopReporter) OnJobError(error) {}
