package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/janus/internal/gamelog"
	"github.com/fortuna/janus/internal/publisher"
)

type fakeSource struct {
	log   *gamelog.TeamGameLog
	err   error
	calls int
}

func (f *fakeSource) FetchTeamGameLog(_ context.Context, season, seasonType string) (*gamelog.TeamGameLog, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.log, nil
}

type fakeStore struct {
	tables map[string]*gamelog.GameTable
	err    error
}

func (f *fakeStore) ReplaceSeason(_ context.Context, season, seasonType string, table *gamelog.GameTable) error {
	if f.err != nil {
		return f.err
	}
	if f.tables == nil {
		f.tables = map[string]*gamelog.GameTable{}
	}
	f.tables[season+"/"+seasonType] = table
	return nil
}

type fakePublisher struct {
	datasets []publisher.DatasetEvent
	skipped  []publisher.SkippedEvent
	err      error
}

func (f *fakePublisher) PublishDatasetBuilt(_ context.Context, event publisher.DatasetEvent) error {
	f.datasets = append(f.datasets, event)
	return f.err
}

func (f *fakePublisher) PublishGameSkipped(_ context.Context, event publisher.SkippedEvent) error {
	f.skipped = append(f.skipped, event)
	return f.err
}

type recordingReporter struct {
	started   int
	rows      int
	skipped   []string
	progress  []string
	completed *Summary
	errs      []error
}

func (r *recordingReporter) OnJobStart(JobSpec) { r.started++ }
func (r *recordingReporter) OnRowsFetched(n int) { r.rows = n }
func (r *recordingReporter) OnGameSkipped(s gamelog.SkippedGame) {
	r.skipped = append(r.skipped, s.GameID)
}
func (r *recordingReporter) OnProgress(msg string, current, total int) {
	r.progress = append(r.progress, msg)
}
func (r *recordingReporter) OnJobComplete(s *Summary) { r.completed = s }
func (r *recordingReporter) OnJobError(err error) { r.errs = append(r.errs, err) }

func row(gameID, date, team, matchup string, pts float64) gamelog.TeamGameRow {
	d, _ := time.Parse("2006-01-02", date)
	return gamelog.TeamGameRow{
		GameID:   gameID,
		GameDate: d,
		Team:     team,
		Matchup:  matchup,
		Stats:    map[string]*float64{"PTS": gamelog.Float(pts), "AST": gamelog.Float(pts / 5)},
	}
}

func sampleLog() *gamelog.TeamGameLog {
	return &gamelog.TeamGameLog{
		Season:     "2024-25",
		SeasonType: "Regular Season",
		Columns:    []string{"GAME_ID", "GAME_DATE", "TEAM_ABBREVIATION", "MATCHUP", "PTS", "AST"},
		Rows: []gamelog.TeamGameRow{
			row("0022400062", "2024-10-22", "LAL", "LAL vs. MIN", 110),
			row("0022400061", "2024-10-22", "NYK", "NYK @ BOS", 109),
			row("0022400061", "2024-10-22", "BOS", "BOS vs. NYK", 132),
			row("0022400062", "2024-10-22", "MIN", "MIN @ LAL", 103),
			row("0022400099", "2024-10-23", "DEN", "DEN vs. OKC", 87),
		},
	}
}

func newTestRunner(source Source) *Runner {
	logger, _ := test.NewNullLogger()
	return NewRunner(source, logger)
}

func TestRunner_Run(t *testing.T) {
	source := &fakeSource{log: sampleLog()}
	store := &fakeStore{}
	pub := &fakePublisher{}
	reporter := &recordingReporter{}
	out := filepath.Join(t.TempDir(), "nba_2024_2025_games_with_team_stats.csv")

	runner := newTestRunner(source).WithStore(store).WithPublisher(pub)
	summary, err := runner.Run(context.Background(), JobSpec{
		Season:     "2024-25",
		SeasonType: "Regular Season",
		OutputPath: out,
		Persist:    true,
		Publish:    true,
	}, reporter)
	require.NoError(t, err)

	assert.Equal(t, 5, summary.RowsRead)
	assert.Equal(t, 2, summary.GamesBuilt)
	assert.Equal(t, 1, summary.GamesSkipped)
	assert.Equal(t, []string{"0022400099"}, summary.SkippedGameIDs)
	assert.Equal(t, out, summary.OutputPath)
	assert.Equal(t, []string{
		"game_id", "game_date", "home_team", "away_team", "home_pts", "away_pts", "home_win",
		"home_ast", "away_ast",
	}, summary.Columns)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "0022400061,2024-10-22,BOS,NYK,132,109,1,26.4,21.8", lines[1])

	stored := store.tables["2024-25/Regular Season"]
	require.NotNil(t, stored)
	assert.Len(t, stored.Records, 2)

	require.Len(t, pub.datasets, 1)
	assert.Equal(t, 2, pub.datasets[0].GamesBuilt)
	require.Len(t, pub.skipped, 1)
	assert.Equal(t, "0022400099", pub.skipped[0].GameID)
	assert.Equal(t, gamelog.ReasonTooFewRows, pub.skipped[0].Reason)

	assert.Equal(t, 1, reporter.started)
	assert.Equal(t, 5, reporter.rows)
	assert.Equal(t, []string{"0022400099"}, reporter.skipped)
	assert.Same(t, summary, reporter.completed)
	assert.Empty(t, reporter.errs)
}

func TestRunner_FetchFailureAborts(t *testing.T) {
	upstream := errors.New("connection reset")
	source := &fakeSource{err: upstream}
	store := &fakeStore{}
	reporter := &recordingReporter{}

	summary, err := newTestRunner(source).WithStore(store).Run(context.Background(), JobSpec{
		Season:     "2024-25",
		SeasonType: "Regular Season",
		Persist:    true,
	}, reporter)

	require.Error(t, err)
	assert.ErrorIs(t, err, upstream)
	assert.Nil(t, summary)
	assert.Nil(t, store.tables)
	assert.Len(t, reporter.errs, 1)
	assert.Nil(t, reporter.completed)
}

func TestRunner_DryRunWritesNothing(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	out := filepath.Join(t.TempDir(), "games.csv")

	summary, err := newTestRunner(&fakeSource{log: sampleLog()}).
		WithStore(store).
		WithPublisher(pub).
		Run(context.Background(), JobSpec{
			Season:     "2024-25",
			SeasonType: "Regular Season",
			OutputPath: out,
			DryRun:     true,
			Persist:    true,
			Publish:    true,
		}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.GamesBuilt)
	assert.Empty(t, summary.OutputPath)
	assert.NoFileExists(t, out)
	assert.Nil(t, store.tables)
	assert.Empty(t, pub.datasets)
}

func TestRunner_StoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("relation does not exist")}

	_, err := newTestRunner(&fakeSource{log: sampleLog()}).WithStore(store).Run(context.Background(), JobSpec{
		Season:     "2024-25",
		SeasonType: "Regular Season",
		Persist:    true,
	}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist season 2024-25")
}

func TestRunner_PublishFailureIsNotFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("redis down")}

	summary, err := newTestRunner(&fakeSource{log: sampleLog()}).WithPublisher(pub).Run(context.Background(), JobSpec{
		Season:     "2024-25",
		SeasonType: "Regular Season",
		Publish:    true,
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.GamesBuilt)
	assert.Len(t, pub.datasets, 1)
}
