package gamelog

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allColumns = []string{
	"SEASON_ID", "TEAM_ID", "TEAM_ABBREVIATION", "TEAM_NAME", "GAME_ID", "GAME_DATE", "MATCHUP", "WL", "MIN",
	"FGM", "FGA", "FG_PCT", "FG3M", "FG3A", "FG3_PCT", "FTM", "FTA", "FT_PCT",
	"OREB", "DREB", "REB", "AST", "STL", "BLK", "TOV", "PF", "PTS", "PLUS_MINUS", "VIDEO_AVAILABLE",
}

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func teamRow(gameID, date, team, matchup string, pts float64) TeamGameRow {
	return TeamGameRow{
		GameID:   gameID,
		GameDate: day(date),
		Team:     team,
		Matchup:  matchup,
		Stats: map[string]*float64{
			"PTS":        Float(pts),
			"FGM":        Float(pts / 3),
			"FG_PCT":     Float(0.5),
			"PLUS_MINUS": Float(0),
		},
	}
}

func newTestAggregator() (*Aggregator, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewAggregator(logger), hook
}

func warnings(hook *test.Hook) []*logrus.Entry {
	var out []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			out = append(out, e)
		}
	}
	return out
}

func TestAggregate_SingleGame(t *testing.T) {
	agg, hook := newTestAggregator()

	result := agg.Aggregate(&TeamGameLog{
		Columns: allColumns,
		Rows: []TeamGameRow{
			teamRow("1", "2024-10-22", "NYK", "NYK @ BOS", 116),
			teamRow("1", "2024-10-22", "BOS", "BOS vs. NYK", 120),
		},
	})

	require.Len(t, result.Table.Records, 1)
	rec := result.Table.Records[0]
	assert.Equal(t, "1", rec.GameID)
	assert.Equal(t, "BOS", rec.HomeTeam)
	assert.Equal(t, "NYK", rec.AwayTeam)
	assert.Equal(t, 120.0, *rec.HomePoints)
	assert.Equal(t, 116.0, *rec.AwayPoints)
	assert.True(t, rec.HomeWin)
	assert.Equal(t, day("2024-10-22"), rec.GameDate)
	assert.Equal(t, 40.0, *rec.Home["fgm"])
	assert.Empty(t, result.Skipped)
	assert.Empty(t, warnings(hook))
	assert.Equal(t, 2, result.RowsRead)
}

func TestAggregate_HomeWinIsStrictComparison(t *testing.T) {
	tests := []struct {
		name     string
		homePts  float64
		awayPts  float64
		expected bool
	}{
		{name: "home ahead", homePts: 101, awayPts: 99, expected: true},
		{name: "away ahead", homePts: 99, awayPts: 101, expected: false},
		{name: "tie", homePts: 100, awayPts: 100, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, _ := newTestAggregator()
			result := agg.Aggregate(&TeamGameLog{
				Columns: allColumns,
				Rows: []TeamGameRow{
					teamRow("9", "2025-01-01", "LAL", "LAL vs. GSW", tt.homePts),
					teamRow("9", "2025-01-01", "GSW", "GSW @ LAL", tt.awayPts),
				},
			})
			require.Len(t, result.Table.Records, 1)
			assert.Equal(t, tt.expected, result.Table.Records[0].HomeWin)
		})
	}
}

func TestAggregate_SkipsMalformedGroups(t *testing.T) {
	tests := []struct {
		name   string
		rows   []TeamGameRow
		reason string
	}{
		{
			name: "three rows from duplication",
			rows: []TeamGameRow{
				teamRow("2", "2024-10-23", "BOS", "BOS vs. NYK", 120),
				teamRow("2", "2024-10-23", "NYK", "NYK @ BOS", 116),
				teamRow("2", "2024-10-23", "NYK", "NYK @ BOS", 116),
			},
			reason: ReasonUnexpectedMatchup,
		},
		{
			name: "two away markers",
			rows: []TeamGameRow{
				teamRow("3", "2024-10-23", "BOS", "BOS @ NYK", 120),
				teamRow("3", "2024-10-23", "NYK", "NYK @ BOS", 116),
			},
			reason: ReasonUnexpectedMatchup,
		},
		{
			name: "single row",
			rows: []TeamGameRow{
				teamRow("4", "2024-10-23", "BOS", "BOS vs. NYK", 120),
			},
			reason: ReasonTooFewRows,
		},
		{
			name: "extra row without a marker",
			rows: []TeamGameRow{
				teamRow("5", "2024-10-23", "BOS", "BOS vs. NYK", 120),
				teamRow("5", "2024-10-23", "NYK", "NYK @ BOS", 116),
				teamRow("5", "2024-10-23", "TBD", "", 0),
			},
			reason: ReasonTooManyRows,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, hook := newTestAggregator()
			result := agg.Aggregate(&TeamGameLog{Columns: allColumns, Rows: tt.rows})

			assert.Empty(t, result.Table.Records)
			require.Len(t, result.Skipped, 1)
			assert.Equal(t, tt.reason, result.Skipped[0].Reason)
			assert.Equal(t, tt.rows[0].GameID, result.Skipped[0].GameID)

			warns := warnings(hook)
			require.Len(t, warns, 1)
			assert.Equal(t, tt.rows[0].GameID, warns[0].Data["game_id"])
		})
	}
}

func TestAggregate_SkipDoesNotAffectOtherGames(t *testing.T) {
	agg, hook := newTestAggregator()

	result := agg.Aggregate(&TeamGameLog{
		Columns: allColumns,
		Rows: []TeamGameRow{
			teamRow("10", "2024-10-22", "BOS", "BOS vs. NYK", 120),
			teamRow("11", "2024-10-22", "LAL", "LAL @ MIN", 100),
			teamRow("10", "2024-10-22", "NYK", "NYK @ BOS", 116),
			teamRow("11", "2024-10-22", "MIN", "MIN @ LAL", 103),
		},
	})

	require.Len(t, result.Table.Records, 1)
	assert.Equal(t, "10", result.Table.Records[0].GameID)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "11", result.Skipped[0].GameID)
	assert.Equal(t, 0, result.Skipped[0].HomeCount)
	assert.Equal(t, 2, result.Skipped[0].AwayCount)
	assert.Len(t, warnings(hook), 1)
}

func TestAggregate_SortedByDateAndDeterministic(t *testing.T) {
	rows := []TeamGameRow{
		teamRow("30", "2024-11-02", "DEN", "DEN vs. UTA", 110),
		teamRow("20", "2024-10-25", "MIA", "MIA @ CHI", 99),
		teamRow("31", "2024-10-25", "PHX", "PHX vs. SAC", 112),
		teamRow("30", "2024-11-02", "UTA", "UTA @ DEN", 101),
		teamRow("20", "2024-10-25", "CHI", "CHI vs. MIA", 104),
		teamRow("31", "2024-10-25", "SAC", "SAC @ PHX", 118),
		teamRow("40", "2024-10-22", "BOS", "BOS vs. NYK", 120),
		teamRow("40", "2024-10-22", "NYK", "NYK @ BOS", 116),
	}
	teamLog := &TeamGameLog{Columns: allColumns, Rows: rows}

	agg, _ := newTestAggregator()
	first := agg.Aggregate(teamLog)
	second := agg.Aggregate(teamLog)

	require.Len(t, first.Table.Records, 4)
	for i := 1; i < len(first.Table.Records); i++ {
		prev := first.Table.Records[i-1].GameDate
		cur := first.Table.Records[i].GameDate
		assert.False(t, cur.Before(prev), "records %d and %d out of order", i-1, i)
	}

	ids := make([]string, 0, len(first.Table.Records))
	for _, rec := range first.Table.Records {
		ids = append(ids, rec.GameID)
	}
	assert.Equal(t, []string{"40", "20", "31", "30"}, ids)
	assert.Equal(t, first.Table, second.Table)
	assert.False(t, first.Table.Records[2].HomeWin)
}

func TestAggregate_ColumnSubset(t *testing.T) {
	agg, _ := newTestAggregator()

	result := agg.Aggregate(&TeamGameLog{
		Columns: []string{"GAME_ID", "GAME_DATE", "TEAM_ABBREVIATION", "MATCHUP", "FGM", "PTS"},
		Rows: []TeamGameRow{
			teamRow("1", "2024-10-22", "BOS", "BOS vs. NYK", 120),
			teamRow("1", "2024-10-22", "NYK", "NYK @ BOS", 116),
		},
	})

	cols := result.Table.Columns()
	assert.Contains(t, cols, "home_fgm")
	assert.Contains(t, cols, "away_fgm")
	assert.NotContains(t, cols, "home_fg_pct")
	assert.NotContains(t, cols, "away_fg_pct")
	assert.NotContains(t, cols, "home_plus_minus")

	rec := result.Table.Records[0]
	_, ok := rec.Home["fg_pct"]
	assert.False(t, ok)
	assert.Len(t, rec.Home, 2)
	assert.Len(t, rec.Away, 2)
}

func TestAggregate_PreservesNullValues(t *testing.T) {
	home := teamRow("1", "2024-10-22", "BOS", "BOS vs. NYK", 120)
	away := teamRow("1", "2024-10-22", "NYK", "NYK @ BOS", 116)
	away.Stats["FG_PCT"] = nil

	agg, _ := newTestAggregator()
	result := agg.Aggregate(&TeamGameLog{Columns: allColumns, Rows: []TeamGameRow{home, away}})

	require.Len(t, result.Table.Records, 1)
	rec := result.Table.Records[0]
	v, ok := rec.Away["fg_pct"]
	assert.True(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, 0.5, *rec.Home["fg_pct"])
}

func TestAggregate_UsesHomeRowDate(t *testing.T) {
	home := teamRow("1", "2024-10-22", "BOS", "BOS vs. NYK", 120)
	away := teamRow("1", "2024-10-23", "NYK", "NYK @ BOS", 116)

	agg, _ := newTestAggregator()
	result := agg.Aggregate(&TeamGameLog{Columns: allColumns, Rows: []TeamGameRow{away, home}})

	require.Len(t, result.Table.Records, 1)
	assert.Equal(t, day("2024-10-22"), result.Table.Records[0].GameDate)
}

func TestAggregate_EmptyInput(t *testing.T) {
	agg, _ := newTestAggregator()

	result := agg.Aggregate(&TeamGameLog{Columns: allColumns})
	assert.Empty(t, result.Table.Records)
	assert.Empty(t, result.Skipped)

	result = agg.Aggregate(nil)
	assert.NotNil(t, result.Table)
	assert.Empty(t, result.Table.Records)
}
