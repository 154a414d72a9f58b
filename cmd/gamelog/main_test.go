package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/janus/internal/config"
)

const leagueGameLog = `{
  "resource": "leaguegamelog",
  "resultSets": [{
    "name": "LeagueGameLog",
    "headers": ["SEASON_ID","TEAM_ID","TEAM_ABBREVIATION","TEAM_NAME","GAME_ID","GAME_DATE","MATCHUP","WL","PTS","REB"],
    "rowSet": [
      ["22024",1610612738,"BOS","Boston Celtics","0022400061","2024-10-22","BOS vs. NYK","W",132,44],
      ["22024",1610612752,"NYK","New York Knicks","0022400061","2024-10-22","NYK @ BOS","L",109,35],
      ["22024",1610612747,"LAL","Los Angeles Lakers","0022400062","2024-10-22","LAL vs. MIN","W",110,null]
    ]
  }]
}`

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		NBAStats: config.NBAStatsConfig{
			BaseURL:        baseURL,
			RequestTimeout: 2 * time.Second,
			MaxRetries:     1,
		},
	}
}

func TestRun_WritesCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-25", r.URL.Query().Get("Season"))
		w.Write([]byte(leagueGameLog))
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "nba_2024_2025_games_with_team_stats.csv")
	logger, _ := test.NewNullLogger()
	var stdout bytes.Buffer

	err := run(context.Background(), testConfig(srv.URL), options{
		season:     "2024-25",
		seasonType: "Regular Season",
		out:        out,
		head:       5,
	}, logger, &stdout)
	require.NoError(t, err)

	printed := stdout.String()
	assert.Contains(t, printed, "Retrieved 3 team-game rows.")
	assert.Contains(t, printed, "Skipping game 0022400062")
	assert.Contains(t, printed, "Using stat columns: REB, PTS\n")
	assert.Contains(t, printed, "Final dataset shape: (1, 9)")
	assert.Contains(t, printed, "Saved dataset to "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "game_id,game_date,home_team,away_team,home_pts,away_pts,home_win,home_reb,away_reb", lines[0])
	assert.Equal(t, "0022400061,2024-10-22,BOS,NYK,132,109,1,44,35", lines[1])
}

func TestRun_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "games.csv")
	logger, _ := test.NewNullLogger()

	err := run(context.Background(), testConfig(srv.URL), options{
		season:     "2024-25",
		seasonType: "Regular Season",
		out:        out,
	}, logger, &bytes.Buffer{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch league game log")
	assert.NoFileExists(t, out)
}

func TestRun_RejectsBadInput(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := testConfig("http://127.0.0.1:0")

	assert.Error(t, run(context.Background(), cfg, options{season: "2024", seasonType: "Regular Season"}, logger, &bytes.Buffer{}))
	assert.Error(t, run(context.Background(), cfg, options{season: "2024-25", seasonType: "Summer"}, logger, &bytes.Buffer{}))
	assert.Error(t, run(context.Background(), cfg, options{season: "2024-25", seasonType: "Playoffs", publish: true}, logger, &bytes.Buffer{}))
}
