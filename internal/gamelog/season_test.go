package gamelog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSeason(t *testing.T) {
	assert.NoError(t, ValidateSeason("2024-25"))
	assert.Error(t, ValidateSeason("2024"))
	assert.Error(t, ValidateSeason("2024-2025"))
	assert.Error(t, ValidateSeason(""))
}

func TestNormalizeSeasonType(t *testing.T) {
	st, err := NormalizeSeasonType("regular season")
	require.NoError(t, err)
	assert.Equal(t, SeasonTypeRegular, st)

	st, err = NormalizeSeasonType(" Playoffs ")
	require.NoError(t, err)
	assert.Equal(t, SeasonTypePlayoffs, st)

	_, err = NormalizeSeasonType("Summer League")
	assert.Error(t, err)
}

func TestSeasonYears(t *testing.T) {
	tests := []struct {
		season string
		start  string
		end    string
	}{
		{season: "2024-25", start: "2024", end: "2025"},
		{season: "1999-00", start: "1999", end: "2000"},
		{season: "bogus", start: "", end: ""},
	}

	for _, tt := range tests {
		t.Run(tt.season, func(t *testing.T) {
			start, end := SeasonYears(tt.season)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}

	assert.Equal(t, "nba_games_with_team_stats.csv", DefaultFileName("bogus"))
}
