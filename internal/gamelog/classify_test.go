package gamelog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchupMarkers(t *testing.T) {
	tests := []struct {
		matchup string
		home    bool
		away    bool
	}{
		{matchup: "BOS vs. NYK", home: true},
		{matchup: "BOS VS NYK", home: true},
		{matchup: "BOS Vs NYK", home: true},
		{matchup: "NYK @ BOS", away: true},
		{matchup: "", home: false, away: false},
		{matchup: "BOS - NYK", home: false, away: false},
	}

	for _, tt := range tests {
		t.Run(tt.matchup, func(t *testing.T) {
			assert.Equal(t, tt.home, IsHomeMatchup(tt.matchup))
			assert.Equal(t, tt.away, IsAwayMatchup(tt.matchup))
		})
	}
}

func TestClassify_Matched(t *testing.T) {
	away := teamRow("1", "2024-10-22", "NYK", "NYK @ BOS", 116)
	home := teamRow("1", "2024-10-22", "BOS", "BOS vs. NYK", 120)

	c := Classify("1", []TeamGameRow{away, home})

	assert.True(t, c.OK)
	assert.Equal(t, "BOS", c.Home.Team)
	assert.Equal(t, "NYK", c.Away.Team)
}

func TestClassify_Skipped(t *testing.T) {
	c := Classify("7", []TeamGameRow{
		teamRow("7", "2024-10-22", "BOS", "BOS vs. NYK", 120),
		teamRow("7", "2024-10-22", "NYK", "NYK vs. BOS", 116),
	})

	assert.False(t, c.OK)
	assert.Equal(t, SkippedGame{
		GameID:    "7",
		Reason:    ReasonUnexpectedMatchup,
		Matchups:  []string{"BOS vs. NYK", "NYK vs. BOS"},
		RowCount:  2,
		HomeCount: 2,
		AwayCount: 0,
	}, c.Skipped)
}

func TestClassify_Empty(t *testing.T) {
	c := Classify("8", nil)

	assert.False(t, c.OK)
	assert.Equal(t, ReasonTooFewRows, c.Skipped.Reason)
	assert.Equal(t, 0, c.Skipped.RowCount)
}
