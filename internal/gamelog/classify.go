package gamelog

import "strings"

const (
	homeMarker = "vs"
	awayMarker = "@"
)

// Skip reasons reported in SkippedGame.Reason.
const (
	ReasonTooFewRows        = "too few rows"
	ReasonTooManyRows       = "too many rows"
	ReasonUnexpectedMatchup = "unexpected matchup pattern"
)

// Classification is the outcome of classifying one game's rows. Exactly one of
// Matched or Skipped is meaningful, selected by OK.
type Classification struct {
	OK      bool
	Home    TeamGameRow
	Away    TeamGameRow
	Skipped SkippedGame
}

// IsHomeMatchup reports whether a matchup descriptor carries the home marker.
func IsHomeMatchup(matchup string) bool {
	return strings.Contains(strings.ToLower(matchup), homeMarker)
}

// IsAwayMatchup reports whether a matchup descriptor carries the away marker.
func IsAwayMatchup(matchup string) bool {
	return strings.Contains(matchup, awayMarker)
}

// Classify decides which row of a game group is home and which is away. A
// group is matched only when it has exactly two rows, one carrying each marker.
func Classify(gameID string, rows []TeamGameRow) Classification {
	matchups := make([]string, len(rows))
	for i, row := range rows {
		matchups[i] = row.Matchup
	}

	if len(rows) < 2 {
		return Classification{Skipped: SkippedGame{
			GameID:   gameID,
			Reason:   ReasonTooFewRows,
			Matchups: matchups,
			RowCount: len(rows),
		}}
	}

	var (
		home, away       TeamGameRow
		numHome, numAway int
	)
	for _, row := range rows {
		if IsHomeMatchup(row.Matchup) {
			if numHome == 0 {
				home = row
			}
			numHome++
		}
		if IsAwayMatchup(row.Matchup) {
			if numAway == 0 {
				away = row
			}
			numAway++
		}
	}

	if numHome != 1 || numAway != 1 || len(rows) != 2 {
		reason := ReasonUnexpectedMatchup
		if numHome == 1 && numAway == 1 {
			reason = ReasonTooManyRows
		}
		return Classification{Skipped: SkippedGame{
			GameID:    gameID,
			Reason:    reason,
			Matchups:  matchups,
			RowCount:  len(rows),
			HomeCount: numHome,
			AwayCount: numAway,
		}}
	}

	return Classification{OK: true, Home: home, Away: away}
}
