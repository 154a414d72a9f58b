package gamelog

import "time"

// TeamGameRow is one team's line for one game as returned by the data source.
type TeamGameRow struct {
	GameID   string
	GameDate time.Time
	Team     string
	Matchup  string
	// Stats is keyed by upstream column name. A nil value is an upstream null.
	Stats map[string]*float64
}

// Stat returns the value for an upstream column, or nil when absent or null.
func (r TeamGameRow) Stat(name string) *float64 {
	if r.Stats == nil {
		return nil
	}
	return r.Stats[name]
}

// TeamGameLog is the flat team-game table for a season.
type TeamGameLog struct {
	Season     string
	SeasonType string
	// Columns is the upstream header set in the order it was received.
	Columns []string
	Rows    []TeamGameRow
}

// GameRecord is one game with both teams' statistics side by side.
type GameRecord struct {
	GameID     string
	GameDate   time.Time
	HomeTeam   string
	AwayTeam   string
	HomePoints *float64
	AwayPoints *float64
	HomeWin    bool
	// Home and Away are keyed by StatColumn.Key.
	Home map[string]*float64
	Away map[string]*float64
}

// SkippedGame describes a game id that could not be turned into a GameRecord.
type SkippedGame struct {
	GameID    string   `json:"game_id"`
	Reason    string   `json:"reason"`
	Matchups  []string `json:"matchups"`
	RowCount  int      `json:"row_count"`
	HomeCount int      `json:"home_count"`
	AwayCount int      `json:"away_count"`
}

// Float is a convenience for building stat values.
func Float(v float64) *float64 {
	return &v
}
