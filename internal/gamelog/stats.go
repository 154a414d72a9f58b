package gamelog

import "strings"

// StatColumn pairs an upstream column name with the suffix used for output keys.
type StatColumn struct {
	Name string // upstream header, e.g. "FG_PCT"
	Key  string // output suffix, e.g. "fg_pct"
}

// Canonical upstream column names used outside the stat list.
const (
	ColumnGameID   = "GAME_ID"
	ColumnGameDate = "GAME_DATE"
	ColumnTeam     = "TEAM_ABBREVIATION"
	ColumnMatchup  = "MATCHUP"
	ColumnPoints   = "PTS"
)

// trackedStats is the fixed stat list in output order.
var trackedStats = newStatColumns(
	"FGM", "FGA", "FG_PCT",
	"FG3M", "FG3A", "FG3_PCT",
	"FTM", "FTA", "FT_PCT",
	"OREB", "DREB", "REB",
	"AST", "STL", "BLK",
	"TOV", "PF", "PTS",
	"PLUS_MINUS",
)

func newStatColumns(names ...string) []StatColumn {
	cols := make([]StatColumn, 0, len(names))
	for _, name := range names {
		cols = append(cols, StatColumn{Name: name, Key: strings.ToLower(name)})
	}
	return cols
}

// AvailableStats filters the tracked list down to the columns present in the
// given header set, keeping canonical order.
func AvailableStats(columns []string) []StatColumn {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	var out []StatColumn
	for _, stat := range trackedStats {
		if present[stat.Name] {
			out = append(out, stat)
		}
	}
	return out
}

// StatsForKeys returns the tracked stats whose output keys appear in keys,
// in canonical order. Used when rebuilding a table from stored records.
func StatsForKeys(keys map[string]bool) []StatColumn {
	var out []StatColumn
	for _, stat := range trackedStats {
		if keys[stat.Key] {
			out = append(out, stat)
		}
	}
	return out
}
