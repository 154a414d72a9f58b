package gamelog

import (
	"strconv"
	"time"
)

// DateLayout is the calendar date format used for game dates in output.
const DateLayout = "2006-01-02"

var baseColumns = []string{
	"game_id", "game_date", "home_team", "away_team",
	"home_pts", "away_pts", "home_win",
}

// GameTable is the assembled game-level dataset.
type GameTable struct {
	// Stats lists the stat columns carried by every record, in canonical order.
	Stats   []StatColumn
	Records []GameRecord
}

// Columns returns the output header in insertion order. Points keep the
// position of home_pts/away_pts and are not repeated among the stat pairs.
func (t *GameTable) Columns() []string {
	cols := make([]string, len(baseColumns), len(baseColumns)+2*len(t.Stats))
	copy(cols, baseColumns)
	for _, stat := range t.Stats {
		if stat.Name == ColumnPoints {
			continue
		}
		cols = append(cols, "home_"+stat.Key, "away_"+stat.Key)
	}
	return cols
}

// Shape returns (rows, columns) of the table.
func (t *GameTable) Shape() (int, int) {
	return len(t.Records), len(t.Columns())
}

// Head returns a table holding at most the first n records.
func (t *GameTable) Head(n int) *GameTable {
	if n > len(t.Records) {
		n = len(t.Records)
	}
	if n < 0 {
		n = 0
	}
	return &GameTable{Stats: t.Stats, Records: t.Records[:n]}
}

// Row renders a record as strings aligned with Columns.
func (t *GameTable) Row(rec GameRecord) []string {
	row := []string{
		rec.GameID,
		formatDate(rec.GameDate),
		rec.HomeTeam,
		rec.AwayTeam,
		FormatValue(rec.HomePoints),
		FormatValue(rec.AwayPoints),
		formatWin(rec.HomeWin),
	}
	for _, stat := range t.Stats {
		if stat.Name == ColumnPoints {
			continue
		}
		row = append(row, FormatValue(rec.Home[stat.Key]), FormatValue(rec.Away[stat.Key]))
	}
	return row
}

// Map renders a record as a column -> value map suitable for JSON encoding.
// Nil stats encode as null.
func (t *GameTable) Map(rec GameRecord) map[string]interface{} {
	m := map[string]interface{}{
		"game_id":   rec.GameID,
		"game_date": formatDate(rec.GameDate),
		"home_team": rec.HomeTeam,
		"away_team": rec.AwayTeam,
		"home_pts":  rec.HomePoints,
		"away_pts":  rec.AwayPoints,
		"home_win":  rec.HomeWin,
	}
	for _, stat := range t.Stats {
		if stat.Name == ColumnPoints {
			continue
		}
		m["home_"+stat.Key] = rec.Home[stat.Key]
		m["away_"+stat.Key] = rec.Away[stat.Key]
	}
	return m
}

// FormatValue renders a stat in shortest form; nil renders empty.
func FormatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func formatWin(win bool) string {
	if win {
		return "1"
	}
	return "0"
}
