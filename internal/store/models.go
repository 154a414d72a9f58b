package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// StatLine holds one side's stats keyed by output key ("fgm", "fg_pct", ...).
// It is stored as JSONB; nil values round-trip as JSON null.
type StatLine map[string]*float64

// Value implements driver.Valuer.
func (s StatLine) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal stat line: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner.
func (s *StatLine) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = StatLine{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan stat line: unsupported type %T", src)
	}

	line := StatLine{}
	if err := json.Unmarshal(raw, &line); err != nil {
		return fmt.Errorf("scan stat line: %w", err)
	}
	*s = line
	return nil
}

// SeasonGame is a row of season_games.
type SeasonGame struct {
	Season      string         `json:"season" db:"season"`
	SeasonType  string         `json:"season_type" db:"season_type"`
	GameID      string         `json:"game_id" db:"game_id"`
	GameDate    time.Time      `json:"game_date" db:"game_date"`
	HomeTeam    string         `json:"home_team" db:"home_team"`
	AwayTeam    string         `json:"away_team" db:"away_team"`
	HomePoints  *float64       `json:"home_pts" db:"home_pts"`
	AwayPoints  *float64       `json:"away_pts" db:"away_pts"`
	HomeWin     bool           `json:"home_win" db:"home_win"`
	HomeStats   StatLine       `json:"home_stats" db:"home_stats"`
	AwayStats   StatLine       `json:"away_stats" db:"away_stats"`
	StatColumns pq.StringArray `json:"stat_columns" db:"stat_columns"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}
