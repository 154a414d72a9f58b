package nbastats

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fortuna/janus/internal/gamelog"
)

// dateLayouts are the GAME_DATE formats seen from the endpoint over time.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"Jan 02, 2006",
}

var requiredColumns = []string{
	gamelog.ColumnGameID,
	gamelog.ColumnGameDate,
	gamelog.ColumnTeam,
	gamelog.ColumnMatchup,
}

// ParseLeagueGameLog decodes a leaguegamelog body into a TeamGameLog.
func ParseLeagueGameLog(body []byte) (*gamelog.TeamGameLog, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w (body: %s)", err, snippet(body))
	}

	rs := resp.resultSet(leagueGameLogResultSet)
	if rs == nil {
		return nil, fmt.Errorf("result set %s not found", leagueGameLogResultSet)
	}

	index := make(map[string]int, len(rs.Headers))
	for i, h := range rs.Headers {
		index[strings.ToUpper(h)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing required column %s", col)
		}
	}

	columns := make([]string, len(rs.Headers))
	for i, h := range rs.Headers {
		columns[i] = strings.ToUpper(h)
	}
	stats := gamelog.AvailableStats(columns)

	teamLog := &gamelog.TeamGameLog{
		Columns: columns,
		Rows:    make([]gamelog.TeamGameRow, 0, len(rs.RowSet)),
	}

	for n, raw := range rs.RowSet {
		if len(raw) != len(rs.Headers) {
			return nil, fmt.Errorf("row %d has %d cells, expected %d", n, len(raw), len(rs.Headers))
		}

		row := gamelog.TeamGameRow{
			GameID:  extractString(raw, index[gamelog.ColumnGameID]),
			Team:    extractString(raw, index[gamelog.ColumnTeam]),
			Matchup: extractString(raw, index[gamelog.ColumnMatchup]),
			Stats:   make(map[string]*float64, len(stats)),
		}

		date, err := parseGameDate(extractString(raw, index[gamelog.ColumnGameDate]))
		if err != nil {
			return nil, fmt.Errorf("row %d (game %s): %w", n, row.GameID, err)
		}
		row.GameDate = date

		for _, stat := range stats {
			v, err := extractFloat(raw, index[stat.Name])
			if err != nil {
				return nil, fmt.Errorf("row %d (game %s) column %s: %w", n, row.GameID, stat.Name, err)
			}
			row.Stats[stat.Name] = v
		}

		teamLog.Rows = append(teamLog.Rows, row)
	}

	return teamLog, nil
}

func parseGameDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable game date %q", s)
}

// extractString renders a cell as a string. Game ids arrive as strings but
// older payloads carry them as numbers.
func extractString(row []interface{}, i int) string {
	switch v := row[i].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// extractFloat returns nil for JSON null so missing values pass through.
func extractFloat(row []interface{}, i int) (*float64, error) {
	switch v := row[i].(type) {
	case nil:
		return nil, nil
	case float64:
		return &v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", v)
		}
		return &f, nil
	default:
		return nil, fmt.Errorf("unexpected type %T", v)
	}
}

func snippet(b []byte) string {
	return string(b[:min(len(b), 200)])
}
