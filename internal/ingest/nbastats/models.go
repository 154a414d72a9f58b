package nbastats

import "encoding/json"

// leagueGameLogResultSet is the result set name carrying team game rows.
const leagueGameLogResultSet = "LeagueGameLog"

// Response is the common envelope returned by stats.nba.com endpoints.
type Response struct {
	Resource   string          `json:"resource"`
	Parameters json.RawMessage `json:"parameters"`
	ResultSets []ResultSet     `json:"resultSets"`
}

// ResultSet is a named table of headers and positional rows.
type ResultSet struct {
	Name    string          `json:"name"`
	Headers []string        `json:"headers"`
	RowSet  [][]interface{} `json:"rowSet"`
}

// resultSet returns the named result set, falling back to the first one.
func (r *Response) resultSet(name string) *ResultSet {
	for i := range r.ResultSets {
		if r.ResultSets[i].Name == name {
			return &r.ResultSets[i]
		}
	}
	if len(r.ResultSets) == 1 {
		return &r.ResultSets[0]
	}
	return nil
}
