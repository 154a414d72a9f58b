package gamelog

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// AggregateResult is the output of one aggregation pass.
type AggregateResult struct {
	Table    *GameTable
	Skipped  []SkippedGame
	RowsRead int
}

// Aggregator turns a TeamGameLog into one GameRecord per game.
type Aggregator struct {
	logger logrus.FieldLogger
}

// NewAggregator creates an aggregator. A nil logger uses the logrus standard logger.
func NewAggregator(logger logrus.FieldLogger) *Aggregator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Aggregator{logger: logger.WithField("component", "aggregator")}
}

// Aggregate groups rows by game id, classifies each group and merges matched
// groups into GameRecords sorted by game date. Malformed groups are skipped
// with a warning and never abort the pass.
func (a *Aggregator) Aggregate(teamLog *TeamGameLog) *AggregateResult {
	result := &AggregateResult{Table: &GameTable{}}
	if teamLog == nil {
		return result
	}

	stats := AvailableStats(teamLog.Columns)
	result.Table.Stats = stats
	result.RowsRead = len(teamLog.Rows)

	a.logger.WithField("columns", statNames(stats)).Info("Using stat columns")

	groups := make(map[string][]TeamGameRow)
	for _, row := range teamLog.Rows {
		groups[row.GameID] = append(groups[row.GameID], row)
	}

	gameIDs := make([]string, 0, len(groups))
	for id := range groups {
		gameIDs = append(gameIDs, id)
	}
	sort.Strings(gameIDs)

	records := make([]GameRecord, 0, len(gameIDs))
	for _, id := range gameIDs {
		c := Classify(id, groups[id])
		if !c.OK {
			a.warnSkipped(c.Skipped)
			result.Skipped = append(result.Skipped, c.Skipped)
			continue
		}
		records = append(records, Merge(id, c.Home, c.Away, stats))
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].GameDate.Before(records[j].GameDate)
	})
	result.Table.Records = records

	rows, cols := result.Table.Shape()
	a.logger.WithFields(logrus.Fields{
		"rows_read":     result.RowsRead,
		"games_built":   rows,
		"columns":       cols,
		"games_skipped": len(result.Skipped),
	}).Info("Aggregated team game log")

	return result
}

func (a *Aggregator) warnSkipped(s SkippedGame) {
	a.logger.WithFields(logrus.Fields{
		"game_id":    s.GameID,
		"matchups":   s.Matchups,
		"rows":       s.RowCount,
		"home_count": s.HomeCount,
		"away_count": s.AwayCount,
	}).Warnf("Skipping game %s: %s", s.GameID, s.Reason)
}

// Merge builds the GameRecord for a classified home/away pair. Values are
// copied verbatim, including nils.
func Merge(gameID string, home, away TeamGameRow, stats []StatColumn) GameRecord {
	rec := GameRecord{
		GameID:     gameID,
		GameDate:   home.GameDate,
		HomeTeam:   home.Team,
		AwayTeam:   away.Team,
		HomePoints: home.Stat(ColumnPoints),
		AwayPoints: away.Stat(ColumnPoints),
		Home:       make(map[string]*float64, len(stats)),
		Away:       make(map[string]*float64, len(stats)),
	}
	rec.HomeWin = homeWin(rec.HomePoints, rec.AwayPoints)

	for _, stat := range stats {
		rec.Home[stat.Key] = home.Stat(stat.Name)
		rec.Away[stat.Key] = away.Stat(stat.Name)
	}
	return rec
}

// homeWin is a strict comparison; ties and missing scores are not wins.
func homeWin(home, away *float64) bool {
	if home == nil || away == nil {
		return false
	}
	return *home > *away
}

func statNames(stats []StatColumn) []string {
	names := make([]string, len(stats))
	for i, s := range stats {
		names[i] = s.Name
	}
	return names
}
