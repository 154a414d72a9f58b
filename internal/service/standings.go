package service

import (
	"context"
	"sort"

	"github.com/fortuna/janus/internal/gamelog"
	"github.com/fortuna/janus/internal/store/repository"
)

// TeamStanding is one team's record derived from a season dataset.
type TeamStanding struct {
	Team          string  `json:"team"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	HomeWins      int     `json:"home_wins"`
	HomeLosses    int     `json:"home_losses"`
	AwayWins      int     `json:"away_wins"`
	AwayLosses    int     `json:"away_losses"`
	PointsFor     float64 `json:"points_for"`
	PointsAgainst float64 `json:"points_against"`
	WinPct        float64 `json:"win_pct"`
}

// StandingsService derives standings from persisted games.
type StandingsService struct {
	games GameReader
}

// NewStandingsService creates a new standings service
func NewStandingsService(games GameReader) *StandingsService {
	return &StandingsService{games: games}
}

// GetStandings computes standings for a season.
func (s *StandingsService) GetStandings(ctx context.Context, season, seasonType string) ([]TeamStanding, error) {
	table, err := NewGameService(s.games).GetSeasonGames(ctx, season, seasonType, repository.GameFilter{})
	if err != nil {
		return nil, err
	}
	return ComputeStandings(table.Records), nil
}

// ComputeStandings tallies records into standings sorted by win percentage,
// then team. Games without both scores, or with level scores, are ignored.
func ComputeStandings(records []gamelog.GameRecord) []TeamStanding {
	teams := make(map[string]*TeamStanding)
	get := func(team string) *TeamStanding {
		st, ok := teams[team]
		if !ok {
			st = &TeamStanding{Team: team}
			teams[team] = st
		}
		return st
	}

	for _, rec := range records {
		if rec.HomePoints == nil || rec.AwayPoints == nil || *rec.HomePoints == *rec.AwayPoints {
			continue
		}
		home, away := get(rec.HomeTeam), get(rec.AwayTeam)
		homePts, awayPts := *rec.HomePoints, *rec.AwayPoints

		home.PointsFor += homePts
		home.PointsAgainst += awayPts
		away.PointsFor += awayPts
		away.PointsAgainst += homePts

		if rec.HomeWin {
			home.Wins++
			home.HomeWins++
			away.Losses++
			away.AwayLosses++
		} else {
			away.Wins++
			away.AwayWins++
			home.Losses++
			home.HomeLosses++
		}
	}

	standings := make([]TeamStanding, 0, len(teams))
	for _, st := range teams {
		if played := st.Wins + st.Losses; played > 0 {
			st.WinPct = float64(st.Wins) / float64(played)
		}
		standings = append(standings, *st)
	}

	sort.Slice(standings, func(i, j int) bool {
		if standings[i].WinPct != standings[j].WinPct {
			return standings[i].WinPct > standings[j].WinPct
		}
		return standings[i].Team < standings[j].Team
	})
	return standings
}
