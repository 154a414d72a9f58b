package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/fortuna/janus/internal/gamelog"
	"github.com/fortuna/janus/internal/store"
)

// ErrNotFound is returned when a requested game does not exist.
var ErrNotFound = errors.New("not found")

// GameFilter narrows ListBySeason.
type GameFilter struct {
	// Team matches either side, case-insensitive.
	Team  string
	Limit int
}

// SeasonGameRepository handles persisted season datasets.
type SeasonGameRepository struct {
	db *store.Database
}

// NewSeasonGameRepository creates a new season game repository
func NewSeasonGameRepository(db *store.Database) *SeasonGameRepository {
	return &SeasonGameRepository{db: db}
}

// ReplaceSeason swaps the stored dataset for a season in one transaction.
func (r *SeasonGameRepository) ReplaceSeason(ctx context.Context, season, seasonType string, table *gamelog.GameTable) error {
	tx, err := r.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace season: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM season_games WHERE season = $1 AND season_type = $2`,
		season, seasonType,
	); err != nil {
		return fmt.Errorf("delete season games: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("season_games",
		"season", "season_type", "game_id", "game_date",
		"home_team", "away_team", "home_pts", "away_pts", "home_win",
		"home_stats", "away_stats", "stat_columns",
	))
	if err != nil {
		return fmt.Errorf("prepare copy: %w", err)
	}

	for _, rec := range table.Records {
		g := toSeasonGame(season, seasonType, table.Stats, rec)
		homeStats, err := g.HomeStats.Value()
		if err != nil {
			stmt.Close()
			return err
		}
		awayStats, err := g.AwayStats.Value()
		if err != nil {
			stmt.Close()
			return err
		}
		columns, err := g.StatColumns.Value()
		if err != nil {
			stmt.Close()
			return err
		}

		if _, err := stmt.ExecContext(ctx,
			g.Season, g.SeasonType, g.GameID, g.GameDate,
			g.HomeTeam, g.AwayTeam, g.HomePoints, g.AwayPoints, g.HomeWin,
			string(homeStats.([]byte)), string(awayStats.([]byte)), columns,
		); err != nil {
			stmt.Close()
			return fmt.Errorf("copy game %s: %w", rec.GameID, err)
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("close copy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace season: %w", err)
	}
	return nil
}

// ListBySeason returns a season's games ordered by date then game id.
func (r *SeasonGameRepository) ListBySeason(ctx context.Context, season, seasonType string, filter GameFilter) (*gamelog.GameTable, error) {
	query := `
		SELECT season, season_type, game_id, game_date, home_team, away_team,
			home_pts, away_pts, home_win, home_stats, away_stats, stat_columns, created_at
		FROM season_games
		WHERE season = $1 AND season_type = $2
	`
	args := []interface{}{season, seasonType}

	if team := strings.TrimSpace(filter.Team); team != "" {
		args = append(args, strings.ToUpper(team))
		query += fmt.Sprintf(" AND (home_team = $%d OR away_team = $%d)", len(args), len(args))
	}

	query += " ORDER BY game_date, game_id"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying season games: %w", err)
	}
	defer rows.Close()

	var games []*store.SeasonGame
	for rows.Next() {
		g, err := scanSeasonGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating season games: %w", err)
	}

	return buildTable(games), nil
}

// GetByGameID returns a single game as a one-record table.
func (r *SeasonGameRepository) GetByGameID(ctx context.Context, season, seasonType, gameID string) (*gamelog.GameTable, error) {
	query := `
		SELECT season, season_type, game_id, game_date, home_team, away_team,
			home_pts, away_pts, home_win, home_stats, away_stats, stat_columns, created_at
		FROM season_games
		WHERE season = $1 AND season_type = $2 AND game_id = $3
	`

	g, err := scanSeasonGame(r.db.DB().QueryRowContext(ctx, query, season, seasonType, gameID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("game %s: %w", gameID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return buildTable([]*store.SeasonGame{g}), nil
}

func scanSeasonGame(scanner interface {
	Scan(dest ...interface{}) error
}) (*store.SeasonGame, error) {
	g := &store.SeasonGame{}
	var homePts, awayPts sql.NullFloat64
	err := scanner.Scan(
		&g.Season, &g.SeasonType, &g.GameID, &g.GameDate, &g.HomeTeam, &g.AwayTeam,
		&homePts, &awayPts, &g.HomeWin, &g.HomeStats, &g.AwayStats, &g.StatColumns,
		&g.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning season game: %w", err)
	}
	g.HomePoints = nullFloat(homePts)
	g.AwayPoints = nullFloat(awayPts)
	return g, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func toSeasonGame(season, seasonType string, stats []gamelog.StatColumn, rec gamelog.GameRecord) *store.SeasonGame {
	keys := make(pq.StringArray, 0, len(stats))
	for _, stat := range stats {
		keys = append(keys, stat.Key)
	}
	return &store.SeasonGame{
		Season:      season,
		SeasonType:  seasonType,
		GameID:      rec.GameID,
		GameDate:    rec.GameDate,
		HomeTeam:    rec.HomeTeam,
		AwayTeam:    rec.AwayTeam,
		HomePoints:  rec.HomePoints,
		AwayPoints:  rec.AwayPoints,
		HomeWin:     rec.HomeWin,
		HomeStats:   store.StatLine(rec.Home),
		AwayStats:   store.StatLine(rec.Away),
		StatColumns: keys,
	}
}

// buildTable rebuilds a GameTable from stored rows. The stat set is the
// union of the rows' stat columns.
func buildTable(games []*store.SeasonGame) *gamelog.GameTable {
	keys := make(map[string]bool)
	records := make([]gamelog.GameRecord, 0, len(games))
	for _, g := range games {
		for _, k := range g.StatColumns {
			keys[k] = true
		}
		records = append(records, gamelog.GameRecord{
			GameID:     g.GameID,
			GameDate:   g.GameDate.UTC(),
			HomeTeam:   g.HomeTeam,
			AwayTeam:   g.AwayTeam,
			HomePoints: g.HomePoints,
			AwayPoints: g.AwayPoints,
			HomeWin:    g.HomeWin,
			Home:       map[string]*float64(g.HomeStats),
			Away:       map[string]*float64(g.AwayStats),
		})
	}
	return &gamelog.GameTable{
		Stats:   gamelog.StatsForKeys(keys),
		Records: records,
	}
}
