package service

import (
	"context"
	"fmt"

	"github.com/fortuna/janus/internal/gamelog"
	"github.com/fortuna/janus/internal/store/repository"
)

// GameReader reads persisted season datasets.
// *repository.SeasonGameRepository implements it.
type GameReader interface {
	ListBySeason(ctx context.Context, season, seasonType string, filter repository.GameFilter) (*gamelog.GameTable, error)
	GetByGameID(ctx context.Context, season, seasonType, gameID string) (*gamelog.GameTable, error)
}

// GameService handles season dataset queries
type GameService struct {
	games GameReader
}

// NewGameService creates a new game service
func NewGameService(games GameReader) *GameService {
	return &GameService{games: games}
}

// GetSeasonGames returns a season's games ordered by date.
func (s *GameService) GetSeasonGames(ctx context.Context, season, seasonType string, filter repository.GameFilter) (*gamelog.GameTable, error) {
	seasonType, err := selectSeason(season, seasonType)
	if err != nil {
		return nil, err
	}

	table, err := s.games.ListBySeason(ctx, season, seasonType, filter)
	if err != nil {
		return nil, fmt.Errorf("fetching season games: %w", err)
	}
	return table, nil
}

// GetGame returns a one-record table for a single game.
func (s *GameService) GetGame(ctx context.Context, season, seasonType, gameID string) (*gamelog.GameTable, error) {
	seasonType, err := selectSeason(season, seasonType)
	if err != nil {
		return nil, err
	}

	table, err := s.games.GetByGameID(ctx, season, seasonType, gameID)
	if err != nil {
		return nil, fmt.Errorf("fetching game: %w", err)
	}
	return table, nil
}

// selectSeason validates the season and normalizes the season type, which
// defaults to the regular season.
func selectSeason(season, seasonType string) (string, error) {
	if err := gamelog.ValidateSeason(season); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if seasonType == "" {
		return gamelog.SeasonTypeRegular, nil
	}
	st, err := gamelog.NormalizeSeasonType(seasonType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return st, nil
}
