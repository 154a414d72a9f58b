package gamelog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// WriteCSV writes the table with a single header row and no index column.
func WriteCSV(w io.Writer, t *GameTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range t.Records {
		if err := cw.Write(t.Row(rec)); err != nil {
			return fmt.Errorf("write game %s: %w", rec.GameID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the table to path, creating parent directories. The
// file is written to a temporary sibling first and renamed into place.
func WriteCSVFile(path string, t *GameTable) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".games-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, t); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

// DefaultFileName derives the artifact name from a season id, e.g.
// "2024-25" -> "nba_2024_2025_games_with_team_stats.csv".
func DefaultFileName(season string) string {
	start, end := SeasonYears(season)
	if start == "" {
		return "nba_games_with_team_stats.csv"
	}
	return fmt.Sprintf("nba_%s_%s_games_with_team_stats.csv", start, end)
}

// SeasonYears expands "2024-25" into ("2024", "2025"). Unrecognized input
// returns empty strings.
func SeasonYears(season string) (string, string) {
	parts := strings.Split(season, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return "", ""
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", ""
	}
	return parts[0], strconv.Itoa(year + 1)
}
