package gamelog

import (
	"fmt"
	"regexp"
	"strings"
)

// Season types accepted by the league game log endpoint.
const (
	SeasonTypeRegular  = "Regular Season"
	SeasonTypePlayoffs = "Playoffs"
	SeasonTypePre      = "Pre Season"
	SeasonTypeAllStar  = "All Star"
	SeasonTypePlayIn   = "PlayIn"
)

var seasonTypes = []string{
	SeasonTypeRegular,
	SeasonTypePlayoffs,
	SeasonTypePre,
	SeasonTypeAllStar,
	SeasonTypePlayIn,
}

var seasonPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// ValidateSeason checks a season id of the form "2024-25".
func ValidateSeason(season string) error {
	if !seasonPattern.MatchString(season) {
		return fmt.Errorf("invalid season %q (expected YYYY-YY)", season)
	}
	return nil
}

// NormalizeSeasonType matches a season type case-insensitively against the
// supported designations and returns its canonical spelling.
func NormalizeSeasonType(seasonType string) (string, error) {
	trimmed := strings.TrimSpace(seasonType)
	for _, st := range seasonTypes {
		if strings.EqualFold(st, trimmed) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unsupported season type %q (expected one of %s)", seasonType, strings.Join(seasonTypes, ", "))
}
