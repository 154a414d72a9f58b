package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatLine_RoundTrip(t *testing.T) {
	pts := 132.0
	in := StatLine{"pts": &pts, "fg_pct": nil}

	v, err := in.Value()
	require.NoError(t, err)

	var out StatLine
	require.NoError(t, out.Scan(v))

	require.Contains(t, out, "fg_pct")
	assert.Nil(t, out["fg_pct"])
	require.NotNil(t, out["pts"])
	assert.Equal(t, 132.0, *out["pts"])
}

func TestStatLine_ScanNil(t *testing.T) {
	var out StatLine
	require.NoError(t, out.Scan(nil))
	assert.Empty(t, out)
	assert.Error(t, out.Scan(42))
}

func TestMigrationNames(t *testing.T) {
	names, err := MigrationNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_create_season_games.sql", "002_create_build_jobs.sql"}, names)
}
