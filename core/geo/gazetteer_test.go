package geo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeReference(t *testing.T) {
	assert.Equal(t, "cook", NormalizeReference(County, "  Cook   COUNTY "))
	assert.Equal(t, "st. louis", NormalizeReference(County, "St. Louis County"))
	assert.Equal(t, "county line school district", NormalizeReference(SchoolDistrict, "County  Line School District"))
	assert.Equal(t, "Cook", StripCountyToken("Cook county"))
	assert.Equal(t, "Countyville", StripCountyToken("Countyville"))
}

func TestGazetteer_NilSafe(t *testing.T) {
	var g *Gazetteer
	assert.False(t, g.Loaded(County))
	assert.False(t, g.Contains(County, "Cook"))
	assert.Equal(t, 0, g.Size(County))
}

func TestLoadGazetteerFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(dir, "ok.yaml")
		require.NoError(t, os.WriteFile(path, []byte("county:\n  - Cook County\n  - Lake\nstate_county_fips:\n  - \"17031\"\n"), 0o600))

		g, err := LoadGazetteerFile(path)
		require.NoError(t, err)
		assert.True(t, g.Loaded(County))
		assert.Equal(t, 2, g.Size(County))
		assert.True(t, g.Contains(County, "cook"))
		assert.True(t, g.Contains(StateCountyFIPS, "17031"))
		assert.False(t, g.Loaded(SchoolDistrict))
	})

	t.Run("unknown kind", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("planet:\n  - Mars\n"), 0o600))

		_, err := LoadGazetteerFile(path)
		assert.ErrorContains(t, err, "unknown geography type")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadGazetteerFile(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}
