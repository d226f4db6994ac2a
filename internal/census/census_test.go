package census

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("missing file yields empty map", func(t *testing.T) {
		got, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("parses borough and population columns", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "census_population.csv")
		require.NoError(t, os.WriteFile(path, []byte("borough,population\nBrooklyn,2736074\nQueens,2405464\n"), 0644))

		got, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"Brooklyn": 2736074, "Queens": 2405464}, got)
	})

	t.Run("bad count is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "census_population.csv")
		require.NoError(t, os.WriteFile(path, []byte("borough,population\nBrooklyn,lots\n"), 0644))

		_, err := Load(path)
		assert.Error(t, err)
	})
}
