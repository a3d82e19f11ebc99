package excel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studygate/adapters/baseline"
	"studygate/internal"
)

func TestWriteBaselinesRoundTrip(t *testing.T) {
	store := baseline.DefaultStore()
	for _, sheet := range []string{"", "Baselines"} {
		path := filepath.Join(t.TempDir(), "baselines.xlsx")
		require.NoError(t, WriteBaselines(path, sheet, store))

		got, err := NewBaselineReader(path, sheet, internal.NewNopLogger()).Read()
		require.NoError(t, err)
		require.Len(t, got, store.Len())
		for key, b := range got {
			want, ok := store.Lookup(key.Category, key.Kind)
			require.True(t, ok)
			assert.InDelta(t, want.Mean, b.Mean, 1e-6)
			assert.InDelta(t, want.StdDev, b.StdDev, 1e-6)
		}
	}
}
