package baseline

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studygate/domain/core"
	"studygate/domain/observation"
	"studygate/domain/validation"
)

func TestDefaultStoreCoversEveryPair(t *testing.T) {
	store := DefaultStore()
	assert.Equal(t, 16, store.Len())

	for _, cat := range observation.Categories {
		for _, kind := range observation.EventKinds {
			b, ok := store.Lookup(cat, kind)
			require.True(t, ok, "%s/%s", cat, kind)
			assert.Greater(t, b.StdDev, 0.0)
		}
	}

	b, _ := store.Lookup(observation.CategoryPayday, observation.KindInteraction)
	assert.Equal(t, validation.Baseline{Mean: 5000, StdDev: 2000}, b)
	assert.Equal(t, 3.0, b.ZScore(11000))
}

func TestNewStoreRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name string
		key  validation.BaselineKey
		b    validation.Baseline
	}{
		{"unknown category", validation.BaselineKey{Category: "mortgage", Kind: observation.KindInteraction}, validation.Baseline{Mean: 1, StdDev: 1}},
		{"unknown kind", validation.BaselineKey{Category: observation.CategoryTitle, Kind: "telepathic"}, validation.Baseline{Mean: 1, StdDev: 1}},
		{"zero std dev", validation.BaselineKey{Category: observation.CategoryTitle, Kind: observation.KindCognitive}, validation.Baseline{Mean: 1, StdDev: 0}},
		{"negative std dev", validation.BaselineKey{Category: observation.CategoryTitle, Kind: observation.KindCognitive}, validation.Baseline{Mean: 1, StdDev: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStore(map[validation.BaselineKey]validation.Baseline{tt.key: tt.b})
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrInvalidBaseline)
		})
	}
}

func TestRecalibrateIsCopyOnWrite(t *testing.T) {
	original := DefaultStore()
	key := validation.BaselineKey{Category: observation.CategoryPayday, Kind: observation.KindInteraction}

	next, err := original.Recalibrate(map[validation.BaselineKey]validation.Baseline{key: {Mean: 4000, StdDev: 1000}})
	require.NoError(t, err)

	before, _ := original.Lookup(key.Category, key.Kind)
	after, _ := next.Lookup(key.Category, key.Kind)
	assert.Equal(t, 5000.0, before.Mean)
	assert.Equal(t, 4000.0, after.Mean)
	assert.Equal(t, original.Len(), next.Len())
}

func TestLiveSwapUnderConcurrentReads(t *testing.T) {
	live := NewLive(DefaultStore())
	key := validation.BaselineKey{Category: observation.CategoryPersonal, Kind: observation.KindBehavioral}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				b, ok := live.Lookup(key.Category, key.Kind)
				if !ok || b.StdDev <= 0 {
					t.Errorf("partial baseline observed: %+v", b)
					return
				}
			}
		}()
	}

	require.NoError(t, live.Recalibrate(map[validation.BaselineKey]validation.Baseline{key: {Mean: 9000, StdDev: 100}}))
	wg.Wait()

	b, _ := live.Lookup(key.Category, key.Kind)
	assert.Equal(t, 9000.0, b.Mean)
}

func TestKeysAreSorted(t *testing.T) {
	keys := DefaultStore().Keys()
	require.Len(t, keys, 16)
	for i := 1; i < len(keys); i++ {
		prev, cur := keys[i-1], keys[i]
		assert.True(t, prev.Category < cur.Category || (prev.Category == cur.Category && prev.Kind < cur.Kind))
	}
}
