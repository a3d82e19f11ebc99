package baseline

import (
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"studygate/domain/core"
	"studygate/domain/observation"
	"studygate/domain/validation"
)

// Store holds duration baselines per (category, kind). A Store is never
// mutated after construction, so concurrent Lookups need no locking.
type Store struct {
	entries map[validation.BaselineKey]validation.Baseline
}

// NewStore validates and copies entries into an immutable Store
func NewStore(entries map[validation.BaselineKey]validation.Baseline) (*Store, error) {
	copied := make(map[validation.BaselineKey]validation.Baseline, len(entries))
	for key, b := range entries {
		if err := check(key, b); err != nil {
			return nil, err
		}
		copied[key] = b
	}
	return &Store{entries: copied}, nil
}

// DefaultStore seeds every category and event kind with a duration baseline
func DefaultStore() *Store {
	entries := make(map[validation.BaselineKey]validation.Baseline, len(observation.Categories)*len(observation.EventKinds))
	for _, cat := range observation.Categories {
		scale := categoryScale[cat]
		for _, kind := range observation.EventKinds {
			ref := kindReference[kind]
			entries[validation.BaselineKey{Category: cat, Kind: kind}] = validation.Baseline{
				Mean:   ref.Mean * scale,
				StdDev: ref.StdDev * scale,
			}
		}
	}
	return &Store{entries: entries}
}

// Reading a title-loan contract takes longer than a payday form.
var categoryScale = map[observation.Category]float64{
	observation.CategoryPayday:      1.0,
	observation.CategoryInstallment: 1.2,
	observation.CategoryTitle:       1.4,
	observation.CategoryPersonal:    1.3,
}

var kindReference = map[observation.EventKind]validation.Baseline{
	observation.KindInteraction:   {Mean: 5000, StdDev: 2000},
	observation.KindCognitive:     {Mean: 12000, StdDev: 4000},
	observation.KindBehavioral:    {Mean: 8000, StdDev: 3000},
	observation.KindPhysiological: {Mean: 15000, StdDev: 5000},
}

// Lookup implements ports.BaselineProvider
func (s *Store) Lookup(category observation.Category, kind observation.EventKind) (validation.Baseline, bool) {
	if s == nil {
		return validation.Baseline{}, false
	}
	b, ok := s.entries[validation.BaselineKey{Category: category, Kind: kind}]
	return b, ok
}

// Len returns the number of configured pairs
func (s *Store) Len() int {
	return len(s.entries)
}

// Keys returns configured pairs in a stable order
func (s *Store) Keys() []validation.BaselineKey {
	keys := make([]validation.BaselineKey, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Category != keys[j].Category {
			return keys[i].Category < keys[j].Category
		}
		return keys[i].Kind < keys[j].Kind
	})
	return keys
}

// Recalibrate returns a new Store with overrides applied. The receiver is
// left untouched.
func (s *Store) Recalibrate(overrides map[validation.BaselineKey]validation.Baseline) (*Store, error) {
	merged := make(map[validation.BaselineKey]validation.Baseline, len(s.entries)+len(overrides))
	for k, b := range s.entries {
		merged[k] = b
	}
	for k, b := range overrides {
		merged[k] = b
	}
	return NewStore(merged)
}

func check(key validation.BaselineKey, b validation.Baseline) error {
	label := fmt.Sprintf("%s/%s", key.Category, key.Kind)
	if !key.Category.Valid() {
		return core.NewBaselineError(label, "unknown category")
	}
	if !key.Kind.Valid() {
		return core.NewBaselineError(label, "unknown event kind")
	}
	if math.IsNaN(b.Mean) || math.IsInf(b.Mean, 0) {
		return core.NewBaselineError(label, "mean is not finite")
	}
	if !(b.StdDev > 0) || math.IsInf(b.StdDev, 0) {
		return core.NewBaselineError(label, "standard deviation must be positive")
	}
	return nil
}

// Live publishes the current Store behind an atomic pointer. Validators
// read through it while an operator swaps in a recalibrated Store.
type Live struct {
	current atomic.Pointer[Store]
}

// NewLive wraps an initial Store
func NewLive(initial *Store) *Live {
	l := &Live{}
	l.current.Store(initial)
	return l
}

// Lookup implements ports.BaselineProvider
func (l *Live) Lookup(category observation.Category, kind observation.EventKind) (validation.Baseline, bool) {
	return l.current.Load().Lookup(category, kind)
}

// Current returns the published Store
func (l *Live) Current() *Store {
	return l.current.Load()
}

// Recalibrate applies overrides to the current Store and publishes the result
func (l *Live) Recalibrate(overrides map[validation.BaselineKey]validation.Baseline) error {
	for {
		old := l.current.Load()
		next, err := old.Recalibrate(overrides)
		if err != nil {
			return err
		}
		if l.current.CompareAndSwap(old, next) {
			return nil
		}
	}
}
