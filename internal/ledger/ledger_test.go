package ledger

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studygate/domain/core"
	"studygate/domain/validation"
	"studygate/ports"
)

var (
	_ ports.HistoryPort       = (*History)(nil)
	_ ports.EmergencyFlagPort = (*EmergencyFlags)(nil)
	_ ports.FingerprintPort   = (*Fingerprints)(nil)
)

func result(i int) validation.Result {
	return validation.Result{ObservationID: core.ObservationID(fmt.Sprintf("obs-%d", i)), Score: float64(i)}
}

func TestHistoryKeepsMostRecent(t *testing.T) {
	for _, n := range []int{0, 1, 99, 100, 101, 250} {
		t.Run(fmt.Sprintf("appends=%d", n), func(t *testing.T) {
			h := NewHistory(DefaultCapacity)
			subject := core.SubjectID("s-1")
			for i := 0; i < n; i++ {
				h.Append(subject, result(i))
			}

			want := n
			if want > 100 {
				want = 100
			}
			require.Equal(t, want, h.Len(subject))

			entries := h.Entries(subject)
			require.Len(t, entries, want)
			for i, e := range entries {
				assert.Equal(t, float64(n-want+i), e.Score)
			}
		})
	}
}

func TestHistoryRecent(t *testing.T) {
	h := NewHistory(10)
	subject := core.SubjectID("s-2")
	for i := 0; i < 13; i++ {
		h.Append(subject, result(i))
	}

	recent := h.Recent(subject, 5)
	require.Len(t, recent, 5)
	assert.Equal(t, []float64{8, 9, 10, 11, 12}, scores(recent))

	assert.Len(t, h.Recent(subject, 50), 10)
	assert.Nil(t, h.Recent("nobody", 5))
	assert.Nil(t, h.Recent(subject, 0))
	assert.Equal(t, 0, h.Len("nobody"))
}

func TestHistoryConcurrentAppends(t *testing.T) {
	h := NewHistory(DefaultCapacity)
	const subjects = 16
	const perSubject = 300

	var wg sync.WaitGroup
	for s := 0; s < subjects; s++ {
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func(s, w int) {
				defer wg.Done()
				id := core.SubjectID(fmt.Sprintf("subject-%02d", s))
				for i := 0; i < perSubject/4; i++ {
					h.Append(id, result(w*1000+i))
				}
			}(s, w)
		}
	}
	wg.Wait()

	require.Len(t, h.Subjects(), subjects)
	for _, id := range h.Subjects() {
		assert.Equal(t, DefaultCapacity, h.Len(id))
	}
}

func TestHistoryEntriesAreCopies(t *testing.T) {
	h := NewHistory(3)
	h.Append("s", result(1))
	entries := h.Entries("s")
	entries[0].Score = -1
	assert.Equal(t, 1.0, h.Entries("s")[0].Score)
}

func TestEmergencyFlagsPersistUntilCleared(t *testing.T) {
	f := NewEmergencyFlags()
	f.Raise("s-1", validation.CodeConsentNotVerified)
	f.Raise("s-1", validation.CodeConsentNotVerified)
	f.Raise("s-1", validation.CodeSystemClockDrift)
	f.Raise("s-2", validation.CodeIntegrityCheckFailed)

	assert.True(t, f.Flagged("s-1"))
	assert.Equal(t, []validation.Code{validation.CodeConsentNotVerified, validation.CodeSystemClockDrift}, f.Reasons("s-1"))
	assert.Equal(t, 2, f.Count())
	assert.Equal(t, []core.SubjectID{"s-1", "s-2"}, f.Subjects())

	assert.True(t, f.Clear("s-1"))
	assert.False(t, f.Clear("s-1"))
	assert.False(t, f.Flagged("s-1"))
	assert.Nil(t, f.Reasons("s-1"))
	assert.Equal(t, 1, f.Count())
}

func TestFingerprintsClaim(t *testing.T) {
	p := NewFingerprints()
	assert.Equal(t, core.ObservationID("a"), p.Claim("fp", "a"))
	assert.Equal(t, core.ObservationID("a"), p.Claim("fp", "a"))
	assert.Equal(t, core.ObservationID("a"), p.Claim("fp", "b"))
	assert.Equal(t, core.ObservationID("c"), p.Claim("other", "c"))
}

func scores(rs []validation.Result) []float64 {
	out := make([]float64, len(rs))
	for i, r := range rs {
		out[i] = r.Score
	}
	return out
}
