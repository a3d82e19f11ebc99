package ledger

import (
	"hash/fnv"
	"sort"
	"sync"

	"studygate/domain/core"
	"studygate/domain/validation"
)

// DefaultCapacity is the per-subject retention of the history ledger
const DefaultCapacity = 100

const shardCount = 32

// History keeps the most recent validation results of every subject.
// Appends for different subjects take different locks; appends for the
// same subject are serialized so the ring keeps FIFO order.
type History struct {
	capacity int
	shards   [shardCount]historyShard
}

type historyShard struct {
	mu    sync.RWMutex
	rings map[core.SubjectID]*ring
}

type ring struct {
	mu    sync.Mutex
	buf   []validation.Result
	start int
	size  int
}

// NewHistory creates a ledger retaining capacity results per subject. A
// non-positive capacity selects DefaultCapacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	h := &History{capacity: capacity}
	for i := range h.shards {
		h.shards[i].rings = make(map[core.SubjectID]*ring)
	}
	return h
}

// Capacity returns the per-subject cap
func (h *History) Capacity() int {
	return h.capacity
}

func (h *History) shard(subject core.SubjectID) *historyShard {
	f := fnv.New32a()
	_, _ = f.Write([]byte(subject))
	return &h.shards[f.Sum32()%shardCount]
}

func (h *History) ring(subject core.SubjectID, create bool) *ring {
	s := h.shard(subject)
	s.mu.RLock()
	r := s.rings[subject]
	s.mu.RUnlock()
	if r != nil || !create {
		return r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if r = s.rings[subject]; r == nil {
		r = &ring{buf: make([]validation.Result, h.capacity)}
		s.rings[subject] = r
	}
	return r
}

// Append adds result to the subject's history, dropping the oldest entry
// once the cap is reached.
func (h *History) Append(subject core.SubjectID, result validation.Result) {
	r := h.ring(subject, true)
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = result
		r.size++
		return
	}
	r.buf[r.start] = result
	r.start = (r.start + 1) % len(r.buf)
}

// Entries returns a chronological copy of the subject's history
func (h *History) Entries(subject core.SubjectID) []validation.Result {
	return h.Recent(subject, h.capacity)
}

// Recent returns up to n of the most recent results, oldest first
func (h *History) Recent(subject core.SubjectID, n int) []validation.Result {
	r := h.ring(subject, false)
	if r == nil || n <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if n > r.size {
		n = r.size
	}
	out := make([]validation.Result, n)
	first := r.start + r.size - n
	for i := 0; i < n; i++ {
		out[i] = r.buf[(first+i)%len(r.buf)]
	}
	return out
}

// Len returns the number of retained results for subject
func (h *History) Len(subject core.SubjectID) int {
	r := h.ring(subject, false)
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Subjects lists every subject with history, sorted
func (h *History) Subjects() []core.SubjectID {
	var out []core.SubjectID
	for i := range h.shards {
		s := &h.shards[i]
		s.mu.RLock()
		for id := range s.rings {
			out = append(out, id)
		}
		s.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
