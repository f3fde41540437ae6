// Package bestk implements the Best-K register: a bounded, score-sorted
// list of the lowest-error candidates a calibration run has observed.
//
// Offer is safe for concurrent use in its threaded mode (the sequential
// mode takes no lock): a lock-free fast path rejects most
// offers without touching the mutex, and the mutex-guarded slow path keeps
// the list sorted with an O(K) bubble-insert. K is expected to stay small
// (typically <= 10), so the linear insert never shows up as a bottleneck
// next to the simulator/evaluator spawn cost it's guarding.
package bestk

import (
	"math"
	"sync"
	"sync/atomic"
)

// Entry is one retained candidate: its index into the parameter matrix, the
// score it achieved, and a snapshot of the parameter values that produced
// that score. The snapshot is retained independently of the candidate's row
// in the shared parameter matrix, so a later write to that row (a strategy
// reusing the slot, e.g. genetic's windowed mayfly search) can never pull an
// already-retained entry's reported values out from under it.
type Entry struct {
	Candidate int
	Score     float64
	Values    []float64
}

// Register holds the <= nbests lowest-score offers seen so far, sorted
// ascending by Score. The zero value is an empty register ready to use.
//
// count and worstBits mirror len(entries) and the worst retained score;
// they're updated alongside entries (under mu in the threaded path) but
// read atomically outside it, so Offer's fast path never touches entries.
type Register struct {
	mu      sync.Mutex
	entries []Entry

	count     atomic.Int64
	worstBits atomic.Uint64
}

// NewRegister returns an empty register. Equivalent to the zero value;
// provided for symmetry with other constructors in this repo.
func NewRegister() *Register {
	return &Register{}
}

// Offer inserts (candidate, score, values) if the register isn't yet at
// capacity nbests, or if score beats the current worst retained score. Ties
// do not displace an earlier entry with the same score (strict <
// comparison). values is copied, not retained by reference, so the caller's
// parameter row can keep mutating after the call returns.
//
// threaded selects the synchronized path. In the sequential path (threaded
// == false, i.e. a single worker) the mutex is skipped entirely: the
// caller never offers concurrently in that mode.
func (r *Register) Offer(candidate int, score float64, values []float64, nbests int, threaded bool) {
	if nbests <= 0 {
		return
	}

	// Fast-path check via atomics, not the slice: a stale read here can
	// only trigger an unnecessary lock acquisition below, never miss a
	// valid update, because the slow path re-validates under the lock.
	if int(r.count.Load()) >= nbests && score >= math.Float64frombits(r.worstBits.Load()) {
		return
	}

	if !threaded {
		r.insert(candidate, score, values, nbests)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) >= nbests && score >= r.worstLocked() {
		return
	}
	r.insert(candidate, score, values, nbests)
}

func (r *Register) worstLocked() float64 {
	if len(r.entries) == 0 {
		return posInf
	}
	return r.entries[len(r.entries)-1].Score
}

// insert places the new entry at the tail (growing the register if under
// capacity) and bubbles it leftward by adjacent swaps until sorted order
// holds, then republishes count/worstBits for Offer's fast path. Must be
// called with the mutex held in the threaded path.
func (r *Register) insert(candidate int, score float64, values []float64, nbests int) {
	snapshot := append([]float64(nil), values...)
	if len(r.entries) < nbests {
		r.entries = append(r.entries, Entry{Candidate: candidate, Score: score, Values: snapshot})
	} else {
		r.entries[len(r.entries)-1] = Entry{Candidate: candidate, Score: score, Values: snapshot}
	}
	for i := len(r.entries) - 1; i > 0 && r.entries[i].Score < r.entries[i-1].Score; i-- {
		r.entries[i], r.entries[i-1] = r.entries[i-1], r.entries[i]
	}
	r.count.Store(int64(len(r.entries)))
	r.worstBits.Store(math.Float64bits(r.worstLocked()))
}

// Entries returns a copy of the retained entries, sorted ascending by
// Score.
func (r *Register) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of retained entries.
func (r *Register) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Worst returns the highest retained score, or +Inf if the register holds
// fewer than nbests entries (so any finite score still qualifies).
func (r *Register) Worst(nbests int) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) < nbests {
		return posInf
	}
	return r.worstLocked()
}

// Best returns the lowest-score entry and true, or a zero Entry and false
// if the register is empty.
func (r *Register) Best() (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return Entry{}, false
	}
	return r.entries[0], true
}

// Sorted reports whether entries is sorted ascending by Score, the
// invariant every Register and Merge caller relies on.
func Sorted(entries []Entry) bool {
	for i := 1; i < len(entries); i++ {
		if entries[i].Score < entries[i-1].Score {
			return false
		}
	}
	return true
}

var posInf = math.Inf(1)

// Merge combines two already-sorted entry lists into a new list holding
// the nbests lowest scores of their union. Merge(a, b) and Merge(b, a)
// retain the same set of scores; only the order of equal-score ties may
// differ.
func Merge(a, b []Entry, nbests int) []Entry {
	out := make([]Entry, 0, nbests)
	i, j := 0, 0
	for len(out) < nbests && (i < len(a) || j < len(b)) {
		switch {
		case i >= len(a):
			out = append(out, b[j])
			j++
		case j >= len(b):
			out = append(out, a[i])
			i++
		case a[i].Score <= b[j].Score:
			out = append(out, a[i])
			i++
		default:
			out = append(out, b[j])
			j++
		}
	}
	return out
}
