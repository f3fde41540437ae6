// Package cluster merges Best-K registers across ranks of a clustered
// calibration run. The original program does this with an MPI reduction
// (calibrate.c's HAVE_MPI branch, gathering every rank's candidates to rank
// 0); nothing in this corpus binds MPI for Go, so Transport abstracts the
// exchange behind a small interface and Local supplies an in-process
// implementation for a single-process run (Ranks == 1) or for tests that
// want to exercise the merge without real process boundaries.
package cluster

import (
	"fmt"

	"github.com/cwbudde/calibrator/bestk"
)

// Transport exchanges one rank's final Best-K entries with the rest of the
// cluster. A real multi-process deployment would implement this over MPI,
// gRPC, or any other wire protocol; Send publishes this rank's entries and
// Recv collects every rank's, the caller's own included, in rank order.
type Transport interface {
	Send(rank int, entries []bestk.Entry) error
	Recv() ([][]bestk.Entry, error)
}

// Local is a Transport for a single process acting as every rank at once:
// Send stores directly into a shared slice, and Recv returns it once every
// rank has reported. It has no network or process boundary, matching
// Ranks == 1 runs and letting multi-rank merge logic be exercised without
// real MPI bootstrapping.
type Local struct {
	ranks   int
	entries [][]bestk.Entry
	sent    int
}

// NewLocal returns a Transport for a run of the given rank count.
func NewLocal(ranks int) *Local {
	return &Local{
		ranks:   ranks,
		entries: make([][]bestk.Entry, ranks),
	}
}

func (l *Local) Send(rank int, entries []bestk.Entry) error {
	if rank < 0 || rank >= l.ranks {
		return fmt.Errorf("cluster: rank %d out of range [0,%d)", rank, l.ranks)
	}
	if l.entries[rank] != nil {
		return fmt.Errorf("cluster: rank %d already reported", rank)
	}
	if entries == nil {
		// Store an empty, non-nil list so a rank that reported nothing still
		// counts as reported.
		entries = []bestk.Entry{}
	}
	l.entries[rank] = entries
	l.sent++
	return nil
}

func (l *Local) Recv() ([][]bestk.Entry, error) {
	if l.sent != l.ranks {
		return nil, fmt.Errorf("cluster: only %d of %d ranks reported", l.sent, l.ranks)
	}
	return l.entries, nil
}

// MergeAll folds a Transport's per-rank Best-K lists into the overall
// nbests-best set, applying bestk.Merge pairwise left to right. The result
// is order-independent up to equal-score ties.
func MergeAll(transport Transport, nbests int) ([]bestk.Entry, error) {
	perRank, err := transport.Recv()
	if err != nil {
		return nil, err
	}

	merged := []bestk.Entry{}
	for _, entries := range perRank {
		merged = bestk.Merge(merged, entries, nbests)
	}
	return merged, nil
}
