// Package coordinate drives one rank's calibration run to completion:
// niterations outer rounds of populate-then-evaluate, W worker goroutines
// sharing the rank's local candidate window, and a final cross-rank merge
// on the root rank.
package coordinate

import (
	"context"
	"fmt"
	"sync"

	"github.com/cwbudde/calibrator/bestk"
	"github.com/cwbudde/calibrator/calibrate"
	"github.com/cwbudde/calibrator/cluster"
	"github.com/cwbudde/calibrator/partition"
	"github.com/cwbudde/calibrator/strategy"
	"github.com/cwbudde/calibrator/trial"
)

// Progress is called after every completed outer iteration, mirroring the
// original program's per-iteration status line. round is 1-based.
type Progress func(round, iterations int, worst float64)

// Run executes c.Iterations outer rounds against this rank's window of
// [0, c.NSimulations), splitting it across c.Workers goroutines each
// round. Monte-Carlo and Sweep fill the parameter matrix once per round
// and then evaluate it concurrently; Genetic evaluates as it populates
// (see strategy.Populate), so the worker fan-out is skipped for it.
//
// report is called once, after every iteration: only the last call's
// progress matters for a caller that just wants the final state, but
// calling it every round matches the original program's "still
// working" heartbeat.
func Run(ctx context.Context, c *calibrate.Calibration, report Progress) error {
	start, end := partition.RankWindow(c.NSimulations, c.Rank, c.Ranks)
	rng := strategy.NewRand(c.Seed)
	threaded := c.Workers > 1

	for round := 1; round <= c.Iterations; round++ {
		evaluated, err := strategy.Populate(ctx, c, rng, start, end)
		if err != nil {
			return fmt.Errorf("coordinate: round %d: %w", round, err)
		}

		if !evaluated {
			if err := evaluateWindow(ctx, c, start, end, threaded); err != nil {
				return fmt.Errorf("coordinate: round %d: %w", round, err)
			}
		}

		if report != nil {
			report(round, c.Iterations, c.Worst())
		}
	}
	return nil
}

// evaluateWindow scores every local candidate in [start, end) across
// c.Workers goroutines, each owning a disjoint sub-window per
// partition.WorkerBounds, and offers every result to c.Best.
func evaluateWindow(ctx context.Context, c *calibrate.Calibration, start, end int, threaded bool) error {
	bounds := partition.WorkerBounds(start, end, c.Workers)
	if len(bounds) < 2 {
		return nil
	}

	var wg sync.WaitGroup
	for w := 0; w < len(bounds)-1; w++ {
		lo, hi := bounds[w], bounds[w+1]
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				score := trial.Score(ctx, c, i)
				c.Best.Offer(i, score, c.RowAt(i), c.NBests, threaded)
			}
		}(lo, hi)
	}
	wg.Wait()
	return nil
}

// MergeRanks reports this rank's Best-K entries to transport and, on the
// root rank (rank == 0), waits for every rank to report and returns the
// merged nbests-best set. Non-root ranks return (nil, nil) after Send
// succeeds.
func MergeRanks(transport cluster.Transport, rank int, nbests int, local *bestk.Register) ([]bestk.Entry, error) {
	if err := transport.Send(rank, local.Entries()); err != nil {
		return nil, fmt.Errorf("coordinate: reporting rank %d: %w", rank, err)
	}
	if rank != 0 {
		return nil, nil
	}
	merged, err := cluster.MergeAll(transport, nbests)
	if err != nil {
		return nil, err
	}
	if !bestk.Sorted(merged) {
		return nil, &calibrate.InternalError{Msg: "merged best-k entries out of sorted order"}
	}
	return merged, nil
}
