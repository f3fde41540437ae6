// Package partition computes the two-level split of a flat candidate index
// range across ranks and, within a rank, across workers. Both functions
// are pure and dependency-free so the disjoint-coverage invariant (every
// candidate index owned by exactly one rank and worker) can be checked
// directly.
package partition

// RankWindow returns the half-open candidate range [start, end) owned by
// rank out of ranks total, covering all of [0, nsimulations) when ranks ==
// 1. Window sizes differ by at most one: the integer division spreads any
// remainder across the ranks rather than giving it all to the last one.
func RankWindow(nsimulations, rank, ranks int) (start, end int) {
	start = rank * nsimulations / ranks
	end = (rank + 1) * nsimulations / ranks
	return start, end
}

// WorkerBounds splits [start, end) into workers contiguous sub-windows,
// returning workers+1 boundary indices: worker w owns
// [bounds[w], bounds[w+1]). Sub-window sizes differ by at most one: any
// remainder is spread across the workers, not given to the last one.
func WorkerBounds(start, end, workers int) []int {
	if workers < 1 {
		workers = 1
	}
	span := end - start
	bounds := make([]int, workers+1)
	for w := 0; w <= workers; w++ {
		bounds[w] = start + w*span/workers
	}
	return bounds
}
