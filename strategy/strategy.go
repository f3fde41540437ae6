// Package strategy populates a calibration's parameter matrix for its
// local rank window: Monte-Carlo random sampling, Sweep grid enumeration,
// or Genetic iterative refinement, selected by calibrate.Algorithm exactly
// as the original program's calibrate_new switches on calibrate->algorithm.
package strategy

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/cwbudde/calibrator/calibrate"
)

// Populate fills Values[i*nv+j] for every local candidate i in [start,
// end) and every variable j, dispatching on c.Algorithm. rng is used only
// by Monte-Carlo and Genetic; Sweep is purely arithmetic.
//
// Monte-Carlo and Sweep only fill the matrix: the coordinator's workers
// evaluate each candidate afterward. Genetic is different — mayfly needs a
// candidate's score to decide the next generation's positions, so it runs
// trials and updates the Best-K register itself as it goes. The returned
// evaluated flag tells the coordinator whether it still needs to run the
// trial phase for [start, end).
func Populate(ctx context.Context, c *calibrate.Calibration, rng *rand.Rand, start, end int) (evaluated bool, err error) {
	switch c.Algorithm {
	case calibrate.MonteCarlo:
		populateMonteCarlo(c, rng, start, end)
		return false, nil
	case calibrate.Sweep:
		populateSweep(c, start, end)
		return false, nil
	case calibrate.Genetic:
		if err := populateGenetic(ctx, c, rng, start, end); err != nil {
			return true, err
		}
		return true, nil
	default:
		return false, fmt.Errorf("strategy: unknown algorithm %v", c.Algorithm)
	}
}
