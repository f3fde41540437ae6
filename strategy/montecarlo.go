package strategy

import (
	"math/rand"

	"github.com/cwbudde/calibrator/calibrate"
)

// DefaultSeed matches the original program's fixed RANDOM_SEED, used when
// a Calibration declares no explicit Seed.
const DefaultSeed int64 = 396

// NewRand returns the shared generator used by Monte-Carlo and Genetic. It
// is accessed only during a strategy's single-threaded population phase;
// workers never touch it.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = DefaultSeed
	}
	return rand.New(rand.NewSource(seed))
}

// populateMonteCarlo draws value[i*nv+j] = min[j] + u*(max[j]-min[j]) for
// u uniform in [0,1), for every local candidate and variable.
func populateMonteCarlo(c *calibrate.Calibration, rng *rand.Rand, start, end int) {
	nv := c.NVariables()
	for i := start; i < end; i++ {
		for j := 0; j < nv; j++ {
			u := rng.Float64()
			c.SetValueAt(i, j, c.RangeMin(j)+u*(c.RangeMax(j)-c.RangeMin(j)))
		}
	}
}
