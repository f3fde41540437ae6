package strategy

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/mayfly"

	"github.com/cwbudde/calibrator/calibrate"
	"github.com/cwbudde/calibrator/internal/numeric"
	"github.com/cwbudde/calibrator/trial"
)

// populateGenetic evaluates the local window [start, end) one mayfly round
// at a time, mapping the swarm's normalized [0,1]^nvariables positions back
// into each variable's range exactly like a knob-based fitter would. Unlike
// Monte-Carlo and Sweep, it scores candidates and updates the Best-K
// register itself — mayfly's male/female velocity update needs a fitness
// value to react to, so population and evaluation can't be split across
// two phases the way the coordinator does for the other two strategies.
//
// The Best-K register is preserved across outer iterations, not reset:
// each call continues refining toward whatever the register already
// holds.
func populateGenetic(ctx context.Context, c *calibrate.Calibration, rng *rand.Rand, start, end int) error {
	window := end - start
	if window <= 0 {
		return nil
	}

	pop := c.NBests
	if pop < 2 {
		pop = 2
	}
	pop = numeric.MinInt(pop, window)
	iterations := window / pop
	if iterations < 1 {
		iterations = 1
	}

	cfg := mayfly.NewDefaultConfig()
	cfg.ProblemSize = c.NVariables()
	cfg.LowerBound = 0
	cfg.UpperBound = 1
	cfg.MaxIterations = iterations
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = numeric.MaxInt(1, int(math.Round(0.05*float64(pop))))
	cfg.Rand = rng

	next := start
	threaded := c.Workers > 1
	tolerance := c.Tolerance

	cfg.ObjectiveFunc = func(pos []float64) float64 {
		if tolerance > 0 && c.Best.Len() >= c.NBests && c.Best.Worst(c.NBests) <= tolerance {
			// Already within tolerance: stop exploring (no further trials
			// run), report a worse score so mayfly's own convergence check
			// doesn't keep nudging this candidate.
			return c.Best.Worst(c.NBests) + 1
		}

		// The swarm can evaluate more positions than the local window
		// holds (population-init plus per-generation offspring easily
		// exceeds window once a rank's share is small), so slots past
		// end-1 are reused to stage each trial. Offer is handed vals
		// directly rather than reading the shared row back later, so a
		// retained Best-K entry never goes stale when its slot gets
		// overwritten by a subsequent, non-displacing evaluation.
		i := next
		if next < end-1 {
			next++
		}
		vals := denormalize(pos, c.Variables)
		for j, v := range vals {
			c.SetValueAt(i, j, v)
		}

		score := trial.Score(ctx, c, i)
		c.Best.Offer(i, score, vals, c.NBests, threaded)
		return score
	}

	if _, err := mayfly.Optimize(cfg); err != nil {
		return fmt.Errorf("genetic strategy: %w", err)
	}
	return nil
}

// denormalize maps each position component x in [0,1] to
// vars[k].Min + x*(vars[k].Max-vars[k].Min), clamping out-of-range input.
func denormalize(pos []float64, vars []calibrate.Variable) []float64 {
	out := make([]float64, len(vars))
	for k, v := range vars {
		x := 0.0
		if k < len(pos) {
			x = pos[k]
		}
		out[k] = v.Min + numeric.Clamp(x, 0, 1)*(v.Max-v.Min)
	}
	return out
}
