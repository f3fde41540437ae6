package trial

import (
	"context"
	"math"

	"github.com/cwbudde/calibrator/calibrate"
)

// Score runs one candidate across every experiment and sums the resulting
// scores, exactly as the original program's calibrate_thread/
// calibrate_sequential accumulate e += calibrate_parse(...) per
// experiment. If any single experiment's trial fails, the candidate's
// aggregate score is +Inf so it can never enter the Best-K register.
func Score(ctx context.Context, c *calibrate.Calibration, candidate int) float64 {
	total := 0.0
	for experiment := range c.Experiments {
		score, err := Run(ctx, c, candidate, experiment)
		if err != nil {
			return math.Inf(1)
		}
		total += score
	}
	return total
}
