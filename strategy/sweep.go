package strategy

import "github.com/cwbudde/calibrator/calibrate"

// populateSweep treats candidate index i as a mixed-radix number over the
// variables, with radix nsweeps[j] for variable j.
// Endpoints are inclusive: value is the range minimum when a variable's
// sweep count is 1, otherwise evenly spaced across [min, max].
func populateSweep(c *calibrate.Calibration, start, end int) {
	nv := c.NVariables()
	for i := start; i < end; i++ {
		k := i
		for j := 0; j < nv; j++ {
			v := c.Variables[j]
			l := k % v.Sweeps
			k /= v.Sweeps
			value := v.Min
			if v.Sweeps > 1 {
				value += float64(l) * (v.Max - v.Min) / float64(v.Sweeps-1)
			}
			c.SetValueAt(i, j, value)
		}
	}
}

// NSimulationsForSweep returns the product of every variable's sweep
// count, i.e. the total candidate count for the Sweep algorithm.
func NSimulationsForSweep(vars []calibrate.Variable) int {
	n := 1
	for _, v := range vars {
		n *= v.Sweeps
	}
	return n
}
