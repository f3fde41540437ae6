// Package calibrate defines the data model shared by every stage of a
// calibration run: the declarative parameters read from the configuration
// document, the parameter matrix filled in by a search strategy, and the
// Best-K register that accumulates the lowest-error candidates seen.
package calibrate

import (
	"fmt"

	"github.com/cwbudde/calibrator/bestk"
)

// Algorithm selects which search strategy populates the parameter matrix.
type Algorithm int

const (
	MonteCarlo Algorithm = iota
	Sweep
	Genetic
)

func (a Algorithm) String() string {
	switch a {
	case MonteCarlo:
		return "montecarlo"
	case Sweep:
		return "sweep"
	case Genetic:
		return "genetic"
	default:
		return fmt.Sprintf("algorithm(%d)", int(a))
	}
}

// DefaultFormat is used for a Variable that declares no explicit format.
const DefaultFormat = "%g"

// Variable is one calibrated parameter: a name used in template
// placeholders, a printing format, an inclusive range, and (Sweep only) a
// sample count.
type Variable struct {
	Name   string
	Format string
	Min    float64
	Max    float64

	// Sweeps is the number of evenly spaced samples on [Min, Max],
	// endpoints inclusive. Required when Algorithm == Sweep.
	Sweeps int
}

// Print formats v using the variable's format string, falling back to
// DefaultFormat when none was set.
func (v Variable) Print(value float64) string {
	format := v.Format
	if format == "" {
		format = DefaultFormat
	}
	return fmt.Sprintf(format, value)
}

// Experiment names one set of observed reference data and the template
// files that render the simulator's per-experiment input files.
type Experiment struct {
	// Observed is the path to the reference experimental data file, handed
	// to the evaluator as its second argument.
	Observed string

	// Templates holds 1 to 4 template file paths. Every Experiment in a
	// Calibration must declare the same length here.
	Templates []string
}

// Calibration is the root object driving one calibration run: the
// simulator/evaluator programs, the search algorithm, the variables and
// experiments, and the working state (parameter matrix, Best-K register)
// a run mutates as it executes.
type Calibration struct {
	Simulator string
	Evaluator string
	Algorithm Algorithm

	Variables   []Variable
	Experiments []Experiment

	// NTemplates is the template count every Experiment must share (1..4),
	// fixed by the first experiment at load time.
	NTemplates int

	Iterations int
	NBests     int
	Tolerance  float64

	// Workers is the intra-rank worker goroutine count.
	Workers int
	// Rank and Ranks describe this process's position in a clustered run;
	// Ranks == 1 for a single-process run.
	Rank  int
	Ranks int

	// Seed deterministically seeds the Monte-Carlo/Genetic random draws.
	// Zero means "use the package default seed", matching the original
	// program's fixed RANDOM_SEED.
	Seed int64

	// NSimulations is the total candidate count: a configured constant for
	// MonteCarlo/Genetic, or the product of all Variables' Sweeps for
	// Sweep.
	NSimulations int

	// Values is the dense, row-major parameter matrix:
	// Values[i*len(Variables)+j] is the j-th parameter of candidate i.
	// Populated by the search strategy before workers run; read-only
	// during worker execution.
	Values []float64

	// Templates holds one memory-mapped handle per (slot, experiment)
	// pair: Templates[slot][experiment]. Opened once at load time and
	// reused across every candidate's render.
	Templates [][]TemplateFile

	// Debug retains trial transient files instead of deleting them. The
	// transient filenames are the same as in a non-debug run.
	Debug bool

	// WorkDir is the directory trial transients are written to and
	// removed from. Defaults to the current working directory.
	WorkDir string

	Best bestk.Register
}

// TemplateFile is the minimal surface Calibration needs from a
// memory-mapped template: its raw contents and an explicit Close so the
// mapping can be released at teardown.
type TemplateFile interface {
	Bytes() []byte
	Close() error
}

// NVariables returns the number of calibrated parameters.
func (c *Calibration) NVariables() int {
	return len(c.Variables)
}

// NExperiments returns the number of experiments.
func (c *Calibration) NExperiments() int {
	return len(c.Experiments)
}

// ValueAt returns the j-th parameter of candidate i.
func (c *Calibration) ValueAt(i, j int) float64 {
	return c.Values[i*len(c.Variables)+j]
}

// SetValueAt sets the j-th parameter of candidate i.
func (c *Calibration) SetValueAt(i, j int, v float64) {
	c.Values[i*len(c.Variables)+j] = v
}

// RowAt returns a copy of candidate i's full parameter row, safe to retain
// past a later write to Values (e.g. a strategy reusing candidate i's slot).
func (c *Calibration) RowAt(i int) []float64 {
	n := len(c.Variables)
	row := make([]float64, n)
	copy(row, c.Values[i*n:i*n+n])
	return row
}

// Close releases every memory-mapped template. Safe to call once at
// teardown; a close error does not stop the loop, so every handle gets a
// chance to release, and the first such error is returned.
func (c *Calibration) Close() error {
	var firstErr error
	for _, slot := range c.Templates {
		for _, f := range slot {
			if f == nil {
				continue
			}
			if err := f.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// RangeMin and RangeMax index directly into Variables; they exist so
// strategies can read ranges without repeating Variables[j].Min/.Max at
// every call site.
func (c *Calibration) RangeMin(j int) float64 { return c.Variables[j].Min }
func (c *Calibration) RangeMax(j int) float64 { return c.Variables[j].Max }

// Worst returns the highest (least fit) score currently retained in the
// Best-K register, or +Inf if the register isn't full yet.
func (c *Calibration) Worst() float64 {
	return c.Best.Worst(c.NBests)
}
