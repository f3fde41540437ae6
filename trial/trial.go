// Package trial runs one (candidate, experiment) pair: rendering its input
// files, spawning the simulator and evaluator as external processes, and
// parsing the resulting scalar score.
package trial

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cwbudde/calibrator/calibrate"
	"github.com/cwbudde/calibrator/render"
)

// Run renders the candidate's inputs for one experiment, runs the
// simulator then the evaluator against them, and returns the evaluator's
// reported score. A failure at any step is reported as a *calibrate.TrialError
// and math.Inf(1) — the caller treats that as "never enters Best-K".
func Run(ctx context.Context, c *calibrate.Calibration, candidate, experiment int) (float64, error) {
	names, err := renderInputs(c, candidate, experiment)
	if err != nil {
		if !c.Debug {
			removeAll(c.WorkDir, names...)
		}
		return math.Inf(1), &calibrate.TrialError{Candidate: candidate, Experiment: experiment, Err: err}
	}

	outputName := fmt.Sprintf("output-%d-%d", candidate, experiment)
	resultName := fmt.Sprintf("result-%d-%d", candidate, experiment)
	transients := append(append([]string{}, names...), outputName, resultName)
	if !c.Debug {
		defer removeAll(c.WorkDir, transients...)
	}

	args := make([]string, 4)
	copy(args, names)
	args = append(args, outputName)
	if err := runProgram(ctx, c.WorkDir, c.Simulator, args...); err != nil {
		return math.Inf(1), &calibrate.TrialError{Candidate: candidate, Experiment: experiment, Err: err}
	}

	if err := runProgram(ctx, c.WorkDir, c.Evaluator, outputName, c.Experiments[experiment].Observed, resultName); err != nil {
		return math.Inf(1), &calibrate.TrialError{Candidate: candidate, Experiment: experiment, Err: err}
	}

	score, err := readScore(filepath.Join(c.WorkDir, resultName))
	if err != nil {
		return math.Inf(1), &calibrate.TrialError{Candidate: candidate, Experiment: experiment, Err: err}
	}
	return score, nil
}

// renderInputs renders every input slot for (candidate, experiment),
// returning the transient filenames it wrote. Missing slots (NTemplates <
// 4) are left as empty strings so the simulator invocation still passes
// four positional arguments.
func renderInputs(c *calibrate.Calibration, candidate, experiment int) ([]string, error) {
	names := make([]string, 4)
	for slot := 0; slot < c.NTemplates; slot++ {
		name := render.InputName(slot, candidate, experiment)
		names[slot] = name
		tmpl := c.Templates[slot][experiment]
		if err := render.Render(c.Variables, c.RowAt(candidate), tmpl, filepath.Join(c.WorkDir, name)); err != nil {
			return names, err
		}
	}
	return names, nil
}

func runProgram(ctx context.Context, dir, program string, args ...string) error {
	cmd := exec.CommandContext(ctx, "./"+program, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", program, strings.Join(args, " "), err, out)
	}
	return nil
}

func readScore(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return 0, fmt.Errorf("empty result file")
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(scanner.Text()), 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable score: %w", err)
	}
	return score, nil
}

func removeAll(dir string, names ...string) {
	for _, name := range names {
		if name == "" {
			continue
		}
		os.Remove(filepath.Join(dir, name))
	}
}
