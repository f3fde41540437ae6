package coordinate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/calibrator/bestk"
	"github.com/cwbudde/calibrator/calibrate"
	"github.com/cwbudde/calibrator/cluster"
)

type fakeTemplate struct{ content []byte }

func (f fakeTemplate) Bytes() []byte { return f.content }
func (f fakeTemplate) Close() error  { return nil }

func writeFakeProgram(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// newSweepCalibration wires a 1-variable Sweep calibration whose fake
// evaluator scores |x-4.2|.
func newSweepCalibration(t *testing.T, workers int) *calibrate.Calibration {
	t.Helper()
	dir := t.TempDir()
	writeFakeProgram(t, dir, "simulator", `cp "$1" "$5"`)
	writeFakeProgram(t, dir, "evaluator", `
value=$(cat "$1")
awk -v v="$value" -v t=4.2 'BEGIN { d = v - t; if (d < 0) d = -d; print d }' > "$3"
`)
	observed := filepath.Join(dir, "observed.txt")
	os.WriteFile(observed, []byte("x"), 0o644)

	vars := []calibrate.Variable{{Name: "x", Format: "%.4f", Min: 0, Max: 10, Sweeps: 11}}
	return &calibrate.Calibration{
		Simulator:  "simulator",
		Evaluator:  "evaluator",
		Algorithm:  calibrate.Sweep,
		Variables:  vars,
		NTemplates: 1,
		Iterations: 1,
		NBests:     1,
		Workers:    workers,
		Rank:       0,
		Ranks:      1,
		Experiments: []calibrate.Experiment{
			{Observed: observed, Templates: []string{"tmpl1"}},
		},
		Templates: [][]calibrate.TemplateFile{
			{fakeTemplate{content: []byte("@value1@")}},
		},
		NSimulations: 11,
		Values:       make([]float64, 11),
		WorkDir:      dir,
		Debug:        true,
	}
}

func TestRunFindsNearestSweepCandidate(t *testing.T) {
	c := newSweepCalibration(t, 4)

	if err := Run(context.Background(), c, nil); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	best, ok := c.Best.Best()
	if !ok {
		t.Fatalf("Best() found no candidate")
	}
	got := c.ValueAt(best.Candidate, 0)
	if got != 4.0 {
		t.Fatalf("winning candidate value = %v, want 4.0", got)
	}
	if best.Score < 0.19 || best.Score > 0.21 {
		t.Fatalf("winning candidate score = %v, want ~0.2", best.Score)
	}
}

func TestRunReportsEveryRound(t *testing.T) {
	c := newSweepCalibration(t, 2)
	c.Iterations = 3

	var rounds []int
	report := func(round, iterations int, worst float64) {
		rounds = append(rounds, round)
	}
	if err := Run(context.Background(), c, report); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(rounds) != 3 {
		t.Fatalf("report called %d times, want 3", len(rounds))
	}
}

func TestMergeRanksOnlyRootReturnsResult(t *testing.T) {
	transport := cluster.NewLocal(2)

	local0 := bestk.NewRegister()
	local0.Offer(0, 1.0, nil, 1, false)
	local1 := bestk.NewRegister()
	local1.Offer(1, 0.5, nil, 1, false)

	nonRoot, err := MergeRanks(transport, 1, 1, local1)
	if err != nil {
		t.Fatalf("MergeRanks(rank=1) error: %v", err)
	}
	if nonRoot != nil {
		t.Fatalf("MergeRanks(rank=1) = %v, want nil", nonRoot)
	}

	root, err := MergeRanks(transport, 0, 1, local0)
	if err != nil {
		t.Fatalf("MergeRanks(rank=0) error: %v", err)
	}
	if len(root) != 1 || root[0].Score != 0.5 {
		t.Fatalf("MergeRanks(rank=0) = %v, want [{1 0.5}]", root)
	}
}
