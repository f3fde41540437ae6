package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/calibrator/calibrate"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
	return path
}

func TestLoadMonteCarlo(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir) // template paths in the document are relative to the working directory
	writeFile(t, dir, "tmpl1", "@value1@")
	writeFile(t, dir, "observed1", "ref")

	doc := `<calibrate simulator="sim" evaluator="eval" simulations="20" iterations="3" bests="2">
  <experiment name="observed1" template1="tmpl1"/>
  <variable name="x" minimum="0" maximum="10"/>
</calibrate>`
	path := writeFile(t, dir, "config.xml", doc)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	defer c.Close()

	if c.Algorithm != calibrate.MonteCarlo {
		t.Fatalf("Algorithm = %v, want MonteCarlo", c.Algorithm)
	}
	if c.NSimulations != 20 {
		t.Fatalf("NSimulations = %d, want 20", c.NSimulations)
	}
	if c.Iterations != 3 {
		t.Fatalf("Iterations = %d, want 3", c.Iterations)
	}
	if c.NBests != 2 {
		t.Fatalf("NBests = %d, want 2", c.NBests)
	}
	if len(c.Variables) != 1 || c.Variables[0].Name != "x" {
		t.Fatalf("Variables = %+v, want one variable named x", c.Variables)
	}
	if len(c.Values) != c.NSimulations*c.NVariables() {
		t.Fatalf("len(Values) = %d, want %d", len(c.Values), c.NSimulations*c.NVariables())
	}
}

func TestLoadSweepComputesSimulationsFromVariables(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir) // template paths in the document are relative to the working directory
	writeFile(t, dir, "tmpl1", "@value1@")
	writeFile(t, dir, "observed1", "ref")

	doc := `<calibrate simulator="sim" evaluator="eval" algorithm="sweep">
  <experiment name="observed1" template1="tmpl1"/>
  <variable name="x" minimum="0" maximum="10" sweeps="5"/>
  <variable name="y" minimum="-1" maximum="1" sweeps="3"/>
</calibrate>`
	path := writeFile(t, dir, "config.xml", doc)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	defer c.Close()

	if c.Algorithm != calibrate.Sweep {
		t.Fatalf("Algorithm = %v, want Sweep", c.Algorithm)
	}
	if c.NSimulations != 15 {
		t.Fatalf("NSimulations = %d, want 15", c.NSimulations)
	}
}

func TestLoadRejectsMismatchedTemplateCounts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tmpl1", "@value1@")
	writeFile(t, dir, "tmpl2", "@value1@")
	writeFile(t, dir, "observed1", "ref")
	writeFile(t, dir, "observed2", "ref")

	doc := `<calibrate simulator="sim" evaluator="eval" simulations="10">
  <experiment name="observed1" template1="tmpl1"/>
  <experiment name="observed2" template1="tmpl1" template2="tmpl2"/>
  <variable name="x" minimum="0" maximum="10"/>
</calibrate>`
	path := writeFile(t, dir, "config.xml", doc)

	if _, err := Load(path); err == nil {
		t.Fatalf("Load() with mismatched template counts expected error")
	}
}

func TestLoadRejectsInvertedRange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tmpl1", "@value1@")
	writeFile(t, dir, "observed1", "ref")

	doc := `<calibrate simulator="sim" evaluator="eval" simulations="10">
  <experiment name="observed1" template1="tmpl1"/>
  <variable name="x" minimum="10" maximum="0"/>
</calibrate>`
	path := writeFile(t, dir, "config.xml", doc)

	if _, err := Load(path); err == nil {
		t.Fatalf("Load() with minimum > maximum expected error")
	}
}

func TestLoadRejectsMissingSimulator(t *testing.T) {
	dir := t.TempDir()
	doc := `<calibrate evaluator="eval" simulations="10"></calibrate>`
	path := writeFile(t, dir, "config.xml", doc)

	if _, err := Load(path); err == nil {
		t.Fatalf("Load() with missing simulator expected error")
	}
}
