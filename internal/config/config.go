// Package config decodes a calibration document into a calibrate.Calibration,
// opening and memory-mapping every template file it references.
package config

import (
	"encoding/xml"
	"fmt"
	"os"

	"golang.org/x/exp/mmap"

	"github.com/cwbudde/calibrator/calibrate"
)

// document mirrors the tree-structured configuration: a root calibrate
// element with a run of experiment children followed by a run of variable
// children, exactly as the original program walks calibrate->children.
type document struct {
	XMLName xml.Name `xml:"calibrate"`

	Simulator   string `xml:"simulator,attr"`
	Evaluator   string `xml:"evaluator,attr"`
	Algorithm   string `xml:"algorithm,attr"`
	Simulations int    `xml:"simulations,attr"`
	Iterations  int    `xml:"iterations,attr"`
	Bests       int    `xml:"bests,attr"`
	Tolerance   float64 `xml:"tolerance,attr"`

	Experiments []xmlExperiment `xml:"experiment"`
	Variables   []xmlVariable   `xml:"variable"`
}

type xmlExperiment struct {
	Name      string `xml:"name,attr"`
	Template1 string `xml:"template1,attr"`
	Template2 string `xml:"template2,attr"`
	Template3 string `xml:"template3,attr"`
	Template4 string `xml:"template4,attr"`
}

type xmlVariable struct {
	Name    string `xml:"name,attr"`
	Minimum string `xml:"minimum,attr"`
	Maximum string `xml:"maximum,attr"`
	Format  string `xml:"format,attr"`
	Sweeps  string `xml:"sweeps,attr"`
}

func (e xmlExperiment) templates() []string {
	all := []string{e.Template1, e.Template2, e.Template3, e.Template4}
	out := make([]string, 0, 4)
	for _, t := range all {
		if t == "" {
			break
		}
		out = append(out, t)
	}
	return out
}

// Load parses path as a calibration document and returns a ready-to-run
// Calibration with every template memory-mapped. On any error, every
// template opened so far is closed and a *calibrate.ConfigError is
// returned; there is never a partially usable Calibration.
func Load(path string) (*calibrate.Calibration, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, calibrate.NewConfigError(path, "%v", err)
	}

	var doc document
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, calibrate.NewConfigError(path, "malformed configuration: %v", err)
	}

	if doc.Simulator == "" {
		return nil, calibrate.NewConfigError(path, "no simulator in the data file")
	}
	if doc.Evaluator == "" {
		return nil, calibrate.NewConfigError(path, "no evaluator in the data file")
	}

	c := &calibrate.Calibration{
		Simulator:  doc.Simulator,
		Evaluator:  doc.Evaluator,
		Iterations: 1,
		NBests:     1,
		Tolerance:  doc.Tolerance,
	}
	if doc.Iterations > 0 {
		c.Iterations = doc.Iterations
	}
	if doc.Bests > 0 {
		c.NBests = doc.Bests
	}

	switch doc.Algorithm {
	case "":
		c.Algorithm = calibrate.MonteCarlo
		if doc.Simulations <= 0 {
			return nil, calibrate.NewConfigError(path, "no simulations number in the data file")
		}
		c.NSimulations = doc.Simulations
	case "sweep":
		c.Algorithm = calibrate.Sweep
	default:
		c.Algorithm = calibrate.Genetic
		if doc.Simulations <= 0 {
			return nil, calibrate.NewConfigError(path, "no simulations number in the data file")
		}
		c.NSimulations = doc.Simulations
	}

	if len(doc.Experiments) == 0 {
		return nil, calibrate.NewConfigError(path, "no calibration experiments")
	}

	experiments := make([]calibrate.Experiment, len(doc.Experiments))
	templates := make([][]string, len(doc.Experiments))
	ntemplates := -1
	for i, e := range doc.Experiments {
		if e.Name == "" {
			return nil, calibrate.NewConfigError(path, "no experiment %d file name", i+1)
		}
		t := e.templates()
		if len(t) == 0 {
			return nil, calibrate.NewConfigError(path, "no experiment %d template1", i+1)
		}
		if ntemplates == -1 {
			ntemplates = len(t)
		} else if len(t) != ntemplates {
			return nil, calibrate.NewConfigError(path, "experiment %d: bad templates number", i+1)
		}
		experiments[i] = calibrate.Experiment{Observed: e.Name, Templates: t}
		templates[i] = t
	}
	c.NTemplates = ntemplates
	c.Experiments = experiments

	if len(doc.Variables) == 0 {
		return nil, calibrate.NewConfigError(path, "no calibration variables")
	}

	variables := make([]calibrate.Variable, len(doc.Variables))
	sweepTotal := 1
	for j, v := range doc.Variables {
		if v.Name == "" {
			return nil, calibrate.NewConfigError(path, "no variable %d name", j+1)
		}
		min, ok := parseFloat(v.Minimum)
		if !ok {
			return nil, calibrate.NewConfigError(path, "no variable %d minimum range", j+1)
		}
		max, ok := parseFloat(v.Maximum)
		if !ok {
			return nil, calibrate.NewConfigError(path, "no variable %d maximum range", j+1)
		}
		if min > max {
			return nil, calibrate.NewConfigError(path, "variable %d: minimum exceeds maximum", j+1)
		}
		format := v.Format
		if format == "" {
			format = calibrate.DefaultFormat
		}

		variable := calibrate.Variable{Name: v.Name, Format: format, Min: min, Max: max}
		if c.Algorithm == calibrate.Sweep {
			sweeps, ok := parseInt(v.Sweeps)
			if !ok || sweeps < 1 {
				return nil, calibrate.NewConfigError(path, "no variable %d sweeps number", j+1)
			}
			variable.Sweeps = sweeps
			sweepTotal *= sweeps
		}
		variables[j] = variable
	}
	c.Variables = variables
	if c.Algorithm == calibrate.Sweep {
		c.NSimulations = sweepTotal
	}

	mapped, err := openTemplates(templates)
	if err != nil {
		return nil, calibrate.NewConfigError(path, "%v", err)
	}
	c.Templates = mapped

	c.Values = make([]float64, c.NSimulations*c.NVariables())
	return c, nil
}

// openTemplates memory-maps every (slot, experiment) template exactly
// once, returning Templates[slot][experiment]. On the first failure,
// every handle opened so far is closed before returning the error.
func openTemplates(perExperiment [][]string) ([][]calibrate.TemplateFile, error) {
	if len(perExperiment) == 0 {
		return nil, nil
	}
	ntemplates := len(perExperiment[0])
	nexperiments := len(perExperiment)

	slots := make([][]calibrate.TemplateFile, ntemplates)
	for slot := range slots {
		slots[slot] = make([]calibrate.TemplateFile, nexperiments)
	}

	closeAll := func() {
		for _, slot := range slots {
			for _, f := range slot {
				if f != nil {
					f.Close()
				}
			}
		}
	}

	for experiment, names := range perExperiment {
		for slot, name := range names {
			f, err := newMappedTemplate(name)
			if err != nil {
				closeAll()
				return nil, fmt.Errorf("template %q: %w", name, err)
			}
			slots[slot][experiment] = f
		}
	}
	return slots, nil
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	var v float64
	if _, err := fmt.Sscanf(s, "%g", &v); err != nil {
		return 0, false
	}
	return v, true
}

func parseInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	var v int
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return 0, false
	}
	return v, true
}

// mappedTemplate is a calibrate.TemplateFile backed by a memory-mapped
// file: the mapping is opened once at load time and its contents read
// once into memory, since every render of this template re-reads the
// same bytes for the calibration's whole lifetime.
type mappedTemplate struct {
	reader *mmap.ReaderAt
	data   []byte
}

func newMappedTemplate(path string) (*mappedTemplate, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	data := make([]byte, r.Len())
	if _, err := r.ReadAt(data, 0); err != nil {
		r.Close()
		return nil, err
	}
	return &mappedTemplate{reader: r, data: data}, nil
}

func (m *mappedTemplate) Bytes() []byte { return m.data }
func (m *mappedTemplate) Close() error  { return m.reader.Close() }
